// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/timebox-foundation/timebox/irc"
	"github.com/timebox-foundation/timebox/lib/clock"
	"github.com/timebox-foundation/timebox/lib/config"
	"github.com/timebox-foundation/timebox/statefile"
	"github.com/timebox-foundation/timebox/timebox"
)

// Reconnect backoff bounds. The delay starts at initialRetryDelay,
// doubles on every failed connection cycle, and never exceeds
// maxRetryDelay. Processing a server keepalive PING — not merely
// connecting — resets the delay, so a connection that dies right
// after a ping still retries quickly, while one that never reaches a
// ping backs off fully.
const (
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 3600 * time.Second
)

// DialFunc opens a transport connection. Tests substitute an
// in-memory pipe.
type DialFunc func(host string, port int, useTLS bool, logger *slog.Logger) (*irc.Conn, error)

// ClientConfig holds the dependencies for creating a Client.
type ClientConfig struct {
	// Config is the validated daemon configuration.
	Config *config.Config

	// Store is the timebox store, loaded from the state file at
	// startup. It survives reconnects — its lifetime is the process,
	// not the connection.
	Store *timebox.Store

	// Clock drives ticks, the reply throttle, and backoff sleeps. If
	// nil, clock.Real() is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Dial opens the transport connection. If nil, irc.Dial is used.
	Dial DialFunc
}

// Client is the connection lifecycle manager: it owns the socket,
// drives authentication and joins, runs the receive loop, and
// reconnects with backoff when a cycle fails.
type Client struct {
	cfg    *config.Config
	store  *timebox.Store
	router *Router
	clock  clock.Clock
	logger *slog.Logger
	dial   DialFunc

	retryDelay time.Duration
}

// NewClient creates a Client with the default command registry.
func NewClient(cfg ClientConfig) *Client {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dial := cfg.Dial
	if dial == nil {
		dial = irc.Dial
	}
	return &Client{
		cfg:   cfg.Config,
		store: cfg.Store,
		router: NewRouter(RouterConfig{
			Nick:    cfg.Config.Nick,
			Prefix:  cfg.Config.Prefix,
			Blocked: cfg.Config.Block,
			Store:   cfg.Store,
			Clock:   clk,
			Logger:  logger,
		}),
		clock:      clk,
		logger:     logger,
		dial:       dial,
		retryDelay: initialRetryDelay,
	}
}

// Run drives connection cycles until ctx is cancelled. Every cycle
// failure is logged and followed by a backoff sleep; the loop itself
// never gives up.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Error("connection cycle failed", "error", err)
		c.logger.Info("reconnecting", "delay", c.retryDelay)
		c.clock.Sleep(c.retryDelay)
		c.retryDelay = nextRetryDelay(c.retryDelay)
	}
}

// nextRetryDelay doubles the backoff delay up to maxRetryDelay.
func nextRetryDelay(delay time.Duration) time.Duration {
	return min(delay*2, maxRetryDelay)
}

// run executes one connection cycle: connect, authenticate, join,
// then receive until the transport fails or ctx is cancelled. The
// returned error is always non-nil.
func (c *Client) run(ctx context.Context) error {
	c.logger.Info("connecting", "host", c.cfg.Host, "port", c.cfg.Port, "tls", c.cfg.UseTLS())
	conn, err := c.dial(c.cfg.Host, c.cfg.Port, c.cfg.UseTLS(), c.logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.logger.Info("authenticating", "nick", c.cfg.Nick)
	auth := []string{
		"PASS " + c.cfg.Password,
		"NICK " + c.cfg.Nick,
		fmt.Sprintf("USER %s %s %s :%s", c.cfg.Nick, c.cfg.Nick, c.cfg.Host, c.cfg.Nick),
	}
	for _, line := range auth {
		if err := conn.SendLine(line); err != nil {
			return err
		}
	}

	c.logger.Info("joining channels", "channels", c.cfg.Channels)
	for _, channel := range c.cfg.Channels {
		if err := conn.SendLine("JOIN " + channel); err != nil {
			return err
		}
	}

	c.logger.Info("receiving messages")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, ok, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if ok {
			if err := c.handleLine(conn, line); err != nil {
				return err
			}
		}

		// Every iteration — with or without traffic — drives the
		// store's time-based transitions and persists the result.
		for _, completed := range c.store.Tick(c.clock.Now()) {
			c.logger.Info("timebox completed", "person", completed.Person, "reply_to", completed.ReplyTo)
			if err := conn.SendMessage(completed.ReplyTo, "Completed timebox: "+completed.String()); err != nil {
				return err
			}
		}
		if err := statefile.Save(c.cfg.State, c.store); err != nil {
			return err
		}
	}
}

// handleLine reacts to one received protocol line. Only PING and
// PRIVMSG are acted on; everything else is ignored.
func (c *Client) handleLine(conn *irc.Conn, line string) error {
	msg, err := irc.Parse(line)
	if err != nil {
		c.logger.Debug("ignoring unparseable line", "error", err)
		return nil
	}

	switch msg.Command {
	case "PING":
		if err := conn.SendLine("PONG :" + msg.Trailing); err != nil {
			return err
		}
		// A served keepalive proves the connection is genuinely
		// healthy; retry fast if it dies later.
		c.retryDelay = initialRetryDelay

	case "PRIVMSG":
		c.logger.Info("privmsg", "sender", msg.Sender, "recipient", msg.Middle, "text", msg.Trailing)
		if msg.Sender != "" && msg.Middle != "" && msg.Trailing != "" &&
			strings.HasPrefix(msg.Trailing, c.cfg.Prefix) {
			return c.router.Dispatch(msg.Sender, msg.Middle, msg.Trailing, conn.SendMessage)
		}
	}
	return nil
}
