// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"log/slog"
	"strings"
	"time"

	"github.com/timebox-foundation/timebox/lib/clock"
	"github.com/timebox-foundation/timebox/timebox"
)

// throttleDelay is the pause between successive reply lines of one
// command, to avoid tripping server flood protection. The first reply
// of each dispatch goes out immediately.
const throttleDelay = 1 * time.Second

// RouterConfig holds the dependencies for creating a Router.
type RouterConfig struct {
	// Nick is the bot's own nickname, used to detect private messages.
	Nick string

	// Prefix is the configured command prefix.
	Prefix string

	// Blocked lists words refused as command parameters.
	Blocked []string

	// Registry is the command set. If nil, DefaultRegistry() is used.
	Registry *Registry

	// Store is the shared timebox store.
	Store *timebox.Store

	// Clock drives the inter-reply throttle. If nil, clock.Real() is
	// used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Router maps incoming chat lines to commands and sends their
// replies.
type Router struct {
	nick     string
	prefix   string
	blocked  []string
	registry *Registry
	store    *timebox.Store
	clock    clock.Clock
	logger   *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(cfg RouterConfig) *Router {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		nick:     cfg.Nick,
		prefix:   cfg.Prefix,
		blocked:  cfg.Blocked,
		registry: registry,
		store:    cfg.Store,
		clock:    clk,
		logger:   logger,
	}
}

// Dispatch routes one chat line from sender, addressed to recipient.
// Replies go to the sender for private messages (recipient equals the
// bot's nick) and to the channel otherwise, delivered through send.
//
// Policy violations (unknown command, wrong context, blocked word)
// become single error replies. A command failure is logged and
// swallowed — the connection stays alive. Only send failures are
// returned: they are transport errors the connection cycle must see.
func (r *Router) Dispatch(sender, recipient, text string, send func(target, text string) error) error {
	private := recipient == r.nick
	replyTo := recipient
	if private {
		replyTo = sender
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	candidate := strings.TrimPrefix(words[0], r.prefix)
	params := words[1:]

	matches := r.registry.Match(candidate)
	if len(matches) == 0 {
		return send(replyTo, "Error: Unrecognized command.  Available commands: "+
			commandList(r.prefix, r.registry.Commands())+".")
	}
	if len(matches) > 1 {
		return send(replyTo, "Error: Ambiguous command.  Matching commands: "+
			commandList(r.prefix, matches)+".")
	}

	command := matches[0]
	if private && !command.Private() {
		return send(replyTo, "Error: This command must be sent in channel.")
	}
	if !private && !command.Public() {
		return send(replyTo, "Error: This command must be sent in private.")
	}
	if word, found := r.blockedWord(params); found {
		r.logger.Info("refused blocked word", "command", command.Name(), "sender", sender, "word", word)
		return send(replyTo, "Error: Parameters contain blocked word.")
	}

	replies, err := command.Invoke(Request{
		Prefix:   r.prefix,
		Sender:   sender,
		ReplyTo:  replyTo,
		Params:   params,
		Registry: r.registry,
		Store:    r.store,
		Now:      r.clock.Now(),
	})
	if err != nil {
		r.logger.Error("command failed", "command", command.Name(), "sender", sender, "error", err)
		return nil
	}

	for i, reply := range replies {
		if i > 0 {
			r.clock.Sleep(throttleDelay)
		}
		if err := send(replyTo, reply); err != nil {
			return err
		}
	}
	return nil
}

// blockedWord returns the first parameter that exactly matches a
// blocked word.
func (r *Router) blockedWord(params []string) (string, bool) {
	for _, word := range r.blocked {
		for _, param := range params {
			if param == word {
				return word, true
			}
		}
	}
	return "", false
}
