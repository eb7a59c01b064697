// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package irc

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

// pollTimeout bounds a single transport read. The absence of input
// within this window surfaces as an explicit "no line available"
// result from ReadLine, which is what lets the caller interleave
// periodic work with receiving.
const pollTimeout = 1 * time.Second

// maxChunk is the longest chat-message chunk sent in one PRIVMSG, in
// characters. IRC servers truncate long lines; 400 leaves headroom
// for the command, target, and server-added prefix.
const maxChunk = 400

// ErrClosed reports that the server closed the connection (a
// zero-length read). It is a transport error: the current connection
// cycle is over and the caller should reconnect.
var ErrClosed = errors.New("irc: connection closed by server")

// Conn is a line-oriented IRC connection. It is not safe for
// concurrent use; the daemon's single event loop is the only caller.
type Conn struct {
	conn    net.Conn
	logger  *slog.Logger
	timeout time.Duration

	readBuf []byte
	partial string   // bytes received after the last CRLF
	pending []string // complete lines not yet returned
}

// Dial opens a connection to host:port, upgrading to TLS verified
// against host when useTLS is set.
func Dial(host string, port int, useTLS bool, logger *slog.Logger) (*Conn, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	var netConn net.Conn
	var err error
	if useTLS {
		netConn, err = tls.Dial("tcp", address, &tls.Config{ServerName: host})
	} else {
		netConn, err = net.Dial("tcp", address)
	}
	if err != nil {
		return nil, fmt.Errorf("irc: connecting to %s: %w", address, err)
	}
	return NewConn(netConn, logger), nil
}

// NewConn wraps an established transport connection. Used by Dial and
// by tests that drive the protocol over an in-memory pipe.
func NewConn(netConn net.Conn, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		conn:    netConn,
		logger:  logger,
		timeout: pollTimeout,
		readBuf: make([]byte, 1024),
	}
}

// ReadLine polls the connection for the next protocol line.
//
// It returns (line, true, nil) when a complete line is available,
// (_, false, nil) when no line arrived within the poll window, and
// (_, false, err) on a transport error. A zero-length read (server
// closed the connection) is returned as an error wrapping ErrClosed,
// never as a silent end-of-stream.
func (c *Conn) ReadLine() (string, bool, error) {
	if line, ok := c.popLine(); ok {
		return line, true, nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", false, fmt.Errorf("irc: setting read deadline: %w", err)
	}

	n, err := c.conn.Read(c.readBuf)
	if n > 0 {
		c.partial += string(c.readBuf[:n])
		c.splitLines()
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// Poll window elapsed; fall through to whatever the read
			// produced before the deadline hit.
		} else if errors.Is(err, io.EOF) {
			// The server may close the connection in the same packet
			// that carries its final lines. Hand those out first; the
			// next poll reads zero bytes and reports the close.
			if line, ok := c.popLine(); ok {
				return line, true, nil
			}
			return "", false, ErrClosed
		} else {
			return "", false, fmt.Errorf("irc: read: %w", err)
		}
	}

	line, ok := c.popLine()
	return line, ok, nil
}

// splitLines moves complete CRLF-terminated lines from the partial
// buffer to the pending queue. One read can complete several lines.
func (c *Conn) splitLines() {
	for {
		line, rest, found := strings.Cut(c.partial, "\r\n")
		if !found {
			return
		}
		c.logger.Debug("recv", "line", line)
		c.pending = append(c.pending, line)
		c.partial = rest
	}
}

func (c *Conn) popLine() (string, bool) {
	if len(c.pending) == 0 {
		return "", false
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, true
}

// SendLine writes one raw protocol line, appending the CRLF
// terminator.
func (c *Conn) SendLine(line string) error {
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		return fmt.Errorf("irc: write: %w", err)
	}
	c.logger.Debug("sent", "line", line)
	return nil
}

// SendMessage delivers chat text to a recipient. The text is split on
// embedded newlines, each line is chunked to at most maxChunk
// characters, and each chunk goes out as its own PRIVMSG. Empty lines
// produce no output.
func (c *Conn) SendMessage(recipient, text string) error {
	for _, line := range strings.Split(text, "\n") {
		for _, chunk := range chunkLine(line, maxChunk) {
			if err := c.SendLine("PRIVMSG " + recipient + " :" + chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

// chunkLine splits line into pieces of at most size characters.
// Returns nil for an empty line.
func chunkLine(line string, size int) []string {
	if line == "" {
		return nil
	}
	runes := []rune(line)
	var chunks []string
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Close tears down the underlying transport connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
