// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package irc

import (
	"fmt"
	"strings"
)

// Message is one parsed protocol line. Any field may be empty when
// the corresponding part is absent from the wire line.
type Message struct {
	// Sender is the nick portion of the message prefix — the part
	// before the first "!". Empty for lines without a prefix (e.g.
	// server PING).
	Sender string

	// Command is the protocol command, upper-cased (e.g. "PRIVMSG").
	Command string

	// Middle is the space-delimited parameter block before the
	// trailing parameter, trimmed. For PRIVMSG this is the recipient.
	Middle string

	// Trailing is the free-text parameter after the first ":",
	// trimmed. For PRIVMSG this is the message text.
	Trailing string
}

// Parse splits one CRLF-stripped protocol line into its parts.
//
// RFC 1459 §2.3.1:
//
//	<message>  ::= [':' <prefix> <SPACE> ] <command> <params> <crlf>
//	<prefix>   ::= <servername> | <nick> [ '!' <user> ] [ '@' <host> ]
//	<params>   ::= <SPACE> [ ':' <trailing> | <middle> <params> ]
//
// Example: ":alice!Alice@user/alice PRIVMSG #hello :hello"
// Example: "PING :foo.example.com"
func Parse(line string) (Message, error) {
	if line == "" {
		return Message{}, fmt.Errorf("irc: empty message")
	}

	var msg Message
	rest := line

	if strings.HasPrefix(rest, ":") {
		prefix, remainder, found := strings.Cut(rest[1:], " ")
		if !found {
			return Message{}, fmt.Errorf("irc: prefix without command: %q", line)
		}
		msg.Sender, _, _ = strings.Cut(prefix, "!")
		rest = remainder
	}

	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		return Message{}, fmt.Errorf("irc: message without command: %q", line)
	}

	command, params, hasParams := strings.Cut(rest, " ")
	msg.Command = strings.ToUpper(command)

	if hasParams {
		middle, trailing, hasTrailing := strings.Cut(params, ":")
		msg.Middle = strings.TrimSpace(middle)
		if hasTrailing {
			msg.Trailing = strings.TrimSpace(trailing)
		}
	}

	return msg, nil
}
