// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"strings"
	"time"

	"github.com/timebox-foundation/timebox/timebox"
)

// Request carries everything a command invocation needs. Commands are
// stateless; all context arrives through the request.
type Request struct {
	// Prefix is the configured command prefix, used when composing
	// usage strings and guidance that names other commands.
	Prefix string

	// Sender is the nick that sent the command.
	Sender string

	// ReplyTo is where replies go: the channel for public commands,
	// the sender for private ones.
	ReplyTo string

	// Params are the whitespace-split tokens after the command word.
	Params []string

	// Registry gives commands that resolve other command names (help)
	// access to the full command set.
	Registry *Registry

	// Store is the shared timebox store.
	Store *timebox.Store

	// Now is the current time at dispatch.
	Now time.Time
}

// Command is one user-facing command. Implementations declare where
// they may be used and produce reply lines.
type Command interface {
	// Name is the full command name users type (after the prefix).
	Name() string

	// Public reports whether the command may be used in a channel.
	Public() bool

	// Private reports whether the command may be used in a private
	// message to the bot.
	Private() bool

	// Invoke runs the command and returns its reply lines. A non-nil
	// error is an unexpected action failure: the router logs it and
	// keeps the connection alive.
	Invoke(req Request) ([]string, error)

	// Help returns the command's usage text.
	Help(prefix string) []string
}

// Registry is an ordered set of commands. Order determines listing
// order in "available commands" messages.
type Registry struct {
	commands []Command
}

// NewRegistry builds a registry from the given commands.
func NewRegistry(commands ...Command) *Registry {
	return &Registry{commands: commands}
}

// DefaultRegistry returns the full command set: begin, cancel,
// delete, help, list, running, time.
func DefaultRegistry() *Registry {
	help := &helpCommand{}
	registry := NewRegistry(
		beginCommand{},
		cancelCommand{},
		deleteCommand{},
		help,
		listCommand{},
		runningCommand{},
		timeCommand{},
	)
	help.registry = registry
	return registry
}

// Match returns the commands whose name the candidate is a prefix of.
// An empty candidate matches every command.
func (r *Registry) Match(candidate string) []Command {
	var matches []Command
	for _, command := range r.commands {
		if strings.HasPrefix(command.Name(), candidate) {
			matches = append(matches, command)
		}
	}
	return matches
}

// Commands returns the registered commands in listing order.
func (r *Registry) Commands() []Command {
	return r.commands
}

// commandList renders command names for error and help messages:
// ",begin ,cancel ,delete".
func commandList(prefix string, commands []Command) string {
	names := make([]string, len(commands))
	for i, command := range commands {
		names[i] = prefix + command.Name()
	}
	return strings.Join(names, " ")
}
