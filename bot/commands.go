// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/timebox-foundation/timebox/timebox"
)

// The reply phrasing below is the bot's user-facing contract. Error
// replies start with "Error: ", the single soft-refusal case (delete
// while running) starts with "Warning: ".

// beginCommand starts a new timebox: ",begin [MINUTES] SUMMARY".
type beginCommand struct{}

func (beginCommand) Name() string  { return "begin" }
func (beginCommand) Public() bool  { return true }
func (beginCommand) Private() bool { return false }

func (c beginCommand) Invoke(req Request) ([]string, error) {
	if len(req.Params) == 0 {
		return []string{"Error: " + c.Help(req.Prefix)[0]}, nil
	}

	minutes := timebox.DefaultDuration
	summary := strings.Join(req.Params, " ")
	if isDigits(req.Params[0]) {
		if len(req.Params) == 1 {
			return []string{"Error: Duration must be followed by task summary."}, nil
		}
		parsed, err := strconv.Atoi(req.Params[0])
		if err != nil {
			// Digits too long for an int are far beyond the maximum.
			return []string{"Error: Duration must not exceed 60 minutes."}, nil
		}
		minutes = parsed
		summary = strings.Join(req.Params[1:], " ")
	}

	record, err := req.Store.Begin(req.Sender, req.ReplyTo, minutes, summary, req.Now)
	if err != nil {
		var inProgress *timebox.InProgressError
		switch {
		case errors.Is(err, timebox.ErrDurationTooShort):
			return []string{"Error: Duration must be at least 15 minutes."}, nil
		case errors.Is(err, timebox.ErrDurationTooLong):
			return []string{"Error: Duration must not exceed 60 minutes."}, nil
		case errors.Is(err, timebox.ErrDurationStep):
			return []string{"Error: Duration must be a multiple of 5 minutes."}, nil
		case errors.As(err, &inProgress):
			return []string{"Error: Another timebox is in progress: " +
				inProgress.Running.String() + ".  " +
				"Send " + req.Prefix + "cancel to cancel the currently running timebox " +
				"before starting a new timebox."}, nil
		}
		return nil, err
	}
	return []string{"Started timebox: " + record.String()}, nil
}

func (beginCommand) Help(prefix string) []string {
	return []string{
		"Usage: " + prefix + "begin [MINUTES] SUMMARY.  " +
			"Example #1: " + prefix + "begin Write new blog post.  " +
			"Example #2: " + prefix + "begin 45 Review article.  " +
			"Start a new timebox for the specified number of MINUTES.  " +
			"MINUTES must be a multiple of 5 between 15 and 60, inclusive.  " +
			"If MINUTES is not specified, default to 30 minutes.",
	}
}

// cancelCommand removes the sender's running timebox: ",cancel".
type cancelCommand struct{}

func (cancelCommand) Name() string  { return "cancel" }
func (cancelCommand) Public() bool  { return true }
func (cancelCommand) Private() bool { return false }

func (c cancelCommand) Invoke(req Request) ([]string, error) {
	if len(req.Params) > 0 {
		return []string{"Error: " + c.Help(req.Prefix)[0]}, nil
	}

	cancelled, ok := req.Store.Cancel(req.Sender)
	if !ok {
		return []string{fmt.Sprintf("Error: No running timeboxes found for %s.", req.Sender)}, nil
	}
	return []string{"Cancelled running timebox: " + cancelled.String()}, nil
}

func (cancelCommand) Help(prefix string) []string {
	return []string{"Usage: " + prefix + "cancel.  Cancel your currently running timebox."}
}

// deleteCommand removes the sender's last completed timebox:
// ",delete".
type deleteCommand struct{}

func (deleteCommand) Name() string  { return "delete" }
func (deleteCommand) Public() bool  { return true }
func (deleteCommand) Private() bool { return false }

func (c deleteCommand) Invoke(req Request) ([]string, error) {
	if len(req.Params) > 0 {
		return []string{"Error: " + c.Help(req.Prefix)[0]}, nil
	}

	deleted, err := req.Store.Delete(req.Sender)
	if err != nil {
		var inProgress *timebox.InProgressError
		switch {
		case errors.Is(err, timebox.ErrNoTimeboxes):
			return []string{fmt.Sprintf("Error: No timeboxes found for %s.", req.Sender)}, nil
		case errors.As(err, &inProgress):
			// A soft refusal: the user asked for something reasonable
			// at the wrong moment, so guide rather than reject.
			return []string{"Warning: Another timebox is in progress: " +
				inProgress.Running.String() + ".  " +
				"First cancel the running timebox with " + req.Prefix + "cancel.  " +
				"Then delete the last completed timebox with " + req.Prefix + "delete."}, nil
		}
		return nil, err
	}
	return []string{"Deleted the last completed timebox: " + deleted.String()}, nil
}

func (deleteCommand) Help(prefix string) []string {
	return []string{"Usage: " + prefix + "delete.  Delete your last completed timebox."}
}

// helpCommand shows usage: ",help [COMMAND]".
type helpCommand struct {
	registry *Registry
}

func (*helpCommand) Name() string  { return "help" }
func (*helpCommand) Public() bool  { return true }
func (*helpCommand) Private() bool { return true }

func (c *helpCommand) Invoke(req Request) ([]string, error) {
	if len(req.Params) == 0 {
		return c.Help(req.Prefix), nil
	}

	candidate := strings.TrimPrefix(req.Params[0], req.Prefix)
	matches := req.Registry.Match(candidate)
	switch len(matches) {
	case 0:
		return []string{"Error: Unrecognized command.  Available commands: " +
			commandList(req.Prefix, req.Registry.Commands()) + "."}, nil
	case 1:
		return matches[0].Help(req.Prefix), nil
	default:
		return []string{"Error: Ambiguous command.  Matching commands: " +
			commandList(req.Prefix, matches) + "."}, nil
	}
}

func (c *helpCommand) Help(prefix string) []string {
	return []string{"Usage: " + prefix + "help [COMMAND].  Available commands: " +
		commandList(prefix, c.registry.Commands()) + "."}
}

// listCommand shows the sender's completed timeboxes: ",list".
type listCommand struct{}

func (listCommand) Name() string  { return "list" }
func (listCommand) Public() bool  { return true }
func (listCommand) Private() bool { return true }

func (c listCommand) Invoke(req Request) ([]string, error) {
	if len(req.Params) > 0 {
		return []string{"Error: " + c.Help(req.Prefix)[0]}, nil
	}

	if _, ok := req.Store.Last(req.Sender); !ok {
		return []string{fmt.Sprintf("No timeboxes found for %s.", req.Sender)}, nil
	}
	completed := req.Store.CompletedFor(req.Sender)
	if len(completed) == 0 {
		return []string{fmt.Sprintf("No completed timeboxes found for %s.", req.Sender)}, nil
	}

	lines := make([]string, len(completed))
	for i, record := range completed {
		lines[i] = record.String()
	}
	return lines, nil
}

func (listCommand) Help(prefix string) []string {
	return []string{
		"Usage: " + prefix + "list.  List your completed timeboxes.  " +
			"Only your most recent 10 timeboxes started within the last 48 hours " +
			"are available.  " +
			"Older timeboxes are permanently removed from the system.",
	}
}

// runningCommand shows the running timeboxes of the current reply
// target: ",running".
type runningCommand struct{}

func (runningCommand) Name() string  { return "running" }
func (runningCommand) Public() bool  { return true }
func (runningCommand) Private() bool { return true }

func (c runningCommand) Invoke(req Request) ([]string, error) {
	if len(req.Params) > 0 {
		return []string{"Error: " + c.Help(req.Prefix)[0]}, nil
	}

	running := req.Store.RunningFor(req.ReplyTo)
	if len(running) == 0 {
		return []string{fmt.Sprintf("No running timeboxes found for %s.", req.ReplyTo)}, nil
	}

	lines := make([]string, len(running))
	for i, record := range running {
		lines[i] = record.String()
	}
	return lines, nil
}

func (runningCommand) Help(prefix string) []string {
	return []string{"Usage: " + prefix + "running.  List all running timeboxes of the channel."}
}

// timeCommand shows the current UTC time: ",time".
type timeCommand struct{}

func (timeCommand) Name() string  { return "time" }
func (timeCommand) Public() bool  { return true }
func (timeCommand) Private() bool { return true }

func (c timeCommand) Invoke(req Request) ([]string, error) {
	if len(req.Params) > 0 {
		return []string{"Error: " + c.Help(req.Prefix)[0]}, nil
	}
	return []string{req.Now.UTC().Format("2006-01-02 15:04:05 MST")}, nil
}

func (timeCommand) Help(prefix string) []string {
	return []string{"Usage: " + prefix + "time.  Show current UTC time."}
}

// isDigits reports whether s is non-empty and entirely ASCII digits,
// so that "45" is a duration but "-45" and "4h" are summary words.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
