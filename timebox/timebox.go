// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package timebox

import (
	"errors"
	"fmt"
	"time"
)

// Duration constraints, in minutes. A timebox runs between 15 and 60
// minutes in 5-minute steps; 30 is the default when the user names no
// duration.
const (
	MinDuration     = 15
	MaxDuration     = 60
	DurationStep    = 5
	DefaultDuration = 30
)

// Retention bounds enforced by every cleanup tick.
const (
	// RetentionAge is how long a record is kept after its start.
	RetentionAge = 48 * time.Hour

	// MaxPerPerson caps a ledger's length; the oldest records beyond
	// it are dropped.
	MaxPerPerson = 10
)

// Duration validation failures. The command layer translates these
// into user-facing reply lines.
var (
	ErrDurationTooShort = errors.New("timebox: duration below 15 minutes")
	ErrDurationTooLong  = errors.New("timebox: duration above 60 minutes")
	ErrDurationStep     = errors.New("timebox: duration not a multiple of 5 minutes")
)

// ValidateDuration checks a requested duration in minutes against the
// allowed set {15, 20, ..., 60}.
func ValidateDuration(minutes int) error {
	switch {
	case minutes < MinDuration:
		return ErrDurationTooShort
	case minutes > MaxDuration:
		return ErrDurationTooLong
	case minutes%DurationStep != 0:
		return ErrDurationStep
	}
	return nil
}

// Timebox is a single work-interval claim.
type Timebox struct {
	// Person is the claimant's protocol sender identifier.
	Person string `json:"person"`

	// ReplyTo is the channel or person that receives lifecycle
	// notifications for this record.
	ReplyTo string `json:"reply_to"`

	// Start is the Unix timestamp (seconds) when the interval began.
	Start int64 `json:"start"`

	// Duration is the interval length in minutes.
	Duration int `json:"duration"`

	// Summary is the free-text task description.
	Summary string `json:"summary"`

	// Completed is false while the interval is running.
	Completed bool `json:"completed"`
}

// Deadline returns the instant the timebox auto-completes.
func (t Timebox) Deadline() time.Time {
	return time.Unix(t.Start+int64(t.Duration)*60, 0)
}

// Due reports whether the timebox's deadline has passed at now.
func (t Timebox) Due(now time.Time) bool {
	return !t.Deadline().After(now)
}

// String renders the record the way it appears in chat replies:
// "person [HH:MM UTC] (D min) summary".
func (t Timebox) String() string {
	start := time.Unix(t.Start, 0).UTC().Format("15:04 MST")
	return fmt.Sprintf("%s [%s] (%d min) %s", t.Person, start, t.Duration, t.Summary)
}
