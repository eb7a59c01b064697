// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package timebox

import (
	"errors"
	"sort"
	"time"
)

// ErrNoTimeboxes reports that a person has no ledger at all.
var ErrNoTimeboxes = errors.New("timebox: no timeboxes for person")

// InProgressError reports that a transition was refused because a
// timebox is still running. Begin returns it when a new timebox is
// requested while one runs; Delete returns it when the most recent
// record is not yet completed. The running record is carried so the
// caller can show it to the user.
type InProgressError struct {
	Running Timebox
}

func (e *InProgressError) Error() string {
	return "timebox: already in progress: " + e.Running.String()
}

// Store maps person identifiers to their ledgers. The zero value is
// not usable; construct with NewStore or FromSnapshot.
//
// Store is not safe for concurrent use. The daemon's single event
// loop is the only mutator; any multi-goroutine embedding must
// serialize access externally.
type Store struct {
	ledgers map[string][]Timebox
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{ledgers: make(map[string][]Timebox)}
}

// FromSnapshot builds a store from a per-person ledger mapping, deep
// copying the records. Empty ledgers are dropped.
func FromSnapshot(snapshot map[string][]Timebox) *Store {
	store := NewStore()
	for person, ledger := range snapshot {
		if len(ledger) == 0 {
			continue
		}
		copied := make([]Timebox, len(ledger))
		copy(copied, ledger)
		store.ledgers[person] = copied
	}
	return store
}

// Snapshot returns a deep copy of the per-person ledger mapping,
// suitable for serialization.
func (s *Store) Snapshot() map[string][]Timebox {
	snapshot := make(map[string][]Timebox, len(s.ledgers))
	for person, ledger := range s.ledgers {
		copied := make([]Timebox, len(ledger))
		copy(copied, ledger)
		snapshot[person] = copied
	}
	return snapshot
}

// Persons returns the number of people with a non-empty ledger.
func (s *Store) Persons() int { return len(s.ledgers) }

// Running returns the person's currently running timebox, if any.
func (s *Store) Running(person string) (Timebox, bool) {
	ledger := s.ledgers[person]
	if len(ledger) == 0 || ledger[len(ledger)-1].Completed {
		return Timebox{}, false
	}
	return ledger[len(ledger)-1], true
}

// Last returns the person's most recent timebox, running or settled.
func (s *Store) Last(person string) (Timebox, bool) {
	ledger := s.ledgers[person]
	if len(ledger) == 0 {
		return Timebox{}, false
	}
	return ledger[len(ledger)-1], true
}

// Begin starts a new timebox for person. It fails with a duration
// validation error for a minutes value outside {15, 20, ..., 60}, and
// with *InProgressError when the person already has a running
// timebox. On success the appended record is returned.
func (s *Store) Begin(person, replyTo string, minutes int, summary string, now time.Time) (Timebox, error) {
	if err := ValidateDuration(minutes); err != nil {
		return Timebox{}, err
	}
	if running, ok := s.Running(person); ok {
		return Timebox{}, &InProgressError{Running: running}
	}

	record := Timebox{
		Person:   person,
		ReplyTo:  replyTo,
		Start:    now.Unix(),
		Duration: minutes,
		Summary:  summary,
	}
	s.ledgers[person] = append(s.ledgers[person], record)
	return record, nil
}

// Cancel removes the person's running timebox, returning it. The
// second result is false when nothing is running.
func (s *Store) Cancel(person string) (Timebox, bool) {
	cancelled, ok := s.Running(person)
	if !ok {
		return Timebox{}, false
	}
	s.dropLast(person)
	return cancelled, true
}

// Delete removes the person's most recent timebox, which must be
// completed. It fails with ErrNoTimeboxes when the person has no
// ledger, and with *InProgressError when the most recent record is
// still running (the caller phrases that case as a warning, not an
// error).
func (s *Store) Delete(person string) (Timebox, error) {
	last, ok := s.Last(person)
	if !ok {
		return Timebox{}, ErrNoTimeboxes
	}
	if !last.Completed {
		return Timebox{}, &InProgressError{Running: last}
	}
	s.dropLast(person)
	return last, nil
}

// dropLast removes the last record of a ledger, removing the person
// entirely when the ledger becomes empty.
func (s *Store) dropLast(person string) {
	ledger := s.ledgers[person]
	ledger = ledger[:len(ledger)-1]
	if len(ledger) == 0 {
		delete(s.ledgers, person)
	} else {
		s.ledgers[person] = ledger
	}
}

// CompletedFor returns the person's completed timeboxes, most recent
// first.
func (s *Store) CompletedFor(person string) []Timebox {
	var completed []Timebox
	for _, record := range s.ledgers[person] {
		if record.Completed {
			completed = append(completed, record)
		}
	}
	sortByStartDescending(completed)
	return completed
}

// RunningFor returns the running timeboxes whose notification target
// is replyTo, most recent first. This scopes the "running" listing to
// the channel (or private conversation) it was asked from.
func (s *Store) RunningFor(replyTo string) []Timebox {
	var running []Timebox
	for _, ledger := range s.ledgers {
		last := ledger[len(ledger)-1]
		if !last.Completed && last.ReplyTo == replyTo {
			running = append(running, last)
		}
	}
	sortByStartDescending(running)
	return running
}

// Tick advances the store to now: due running timeboxes are marked
// completed, then retention rules are applied. The newly completed
// records are returned (post-transition, ordered by start) so the
// caller can emit their notifications.
func (s *Store) Tick(now time.Time) []Timebox {
	completed := s.completeDue(now)
	s.cleanUp(now)
	return completed
}

// completeDue marks every due running timebox as completed. By the
// ledger invariant only the last record of a ledger can be running.
func (s *Store) completeDue(now time.Time) []Timebox {
	var completed []Timebox
	for person, ledger := range s.ledgers {
		last := len(ledger) - 1
		if !ledger[last].Completed && ledger[last].Due(now) {
			ledger[last].Completed = true
			s.ledgers[person] = ledger
			completed = append(completed, ledger[last])
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		if completed[i].Start != completed[j].Start {
			return completed[i].Start < completed[j].Start
		}
		return completed[i].Person < completed[j].Person
	})
	return completed
}

// cleanUp enforces retention: records older than RetentionAge are
// dropped from the front of each ledger, ledgers are truncated to the
// most recent MaxPerPerson records, and people with empty ledgers are
// removed.
func (s *Store) cleanUp(now time.Time) {
	for person, ledger := range s.ledgers {
		kept := ledger[:0:0]
		for _, record := range ledger {
			if now.Unix() <= record.Start+int64(RetentionAge/time.Second) {
				kept = append(kept, record)
			}
		}
		if len(kept) > MaxPerPerson {
			kept = kept[len(kept)-MaxPerPerson:]
		}
		if len(kept) == 0 {
			delete(s.ledgers, person)
		} else {
			s.ledgers[person] = kept
		}
	}
}

func sortByStartDescending(records []Timebox) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Start != records[j].Start {
			return records[i].Start > records[j].Start
		}
		return records[i].Person < records[j].Person
	})
}
