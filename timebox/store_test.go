// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package timebox

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// checkInvariant fails the test if any ledger is empty or has a
// running record anywhere but the last position.
func checkInvariant(t *testing.T, store *Store) {
	t.Helper()
	for person, ledger := range store.Snapshot() {
		if len(ledger) == 0 {
			t.Errorf("empty ledger for %s left in store", person)
		}
		for i, record := range ledger {
			if !record.Completed && i != len(ledger)-1 {
				t.Errorf("running record at position %d of %d for %s", i, len(ledger), person)
			}
		}
	}
}

func TestBeginFromAbsent(t *testing.T) {
	store := NewStore()
	record, err := store.Begin("alice", "#work", 15, "write report", t0)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if record.Person != "alice" || record.ReplyTo != "#work" ||
		record.Start != t0.Unix() || record.Duration != 15 ||
		record.Summary != "write report" || record.Completed {
		t.Errorf("Begin returned %+v", record)
	}
	if running, ok := store.Running("alice"); !ok || running != record {
		t.Errorf("Running = (%+v, %v), want the new record", running, ok)
	}
	checkInvariant(t, store)
}

func TestBeginWhileRunningRefused(t *testing.T) {
	store := NewStore()
	first, err := store.Begin("alice", "#work", 30, "first", t0)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	_, err = store.Begin("alice", "#work", 30, "second", t0.Add(time.Minute))
	var inProgress *InProgressError
	if !errors.As(err, &inProgress) {
		t.Fatalf("second Begin error = %v, want *InProgressError", err)
	}
	if inProgress.Running != first {
		t.Errorf("InProgressError.Running = %+v, want %+v", inProgress.Running, first)
	}
	checkInvariant(t, store)
}

func TestBeginFromSettled(t *testing.T) {
	store := NewStore()
	if _, err := store.Begin("alice", "#work", 15, "first", t0); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	store.Tick(t0.Add(15 * time.Minute))

	if _, err := store.Begin("alice", "#work", 20, "second", t0.Add(time.Hour)); err != nil {
		t.Fatalf("Begin from settled: %v", err)
	}
	if len(store.Snapshot()["alice"]) != 2 {
		t.Errorf("ledger length = %d, want 2", len(store.Snapshot()["alice"]))
	}
	checkInvariant(t, store)
}

func TestBeginRejectsBadDuration(t *testing.T) {
	store := NewStore()
	if _, err := store.Begin("alice", "#work", 14, "x", t0); !errors.Is(err, ErrDurationTooShort) {
		t.Errorf("Begin(14) error = %v", err)
	}
	if store.Persons() != 0 {
		t.Error("failed Begin mutated the store")
	}
}

func TestCancel(t *testing.T) {
	store := NewStore()
	record, _ := store.Begin("alice", "#work", 30, "task", t0)

	cancelled, ok := store.Cancel("alice")
	if !ok || cancelled != record {
		t.Fatalf("Cancel = (%+v, %v)", cancelled, ok)
	}
	if store.Persons() != 0 {
		t.Error("person not removed after cancelling only record")
	}

	// Cancel from Absent and from Settled are both refused.
	if _, ok := store.Cancel("alice"); ok {
		t.Error("Cancel from Absent succeeded")
	}
	store.Begin("alice", "#work", 15, "task", t0)
	store.Tick(t0.Add(15 * time.Minute))
	if _, ok := store.Cancel("alice"); ok {
		t.Error("Cancel from Settled succeeded")
	}
	checkInvariant(t, store)
}

func TestCancelKeepsEarlierSettledRecords(t *testing.T) {
	store := NewStore()
	store.Begin("alice", "#work", 15, "first", t0)
	store.Tick(t0.Add(15 * time.Minute))
	store.Begin("alice", "#work", 15, "second", t0.Add(time.Hour))

	if _, ok := store.Cancel("alice"); !ok {
		t.Fatal("Cancel failed")
	}
	last, ok := store.Last("alice")
	if !ok || last.Summary != "first" || !last.Completed {
		t.Errorf("Last after cancel = (%+v, %v), want settled first record", last, ok)
	}
	checkInvariant(t, store)
}

func TestDelete(t *testing.T) {
	store := NewStore()

	if _, err := store.Delete("alice"); !errors.Is(err, ErrNoTimeboxes) {
		t.Errorf("Delete from Absent error = %v, want ErrNoTimeboxes", err)
	}

	record, _ := store.Begin("alice", "#work", 15, "task", t0)
	var inProgress *InProgressError
	if _, err := store.Delete("alice"); !errors.As(err, &inProgress) {
		t.Errorf("Delete while running error = %v, want *InProgressError", err)
	} else if inProgress.Running != record {
		t.Errorf("InProgressError.Running = %+v", inProgress.Running)
	}

	store.Tick(t0.Add(15 * time.Minute))
	deleted, err := store.Delete("alice")
	if err != nil {
		t.Fatalf("Delete from Settled: %v", err)
	}
	if deleted.Summary != "task" || !deleted.Completed {
		t.Errorf("deleted = %+v", deleted)
	}
	if store.Persons() != 0 {
		t.Error("person not removed after deleting only record")
	}
	checkInvariant(t, store)
}

func TestTickAutoCompletesAtDeadline(t *testing.T) {
	store := NewStore()
	store.Begin("alice", "#work", 15, "write report", t0)

	if completed := store.Tick(t0.Add(15*time.Minute - time.Second)); len(completed) != 0 {
		t.Fatalf("Tick before deadline completed %v", completed)
	}

	completed := store.Tick(t0.Add(15 * time.Minute))
	if len(completed) != 1 {
		t.Fatalf("Tick at deadline completed %d records, want 1", len(completed))
	}
	record := completed[0]
	if !record.Completed || record.Person != "alice" || record.ReplyTo != "#work" {
		t.Errorf("completed record = %+v", record)
	}

	// Subsequent ticks do not re-complete.
	if completed := store.Tick(t0.Add(16 * time.Minute)); len(completed) != 0 {
		t.Errorf("second Tick completed %v", completed)
	}
	checkInvariant(t, store)
}

func TestTickCompletesSeveralPersons(t *testing.T) {
	store := NewStore()
	store.Begin("alice", "#work", 15, "a", t0)
	store.Begin("bob", "#work", 20, "b", t0)
	store.Begin("carol", "#work", 60, "c", t0)

	completed := store.Tick(t0.Add(20 * time.Minute))
	if len(completed) != 2 {
		t.Fatalf("completed %d records, want 2", len(completed))
	}
	// Ordered by start, then person.
	if completed[0].Person != "alice" || completed[1].Person != "bob" {
		t.Errorf("completed order = %s, %s", completed[0].Person, completed[1].Person)
	}
	if _, ok := store.Running("carol"); !ok {
		t.Error("carol's timebox completed early")
	}
	checkInvariant(t, store)
}

func TestRetentionDropsOldRecords(t *testing.T) {
	store := NewStore()
	store.Begin("alice", "#work", 15, "old", t0)
	store.Tick(t0.Add(15 * time.Minute))

	// Exactly 48h after start the record survives; one second later it
	// is dropped.
	store.Tick(t0.Add(RetentionAge))
	if len(store.CompletedFor("alice")) != 1 {
		t.Fatal("record dropped at exactly 48h")
	}
	store.Tick(t0.Add(RetentionAge + time.Second))
	if store.Persons() != 0 {
		t.Fatal("record not dropped after 48h")
	}
}

func TestRetentionCapsLedgerLength(t *testing.T) {
	store := NewStore()
	now := t0
	for i := 0; i < MaxPerPerson+3; i++ {
		if _, err := store.Begin("alice", "#work", 15, "task", now); err != nil {
			t.Fatalf("Begin %d: %v", i, err)
		}
		now = now.Add(20 * time.Minute)
		store.Tick(now)
	}

	ledger := store.Snapshot()["alice"]
	if len(ledger) != MaxPerPerson {
		t.Fatalf("ledger length = %d, want %d", len(ledger), MaxPerPerson)
	}
	// The oldest records were dropped from the front: the survivor set
	// is the most recent MaxPerPerson, still in chronological order.
	for i := 1; i < len(ledger); i++ {
		if ledger[i].Start <= ledger[i-1].Start {
			t.Fatalf("ledger not chronological at %d", i)
		}
	}
	wantOldest := t0.Add(3 * 20 * time.Minute).Unix()
	if ledger[0].Start != wantOldest {
		t.Errorf("oldest survivor start = %d, want %d", ledger[0].Start, wantOldest)
	}
	checkInvariant(t, store)
}

func TestCompletedForOrdering(t *testing.T) {
	store := NewStore()
	for i, summary := range []string{"first", "second", "third"} {
		start := t0.Add(time.Duration(i) * time.Hour)
		store.Begin("alice", "#work", 15, summary, start)
		store.Tick(start.Add(15 * time.Minute))
	}

	completed := store.CompletedFor("alice")
	if len(completed) != 3 {
		t.Fatalf("CompletedFor returned %d records", len(completed))
	}
	if completed[0].Summary != "third" || completed[2].Summary != "first" {
		t.Errorf("order = %s, %s, %s", completed[0].Summary, completed[1].Summary, completed[2].Summary)
	}
}

func TestRunningForScopesToReplyTarget(t *testing.T) {
	store := NewStore()
	store.Begin("alice", "#work", 15, "a", t0)
	store.Begin("bob", "#play", 15, "b", t0.Add(time.Minute))
	store.Begin("carol", "#work", 15, "c", t0.Add(2*time.Minute))

	running := store.RunningFor("#work")
	if len(running) != 2 {
		t.Fatalf("RunningFor(#work) returned %d records", len(running))
	}
	if running[0].Person != "carol" || running[1].Person != "alice" {
		t.Errorf("order = %s, %s", running[0].Person, running[1].Person)
	}
	if got := store.RunningFor("#idle"); len(got) != 0 {
		t.Errorf("RunningFor(#idle) = %v", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewStore()
	store.Begin("alice", "#work", 15, "a", t0)
	store.Tick(t0.Add(15 * time.Minute))
	store.Begin("alice", "#work", 30, "b", t0.Add(time.Hour))
	store.Begin("bob", "#play", 45, "c", t0)

	snapshot := store.Snapshot()
	rebuilt := FromSnapshot(snapshot)

	again := rebuilt.Snapshot()
	if len(again) != len(snapshot) {
		t.Fatalf("persons = %d, want %d", len(again), len(snapshot))
	}
	for person, ledger := range snapshot {
		other := again[person]
		if len(other) != len(ledger) {
			t.Fatalf("%s ledger length = %d, want %d", person, len(other), len(ledger))
		}
		for i := range ledger {
			if other[i] != ledger[i] {
				t.Errorf("%s[%d] = %+v, want %+v", person, i, other[i], ledger[i])
			}
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	store.Begin("alice", "#work", 15, "a", t0)

	snapshot := store.Snapshot()
	snapshot["alice"][0].Summary = "mutated"
	if running, _ := store.Running("alice"); running.Summary != "a" {
		t.Error("mutating the snapshot changed the store")
	}

	rebuilt := FromSnapshot(snapshot)
	snapshot["alice"][0].Summary = "mutated again"
	if last, _ := rebuilt.Last("alice"); last.Summary != "mutated" {
		t.Error("mutating the source changed the rebuilt store")
	}
}

func TestFromSnapshotDropsEmptyLedgers(t *testing.T) {
	store := FromSnapshot(map[string][]Timebox{
		"alice": {},
		"bob":   {{Person: "bob", ReplyTo: "#work", Start: t0.Unix(), Duration: 15, Summary: "x", Completed: true}},
	})
	if store.Persons() != 1 {
		t.Errorf("Persons() = %d, want 1", store.Persons())
	}
}
