// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

// Package timebox implements the timebox state machine: per-person
// ledgers of work-interval records, the transitions between them, and
// the time- and size-bounded retention rules.
//
// The package is pure with respect to I/O. All time-driven behavior
// takes the current time as a parameter; the caller (the daemon's
// event loop) decides when ticks happen and what to do with their
// results.
//
// Per person, the state machine has three states: Absent (no ledger),
// Running (ledger whose last record is not completed), and Settled
// (ledger whose last record is completed). At most one record per
// person may be running, and it is always the last record of the
// ledger.
package timebox
