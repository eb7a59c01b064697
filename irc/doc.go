// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

// Package irc implements the subset of the IRC client protocol the
// timebox daemon needs: a line-oriented connection with poll-timeout
// reads, RFC 1459 message parsing, and outgoing message formatting
// with transport-safe chunking.
//
// The connection exposes an explicit "no line available" signal
// instead of blocking reads. The daemon's event loop relies on this
// to run its periodic maintenance (timebox completion, retention
// cleanup, state persistence) even when the channel is silent.
package irc
