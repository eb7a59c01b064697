// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock time for testability. Production
// code injects Real(); tests inject Fake() with deterministic time
// control.
//
// The daemon's event loop is single-threaded and cooperative: the only
// suspension points are the transport poll (bounded by a socket
// deadline, not by this package) and explicit Sleep calls for the
// reply throttle and the reconnect backoff. The interface is therefore
// deliberately small — current time and sleeping are all the loop
// needs.
package clock

import "time"

// Clock provides the current time and the ability to sleep. Every
// production function that would call time.Now or time.Sleep should
// take a Clock (or be a method on a struct holding one) instead.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the calling goroutine for at least duration d.
	// Non-positive durations return immediately.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
