// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot implements the timebox keeper's chat-facing behavior:
// the command registry and router, the seven user commands, and the
// connection lifecycle with reconnect backoff.
//
// The bot owns one Store and one event loop per process. Each loop
// iteration polls the connection for a line, routes it if it is a
// recognized protocol event, advances the store's time-based
// transitions, and persists the store. There are no timer goroutines
// and no shared mutable globals — everything flows through the Client
// and Router structs.
package bot
