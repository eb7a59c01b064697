// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

// Package statefile persists the timebox store to a single flat JSON
// file. The layout is one top-level "timebox" key holding the
// per-person ledgers, two-space indented so operators can inspect
// and hand-edit it.
//
// Load is called once at startup; Save runs once per event-loop
// iteration. A missing file means a fresh store; a malformed file is
// a fatal startup error and is never silently discarded.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/timebox-foundation/timebox/timebox"
)

// fileLayout is the JSON structure of the state file.
type fileLayout struct {
	Timebox map[string][]timebox.Timebox `json:"timebox"`
}

// Load reads the store from path. A nonexistent path yields an empty
// store; any other read or parse failure is an error.
func Load(path string) (*timebox.Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return timebox.NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("statefile: reading %s: %w", path, err)
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("statefile: parsing %s: %w", path, err)
	}
	return timebox.FromSnapshot(layout.Timebox), nil
}

// Save writes the store to path, overwriting any previous contents.
func Save(path string, store *timebox.Store) error {
	data, err := json.MarshalIndent(fileLayout{Timebox: store.Snapshot()}, "", "  ")
	if err != nil {
		return fmt.Errorf("statefile: encoding state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("statefile: writing %s: %w", path, err)
	}
	return nil
}
