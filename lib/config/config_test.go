// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeboxd.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

const validConfig = `
host: irc.example.net
port: 6697
tls: true
nick: tbot
password: hunter2
channels:
  - "#work"
  - "#play"
prefix: ","
block:
  - secret
state: /var/lib/timeboxd/state.json
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "irc.example.net" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Port != 6697 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if !cfg.UseTLS() {
		t.Errorf("UseTLS() = false, want true")
	}
	if len(cfg.Channels) != 2 || cfg.Channels[0] != "#work" {
		t.Errorf("Channels = %v", cfg.Channels)
	}
	if cfg.Prefix != "," {
		t.Errorf("Prefix = %q", cfg.Prefix)
	}
	if len(cfg.Block) != 1 || cfg.Block[0] != "secret" {
		t.Errorf("Block = %v", cfg.Block)
	}
	if cfg.State != "/var/lib/timeboxd/state.json" {
		t.Errorf("State = %q", cfg.State)
	}
}

func TestLoadTLSFalseIsValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, strings.Replace(validConfig, "tls: true", "tls: false", 1)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UseTLS() {
		t.Errorf("UseTLS() = true, want false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
}

func TestLoadMalformed(t *testing.T) {
	if _, err := Load(writeConfig(t, "host: [unclosed")); err == nil {
		t.Fatal("Load of malformed YAML succeeded, want error")
	}
}

func TestValidateReportsAllMissingFields(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 6667\n"))
	if err == nil {
		t.Fatal("Load succeeded, want error")
	}
	for _, want := range []string{"host", "tls", "nick", "password", "channels", "prefix", "block", "state"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateBadPort(t *testing.T) {
	for _, port := range []string{"port: 0", "port: -1", "port: 70000"} {
		cfg := strings.Replace(validConfig, "port: 6697", port, 1)
		if _, err := Load(writeConfig(t, cfg)); err == nil {
			t.Errorf("Load with %q succeeded, want error", port)
		}
	}
}

func TestValidateMissingBlockKey(t *testing.T) {
	cfg := strings.Replace(validConfig, "block:\n  - secret\n", "", 1)
	_, err := Load(writeConfig(t, cfg))
	if err == nil {
		t.Fatal("Load without block key succeeded, want error")
	}
	if !strings.Contains(err.Error(), "block") {
		t.Errorf("error %q does not mention block", err)
	}
}

func TestValidateEmptyBlockListIsValid(t *testing.T) {
	cfg := strings.Replace(validConfig, "block:\n  - secret", "block: []", 1)
	loaded, err := Load(writeConfig(t, cfg))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Block) != 0 {
		t.Errorf("Block = %v, want empty", loaded.Block)
	}
}
