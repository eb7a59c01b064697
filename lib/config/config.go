// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the timebox
// daemon.
//
// Configuration is loaded from a single YAML file passed on the
// command line. There are no fallbacks, environment overrides, or
// automatic discovery: every option is required, and a missing option
// is a fatal startup error. This keeps a misconfigured daemon from
// silently connecting to the wrong network or writing state to an
// unexpected path.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the daemon needs. All fields are
// required; Validate reports every missing field at once.
type Config struct {
	// Host is the IRC server hostname.
	Host string `yaml:"host"`

	// Port is the IRC server port.
	Port int `yaml:"port"`

	// TLS enables an encrypted connection, verified against Host.
	// A pointer so that an absent key is distinguishable from an
	// explicit false.
	TLS *bool `yaml:"tls"`

	// Nick is the bot's nickname, used for NICK, USER, and for
	// detecting private messages.
	Nick string `yaml:"nick"`

	// Password is the server password sent with PASS.
	Password string `yaml:"password"`

	// Channels lists the channels to join after registration.
	Channels []string `yaml:"channels"`

	// Prefix marks a chat line as a bot command (e.g. ",").
	Prefix string `yaml:"prefix"`

	// Block lists words that are refused as command parameters. The
	// key is required; an empty list is valid and blocks nothing.
	Block []string `yaml:"block"`

	// State is the path of the persisted store file.
	State string `yaml:"state"`
}

// Load reads and parses the configuration file at path, then
// validates it. Any read, parse, or validation failure is returned as
// an error — the caller treats all of them as fatal.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that every required option is present. All problems
// are reported together via errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, fmt.Errorf("host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be in 1..65535, got %d", c.Port))
	}
	if c.TLS == nil {
		errs = append(errs, fmt.Errorf("tls is required"))
	}
	if c.Nick == "" {
		errs = append(errs, fmt.Errorf("nick is required"))
	}
	if c.Password == "" {
		errs = append(errs, fmt.Errorf("password is required"))
	}
	if len(c.Channels) == 0 {
		errs = append(errs, fmt.Errorf("channels must list at least one channel"))
	}
	if c.Prefix == "" {
		errs = append(errs, fmt.Errorf("prefix is required"))
	}
	if c.Block == nil {
		// An explicit "block: []" decodes to a non-nil empty slice;
		// only a missing key leaves the field nil.
		errs = append(errs, fmt.Errorf("block is required (an empty list is valid)"))
	}
	if c.State == "" {
		errs = append(errs, fmt.Errorf("state is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// UseTLS reports whether TLS is enabled. Only meaningful after
// Validate has passed.
func (c *Config) UseTLS() bool {
	return c.TLS != nil && *c.TLS
}
