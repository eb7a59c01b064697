// Copyright 2026 The Timebox Authors
// SPDX-License-Identifier: Apache-2.0

// Timeboxd is a long-running IRC client that keeps personal work
// intervals ("timeboxes") for the members of its channels. People
// start, cancel, and review timeboxes by sending prefixed commands in
// channel or in private; the daemon announces completions when an
// interval's duration elapses.
//
// On startup:
//  1. Loads and validates the YAML configuration.
//  2. Loads the JSON state file (a missing file means a fresh start)
//     and immediately writes it back, so an unwritable state path
//     fails the process before it ever connects.
//  3. Connects to the configured server, authenticates, and joins the
//     configured channels.
//  4. Serves commands until the connection dies, then reconnects with
//     exponential backoff.
//
// The process runs until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/timebox-foundation/timebox/bot"
	"github.com/timebox-foundation/timebox/lib/clock"
	"github.com/timebox-foundation/timebox/lib/config"
	"github.com/timebox-foundation/timebox/lib/version"
	"github.com/timebox-foundation/timebox/statefile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)

	pflag.StringVar(&configPath, "config", "timeboxd.yaml", "path to the YAML configuration file")
	pflag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("timeboxd %s\n", version.Info())
		return nil
	}
	if args := pflag.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := statefile.Load(cfg.State)
	if err != nil {
		return fmt.Errorf("loading state file: %w", err)
	}
	// Write the state straight back: better to fail now than to
	// discover an unwritable path after hours of tracked timeboxes.
	if err := statefile.Save(cfg.State, store); err != nil {
		return fmt.Errorf("state file is not writable: %w", err)
	}
	logger.Info("state loaded", "path", cfg.State, "persons", store.Persons())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := bot.NewClient(bot.ClientConfig{
		Config: cfg,
		Store:  store,
		Clock:  clock.Real(),
		Logger: logger,
	})
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}
