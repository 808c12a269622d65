// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/objectbus/lib/config"
)

// newLogger builds the daemon logger from the logging config. Format
// "auto" uses slog.TextHandler when stderr is a terminal and
// slog.JSONHandler otherwise.
func newLogger(logging config.LoggingConfig) (*slog.Logger, error) {
	return newLoggerTo(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), logging)
}

func newLoggerTo(w io.Writer, terminal bool, logging config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logging.Level)); err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch logging.Format {
	case "text":
		handler = slog.NewTextHandler(w, options)
	case "json":
		handler = slog.NewJSONHandler(w, options)
	case "auto", "":
		if terminal {
			handler = slog.NewTextHandler(w, options)
		} else {
			handler = slog.NewJSONHandler(w, options)
		}
	default:
		return nil, fmt.Errorf("logging.format: unknown format %q", logging.Format)
	}
	return slog.New(handler), nil
}
