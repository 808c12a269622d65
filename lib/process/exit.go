// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/objectbus/lib/bus"
)

// Exit codes.
const (
	ExitFailure  = 1
	ExitBusError = 2
)

// Fatal writes "error: err" to stderr and exits with ExitCode(err).
// Use it in main() for errors from run() where the structured logger
// may not be initialized.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes err to w the way Fatal does and returns the exit code
// Fatal would use.
func Report(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	return ExitCode(err)
}

// ExitCode maps err to a process exit code: 0 for nil, ExitBusError
// when err carries a bus error, ExitFailure otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var busErr bus.Error
	if errors.As(err, &busErr) {
		return ExitBusError
	}
	return ExitFailure
}
