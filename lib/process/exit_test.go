// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/bureau-foundation/objectbus/lib/bus"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("socket missing"), ExitFailure},
		{"bus error", bus.UnknownMethod("Frobnicate"), ExitBusError},
		{"wrapped bus error", fmt.Errorf("calling Reset: %w", bus.AccessDenied("no")), ExitBusError},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitCode(test.err); got != test.want {
				t.Errorf("ExitCode(%v) = %d, want %d", test.err, got, test.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var output bytes.Buffer
	code := Report(&output, bus.InvalidArgs("delta must be an integer"))
	if code != ExitBusError {
		t.Errorf("code = %d, want %d", code, ExitBusError)
	}
	want := "error: org.freedesktop.DBus.Error.InvalidArgs: delta must be an integer\n"
	if output.String() != want {
		t.Errorf("output = %q, want %q", output.String(), want)
	}
}
