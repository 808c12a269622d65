// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for objectbus
// binaries. It centralizes the raw I/O that happens before or after
// the structured logger exists: fatal error reporting to stderr and
// the process exit code.
//
// Exit codes:
//
//   - 1: the command failed (bad flags, unreachable socket, ...)
//   - 2: the remote side answered with a bus error
package process
