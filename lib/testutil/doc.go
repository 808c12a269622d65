// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for objectbus packages.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets. Unix domain sockets have a 108-byte path limit
// (sun_path in sockaddr_un), and t.TempDir() paths under a deeply
// nested TMPDIR can exceed it.
//
// [RequireReceive], [RequireClosed], and [RequireNoReceive]
// encapsulate the timeout safety valve pattern (select with time.After
// fallback) so that individual tests do not need direct time.After
// calls. Ordering tests in the object server
// synchronize on channels. Wall-clock timeouts appear only here.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no objectbus-internal dependencies.
package testutil
