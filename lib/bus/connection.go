// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"

	"github.com/bureau-foundation/objectbus/lib/names"
)

// Connection is the transport surface the object server and handlers
// use to answer calls and emit signals. Implementations must be safe
// for concurrent use: spawned handlers reply from their own goroutines.
//
// lib/busconn provides the socket implementation. lib/bus/bustest
// provides a recording implementation for tests.
type Connection interface {
	// Reply sends a method return for call carrying body.
	Reply(ctx context.Context, call *Message, body ...any) error

	// ReplyError sends an error reply correlated with call.
	ReplyError(ctx context.Context, call *Header, err Error) error

	// EmitSignal broadcasts a signal, or unicasts it when destination
	// is non-zero.
	EmitSignal(ctx context.Context, destination names.BusName, path names.ObjectPath,
		iface names.InterfaceName, member names.MemberName, body ...any) error

	// UniqueName is the name the bus assigned to this connection. It
	// is zero before the greeting completes.
	UniqueName() names.BusName
}
