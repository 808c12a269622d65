// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver

import (
	"context"
	"io"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/names"
)

// Interface is a handler for one named bus interface on an object.
//
// The shared-access methods (Call, Set) may run concurrently with each
// other. The exclusive-access methods (CallMut, SetMut) never overlap
// with anything else on the same handler. A handler that needs to
// mutate state answers RequiresMut from the shared variant and does
// the work in the exclusive one.
//
// Embed BaseInterface to inherit the default SpawnTasksForMethods and
// Set.
type Interface interface {
	// Name is the interface name this handler answers for.
	Name() names.InterfaceName

	// SpawnTasksForMethods reports whether method calls may run
	// concurrently with later calls on the same connection. It is read
	// once, when the handler is wrapped.
	SpawnTasksForMethods() bool

	// Get returns the value of property. ok is false when the handler
	// has no such property.
	Get(ctx context.Context, property string) (value bus.Value, ok bool, err error)

	// GetAll returns every readable property.
	GetAll(ctx context.Context) (map[string]bus.Value, error)

	// Set writes property under shared access. Returning RequiresMut
	// defers to SetMut. An Async completion's error becomes the
	// caller's error reply.
	Set(ctx context.Context, property string, value bus.Value, signals *bus.SignalContext) DispatchResult

	// SetMut writes property under exclusive access. found is false
	// when the handler has no such property.
	SetMut(ctx context.Context, property string, value bus.Value, signals *bus.SignalContext) (found bool, err error)

	// Call handles member under shared access.
	Call(ctx context.Context, server *Server, conn bus.Connection, msg *bus.Message, member names.MemberName) DispatchResult

	// CallMut handles member under exclusive access. It is invoked
	// only after Call answered RequiresMut.
	CallMut(ctx context.Context, server *Server, conn bus.Connection, msg *bus.Message, member names.MemberName) DispatchResult

	// WriteIntrospection writes the interface's XML fragment indented
	// by level spaces. Write errors are ignored.
	WriteIntrospection(w io.Writer, level int)
}

// BaseInterface supplies defaults for two Interface methods: methods
// are spawned, and Set always defers to SetMut.
type BaseInterface struct{}

// SpawnTasksForMethods returns true.
func (BaseInterface) SpawnTasksForMethods() bool { return true }

// Set returns RequiresMut.
func (BaseInterface) Set(context.Context, string, bus.Value, *bus.SignalContext) DispatchResult {
	return RequiresMut
}
