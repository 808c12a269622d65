// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver

import (
	"context"
	"io"
	"sync"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/names"
)

// RWLocker is the reader/writer lock guarding one handler.
// *sync.RWMutex satisfies it.
type RWLocker interface {
	RLock()
	RUnlock()
	Lock()
	Unlock()
}

// ArcOption configures an ArcInterface.
type ArcOption func(*ArcInterface)

// WithLocker replaces the default *sync.RWMutex.
func WithLocker(locker RWLocker) ArcOption {
	return func(a *ArcInterface) {
		a.lock = locker
	}
}

// ArcInterface is a shared, lock-guarded reference to one handler.
// The object server holds ArcInterfaces. Applications hold them too
// when they need typed access to a registered handler (see ReadAs and
// WriteAs).
//
// The handler's name and spawn preference are read once, in
// NewArcInterface.
type ArcInterface struct {
	lock       RWLocker
	iface      Interface
	name       names.InterfaceName
	spawnTasks bool
}

// NewArcInterface wraps iface.
func NewArcInterface(iface Interface, options ...ArcOption) *ArcInterface {
	arc := &ArcInterface{
		lock:       &sync.RWMutex{},
		iface:      iface,
		name:       iface.Name(),
		spawnTasks: iface.SpawnTasksForMethods(),
	}
	for _, option := range options {
		option(arc)
	}
	return arc
}

// Name is the wrapped handler's interface name.
func (a *ArcInterface) Name() names.InterfaceName { return a.name }

// SpawnTasks is the spawn preference captured at construction.
func (a *ArcInterface) SpawnTasks() bool { return a.spawnTasks }

// DispatchCall offers a method call to the handler. handled is false
// when the handler does not have member, in which case the caller
// should try another interface. When handled is true, err is the
// completion's error.
//
// Call runs under shared access. If it answers RequiresMut, shared
// access is released before exclusive access is taken and CallMut
// runs. An Async completion runs before the lock it was produced
// under is released.
func (a *ArcInterface) DispatchCall(ctx context.Context, server *Server, conn bus.Connection, msg *bus.Message, member names.MemberName) (handled bool, err error) {
	result := a.callShared(ctx, server, conn, msg, member)
	switch result.Kind() {
	case ResultAsync:
		return true, result.err
	case ResultRequiresMut:
		return a.callExclusive(ctx, server, conn, msg, member)
	default:
		return false, nil
	}
}

// phaseOutcome carries a first-phase result out of its critical
// section. For async results the completion has already run and err
// holds its error.
type phaseOutcome struct {
	kind ResultKind
	err  error
}

func (p phaseOutcome) Kind() ResultKind { return p.kind }

func (a *ArcInterface) callShared(ctx context.Context, server *Server, conn bus.Connection, msg *bus.Message, member names.MemberName) phaseOutcome {
	a.lock.RLock()
	defer a.lock.RUnlock()

	result := a.iface.Call(ctx, server, conn, msg, member)
	if result.Kind() == ResultAsync {
		return phaseOutcome{kind: ResultAsync, err: result.Run(ctx)}
	}
	return phaseOutcome{kind: result.Kind()}
}

func (a *ArcInterface) callExclusive(ctx context.Context, server *Server, conn bus.Connection, msg *bus.Message, member names.MemberName) (bool, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	result := a.iface.CallMut(ctx, server, conn, msg, member)
	if result.Kind() != ResultAsync {
		// RequiresMut from the exclusive variant has nowhere further
		// to go.
		return false, nil
	}
	return true, result.Run(ctx)
}

// DispatchSet writes a property through Set, falling back to SetMut
// under exclusive access when Set answers RequiresMut. found is false
// when the handler has no such property.
func (a *ArcInterface) DispatchSet(ctx context.Context, property string, value bus.Value, signals *bus.SignalContext) (found bool, err error) {
	outcome := a.setShared(ctx, property, value, signals)
	switch outcome.Kind() {
	case ResultAsync:
		return true, outcome.err
	case ResultRequiresMut:
		a.lock.Lock()
		defer a.lock.Unlock()
		return a.iface.SetMut(ctx, property, value, signals)
	default:
		return false, nil
	}
}

func (a *ArcInterface) setShared(ctx context.Context, property string, value bus.Value, signals *bus.SignalContext) phaseOutcome {
	a.lock.RLock()
	defer a.lock.RUnlock()

	result := a.iface.Set(ctx, property, value, signals)
	if result.Kind() == ResultAsync {
		return phaseOutcome{kind: ResultAsync, err: result.Run(ctx)}
	}
	return phaseOutcome{kind: result.Kind()}
}

// Get reads a property under shared access.
func (a *ArcInterface) Get(ctx context.Context, property string) (bus.Value, bool, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.iface.Get(ctx, property)
}

// GetAll reads every property under shared access.
func (a *ArcInterface) GetAll(ctx context.Context) (map[string]bus.Value, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.iface.GetAll(ctx)
}

// WriteIntrospection renders the handler's XML fragment under shared
// access.
func (a *ArcInterface) WriteIntrospection(w io.Writer, level int) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	a.iface.WriteIntrospection(w, level)
}

// Read runs fn with the handler under shared access.
func (a *ArcInterface) Read(fn func(Interface)) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	fn(a.iface)
}

// Write runs fn with the handler under exclusive access.
func (a *ArcInterface) Write(fn func(Interface)) {
	a.lock.Lock()
	defer a.lock.Unlock()
	fn(a.iface)
}
