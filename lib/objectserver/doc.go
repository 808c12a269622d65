// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectserver dispatches bus method calls and property access
// to application handlers.
//
// An application implements [Interface] for each bus interface it
// exports and registers the handler at an object path:
//
//	server := objectserver.New(logger)
//	server.At(names.MustParseObjectPath("/org/example/Counter"), counter)
//
// A transport hands every incoming message to [Server.HandleMessage].
//
// # Two-phase dispatch
//
// Each registered handler is wrapped in an [ArcInterface] holding a
// reader/writer lock. A call is first offered to [Interface.Call]
// under shared access, where any number of calls may run at once. A
// handler that needs to mutate state answers [RequiresMut]. Shared
// access is then released, exclusive access taken, and the call
// offered again to [Interface.CallMut]. The handler's accepted work is
// an [Async] completion, which runs while the lock it was produced
// under is still held. [NewAsync] builds completions that send the
// reply.
//
// Property writes follow the same protocol through Set and SetMut.
//
// # Concurrency
//
// Handlers whose SpawnTasksForMethods answers true run on their own
// goroutine, so a slow call does not hold up later calls on the same
// connection. Handlers answering false run on the transport's read
// loop, and their replies leave in request order. The preference is
// read once when the handler is wrapped.
//
// Handler panics are recovered. The caller gets a Failed error and
// the lock is released.
//
// # Typed access
//
// [Downcast], [ReadAs], and [WriteAs] recover a registered handler's
// concrete type with a checked type assertion.
package objectserver
