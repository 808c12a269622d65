// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package busconn is the reference transport for objectbus: bus
// messages as CBOR frames over a Unix stream socket.
//
// A [Listener] owns the socket. For every accepted connection it
// assigns the peer a unique name (":1.N"), writes a greeting frame
// carrying the listener GUID and that name, and runs the connection's
// read loop against a [MessageHandler]:
//
//	server := objectserver.New(logger)
//	listener := busconn.NewListener(socketPath, server, logger)
//	go listener.Serve(ctx)
//
// Clients use [Dial], which reads the greeting and starts the read
// loop, then [Conn.Call]:
//
//	conn, err := busconn.Dial(ctx, socketPath, logger)
//	reply, err := conn.Call(ctx, names.BusName{}, path, iface, member, 0, int64(1))
//
// Each frame is one CBOR map (see lib/codec). Names in incoming frames
// are validated with lib/names before anything is dispatched. A method
// call carrying an invalid name is answered with InvalidArgs and never
// reaches the handler. The listener side overwrites the sender of
// every incoming message with the peer's assigned name.
//
// The read loop delivers calls and signals to the handler in arrival
// order and routes method returns and errors to the Call waiting for
// them. Writes from concurrent goroutines are serialized.
package busconn

// credentials are a peer's SO_PEERCRED values.
type credentials struct {
	PID int32
	UID uint32
	GID uint32
}
