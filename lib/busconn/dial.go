// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busconn

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// dialTimeout is the maximum time to wait for the connect phase.
const dialTimeout = 5 * time.Second

// DialOption configures Dial.
type DialOption func(*dialOptions)

type dialOptions struct {
	handler MessageHandler
}

// WithHandler routes incoming calls and signals to handler. Without
// it, incoming calls are answered with UnknownObject and signals are
// dropped.
func WithHandler(handler MessageHandler) DialOption {
	return func(options *dialOptions) {
		options.handler = handler
	}
}

// Dial connects to a listener, reads the greeting, and starts the
// connection's read loop. ctx bounds the connect and greeting only.
// Close the returned Conn to stop the read loop.
func Dial(ctx context.Context, socketPath string, logger *slog.Logger, options ...DialOption) (*Conn, error) {
	var config dialOptions
	for _, option := range options {
		option(&config)
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	netConn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", socketPath, err)
	}

	conn := newConn(netConn, logger)

	deadline := time.Now().Add(greetingTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = netConn.SetReadDeadline(deadline)
	var hello greeting
	if err := conn.decoder.Decode(&hello); err != nil {
		netConn.Close()
		return nil, fmt.Errorf("reading greeting from %s: %w", socketPath, err)
	}
	_ = netConn.SetReadDeadline(time.Time{})

	if !hello.UniqueName.IsUnique() {
		netConn.Close()
		return nil, fmt.Errorf("greeting from %s assigned non-unique name %q", socketPath, hello.UniqueName)
	}
	conn.uniqueName = hello.UniqueName
	conn.peerName = ServerName
	conn.guid = hello.GUID

	go conn.Serve(context.WithoutCancel(ctx), config.handler)
	return conn, nil
}
