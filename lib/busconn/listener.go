// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/objectbus/lib/names"
)

// Listener accepts bus connections on a Unix socket and runs each one
// against a MessageHandler, typically an *objectserver.Server.
type Listener struct {
	socketPath string
	handler    MessageHandler
	logger     *slog.Logger
	guid       string

	// nextPeer numbers connections for their unique names (":1.N").
	nextPeer atomic.Uint64

	ready     chan struct{}
	readyOnce sync.Once

	// activeConnections tracks connection read loops for graceful
	// shutdown. Serve waits for all of them before returning.
	activeConnections sync.WaitGroup
}

// NewListener creates a listener for socketPath. Call Serve to start
// accepting connections.
func NewListener(socketPath string, handler MessageHandler, logger *slog.Logger) *Listener {
	return &Listener{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		guid:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		ready:      make(chan struct{}),
	}
}

// GUID identifies this listener instance. It is sent to every client
// in the greeting.
func (l *Listener) GUID() string { return l.guid }

// Ready is closed once the socket is accepting connections.
func (l *Listener) Ready() <-chan struct{} { return l.ready }

// Serve listens on the socket and serves connections until ctx is
// cancelled. It then stops accepting, closes every connection, and
// waits for their read loops to exit.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (l *Listener) Serve(ctx context.Context) error {
	if err := os.Remove(l.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", l.socketPath, err)
	}

	listener, err := net.Listen("unix", l.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", l.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(l.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	l.logger.Info("bus listener ready", "path", l.socketPath, "guid", l.guid)
	l.readyOnce.Do(func() { close(l.ready) })

	for {
		netConn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			l.logger.Error("accept failed", "error", err)
			continue
		}

		l.activeConnections.Add(1)
		go func() {
			defer l.activeConnections.Done()
			l.handleConnection(ctx, netConn)
		}()
	}

	l.activeConnections.Wait()
	return nil
}

// greetingTimeout bounds the greeting write on a new connection.
const greetingTimeout = 5 * time.Second

func (l *Listener) handleConnection(ctx context.Context, netConn net.Conn) {
	peerName := names.UniqueBusName(1, l.nextPeer.Add(1))
	logger := l.logger.With("peer", peerName)

	if credentials, ok := peerCredentials(netConn); ok {
		logger.Info("connection accepted",
			"pid", credentials.PID,
			"uid", credentials.UID,
			"gid", credentials.GID,
		)
	} else {
		logger.Info("connection accepted")
	}

	conn := newConn(netConn, logger)
	conn.uniqueName = ServerName
	conn.peerName = peerName
	conn.guid = l.guid
	defer conn.Close()

	_ = netConn.SetWriteDeadline(time.Now().Add(greetingTimeout))
	if err := conn.encoder.Encode(greeting{GUID: l.guid, UniqueName: peerName}); err != nil {
		logger.Debug("writing greeting failed", "error", err)
		return
	}

	if err := conn.Serve(ctx, l.handler); err != nil {
		logger.Debug("connection ended with error", "error", err)
		return
	}
	logger.Info("connection closed")
}
