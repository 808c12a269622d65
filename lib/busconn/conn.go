// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busconn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/codec"
	"github.com/bureau-foundation/objectbus/lib/names"
)

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("busconn: connection closed")

// ServerName is the unique name the listener side of every connection
// uses for itself.
var ServerName = names.UniqueBusName(1, 0)

// writeTimeout bounds how long one frame may take to write. A peer
// that stops reading cannot wedge the writers forever.
const writeTimeout = 10 * time.Second

// MessageHandler receives method calls and signals from a connection's
// read loop, one at a time. *objectserver.Server implements it.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conn bus.Connection, msg *bus.Message)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, conn bus.Connection, msg *bus.Message)

// HandleMessage calls f.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, conn bus.Connection, msg *bus.Message) {
	f(ctx, conn, msg)
}

// Conn is one end of a bus connection over a stream socket. It
// implements bus.Connection. All methods are safe for concurrent use.
type Conn struct {
	netConn net.Conn
	logger  *slog.Logger

	// uniqueName is this side's name. peerName is the other side's,
	// stamped as the sender of every incoming message.
	uniqueName names.BusName
	peerName   names.BusName
	guid       string

	writeMu sync.Mutex
	encoder *codec.Encoder
	decoder *codec.Decoder

	serial atomic.Uint32

	pendingMu sync.Mutex
	pending   map[uint32]chan *bus.Message

	closeOnce sync.Once
	closed    chan struct{}

	// done is closed when the read loop exits. readErr holds why.
	done    chan struct{}
	readErr error
}

func newConn(netConn net.Conn, logger *slog.Logger) *Conn {
	return &Conn{
		netConn: netConn,
		logger:  logger,
		encoder: codec.NewEncoder(netConn),
		decoder: codec.NewDecoder(netConn),
		pending: make(map[uint32]chan *bus.Message),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// UniqueName implements bus.Connection.
func (c *Conn) UniqueName() names.BusName { return c.uniqueName }

// PeerName is the unique name of the other side.
func (c *Conn) PeerName() names.BusName { return c.peerName }

// GUID is the listener's identifier from the greeting.
func (c *Conn) GUID() string { return c.guid }

// Done is closed when the read loop has exited.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns why the read loop exited, after Done is closed. A clean
// shutdown (peer hangup or Close) reports nil.
func (c *Conn) Err() error {
	<-c.done
	return c.readErr
}

// Close closes the socket. Pending calls fail with ErrClosed.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.netConn.Close()
	})
	return err
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Conn) nextSerial() uint32 {
	for {
		if serial := c.serial.Add(1); serial != 0 {
			return serial
		}
	}
}

// send assigns a serial and sender to msg and writes it as one frame.
func (c *Conn) send(msg *bus.Message) error {
	if c.isClosed() {
		return ErrClosed
	}
	if msg.Header.Serial == 0 {
		msg.Header.Serial = c.nextSerial()
	}
	msg.Header.Sender = c.uniqueName

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.encoder.Encode(frameFromMessage(msg)); err != nil {
		if c.isClosed() {
			return ErrClosed
		}
		return fmt.Errorf("writing %s: %w", msg.Header.Type, err)
	}
	return nil
}

// Reply implements bus.Connection.
func (c *Conn) Reply(ctx context.Context, call *bus.Message, body ...any) error {
	return c.send(&bus.Message{
		Header: bus.Header{
			Type:        bus.TypeMethodReturn,
			ReplySerial: call.Header.Serial,
			Destination: call.Header.Sender,
		},
		Body: body,
	})
}

// ReplyError implements bus.Connection. An err without a name is sent
// as Failed.
func (c *Conn) ReplyError(ctx context.Context, call *bus.Header, err bus.Error) error {
	err = bus.AsError(err)
	message := err.Error()
	if methodErr, ok := err.(*bus.MethodError); ok {
		message = methodErr.Message
	}
	return c.send(&bus.Message{
		Header: bus.Header{
			Type:        bus.TypeError,
			ReplySerial: call.Serial,
			ErrorName:   err.ErrorName(),
			Destination: call.Sender,
		},
		Body: []any{message},
	})
}

// EmitSignal implements bus.Connection.
func (c *Conn) EmitSignal(ctx context.Context, destination names.BusName, path names.ObjectPath,
	iface names.InterfaceName, member names.MemberName, body ...any) error {
	return c.send(&bus.Message{
		Header: bus.Header{
			Type:        bus.TypeSignal,
			Path:        path,
			Interface:   iface,
			Member:      member,
			Destination: destination,
		},
		Body: body,
	})
}

// Call sends a method call and waits for its reply. An error reply is
// returned as a *bus.MethodError. With FlagNoReplyExpected set, Call
// returns (nil, nil) as soon as the call is written.
//
// The connection's read loop must be running (Dial starts it).
func (c *Conn) Call(ctx context.Context, destination names.BusName, path names.ObjectPath,
	iface names.InterfaceName, member names.MemberName, flags bus.Flags, body ...any) (*bus.Message, error) {
	call := &bus.Message{
		Header: bus.Header{
			Type:        bus.TypeMethodCall,
			Flags:       flags,
			Serial:      c.nextSerial(),
			Path:        path,
			Interface:   iface,
			Member:      member,
			Destination: destination,
		},
		Body: body,
	}

	if flags.Has(bus.FlagNoReplyExpected) {
		return nil, c.send(call)
	}

	replies := make(chan *bus.Message, 1)
	c.pendingMu.Lock()
	c.pending[call.Header.Serial] = replies
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, call.Header.Serial)
		c.pendingMu.Unlock()
	}()

	if err := c.send(call); err != nil {
		return nil, err
	}

	select {
	case reply := <-replies:
		if reply.Header.Type == bus.TypeError {
			return nil, errorFromReply(reply)
		}
		return reply, nil
	case <-c.closed:
		return nil, ErrClosed
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for reply to %s: %w", member, ctx.Err())
	}
}

func errorFromReply(reply *bus.Message) *bus.MethodError {
	methodErr := &bus.MethodError{Name: reply.Header.ErrorName}
	if len(reply.Body) > 0 {
		if message, ok := reply.Body[0].(string); ok {
			methodErr.Message = message
		}
	}
	return methodErr
}

// deliver routes a reply to the Call waiting for it.
func (c *Conn) deliver(reply *bus.Message) {
	c.pendingMu.Lock()
	replies, ok := c.pending[reply.Header.ReplySerial]
	c.pendingMu.Unlock()
	if !ok {
		c.logger.Debug("dropping reply with no pending call",
			"reply_serial", reply.Header.ReplySerial,
			"type", reply.Header.Type,
		)
		return
	}
	select {
	case replies <- reply:
	default:
		c.logger.Debug("dropping duplicate reply", "reply_serial", reply.Header.ReplySerial)
	}
}

// Serve runs the read loop until the peer hangs up, the connection is
// closed, or ctx is cancelled. Calls and signals go to handler in
// arrival order. Replies go to pending Calls.
func (c *Conn) Serve(ctx context.Context, handler MessageHandler) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()
	c.readErr = c.readLoop(ctx, handler)
	close(c.done)
	return c.readErr
}

func (c *Conn) readLoop(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		handler = MessageHandlerFunc(rejectCalls)
	}
	for {
		var raw codec.RawMessage
		if err := c.decoder.Decode(&raw); err != nil {
			if c.isClosed() || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading frame: %w", err)
		}

		var wire frame
		if err := codec.Unmarshal(raw, &wire); err != nil {
			diagnostic, _ := codec.Diagnose(raw)
			c.logger.Debug("dropping undecodable frame", "error", err, "frame", diagnostic)
			continue
		}

		msg, err := wire.message()
		if err != nil {
			c.rejectFrame(ctx, &wire, err)
			continue
		}
		if !c.peerName.IsZero() {
			msg.Header.Sender = c.peerName
		}

		switch msg.Header.Type {
		case bus.TypeMethodReturn, bus.TypeError:
			c.deliver(msg)
		default:
			handler.HandleMessage(ctx, c, msg)
		}
	}
}

// rejectFrame answers a method call whose header failed validation
// with InvalidArgs. Anything else is dropped.
func (c *Conn) rejectFrame(ctx context.Context, wire *frame, reason error) {
	c.logger.Debug("rejecting invalid frame",
		"type", wire.Type,
		"serial", wire.Serial,
		"error", reason,
	)
	if wire.Type != bus.TypeMethodCall || wire.Serial == 0 || wire.Flags.Has(bus.FlagNoReplyExpected) {
		return
	}
	header := &bus.Header{Serial: wire.Serial, Sender: c.peerName}
	if err := c.ReplyError(ctx, header, bus.InvalidArgs(reason.Error())); err != nil {
		c.logger.Debug("sending invalid frame reply failed", "error", err)
	}
}

// rejectCalls is the handler for connections that export no objects.
func rejectCalls(ctx context.Context, conn bus.Connection, msg *bus.Message) {
	if msg.Header.Type != bus.TypeMethodCall || msg.Header.NoReplyExpected() {
		return
	}
	_ = conn.ReplyError(ctx, &msg.Header, bus.UnknownObject(fmt.Sprintf("no objects exported at '%s'", msg.Header.Path)))
}

var _ bus.Connection = (*Conn)(nil)
