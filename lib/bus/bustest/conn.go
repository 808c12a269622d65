// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bustest provides an in-memory bus.Connection that records
// every message it is asked to send. Object server tests drive
// HandleMessage directly and inspect what came out.
package bustest

import (
	"context"
	"sync"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/names"
)

// Conn is a recording bus.Connection. Every outgoing message is
// appended to an internal log and also delivered on Sent, which is
// buffered so handlers never block on a test that is not reading.
type Conn struct {
	// Sent receives every outgoing message in send order.
	Sent chan *bus.Message

	name names.BusName

	mu       sync.Mutex
	messages []*bus.Message
	serial   uint32

	// failWith, when set, is returned from every send.
	failWith error
}

// NewConn returns a Conn with a unique name of ":1.1" and room for
// buffer unread messages on Sent.
func NewConn(buffer int) *Conn {
	return &Conn{
		Sent: make(chan *bus.Message, buffer),
		name: names.UniqueBusName(1, 1),
	}
}

// FailSends makes every later send return err without recording.
func (c *Conn) FailSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWith = err
}

// UniqueName implements bus.Connection.
func (c *Conn) UniqueName() names.BusName { return c.name }

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

// ReplyError implements bus.Connection.
func (c *Conn) ReplyError(ctx context.Context, call *bus.Header, err bus.Error) error {
	return c.send(&bus.Message{
		Header: bus.Header{
			Type:        bus.TypeError,
			ReplySerial: call.Serial,
			ErrorName:   err.ErrorName(),
			Destination: call.Sender,
		},
		Body: []any{errorMessage(err)},
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

func (c *Conn) send(message *bus.Message) error {
	c.mu.Lock()
	if c.failWith != nil {
		err := c.failWith
		c.mu.Unlock()
		return err
	}
	c.serial++
	message.Header.Serial = c.serial
	message.Header.Sender = c.name
	c.messages = append(c.messages, message)
	c.mu.Unlock()

	c.Sent <- message
	return nil
}

// Messages returns a snapshot of everything sent so far.
func (c *Conn) Messages() []*bus.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]*bus.Message, len(c.messages))
	copy(snapshot, c.messages)
	return snapshot
}

// Count returns how many messages have been sent.
func (c *Conn) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// errorMessage extracts the human-readable part of a bus error.
func errorMessage(err bus.Error) string {
	if methodErr, ok := err.(*bus.MethodError); ok {
		return methodErr.Message
	}
	return err.Error()
}

var _ bus.Connection = (*Conn)(nil)
