// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"fmt"
	"math"

	"github.com/bureau-foundation/objectbus/lib/names"
)

// Value is a decoded argument or property value. The object layer
// never inspects values. Decoding them is the transport's job.
type Value = any

// Body is a list of values. A handler that returns a Body from a method
// produces a reply with multiple return values.
type Body []any

// MessageType is the kind of a bus message.
type MessageType uint8

const (
	TypeInvalid MessageType = iota
	TypeMethodCall
	TypeMethodReturn
	TypeError
	TypeSignal
)

// String returns the conventional lowercase name of the type.
func (t MessageType) String() string {
	switch t {
	case TypeMethodCall:
		return "method_call"
	case TypeMethodReturn:
		return "method_return"
	case TypeError:
		return "error"
	case TypeSignal:
		return "signal"
	default:
		return "invalid"
	}
}

// Flags are the per-message header flags.
type Flags uint8

const (
	// FlagNoReplyExpected: the caller will not read a reply. The
	// method still runs for its side effects.
	FlagNoReplyExpected Flags = 1 << iota
	// FlagNoAutoStart: do not launch an owner for the destination.
	FlagNoAutoStart
	// FlagAllowInteractiveAuthorization: the caller is prepared to
	// wait for an interactive authorization prompt.
	FlagAllowInteractiveAuthorization
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// Header carries a message's routing and correlation fields. Name
// fields are validated by whoever builds the Header (the transport),
// so the object layer can match them without re-checking.
type Header struct {
	Type   MessageType
	Flags  Flags
	Serial uint32

	// ReplySerial correlates a method return or error with the
	// call's Serial.
	ReplySerial uint32

	Path      names.ObjectPath
	Interface names.InterfaceName
	Member    names.MemberName
	ErrorName names.ErrorName

	Sender      names.BusName
	Destination names.BusName
}

// NoReplyExpected reports whether the request suppresses replies.
func (h *Header) NoReplyExpected() bool {
	return h.Flags.Has(FlagNoReplyExpected)
}

// Message is a header plus its decoded body.
type Message struct {
	Header Header
	Body   []any
}

// NewMethodCall builds a method call message. Serial is left zero for
// the connection to assign.
func NewMethodCall(path names.ObjectPath, iface names.InterfaceName, member names.MemberName, body ...any) *Message {
	return &Message{
		Header: Header{
			Type:      TypeMethodCall,
			Path:      path,
			Interface: iface,
			Member:    member,
		},
		Body: body,
	}
}

// String formats the header fields that identify the message, for
// logging.
func (m *Message) String() string {
	switch m.Header.Type {
	case TypeMethodCall, TypeSignal:
		return fmt.Sprintf("%s serial=%d path=%s interface=%s member=%s",
			m.Header.Type, m.Header.Serial, m.Header.Path, m.Header.Interface, m.Header.Member)
	case TypeError:
		return fmt.Sprintf("error serial=%d reply_serial=%d name=%s",
			m.Header.Serial, m.Header.ReplySerial, m.Header.ErrorName)
	default:
		return fmt.Sprintf("%s serial=%d reply_serial=%d",
			m.Header.Type, m.Header.Serial, m.Header.ReplySerial)
	}
}

// StringArg returns body[index] as a string, or an InvalidArgs error.
func (m *Message) StringArg(index int) (string, error) {
	if err := m.checkArg(index); err != nil {
		return "", err
	}
	s, ok := m.Body[index].(string)
	if !ok {
		return "", InvalidArgs(fmt.Sprintf("argument %d: expected string, got %T", index, m.Body[index]))
	}
	return s, nil
}

// Int64Arg returns body[index] as an int64, accepting anything
// Int64Value does, or an InvalidArgs error.
func (m *Message) Int64Arg(index int) (int64, error) {
	if err := m.checkArg(index); err != nil {
		return 0, err
	}
	integer, ok := Int64Value(m.Body[index])
	if !ok {
		return 0, InvalidArgs(fmt.Sprintf("argument %d: expected an integer that fits int64, got %T", index, m.Body[index]))
	}
	return integer, nil
}

func (m *Message) checkArg(index int) error {
	if index < 0 || index >= len(m.Body) {
		return InvalidArgs(fmt.Sprintf("missing argument %d", index))
	}
	return nil
}

// Int64Value converts an integer value to int64. It accepts int64 as
// decoded from the wire and the native integer types in-process callers
// pass. A uint64 above math.MaxInt64, or any non-integer, reports false.
func Int64Value(value Value) (int64, bool) {
	switch typed := value.(type) {
	case int64:
		return typed, true
	case int:
		return int64(typed), true
	case int32:
		return int64(typed), true
	case uint32:
		return int64(typed), true
	case uint64:
		if typed > math.MaxInt64 {
			return 0, false
		}
		return int64(typed), true
	}
	return 0, false
}
