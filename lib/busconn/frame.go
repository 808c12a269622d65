// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busconn

import (
	"fmt"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/names"
)

// frame is the wire form of one bus message: a single CBOR map. Name
// fields travel as plain strings and are validated after decoding, so
// a frame with a bad name can still be answered by serial.
type frame struct {
	Type        bus.MessageType `cbor:"type"`
	Flags       bus.Flags       `cbor:"flags,omitempty"`
	Serial      uint32          `cbor:"serial"`
	ReplySerial uint32          `cbor:"reply_serial,omitempty"`
	Path        string          `cbor:"path,omitempty"`
	Interface   string          `cbor:"interface,omitempty"`
	Member      string          `cbor:"member,omitempty"`
	ErrorName   string          `cbor:"error_name,omitempty"`
	Sender      string          `cbor:"sender,omitempty"`
	Destination string          `cbor:"destination,omitempty"`
	Body        []any           `cbor:"body,omitempty"`
}

func frameFromMessage(msg *bus.Message) frame {
	header := &msg.Header
	return frame{
		Type:        header.Type,
		Flags:       header.Flags,
		Serial:      header.Serial,
		ReplySerial: header.ReplySerial,
		Path:        header.Path.String(),
		Interface:   header.Interface.String(),
		Member:      header.Member.String(),
		ErrorName:   header.ErrorName.String(),
		Sender:      header.Sender.String(),
		Destination: header.Destination.String(),
		Body:        msg.Body,
	}
}

// message validates every name in the frame and the fields its type
// requires, and builds the bus message.
func (f *frame) message() (*bus.Message, error) {
	msg := &bus.Message{
		Header: bus.Header{
			Type:        f.Type,
			Flags:       f.Flags,
			Serial:      f.Serial,
			ReplySerial: f.ReplySerial,
		},
		Body: f.Body,
	}
	header := &msg.Header
	var err error

	if f.Serial == 0 {
		return nil, fmt.Errorf("%s frame has serial 0", f.Type)
	}
	if f.Path != "" {
		if header.Path, err = names.ParseObjectPath(f.Path); err != nil {
			return nil, err
		}
	}
	if f.Interface != "" {
		if header.Interface, err = names.ParseInterfaceName(f.Interface); err != nil {
			return nil, err
		}
	}
	if f.Member != "" {
		if header.Member, err = names.ParseMemberName(f.Member); err != nil {
			return nil, err
		}
	}
	if f.ErrorName != "" {
		if header.ErrorName, err = names.ParseErrorName(f.ErrorName); err != nil {
			return nil, err
		}
	}
	if f.Sender != "" {
		if header.Sender, err = names.ParseBusName(f.Sender); err != nil {
			return nil, err
		}
	}
	if f.Destination != "" {
		if header.Destination, err = names.ParseBusName(f.Destination); err != nil {
			return nil, err
		}
	}

	switch f.Type {
	case bus.TypeMethodCall:
		if header.Path.IsZero() || header.Member.IsZero() {
			return nil, fmt.Errorf("method call serial %d lacks path or member", f.Serial)
		}
	case bus.TypeSignal:
		if header.Path.IsZero() || header.Interface.IsZero() || header.Member.IsZero() {
			return nil, fmt.Errorf("signal serial %d lacks path, interface, or member", f.Serial)
		}
	case bus.TypeMethodReturn:
		if f.ReplySerial == 0 {
			return nil, fmt.Errorf("method return serial %d lacks reply serial", f.Serial)
		}
	case bus.TypeError:
		if f.ReplySerial == 0 || header.ErrorName.IsZero() {
			return nil, fmt.Errorf("error serial %d lacks reply serial or error name", f.Serial)
		}
	default:
		return nil, fmt.Errorf("unknown message type %d", f.Type)
	}
	return msg, nil
}

// greeting is the first frame the listener writes on a new
// connection.
type greeting struct {
	GUID       string        `cbor:"guid"`
	UniqueName names.BusName `cbor:"unique_name"`
}
