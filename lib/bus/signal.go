// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"

	"github.com/bureau-foundation/objectbus/lib/names"
)

var propertiesChangedMember = names.MemberNameUnchecked("PropertiesChanged")

// SignalContext lets a property setter emit signals from the object it
// belongs to. The object server builds one per Set request. A nil
// *SignalContext is valid and drops every signal, which is what unit
// tests of a setter usually want.
type SignalContext struct {
	conn Connection
	path names.ObjectPath
}

// NewSignalContext binds signals to conn and the emitting object path.
func NewSignalContext(conn Connection, path names.ObjectPath) *SignalContext {
	return &SignalContext{conn: conn, path: path}
}

// Path is the object path signals are emitted from.
func (s *SignalContext) Path() names.ObjectPath {
	if s == nil {
		return names.ObjectPath{}
	}
	return s.path
}

// Emit broadcasts a signal from the bound object.
func (s *SignalContext) Emit(ctx context.Context, iface names.InterfaceName, member names.MemberName, body ...any) error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.EmitSignal(ctx, names.BusName{}, s.path, iface, member, body...)
}

// EmitPropertiesChanged emits the standard PropertiesChanged signal
// for iface. Body: interface name, changed values, invalidated names.
func (s *SignalContext) EmitPropertiesChanged(ctx context.Context, iface names.InterfaceName, changed map[string]Value, invalidated []string) error {
	if changed == nil {
		changed = map[string]Value{}
	}
	if invalidated == nil {
		invalidated = []string{}
	}
	return s.Emit(ctx, PropertiesInterface, propertiesChangedMember, iface.String(), changed, invalidated)
}
