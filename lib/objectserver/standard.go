// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/names"
)

func isStandardInterface(name names.InterfaceName) bool {
	return name == bus.PropertiesInterface ||
		name == bus.IntrospectableInterface ||
		name == bus.PeerInterface
}

type standardHandler func(s *Server, ctx context.Context, conn bus.Connection, msg *bus.Message, target resolved) error

// standardMemberHandler finds the standard interface member a call
// without an interface name may be addressing.
func standardMemberHandler(member names.MemberName) standardHandler {
	switch member.String() {
	case "Ping", "GetMachineId":
		return func(s *Server, ctx context.Context, conn bus.Connection, msg *bus.Message, _ resolved) error {
			return s.handlePeer(ctx, conn, msg)
		}
	case "Introspect":
		return (*Server).handleIntrospectable
	case "Get", "GetAll", "Set":
		return (*Server).handleProperties
	default:
		return nil
	}
}

// handlePeer answers org.freedesktop.DBus.Peer.
func (s *Server) handlePeer(ctx context.Context, conn bus.Connection, msg *bus.Message) error {
	switch msg.Header.Member.String() {
	case "Ping":
		s.reply(ctx, conn, msg)
		return nil
	case "GetMachineId":
		machineID, err := s.machineID()
		if err != nil {
			return bus.Failed(fmt.Sprintf("reading machine id: %v", err))
		}
		s.reply(ctx, conn, msg, machineID)
		return nil
	default:
		return unknownMethod(&msg.Header)
	}
}

var machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

func readMachineID() (string, error) {
	var lastErr error
	for _, path := range machineIDPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		if machineID := strings.TrimSpace(string(data)); machineID != "" {
			return machineID, nil
		}
		lastErr = fmt.Errorf("%s is empty", path)
	}
	return "", lastErr
}

// dispatchProperties runs a Properties call with the concurrency
// preference of the interface it targets.
func (s *Server) dispatchProperties(ctx context.Context, conn bus.Connection, msg *bus.Message, target resolved) {
	spawn := false
	if name, err := interfaceArg(msg, 0); err == nil {
		if arc := findInterface(target.interfaces, name); arc != nil {
			spawn = arc.SpawnTasks()
		}
	}
	s.execute(ctx, spawn, conn, msg, func(ctx context.Context) error {
		return s.handleProperties(ctx, conn, msg, target)
	})
}

// handleProperties answers org.freedesktop.DBus.Properties Get,
// GetAll, and Set.
func (s *Server) handleProperties(ctx context.Context, conn bus.Connection, msg *bus.Message, target resolved) error {
	member := msg.Header.Member.String()
	if member != "Get" && member != "GetAll" && member != "Set" {
		return unknownMethod(&msg.Header)
	}

	interfaceName, err := interfaceArg(msg, 0)
	if err != nil {
		return err
	}
	arc := findInterface(target.interfaces, interfaceName)
	standard := isStandardInterface(interfaceName)
	if arc == nil && !standard {
		return bus.UnknownInterface(fmt.Sprintf("Unknown interface '%s'", interfaceName))
	}

	switch member {
	case "Get":
		property, err := msg.StringArg(1)
		if err != nil {
			return err
		}
		if standard {
			return unknownProperty(interfaceName, property)
		}
		value, ok, err := arc.Get(ctx, property)
		if err != nil {
			return err
		}
		if !ok {
			return unknownProperty(interfaceName, property)
		}
		s.reply(ctx, conn, msg, value)

	case "GetAll":
		if standard {
			s.reply(ctx, conn, msg, map[string]bus.Value{})
			return nil
		}
		values, err := arc.GetAll(ctx)
		if err != nil {
			return err
		}
		if values == nil {
			values = map[string]bus.Value{}
		}
		s.reply(ctx, conn, msg, values)

	case "Set":
		property, err := msg.StringArg(1)
		if err != nil {
			return err
		}
		if len(msg.Body) < 3 {
			return bus.InvalidArgs("missing property value")
		}
		if standard {
			return unknownProperty(interfaceName, property)
		}
		signals := bus.NewSignalContext(conn, msg.Header.Path)
		found, err := arc.DispatchSet(ctx, property, msg.Body[2], signals)
		if !found {
			return unknownProperty(interfaceName, property)
		}
		if err != nil {
			return err
		}
		s.reply(ctx, conn, msg)
	}
	return nil
}

func interfaceArg(msg *bus.Message, index int) (names.InterfaceName, error) {
	raw, err := msg.StringArg(index)
	if err != nil {
		return names.InterfaceName{}, err
	}
	name, err := names.ParseInterfaceName(raw)
	if err != nil {
		return names.InterfaceName{}, bus.InvalidArgs(err.Error())
	}
	return name, nil
}

func unknownProperty(iface names.InterfaceName, property string) error {
	return bus.UnknownProperty(fmt.Sprintf("Unknown property '%s' on interface '%s'", property, iface))
}

// handleIntrospectable answers org.freedesktop.DBus.Introspectable.
func (s *Server) handleIntrospectable(ctx context.Context, conn bus.Connection, msg *bus.Message, target resolved) error {
	if msg.Header.Member.String() != "Introspect" {
		return unknownMethod(&msg.Header)
	}
	s.reply(ctx, conn, msg, introspect(target))
	return nil
}
