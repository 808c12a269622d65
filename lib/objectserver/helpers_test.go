// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver_test

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"testing"
	"time"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/bus/bustest"
	"github.com/bureau-foundation/objectbus/lib/names"
	"github.com/bureau-foundation/objectbus/lib/objectserver"
	"github.com/bureau-foundation/objectbus/lib/testutil"
)

const replyTimeout = 5 * time.Second

var (
	testPath  = names.MustParseObjectPath("/org/example/Test")
	testIface = names.MustParseInterfaceName("org.example.Test")
	sender    = names.MustParseBusName(":1.7")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// method is one member of a testInterface.
type method func(ctx context.Context, conn bus.Connection, msg *bus.Message) objectserver.DispatchResult

// testInterface is a handler assembled from per-member functions.
// Members in shared run under shared access. Members in exclusive are
// reached through RequiresMut.
type testInterface struct {
	objectserver.BaseInterface

	name       names.InterfaceName
	spawn      bool
	shared     map[string]method
	exclusive  map[string]method
	properties map[string]bus.Value
	readOnly   map[string]bool
	fragment   string
}

func newTestInterface(spawn bool) *testInterface {
	return &testInterface{
		name:       testIface,
		spawn:      spawn,
		shared:     map[string]method{},
		exclusive:  map[string]method{},
		properties: map[string]bus.Value{},
		readOnly:   map[string]bool{},
	}
}

func (t *testInterface) Name() names.InterfaceName { return t.name }

func (t *testInterface) SpawnTasksForMethods() bool { return t.spawn }

func (t *testInterface) Get(_ context.Context, property string) (bus.Value, bool, error) {
	value, ok := t.properties[property]
	return value, ok, nil
}

func (t *testInterface) GetAll(context.Context) (map[string]bus.Value, error) {
	return maps.Clone(t.properties), nil
}

func (t *testInterface) SetMut(ctx context.Context, property string, value bus.Value, signals *bus.SignalContext) (bool, error) {
	if _, ok := t.properties[property]; !ok {
		return false, nil
	}
	if t.readOnly[property] {
		return true, bus.PropertyReadOnly(property)
	}
	t.properties[property] = value
	return true, signals.EmitPropertiesChanged(ctx, t.name, map[string]bus.Value{property: value}, nil)
}

func (t *testInterface) Call(ctx context.Context, _ *objectserver.Server, conn bus.Connection, msg *bus.Message, member names.MemberName) objectserver.DispatchResult {
	if handler, ok := t.shared[member.String()]; ok {
		return handler(ctx, conn, msg)
	}
	if _, ok := t.exclusive[member.String()]; ok {
		return objectserver.RequiresMut
	}
	return objectserver.NotFound
}

func (t *testInterface) CallMut(ctx context.Context, _ *objectserver.Server, conn bus.Connection, msg *bus.Message, member names.MemberName) objectserver.DispatchResult {
	if handler, ok := t.exclusive[member.String()]; ok {
		return handler(ctx, conn, msg)
	}
	return objectserver.NotFound
}

func (t *testInterface) WriteIntrospection(w io.Writer, level int) {
	objectserver.WriteIndented(w, level, t.fragment)
}

// replyWith is a method that replies with value.
func replyWith[T any](value T) method {
	return func(_ context.Context, conn bus.Connection, msg *bus.Message) objectserver.DispatchResult {
		return objectserver.NewAsync(conn, msg, func(context.Context) (T, error) {
			return value, nil
		})
	}
}

// newCall builds a method call as a transport would deliver it. An
// empty iface leaves the interface unset.
func newCall(serial uint32, path names.ObjectPath, iface string, member string, body ...any) *bus.Message {
	var interfaceName names.InterfaceName
	if iface != "" {
		interfaceName = names.MustParseInterfaceName(iface)
	}
	msg := bus.NewMethodCall(path, interfaceName, names.MustParseMemberName(member), body...)
	msg.Header.Serial = serial
	msg.Header.Sender = sender
	return msg
}

// register creates a server with handler at testPath.
func register(t *testing.T, handler objectserver.Interface, options ...objectserver.Option) *objectserver.Server {
	t.Helper()
	server := objectserver.New(testLogger(), options...)
	added, err := server.At(testPath, handler)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !added {
		t.Fatal("At reported an existing registration on an empty server")
	}
	return server
}

// requireReply reads the next outgoing message and checks that it is
// a method return for serial.
func requireReply(t *testing.T, conn *bustest.Conn, serial uint32) *bus.Message {
	t.Helper()
	reply := testutil.RequireReceive(t, conn.Sent, replyTimeout, "waiting for reply to serial %d", serial)
	if reply.Header.Type != bus.TypeMethodReturn {
		t.Fatalf("reply to serial %d: got %s (%v), want method_return", serial, reply.Header.Type, reply.Body)
	}
	if reply.Header.ReplySerial != serial {
		t.Fatalf("reply serial = %d, want %d", reply.Header.ReplySerial, serial)
	}
	return reply
}

// requireError reads the next outgoing message and checks that it is
// an error reply for serial with the given name.
func requireError(t *testing.T, conn *bustest.Conn, serial uint32, name names.ErrorName) *bus.Message {
	t.Helper()
	reply := testutil.RequireReceive(t, conn.Sent, replyTimeout, "waiting for error reply to serial %d", serial)
	if reply.Header.Type != bus.TypeError {
		t.Fatalf("reply to serial %d: got %s (%v), want error", serial, reply.Header.Type, reply.Body)
	}
	if reply.Header.ReplySerial != serial {
		t.Fatalf("error reply serial = %d, want %d", reply.Header.ReplySerial, serial)
	}
	if reply.Header.ErrorName != name {
		t.Fatalf("error name = %s (%v), want %s", reply.Header.ErrorName, reply.Body, name)
	}
	return reply
}
