// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busconn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/codec"
	"github.com/bureau-foundation/objectbus/lib/names"
	"github.com/bureau-foundation/objectbus/lib/objectserver"
	"github.com/bureau-foundation/objectbus/lib/testutil"
)

const testTimeout = 5 * time.Second

var (
	echoPath  = names.MustParseObjectPath("/org/example/Echo")
	echoIface = names.MustParseInterfaceName("org.example.Echo")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// echo answers Echo with its arguments, fails Fail, and has one
// writable property.
type echo struct {
	objectserver.BaseInterface

	label string

	// failed receives one value per Fail call.
	failed chan struct{}
}

func (*echo) Name() names.InterfaceName { return echoIface }

func (e *echo) Get(_ context.Context, property string) (bus.Value, bool, error) {
	if property != "Label" {
		return nil, false, nil
	}
	return e.label, true, nil
}

func (e *echo) GetAll(context.Context) (map[string]bus.Value, error) {
	return map[string]bus.Value{"Label": e.label}, nil
}

func (e *echo) SetMut(ctx context.Context, property string, value bus.Value, signals *bus.SignalContext) (bool, error) {
	if property != "Label" {
		return false, nil
	}
	label, ok := value.(string)
	if !ok {
		return true, bus.InvalidArgs("Label must be a string")
	}
	e.label = label
	return true, signals.EmitPropertiesChanged(ctx, echoIface, map[string]bus.Value{"Label": label}, nil)
}

func (e *echo) Call(_ context.Context, _ *objectserver.Server, conn bus.Connection, msg *bus.Message, member names.MemberName) objectserver.DispatchResult {
	switch member.String() {
	case "Echo":
		return objectserver.NewAsync(conn, msg, func(context.Context) (bus.Body, error) {
			return bus.Body(msg.Body), nil
		})
	case "Fail":
		return objectserver.NewAsync(conn, msg, func(context.Context) (struct{}, error) {
			e.failed <- struct{}{}
			return struct{}{}, bus.AccessDenied("echo refuses")
		})
	case "FailUnnamed":
		return objectserver.NewAsync(conn, msg, func(context.Context) (struct{}, error) {
			return struct{}{}, &bus.MethodError{Message: "boom"}
		})
	default:
		return objectserver.NotFound
	}
}

func (*echo) CallMut(context.Context, *objectserver.Server, bus.Connection, *bus.Message, names.MemberName) objectserver.DispatchResult {
	return objectserver.NotFound
}

func (*echo) WriteIntrospection(w io.Writer, level int) {
	objectserver.WriteIndented(w, level, "<interface name=\"org.example.Echo\">\n</interface>\n")
}

// startListener serves an object server with an echo handler and
// returns the socket path.
func startListener(t *testing.T) (string, *echo, *Listener) {
	t.Helper()
	logger := testLogger()
	server := objectserver.New(logger)
	handler := &echo{label: "initial", failed: make(chan struct{}, 8)}
	if _, err := server.At(echoPath, handler); err != nil {
		t.Fatalf("At: %v", err)
	}

	socketPath := testutil.SocketPath(t, "bus.sock")
	listener := NewListener(socketPath, server, logger)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- listener.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, served, testTimeout, "listener shutdown"); err != nil {
			t.Errorf("Serve: %v", err)
		}
		server.Wait()
	})
	testutil.RequireClosed(t, listener.Ready(), testTimeout, "listener ready")
	return socketPath, handler, listener
}

func dial(t *testing.T, socketPath string, options ...DialOption) *Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	conn, err := Dial(ctx, socketPath, testLogger(), options...)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func callContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func TestDialGreeting(t *testing.T) {
	socketPath, _, listener := startListener(t)
	first := dial(t, socketPath)
	second := dial(t, socketPath)

	if !first.UniqueName().IsUnique() || first.UniqueName() == second.UniqueName() {
		t.Errorf("unique names = %s, %s", first.UniqueName(), second.UniqueName())
	}
	if first.GUID() != listener.GUID() || len(first.GUID()) != 32 {
		t.Errorf("GUID = %q, want %q", first.GUID(), listener.GUID())
	}
	if first.PeerName() != ServerName {
		t.Errorf("PeerName = %s, want %s", first.PeerName(), ServerName)
	}
}

func TestCallRoundTrip(t *testing.T) {
	socketPath, _, _ := startListener(t)
	conn := dial(t, socketPath)
	ctx := callContext(t)

	reply, err := conn.Call(ctx, names.BusName{}, echoPath, echoIface, names.MustParseMemberName("Echo"), 0,
		"text", int64(-3), map[string]any{"nested": []any{int64(1), "two"}})
	if err != nil {
		t.Fatalf("Call(Echo): %v", err)
	}
	if len(reply.Body) != 3 || reply.Body[0] != "text" || reply.Body[1] != int64(-3) {
		t.Fatalf("reply body = %#v", reply.Body)
	}
	nested, ok := reply.Body[2].(map[string]any)
	if !ok || len(nested["nested"].([]any)) != 2 {
		t.Errorf("nested value = %#v", reply.Body[2])
	}
	if reply.Header.Destination != conn.UniqueName() {
		t.Errorf("reply destination = %s, want %s", reply.Header.Destination, conn.UniqueName())
	}
	if reply.Header.Sender != ServerName {
		t.Errorf("reply sender = %s, want %s", reply.Header.Sender, ServerName)
	}
}

func TestCallErrorReply(t *testing.T) {
	socketPath, _, _ := startListener(t)
	conn := dial(t, socketPath)
	ctx := callContext(t)

	_, err := conn.Call(ctx, names.BusName{}, echoPath, echoIface, names.MustParseMemberName("Fail"), 0)
	var methodErr *bus.MethodError
	if !errors.As(err, &methodErr) {
		t.Fatalf("Call(Fail) error = %v, want *bus.MethodError", err)
	}
	if methodErr.Name != bus.ErrNameAccessDenied || methodErr.Message != "echo refuses" {
		t.Errorf("error = %+v", methodErr)
	}

	_, err = conn.Call(ctx, names.BusName{}, names.MustParseObjectPath("/missing"), echoIface, names.MustParseMemberName("Echo"), 0)
	if !errors.As(err, &methodErr) || methodErr.Name != bus.ErrNameUnknownObject {
		t.Errorf("Call on missing object error = %v", err)
	}
}

func TestUnnamedErrorReachesCallerAsFailed(t *testing.T) {
	socketPath, _, _ := startListener(t)
	conn := dial(t, socketPath)

	_, err := conn.Call(callContext(t), names.BusName{}, echoPath, echoIface, names.MustParseMemberName("FailUnnamed"), 0)
	var methodErr *bus.MethodError
	if !errors.As(err, &methodErr) {
		t.Fatalf("Call(FailUnnamed) error = %v, want *bus.MethodError", err)
	}
	if methodErr.Name != bus.ErrNameFailed || methodErr.Message != "boom" {
		t.Errorf("error = %+v, want Failed: boom", methodErr)
	}
}

func TestCallNoReply(t *testing.T) {
	socketPath, handler, _ := startListener(t)
	conn := dial(t, socketPath)
	ctx := callContext(t)

	reply, err := conn.Call(ctx, names.BusName{}, echoPath, echoIface, names.MustParseMemberName("Fail"), bus.FlagNoReplyExpected)
	if reply != nil || err != nil {
		t.Fatalf("no-reply Call = (%v, %v), want (nil, nil)", reply, err)
	}

	testutil.RequireReceive(t, handler.failed, testTimeout, "no-reply call ran")

	// The failure produced no frame: the next reply the client sees
	// belongs to the next call.
	reply, err = conn.Call(ctx, names.BusName{}, echoPath, echoIface, names.MustParseMemberName("Echo"), 0, "after")
	if err != nil {
		t.Fatalf("Call(Echo): %v", err)
	}
	if reply.Body[0] != "after" {
		t.Errorf("reply body = %#v", reply.Body)
	}
}

func TestPropertiesChangedReachesClient(t *testing.T) {
	socketPath, _, _ := startListener(t)
	signals := make(chan *bus.Message, 4)
	conn := dial(t, socketPath, WithHandler(MessageHandlerFunc(func(_ context.Context, _ bus.Connection, msg *bus.Message) {
		if msg.Header.Type == bus.TypeSignal {
			signals <- msg
		}
	})))
	ctx := callContext(t)

	_, err := conn.Call(ctx, names.BusName{}, echoPath, bus.PropertiesInterface, names.MustParseMemberName("Set"), 0,
		echoIface.String(), "Label", "renamed")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	signal := testutil.RequireReceive(t, signals, testTimeout, "PropertiesChanged signal")
	if signal.Header.Member.String() != "PropertiesChanged" || signal.Header.Path != echoPath {
		t.Errorf("signal = %s", signal)
	}
	if changed, _ := signal.Body[1].(map[string]any); changed["Label"] != "renamed" {
		t.Errorf("changed = %#v", signal.Body[1])
	}

	reply, err := conn.Call(ctx, names.BusName{}, echoPath, bus.PropertiesInterface, names.MustParseMemberName("Get"), 0,
		echoIface.String(), "Label")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reply.Body[0] != "renamed" {
		t.Errorf("Label = %v", reply.Body[0])
	}
}

func TestInvalidNameGetsInvalidArgs(t *testing.T) {
	socketPath, _, _ := startListener(t)

	netConn, err := net.DialTimeout("unix", socketPath, testTimeout)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer netConn.Close()
	_ = netConn.SetDeadline(time.Now().Add(testTimeout))

	decoder := codec.NewDecoder(netConn)
	var hello greeting
	if err := decoder.Decode(&hello); err != nil {
		t.Fatalf("reading greeting: %v", err)
	}

	// Hand-built frame: the member name has a hyphen.
	if err := codec.NewEncoder(netConn).Encode(map[string]any{
		"type":   uint8(bus.TypeMethodCall),
		"serial": uint32(41),
		"path":   "/org/example/Echo",
		"member": "Not-Valid",
	}); err != nil {
		t.Fatalf("writing frame: %v", err)
	}

	var reply frame
	if err := decoder.Decode(&reply); err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	if reply.Type != bus.TypeError || reply.ReplySerial != 41 {
		t.Fatalf("reply = %+v, want error for serial 41", reply)
	}
	if reply.ErrorName != bus.ErrNameInvalidArgs.String() {
		t.Errorf("error name = %s", reply.ErrorName)
	}
	if reply.Destination != hello.UniqueName.String() {
		t.Errorf("destination = %s, want %s", reply.Destination, hello.UniqueName)
	}
}

func TestDialedConnRejectsIncomingCalls(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()

	client := newConn(left, testLogger())
	client.uniqueName = names.UniqueBusName(1, 5)
	go client.Serve(context.Background(), nil)
	defer client.Close()

	caller := newConn(right, testLogger())
	caller.uniqueName = ServerName
	go caller.Serve(context.Background(), nil)
	defer caller.Close()

	_, err := caller.Call(callContext(t), client.UniqueName(), names.RootPath, names.InterfaceName{}, names.MustParseMemberName("Anything"), 0)
	var methodErr *bus.MethodError
	if !errors.As(err, &methodErr) || methodErr.Name != bus.ErrNameUnknownObject {
		t.Errorf("call into a client error = %v, want UnknownObject", err)
	}
}

func TestCloseFailsPendingAndLaterCalls(t *testing.T) {
	left, right := net.Pipe()
	defer right.Close()

	// The far side reads frames and never answers.
	go func() {
		decoder := codec.NewDecoder(right)
		for {
			var raw codec.RawMessage
			if decoder.Decode(&raw) != nil {
				return
			}
		}
	}()

	conn := newConn(left, testLogger())
	go conn.Serve(context.Background(), nil)

	result := make(chan error, 1)
	go func() {
		_, err := conn.Call(context.Background(), names.BusName{}, names.RootPath, names.InterfaceName{}, names.MustParseMemberName("Hang"), 0)
		result <- err
	}()

	// Whether Close lands before or after the call registers, the
	// caller sees ErrClosed.
	conn.Close()
	if err := testutil.RequireReceive(t, result, testTimeout, "pending call result"); !errors.Is(err, ErrClosed) {
		t.Errorf("pending call error = %v, want ErrClosed", err)
	}
	testutil.RequireClosed(t, conn.Done(), testTimeout, "read loop exit")
	if err := conn.Err(); err != nil {
		t.Errorf("read loop error after Close = %v", err)
	}

	if _, err := conn.Call(context.Background(), names.BusName{}, names.RootPath, names.InterfaceName{}, names.MustParseMemberName("Late"), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("call after Close error = %v, want ErrClosed", err)
	}
}

func TestListenerRemovesStaleSocket(t *testing.T) {
	socketPath := testutil.SocketPath(t, "stale.sock")
	if err := os.WriteFile(socketPath, nil, 0o600); err != nil {
		t.Fatalf("creating stale file: %v", err)
	}

	listener := NewListener(socketPath, MessageHandlerFunc(rejectCalls), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- listener.Serve(ctx) }()
	testutil.RequireClosed(t, listener.Ready(), testTimeout, "listener ready")

	dial(t, socketPath)

	cancel()
	if err := testutil.RequireReceive(t, served, testTimeout, "listener shutdown"); err != nil {
		t.Errorf("Serve: %v", err)
	}
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Errorf("socket file still present after shutdown: %v", err)
	}
}
