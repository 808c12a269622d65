// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/clock"
	"github.com/bureau-foundation/objectbus/lib/names"
	"github.com/bureau-foundation/objectbus/lib/objectserver"
)

// CounterInterface is the interface name the counter answers for.
var CounterInterface = names.MustParseInterfaceName("org.example.Counter")

// maxSleep bounds Sleep so a client cannot pin a read lock forever.
const maxSleep = time.Minute

const counterIntrospection = `<interface name="org.example.Counter">
  <method name="Get">
    <arg name="count" type="x" direction="out"/>
  </method>
  <method name="Increment">
    <arg name="delta" type="x" direction="in"/>
    <arg name="count" type="x" direction="out"/>
  </method>
  <method name="Reset"/>
  <method name="Sleep">
    <arg name="milliseconds" type="x" direction="in"/>
  </method>
  <property name="Count" type="x" access="read"/>
  <property name="Step" type="x" access="readwrite"/>
</interface>
`

// Counter is an example org.example.Counter handler. Get and Sleep run
// under shared access, so concurrent Sleeps overlap. Increment and
// Reset take exclusive access. Fields are guarded by the wrapping
// ArcInterface's lock.
type Counter struct {
	objectserver.BaseInterface

	clock   clock.Clock
	spawn   bool
	initial int64
	count   int64
	step    int64
}

// NewCounter returns a counter starting at initial with a step of 1.
// spawn is reported by SpawnTasksForMethods. Sleep waits on clk.
func NewCounter(initial int64, spawn bool, clk clock.Clock) *Counter {
	return &Counter{
		clock:   clk,
		spawn:   spawn,
		initial: initial,
		count:   initial,
		step:    1,
	}
}

func (c *Counter) Name() names.InterfaceName { return CounterInterface }

func (c *Counter) SpawnTasksForMethods() bool { return c.spawn }

// Count returns the current count. The caller must hold the wrapper's
// lock (see objectserver.ReadAs).
func (c *Counter) Count() int64 { return c.count }

func (c *Counter) Get(_ context.Context, property string) (bus.Value, bool, error) {
	switch property {
	case "Count":
		return c.count, true, nil
	case "Step":
		return c.step, true, nil
	}
	return nil, false, nil
}

func (c *Counter) GetAll(context.Context) (map[string]bus.Value, error) {
	return map[string]bus.Value{
		"Count": c.count,
		"Step":  c.step,
	}, nil
}

func (c *Counter) SetMut(ctx context.Context, property string, value bus.Value, signals *bus.SignalContext) (bool, error) {
	switch property {
	case "Count":
		return true, bus.PropertyReadOnly("property Count is read-only")
	case "Step":
		step, ok := bus.Int64Value(value)
		if !ok {
			return true, bus.InvalidArgs(fmt.Sprintf("Step must be an integer, got %T", value))
		}
		if step == c.step {
			return true, nil
		}
		c.step = step
		_ = signals.EmitPropertiesChanged(ctx, CounterInterface, map[string]bus.Value{"Step": step}, nil)
		return true, nil
	}
	return false, nil
}

func (c *Counter) Call(_ context.Context, _ *objectserver.Server, conn bus.Connection, msg *bus.Message, member names.MemberName) objectserver.DispatchResult {
	switch member.String() {
	case "Get":
		return objectserver.NewAsync(conn, msg, func(context.Context) (int64, error) {
			return c.count, nil
		})
	case "Sleep":
		milliseconds, err := msg.Int64Arg(0)
		if err == nil && (milliseconds < 0 || milliseconds > maxSleep.Milliseconds()) {
			err = bus.InvalidArgs(fmt.Sprintf("milliseconds must be between 0 and %d", maxSleep.Milliseconds()))
		}
		return objectserver.NewAsync(conn, msg, func(ctx context.Context) (struct{}, error) {
			if err != nil {
				return struct{}{}, err
			}
			select {
			case <-c.clock.After(time.Duration(milliseconds) * time.Millisecond):
				return struct{}{}, nil
			case <-ctx.Done():
				return struct{}{}, bus.Failed("sleep interrupted: " + ctx.Err().Error())
			}
		})
	case "Increment", "Reset":
		return objectserver.RequiresMut
	}
	return objectserver.NotFound
}

func (c *Counter) CallMut(_ context.Context, _ *objectserver.Server, conn bus.Connection, msg *bus.Message, member names.MemberName) objectserver.DispatchResult {
	signals := bus.NewSignalContext(conn, msg.Header.Path)

	switch member.String() {
	case "Increment":
		return objectserver.NewAsync(conn, msg, func(ctx context.Context) (int64, error) {
			delta := c.step
			if len(msg.Body) > 0 {
				var err error
				if delta, err = msg.Int64Arg(0); err != nil {
					return 0, err
				}
			}
			if (delta > 0 && c.count > math.MaxInt64-delta) || (delta < 0 && c.count < math.MinInt64-delta) {
				return 0, bus.InvalidArgs(fmt.Sprintf("incrementing %d by %d overflows", c.count, delta))
			}
			c.count += delta
			c.emitCount(ctx, signals)
			return c.count, nil
		})
	case "Reset":
		return objectserver.NewAsync(conn, msg, func(ctx context.Context) (struct{}, error) {
			c.count = c.initial
			c.emitCount(ctx, signals)
			return struct{}{}, nil
		})
	}
	return objectserver.NotFound
}

// emitCount announces a new Count. Emission failures do not fail the
// call that changed it.
func (c *Counter) emitCount(ctx context.Context, signals *bus.SignalContext) {
	_ = signals.EmitPropertiesChanged(ctx, CounterInterface, map[string]bus.Value{"Count": c.count}, nil)
}

func (c *Counter) WriteIntrospection(w io.Writer, level int) {
	objectserver.WriteIndented(w, level, counterIntrospection)
}

var _ objectserver.Interface = (*Counter)(nil)
