// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so handlers that
// wait can be tested without sleeping.
//
// Production code receives Real(). Tests receive Fake(), whose time
// stands still until Advance is called:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	counter := NewCounter(0, true, fake)
//	// ... send a Sleep call ...
//	fake.WaitForTimers(1)      // the handler has started waiting
//	fake.Advance(time.Second)  // and now its wait is over
//
// WaitForTimers closes the race between a goroutine registering a
// wait and the test advancing past it.
package clock
