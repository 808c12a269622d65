// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package names provides validated, immutable identifiers for the
// message bus: member names (methods, signals, properties), interface
// names, error names, bus names, and object paths.
//
// Every identifier type is a comparable value type. Two names are equal
// exactly when their strings are equal, so they work directly as map
// keys. Constructors come in pairs:
//
//   - ParseX validates the input against the bus grammar and returns a
//     *NameError describing the first rule that failed.
//   - XUnchecked wraps the input without any check. It exists for
//     fixed literals and for values that already passed ParseX
//     upstream. Passing an invalid string does not corrupt memory, but
//     the resulting name will be rejected (or misinterpreted) by any
//     conforming peer once it reaches the wire. That is the caller's
//     bug to prevent; nothing here detects it.
//
// MustParseX panics on invalid input and is meant for static
// initialization and tests.
//
// # Borrowed and owned member names
//
// [MemberName] may share memory with the string it was parsed from. A
// name sliced out of a large decoded frame keeps that whole frame
// alive for as long as the name is retained. [OwnedMemberName] holds an
// independent copy. Converting owned to borrowed ([OwnedMemberName.Borrow])
// is free, and converting borrowed to owned ([MemberName.Owned])
// copies the bytes once. Validation is identical for both forms, and a
// round trip through either direction never re-validates.
//
// # Grammar
//
// All dotted identifiers share one grammar engine parameterized by the
// small per-kind differences: element separator, minimum element
// count, whether '-' is allowed, and whether an element may begin with
// a digit. Checks run in a fixed priority order: emptiness, then
// length, then structure, then characters. A 300-byte string full of
// illegal characters therefore reports [KindTooLong].
package names
