// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package names

import (
	"fmt"
	"strings"
)

// MemberName identifies a method, signal, or property on the bus
// (e.g., "Increment", "PropertiesChanged", "Count").
//
// Rules: 1 to 255 bytes, only ASCII letters, digits, and '_', and the
// first character is not a digit.
//
// MemberName is the borrowed form: it may share memory with the string
// it was parsed from. Use [MemberName.Owned] to detach it. The zero
// value is not a valid name; use IsZero to check.
type MemberName struct {
	name string
}

// ParseMemberName validates raw and wraps it as a MemberName without
// copying.
func ParseMemberName(raw string) (MemberName, error) {
	if err := memberGrammar.check(raw); err != nil {
		return MemberName{}, err
	}
	return MemberName{name: raw}, nil
}

// MustParseMemberName is like ParseMemberName but panics on error. Use
// in tests and static initialization where the input is known-valid.
func MustParseMemberName(raw string) MemberName {
	m, err := ParseMemberName(raw)
	if err != nil {
		panic(fmt.Sprintf("names.MustParseMemberName(%q): %v", raw, err))
	}
	return m
}

// MemberNameUnchecked wraps raw without validation. The caller
// guarantees raw satisfies the member name grammar: it is a literal
// known at build time, or it already passed ParseMemberName. An
// invalid raw produces a name that conforming peers will reject.
func MemberNameUnchecked(raw string) MemberName {
	return MemberName{name: raw}
}

// String returns the member name.
func (m MemberName) String() string { return m.name }

// IsZero reports whether m is the zero value (uninitialized).
func (m MemberName) IsZero() bool { return m.name == "" }

// Compare returns -1, 0, or +1 ordering m and other by their strings.
func (m MemberName) Compare(other MemberName) int {
	return strings.Compare(m.name, other.name)
}

// Owned returns an OwnedMemberName holding an independent copy of m.
// No re-validation is performed.
func (m MemberName) Owned() OwnedMemberName {
	return OwnedMemberName{name: strings.Clone(m.name)}
}

// MarshalText implements encoding.TextMarshaler.
func (m MemberName) MarshalText() ([]byte, error) {
	return []byte(m.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// name. An empty input produces the zero value.
func (m *MemberName) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*m = MemberName{}
		return nil
	}
	parsed, err := ParseMemberName(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// OwnedMemberName is the owned sibling of [MemberName]. It never shares
// memory with the string it was constructed from, so it can be
// retained indefinitely without pinning a larger buffer.
type OwnedMemberName struct {
	name string
}

// ParseOwnedMemberName validates raw and stores a private copy.
func ParseOwnedMemberName(raw string) (OwnedMemberName, error) {
	m, err := ParseMemberName(raw)
	if err != nil {
		return OwnedMemberName{}, err
	}
	return m.Owned(), nil
}

// OwnedMemberNameUnchecked copies raw without validation. The same
// caller contract as MemberNameUnchecked applies.
func OwnedMemberNameUnchecked(raw string) OwnedMemberName {
	return OwnedMemberName{name: strings.Clone(raw)}
}

// Borrow returns a MemberName view of o. No copy is made.
func (o OwnedMemberName) Borrow() MemberName {
	return MemberName{name: o.name}
}

// String returns the member name.
func (o OwnedMemberName) String() string { return o.name }

// IsZero reports whether o is the zero value (uninitialized).
func (o OwnedMemberName) IsZero() bool { return o.name == "" }

// MarshalText implements encoding.TextMarshaler.
func (o OwnedMemberName) MarshalText() ([]byte, error) {
	return []byte(o.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// name. An empty input produces the zero value.
func (o *OwnedMemberName) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*o = OwnedMemberName{}
		return nil
	}
	// string(data) already copies, so no Clone is needed here.
	parsed, err := ParseMemberName(string(data))
	if err != nil {
		return err
	}
	*o = OwnedMemberName{name: parsed.name}
	return nil
}
