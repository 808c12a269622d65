// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package names

import (
	"fmt"
	"strings"
)

// InterfaceName is a validated interface name (e.g.,
// "org.freedesktop.DBus.Properties").
//
// Rules: 1 to 255 bytes, at least two '.'-separated elements, no empty
// elements, each element made of ASCII letters, digits, and '_' and not
// starting with a digit.
type InterfaceName struct {
	name string
}

// ParseInterfaceName validates raw and wraps it.
func ParseInterfaceName(raw string) (InterfaceName, error) {
	if err := interfaceGrammar.check(raw); err != nil {
		return InterfaceName{}, err
	}
	return InterfaceName{name: raw}, nil
}

// MustParseInterfaceName is like ParseInterfaceName but panics on
// error.
func MustParseInterfaceName(raw string) InterfaceName {
	i, err := ParseInterfaceName(raw)
	if err != nil {
		panic(fmt.Sprintf("names.MustParseInterfaceName(%q): %v", raw, err))
	}
	return i
}

// InterfaceNameUnchecked wraps raw without validation. See
// MemberNameUnchecked for the caller contract.
func InterfaceNameUnchecked(raw string) InterfaceName {
	return InterfaceName{name: raw}
}

// String returns the interface name.
func (i InterfaceName) String() string { return i.name }

// IsZero reports whether i is the zero value (uninitialized).
func (i InterfaceName) IsZero() bool { return i.name == "" }

// Compare orders interface names by their strings.
func (i InterfaceName) Compare(other InterfaceName) int {
	return strings.Compare(i.name, other.name)
}

// MarshalText implements encoding.TextMarshaler.
func (i InterfaceName) MarshalText() ([]byte, error) {
	return []byte(i.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// name. An empty input produces the zero value.
func (i *InterfaceName) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = InterfaceName{}
		return nil
	}
	parsed, err := ParseInterfaceName(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ErrorName is a validated error name carried in error replies (e.g.,
// "org.freedesktop.DBus.Error.UnknownMethod"). The grammar is the same
// as for interface names.
type ErrorName struct {
	name string
}

// ParseErrorName validates raw and wraps it.
func ParseErrorName(raw string) (ErrorName, error) {
	if err := errorGrammar.check(raw); err != nil {
		return ErrorName{}, err
	}
	return ErrorName{name: raw}, nil
}

// MustParseErrorName is like ParseErrorName but panics on error.
func MustParseErrorName(raw string) ErrorName {
	e, err := ParseErrorName(raw)
	if err != nil {
		panic(fmt.Sprintf("names.MustParseErrorName(%q): %v", raw, err))
	}
	return e
}

// ErrorNameUnchecked wraps raw without validation. See
// MemberNameUnchecked for the caller contract.
func ErrorNameUnchecked(raw string) ErrorName {
	return ErrorName{name: raw}
}

// String returns the error name.
func (e ErrorName) String() string { return e.name }

// IsZero reports whether e is the zero value (uninitialized).
func (e ErrorName) IsZero() bool { return e.name == "" }

// MarshalText implements encoding.TextMarshaler.
func (e ErrorName) MarshalText() ([]byte, error) {
	return []byte(e.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *ErrorName) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*e = ErrorName{}
		return nil
	}
	parsed, err := ParseErrorName(string(data))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
