// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package names

import (
	"fmt"
	"strings"
)

// BusName is a validated connection name: either a unique name
// assigned by the bus (":1.42") or a well-known name claimed by a
// service ("org.example.Counter").
//
// Both forms have at least two '.'-separated elements made of ASCII
// letters, digits, '_', and '-', with a total length of 1 to 255
// bytes. Elements of a well-known name must not start with a digit.
// Elements of a unique name may.
type BusName struct {
	name string
}

// ParseBusName validates raw as a unique or well-known bus name.
func ParseBusName(raw string) (BusName, error) {
	var err error
	if strings.HasPrefix(raw, ":") {
		err = uniqueBusGrammar.checkFrom(raw, 1)
	} else {
		err = wellKnownBusGrammar.check(raw)
	}
	if err != nil {
		return BusName{}, err
	}
	return BusName{name: raw}, nil
}

// MustParseBusName is like ParseBusName but panics on error.
func MustParseBusName(raw string) BusName {
	b, err := ParseBusName(raw)
	if err != nil {
		panic(fmt.Sprintf("names.MustParseBusName(%q): %v", raw, err))
	}
	return b
}

// BusNameUnchecked wraps raw without validation. See
// MemberNameUnchecked for the caller contract.
func BusNameUnchecked(raw string) BusName {
	return BusName{name: raw}
}

// UniqueBusName formats the unique name ":major.minor". The result is
// valid by construction.
func UniqueBusName(major, minor uint64) BusName {
	return BusName{name: fmt.Sprintf(":%d.%d", major, minor)}
}

// IsUnique reports whether b is a unique (':'-prefixed) name.
func (b BusName) IsUnique() bool { return strings.HasPrefix(b.name, ":") }

// String returns the bus name.
func (b BusName) String() string { return b.name }

// IsZero reports whether b is the zero value (uninitialized).
func (b BusName) IsZero() bool { return b.name == "" }

// MarshalText implements encoding.TextMarshaler.
func (b BusName) MarshalText() ([]byte, error) {
	return []byte(b.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BusName) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*b = BusName{}
		return nil
	}
	parsed, err := ParseBusName(string(data))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
