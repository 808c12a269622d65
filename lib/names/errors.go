// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package names

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidName is the sentinel every *NameError unwraps to, so
// callers that only care whether a name was rejected can use errors.Is.
var ErrInvalidName = errors.New("invalid name")

// Kind identifies which grammar rule a name violated.
type Kind uint8

const (
	// KindEmpty: the name has no characters.
	KindEmpty Kind = iota + 1
	// KindTooLong: the name exceeds MaxNameLength bytes.
	KindTooLong
	// KindLeadingDigit: the name (or one of its elements) starts with
	// a digit where the grammar forbids it.
	KindLeadingDigit
	// KindIllegalCharacter: a character outside the allowed set.
	KindIllegalCharacter
	// KindEmptyElement: two separators in a row, or a separator at
	// either end.
	KindEmptyElement
	// KindTooFewElements: a dotted name with fewer elements than the
	// grammar requires.
	KindTooFewElements
	// KindMissingLeadingSlash: an object path that does not begin
	// with '/'.
	KindMissingLeadingSlash
	// KindTrailingSlash: an object path other than "/" that ends
	// with '/'.
	KindTrailingSlash
)

// String returns a short lowercase label for the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindTooLong:
		return "too long"
	case KindLeadingDigit:
		return "leading digit"
	case KindIllegalCharacter:
		return "illegal character"
	case KindEmptyElement:
		return "empty element"
	case KindTooFewElements:
		return "too few elements"
	case KindMissingLeadingSlash:
		return "missing leading slash"
	case KindTrailingSlash:
		return "trailing slash"
	default:
		return "unknown"
	}
}

// NameError reports why a string was rejected as a bus identifier.
// Use errors.As to inspect the failed rule:
//
//	var nameErr *names.NameError
//	if errors.As(err, &nameErr) && nameErr.Kind == names.KindLeadingDigit { ... }
type NameError struct {
	// Type is the identifier kind being parsed ("member name",
	// "interface name", ...).
	Type string

	// Name is the rejected input.
	Name string

	// Kind is the rule that failed.
	Kind Kind

	// Char is the offending character for KindIllegalCharacter and
	// KindLeadingDigit. For a byte that is not valid UTF-8 it holds
	// the byte value.
	Char rune

	// Offset is the byte offset of Char (or of the offending element
	// for element-level kinds).
	Offset int

	// Length is the input length in bytes, set for KindTooLong.
	Length int
}

func (e *NameError) Error() string {
	switch e.Kind {
	case KindEmpty:
		return fmt.Sprintf("%s is empty", e.Type)
	case KindTooLong:
		// The rejected name may be arbitrarily long; don't echo it.
		return fmt.Sprintf("%s is %d characters, maximum is %d", e.Type, e.Length, MaxNameLength)
	case KindLeadingDigit:
		return fmt.Sprintf("%s %q: must not start with a digit (%q at position %d)", e.Type, e.Name, e.Char, e.Offset)
	case KindIllegalCharacter:
		if e.invalidUTF8() {
			return fmt.Sprintf("%s %q: invalid UTF-8 byte 0x%02x at position %d", e.Type, e.Name, e.Char, e.Offset)
		}
		return fmt.Sprintf("%s %q: invalid character %q at position %d", e.Type, e.Name, e.Char, e.Offset)
	case KindEmptyElement:
		return fmt.Sprintf("%s %q contains an empty element at position %d", e.Type, e.Name, e.Offset)
	case KindTooFewElements:
		return fmt.Sprintf("%s %q must contain at least two elements separated by '.'", e.Type, e.Name)
	case KindMissingLeadingSlash:
		return fmt.Sprintf("%s %q must start with /", e.Type, e.Name)
	case KindTrailingSlash:
		return fmt.Sprintf("%s %q must not end with /", e.Type, e.Name)
	default:
		return fmt.Sprintf("%s %q is invalid", e.Type, e.Name)
	}
}

// Unwrap returns ErrInvalidName.
func (e *NameError) Unwrap() error { return ErrInvalidName }

func (e *NameError) invalidUTF8() bool {
	if e.Offset < 0 || e.Offset >= len(e.Name) {
		return false
	}
	r, size := utf8.DecodeRuneInString(e.Name[e.Offset:])
	return r == utf8.RuneError && size == 1
}
