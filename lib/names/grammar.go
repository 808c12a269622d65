// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package names

import "unicode/utf8"

// MaxNameLength is the maximum length in bytes of a member, interface,
// error, or bus name.
const MaxNameLength = 255

// identChars is the set of bytes allowed in every bus identifier
// element: ASCII letters, digits, and '_'. Bus names additionally
// allow '-' (see grammar.allowHyphen).
var identChars [256]bool

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		identChars[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		identChars[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		identChars[c] = true
	}
	identChars['_'] = true
}

// grammar describes one identifier kind. The zero separator means the
// identifier is a single element (member names).
type grammar struct {
	label             string
	separator         byte
	minElements       int
	allowHyphen       bool
	allowLeadingDigit bool
}

var (
	memberGrammar = grammar{
		label: "member name",
	}
	interfaceGrammar = grammar{
		label:       "interface name",
		separator:   '.',
		minElements: 2,
	}
	errorGrammar = grammar{
		label:       "error name",
		separator:   '.',
		minElements: 2,
	}
	wellKnownBusGrammar = grammar{
		label:       "bus name",
		separator:   '.',
		minElements: 2,
		allowHyphen: true,
	}
	uniqueBusGrammar = grammar{
		label:             "bus name",
		separator:         '.',
		minElements:       2,
		allowHyphen:       true,
		allowLeadingDigit: true,
	}
)

// check validates name in full.
func (g grammar) check(name string) error {
	return g.checkFrom(name, 0)
}

// checkFrom validates name, treating name[:start] as an already
// verified prefix (the ':' of a unique bus name). Offsets in returned
// errors are relative to the full name.
//
// Priority: empty, too long, element structure, then a single
// left-to-right scan that reports a leading digit or an illegal
// character, whichever comes first.
func (g grammar) checkFrom(name string, start int) error {
	if len(name) == 0 {
		return &NameError{Type: g.label, Name: name, Kind: KindEmpty}
	}
	if len(name) > MaxNameLength {
		return &NameError{Type: g.label, Name: name, Kind: KindTooLong, Length: len(name)}
	}

	if g.separator != 0 {
		elements := 1
		elementStart := start
		for i := start; i < len(name); i++ {
			if name[i] != g.separator {
				continue
			}
			if i == elementStart {
				return &NameError{Type: g.label, Name: name, Kind: KindEmptyElement, Offset: i}
			}
			elements++
			elementStart = i + 1
		}
		if elementStart == len(name) {
			return &NameError{Type: g.label, Name: name, Kind: KindEmptyElement, Offset: elementStart}
		}
		if elements < g.minElements {
			return &NameError{Type: g.label, Name: name, Kind: KindTooFewElements}
		}
	}

	atElementStart := true
	for offset, r := range name[start:] {
		position := start + offset
		if g.separator != 0 && r == rune(g.separator) {
			atElementStart = true
			continue
		}
		if atElementStart && !g.allowLeadingDigit && r >= '0' && r <= '9' {
			return &NameError{Type: g.label, Name: name, Kind: KindLeadingDigit, Char: r, Offset: position}
		}
		atElementStart = false
		if !g.allowed(r) {
			return &NameError{Type: g.label, Name: name, Kind: KindIllegalCharacter, Char: offendingChar(name, position, r), Offset: position}
		}
	}
	return nil
}

func (g grammar) allowed(r rune) bool {
	if r >= utf8.RuneSelf {
		return false
	}
	if r == '-' {
		return g.allowHyphen
	}
	return identChars[byte(r)]
}

// offendingChar returns r, or the raw byte at position when r stands
// for a byte that is not valid UTF-8.
func offendingChar(name string, position int, r rune) rune {
	if r != utf8.RuneError {
		return r
	}
	if _, size := utf8.DecodeRuneInString(name[position:]); size == 1 {
		return rune(name[position])
	}
	return r
}
