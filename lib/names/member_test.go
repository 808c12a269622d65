// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package names_test

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"unsafe"

	"github.com/bureau-foundation/objectbus/lib/names"
)

func requireKind(t *testing.T, err error, want names.Kind) *names.NameError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var nameErr *names.NameError
	if !errors.As(err, &nameErr) {
		t.Fatalf("expected *names.NameError, got %T: %v", err, err)
	}
	if nameErr.Kind != want {
		t.Fatalf("Kind = %s, want %s (error: %v)", nameErr.Kind, want, err)
	}
	if !errors.Is(err, names.ErrInvalidName) {
		t.Errorf("errors.Is(err, ErrInvalidName) = false for %v", err)
	}
	return nameErr
}

func TestParseMemberName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind names.Kind
	}{
		{name: "simple", input: "Member_for_you"},
		{name: "camel-with-digits", input: "CamelCase101"},
		{name: "long-valid", input: "a_very_loooooooooooooooooo_ooooooo_0000o0ngName"},
		{name: "single-underscore", input: "_"},
		{name: "single-letter", input: "x"},
		{name: "leading-underscore-digit", input: "_1"},
		{name: "max-length", input: strings.Repeat("a", 255)},
		{name: "empty", input: "", wantKind: names.KindEmpty},
		{name: "dot", input: ".", wantKind: names.KindIllegalCharacter},
		{name: "leading-digit", input: "1startWith_a_Digit", wantKind: names.KindLeadingDigit},
		{name: "dots", input: "contains.dots_in_the_name", wantKind: names.KindIllegalCharacter},
		{name: "dashes", input: "contains-dashes-in_the_name", wantKind: names.KindIllegalCharacter},
		{name: "space", input: "has space", wantKind: names.KindIllegalCharacter},
		{name: "non-ascii", input: "naïve", wantKind: names.KindIllegalCharacter},
		{name: "too-long", input: strings.Repeat("a", 256), wantKind: names.KindTooLong},
		{name: "leading-digit-then-illegal", input: "9-lives", wantKind: names.KindLeadingDigit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member, err := names.ParseMemberName(tt.input)
			if tt.wantKind != 0 {
				requireKind(t, err, tt.wantKind)
				if !member.IsZero() {
					t.Errorf("failed parse returned non-zero name %q", member)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if member.String() != tt.input {
				t.Errorf("String() = %q, want %q", member, tt.input)
			}
			if member.IsZero() {
				t.Error("IsZero() = true for valid name")
			}
		})
	}
}

func TestParseMemberNameLengthBeforeContent(t *testing.T) {
	// Every string longer than 255 bytes is TooLong, whatever it holds.
	for _, filler := range []string{"a", "-", "9", ".", "é", " "} {
		input := strings.Repeat(filler, 300)
		_, err := names.ParseMemberName(input)
		nameErr := requireKind(t, err, names.KindTooLong)
		if nameErr.Length != len(input) {
			t.Errorf("Length = %d, want %d", nameErr.Length, len(input))
		}
		if strings.Contains(err.Error(), input) {
			t.Error("TooLong error message echoes the full input")
		}
	}
}

func TestParseMemberNameLeadingDigit(t *testing.T) {
	// A leading digit is reported even when the rest is legal.
	for digit := '0'; digit <= '9'; digit++ {
		input := string(digit) + "abc_DEF"
		_, err := names.ParseMemberName(input)
		nameErr := requireKind(t, err, names.KindLeadingDigit)
		if nameErr.Char != digit || nameErr.Offset != 0 {
			t.Errorf("%q: Char=%q Offset=%d, want %q at 0", input, nameErr.Char, nameErr.Offset, digit)
		}
	}
}

func TestParseMemberNameIllegalCharacterDetail(t *testing.T) {
	_, err := names.ParseMemberName("Get$Value")
	nameErr := requireKind(t, err, names.KindIllegalCharacter)
	if nameErr.Char != '$' {
		t.Errorf("Char = %q, want '$'", nameErr.Char)
	}
	if nameErr.Offset != 3 {
		t.Errorf("Offset = %d, want 3", nameErr.Offset)
	}
	if !strings.Contains(err.Error(), `'$'`) {
		t.Errorf("error message %q does not name the offending character", err)
	}
}

func TestParseMemberNameInvalidUTF8(t *testing.T) {
	_, err := names.ParseMemberName("Get\xffValue")
	nameErr := requireKind(t, err, names.KindIllegalCharacter)
	if nameErr.Char != 0xff {
		t.Errorf("Char = %#x, want 0xff", nameErr.Char)
	}
	if nameErr.Offset != 3 {
		t.Errorf("Offset = %d, want 3", nameErr.Offset)
	}
	if !strings.Contains(err.Error(), "byte 0xff at position 3") {
		t.Errorf("error message %q does not name the offending byte", err)
	}

	// A correctly encoded U+FFFD is a character, not a bad byte.
	_, err = names.ParseMemberName("Get\uFFFDValue")
	nameErr = requireKind(t, err, names.KindIllegalCharacter)
	if nameErr.Char != '\uFFFD' {
		t.Errorf("Char = %q, want U+FFFD", nameErr.Char)
	}
	if strings.Contains(err.Error(), "UTF-8 byte") {
		t.Errorf("error message %q reports a valid character as a bad byte", err)
	}
}

const (
	leadingChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	anyChars     = leadingChars + "0123456789"
)

// legalMemberNames generates count valid member names of random length
// in [1, 255] from a fixed seed.
func legalMemberNames(count int) []string {
	random := rand.New(rand.NewPCG(0x6f626a, 0x627573))
	generated := make([]string, 0, count)
	for range count {
		length := 1 + random.IntN(names.MaxNameLength)
		var builder strings.Builder
		builder.WriteByte(leadingChars[random.IntN(len(leadingChars))])
		for builder.Len() < length {
			builder.WriteByte(anyChars[random.IntN(len(anyChars))])
		}
		generated = append(generated, builder.String())
	}
	return generated
}

func TestParseMemberNameRoundTrip(t *testing.T) {
	for _, input := range legalMemberNames(500) {
		member, err := names.ParseMemberName(input)
		if err != nil {
			t.Fatalf("ParseMemberName(%q): %v", input, err)
		}
		if member.String() != input {
			t.Fatalf("String() = %q, want %q", member, input)
		}
	}
}

func TestOwnedBorrowedRoundTrip(t *testing.T) {
	for _, input := range legalMemberNames(50) {
		borrowed := names.MustParseMemberName(input)
		owned := borrowed.Owned()
		if owned.String() != input {
			t.Fatalf("Owned().String() = %q, want %q", owned, input)
		}
		back := owned.Borrow()
		if back != borrowed {
			t.Fatalf("Borrow() = %q, want %q", back, borrowed)
		}
		if again := back.Owned(); again != owned {
			t.Fatalf("second Owned() = %q, want %q", again, owned)
		}
	}
}

func TestOwnedMemberNameDetachesFromSource(t *testing.T) {
	frame := []byte("prefix:Increment:suffix")
	source := string(frame)[7:16]

	owned, err := names.ParseOwnedMemberName(source)
	if err != nil {
		t.Fatalf("ParseOwnedMemberName: %v", err)
	}
	if owned.String() != "Increment" {
		t.Fatalf("String() = %q", owned)
	}
	if unsafeSameData(owned.String(), source) {
		t.Error("OwnedMemberName shares memory with its source")
	}

	borrowed := owned.Borrow()
	if !unsafeSameData(borrowed.String(), owned.String()) {
		t.Error("Borrow() copied the owned data")
	}
}

// unsafeSameData reports whether a and b start at the same byte in
// memory.
func unsafeSameData(a, b string) bool {
	return unsafe.StringData(a) == unsafe.StringData(b)
}

func TestMemberNameUnchecked(t *testing.T) {
	// Unchecked construction performs no validation at all.
	member := names.MemberNameUnchecked("not.valid")
	if member.String() != "not.valid" {
		t.Errorf("String() = %q", member)
	}
	owned := names.OwnedMemberNameUnchecked("Ping")
	if owned.Borrow() != names.MustParseMemberName("Ping") {
		t.Error("unchecked owned name does not equal parsed name")
	}
}

func TestMemberNameComparable(t *testing.T) {
	set := map[names.MemberName]int{
		names.MustParseMemberName("Get"): 1,
		names.MustParseMemberName("Set"): 2,
	}
	if set[names.MemberNameUnchecked("Get")] != 1 {
		t.Error("map lookup by equal member name failed")
	}
	if names.MustParseMemberName("A").Compare(names.MustParseMemberName("B")) >= 0 {
		t.Error("Compare(A, B) >= 0")
	}
}

func TestMustParseMemberNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseMemberName did not panic on invalid input")
		}
	}()
	names.MustParseMemberName("0bad")
}

func TestMemberNameText(t *testing.T) {
	var member names.MemberName
	if err := member.UnmarshalText([]byte("Reset")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if member.String() != "Reset" {
		t.Errorf("got %q", member)
	}
	if err := member.UnmarshalText([]byte("bad name")); err == nil {
		t.Error("UnmarshalText accepted an invalid name")
	}
	var owned names.OwnedMemberName
	if err := owned.UnmarshalText([]byte("Reset")); err != nil {
		t.Fatalf("owned UnmarshalText: %v", err)
	}
	if owned.Borrow() != member {
		t.Error("owned and borrowed text decoding disagree")
	}
}
