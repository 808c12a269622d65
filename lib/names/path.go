// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package names

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RootPath is the object path "/".
var RootPath = ObjectPath{path: "/"}

// ObjectPath is a validated object path (e.g., "/org/example/Counter").
//
// Rules: begins with '/', elements separated by '/' are non-empty and
// made of ASCII letters, digits, and '_', and there is no trailing '/'
// except for the root path "/" itself. Unlike dotted names, object
// paths have no length limit and elements may begin with a digit.
type ObjectPath struct {
	path string
}

// ParseObjectPath validates raw and wraps it.
func ParseObjectPath(raw string) (ObjectPath, error) {
	if err := validateObjectPath(raw); err != nil {
		return ObjectPath{}, err
	}
	return ObjectPath{path: raw}, nil
}

// MustParseObjectPath is like ParseObjectPath but panics on error.
func MustParseObjectPath(raw string) ObjectPath {
	p, err := ParseObjectPath(raw)
	if err != nil {
		panic(fmt.Sprintf("names.MustParseObjectPath(%q): %v", raw, err))
	}
	return p
}

// ObjectPathUnchecked wraps raw without validation. See
// MemberNameUnchecked for the caller contract.
func ObjectPathUnchecked(raw string) ObjectPath {
	return ObjectPath{path: raw}
}

func validateObjectPath(path string) error {
	const label = "object path"
	if path == "" {
		return &NameError{Type: label, Name: path, Kind: KindEmpty}
	}
	if path[0] != '/' {
		return &NameError{Type: label, Name: path, Kind: KindMissingLeadingSlash}
	}
	if path == "/" {
		return nil
	}
	if path[len(path)-1] == '/' {
		return &NameError{Type: label, Name: path, Kind: KindTrailingSlash, Offset: len(path) - 1}
	}
	for offset, r := range path {
		if r == '/' {
			if offset > 0 && path[offset-1] == '/' {
				return &NameError{Type: label, Name: path, Kind: KindEmptyElement, Offset: offset}
			}
			continue
		}
		if r >= utf8.RuneSelf || !identChars[byte(r)] {
			return &NameError{Type: label, Name: path, Kind: KindIllegalCharacter, Char: r, Offset: offset}
		}
	}
	return nil
}

// String returns the path.
func (p ObjectPath) String() string { return p.path }

// IsZero reports whether p is the zero value (uninitialized).
func (p ObjectPath) IsZero() bool { return p.path == "" }

// IsRoot reports whether p is "/".
func (p ObjectPath) IsRoot() bool { return p.path == "/" }

// Compare orders paths by their strings.
func (p ObjectPath) Compare(other ObjectPath) int {
	return strings.Compare(p.path, other.path)
}

// Child returns the path of the direct child named element. The
// element must be a valid path element; Child returns an error
// otherwise.
func (p ObjectPath) Child(element string) (ObjectPath, error) {
	if element == "" || strings.Contains(element, "/") {
		return ObjectPath{}, fmt.Errorf("object path element %q must be non-empty and contain no '/'", element)
	}
	if p.IsRoot() {
		return ParseObjectPath("/" + element)
	}
	return ParseObjectPath(p.path + "/" + element)
}

// ChildElement reports whether other is a descendant of p and, if so,
// returns the first element of other below p. For p="/a" and
// other="/a/b/c" it returns ("b", true).
func (p ObjectPath) ChildElement(other ObjectPath) (string, bool) {
	prefix := p.path
	if !p.IsRoot() {
		prefix += "/"
	}
	if other.path == p.path || !strings.HasPrefix(other.path, prefix) {
		return "", false
	}
	rest := other.path[len(prefix):]
	if index := strings.IndexByte(rest, '/'); index >= 0 {
		rest = rest[:index]
	}
	return rest, rest != ""
}

// MarshalText implements encoding.TextMarshaler.
func (p ObjectPath) MarshalText() ([]byte, error) {
	return []byte(p.path), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ObjectPath) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*p = ObjectPath{}
		return nil
	}
	parsed, err := ParseObjectPath(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
