// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bureau-foundation/objectbus/lib/names"
)

// sampleHeader mirrors the shape of a transport frame header.
type sampleHeader struct {
	Member names.MemberName  `cbor:"member"`
	Path   names.ObjectPath  `cbor:"path"`
	Serial uint32            `cbor:"serial"`
	Body   []any             `cbor:"body,omitempty"`
	Extra  map[string]string `cbor:"extra,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	message := sampleHeader{
		Member: names.MustParseMemberName("Increment"),
		Path:   names.MustParseObjectPath("/org/example/Counter"),
		Serial: 7,
		Extra:  map[string]string{"b": "2", "a": "1", "c": "3"},
	}

	first, err := Marshal(message)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(message)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestNamesEncodeAsText(t *testing.T) {
	data, err := Marshal(sampleHeader{
		Member: names.MustParseMemberName("Reset"),
		Path:   names.MustParseObjectPath("/a"),
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `"member": "Reset"`) {
		t.Errorf("member not encoded as text string: %s", diagnostic)
	}

	var decoded sampleHeader
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Member.String() != "Reset" || decoded.Path.String() != "/a" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestUnmarshalRejectsInvalidName(t *testing.T) {
	data, err := Marshal(map[string]any{"member": "not-a-member", "path": "/a"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleHeader
	if err := Unmarshal(data, &decoded); err == nil {
		t.Fatalf("Unmarshal accepted invalid member name: %+v", decoded)
	}
}

func TestBodyDecodingRules(t *testing.T) {
	data, err := Marshal(sampleHeader{
		Member: names.MustParseMemberName("Set"),
		Path:   names.RootPath,
		Body:   []any{uint8(3), -4, "text", map[string]any{"Step": 2}},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleHeader
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.Body) != 4 {
		t.Fatalf("body length = %d, want 4", len(decoded.Body))
	}
	if value, ok := decoded.Body[0].(int64); !ok || value != 3 {
		t.Errorf("body[0] = %#v, want int64(3)", decoded.Body[0])
	}
	if value, ok := decoded.Body[1].(int64); !ok || value != -4 {
		t.Errorf("body[1] = %#v, want int64(-4)", decoded.Body[1])
	}
	dictionary, ok := decoded.Body[3].(map[string]any)
	if !ok {
		t.Fatalf("body[3] = %T, want map[string]any", decoded.Body[3])
	}
	if dictionary["Step"] != int64(2) {
		t.Errorf("dictionary[Step] = %#v", dictionary["Step"])
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for serial := uint32(1); serial <= 3; serial++ {
		if err := encoder.Encode(sampleHeader{
			Member: names.MustParseMemberName("Ping"),
			Path:   names.RootPath,
			Serial: serial,
		}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for serial := uint32(1); serial <= 3; serial++ {
		var raw RawMessage
		if err := decoder.Decode(&raw); err != nil {
			t.Fatalf("Decode frame %d: %v", serial, err)
		}
		var decoded sampleHeader
		if err := Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("Unmarshal frame %d: %v", serial, err)
		}
		if decoded.Serial != serial {
			t.Errorf("frame serial = %d, want %d", decoded.Serial, serial)
		}
	}
}

func TestUnmarshalDepthLimit(t *testing.T) {
	var nested any = "leaf"
	for range maxNestedLevels + 4 {
		nested = []any{nested}
	}
	// The encoder has its own (higher) default limit.
	data, err := Marshal(nested)
	if err != nil {
		t.Skipf("encoder refused deep value: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err == nil {
		t.Error("Unmarshal accepted a value nested beyond the limit")
	}
}
