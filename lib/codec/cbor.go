// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode is the CBOR decoder used for frames and message bodies.
// Unknown fields are ignored so newer peers can add header fields.
var decMode cbor.DecMode

// maxNestedLevels bounds how deeply a message body may nest arrays and
// maps. A hostile peer cannot drive the decoder into deep recursion.
const maxNestedLevels = 32

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Bus identifiers (names.MemberName, names.ObjectPath, ...) have
	// unexported fields and implement encoding.TextMarshaler. Encode
	// them as CBOR text strings rather than empty maps.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Message bodies decode into []any. Maps inside them must come
		// out as map[string]any (property dictionaries, GetAll
		// replies), not CBOR's default map[interface{}]interface{}.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Body integers decode as int64 whatever their CBOR major type,
		// so handlers see one integer type for both signs.
		IntDec: cbor.IntDecConvertSigned,
		// Mirror of the TextMarshaler setting above: identifier types
		// validate themselves in UnmarshalText.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
		MaxNestedLevels: maxNestedLevels,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// RawMessage is a raw encoded CBOR value, used to defer decoding of a
// frame until its header has been inspected.
type RawMessage = cbor.RawMessage

// NewEncoder returns a CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. Used when logging frames that were rejected.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
