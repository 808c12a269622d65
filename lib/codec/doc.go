// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration shared by every
// objectbus component that puts bytes on a socket.
//
// The reference transport (lib/busconn) frames each bus message as one
// CBOR data item. CBOR is self-delimiting, so a stream of frames needs
// no length prefix. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2), so the same message always produces identical bytes,
// which keeps frame dumps diffable.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Decoding rules that handlers can rely on:
//
//   - Integers in message bodies decode as int64.
//   - Maps decode as map[string]any.
//   - Identifier types from lib/names round-trip as CBOR text strings
//     and are re-validated on decode.
//
// This package is not a bus wire-type marshaller. Values carry no bus
// type signatures. See the objectbus non-goals.
package codec
