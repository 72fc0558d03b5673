// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Weft's standard serialization configuration.
//
// Weft uses two formats with a clear boundary:
//
//   - JSON for human-facing surfaces: component manifests and schemas
//     on disk, flow documents (after canonicalization), resolved-config
//     sidecars, and CLI --json output.
//   - CBOR for archive-internal records: the pack manifest entry
//     (manifest.cbor) and the signature entry (signature.cbor).
//
// Both sides are deterministic. The CBOR encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. JSON canonicalization
// follows RFC 8785 (JCS): sorted keys, shortest-roundtrip number
// formatting, minimal escaping. Same logical data always produces
// identical bytes, so a rebuilt pack is byte-identical to the first.
//
// For buffer-oriented CBOR:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For canonical JSON:
//
//	data, err := codec.CanonicalJSON(value)
//	data, err = codec.CanonicalizeJSON(rawJSONText)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON. Example: the archive signature
//     record.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Example: the pack manifest,
//     which lives in the archive as CBOR and surfaces through
//     `weft pack verify --json` as JSON.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract.
package codec
