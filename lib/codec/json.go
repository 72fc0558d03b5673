// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// CanonicalJSON serializes v to RFC 8785 canonical JSON: object keys
// sorted by UTF-16 code units, numbers in shortest-roundtrip form,
// minimal string escaping, no insignificant whitespace. This is the
// form that flow documents, extracted schemas, and node configs take
// before hashing or embedding in a pack.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing for canonicalization: %w", err)
	}
	return CanonicalizeJSON(data)
}

// CanonicalizeJSON transforms existing JSON text into RFC 8785
// canonical form. The input must be a single valid JSON value.
func CanonicalizeJSON(data []byte) ([]byte, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing JSON: %w", err)
	}
	return canonical, nil
}
