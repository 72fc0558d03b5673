// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes and formats the BLAKE3 content hashes that
// address every artifact in a pack: component binaries, flow documents,
// and the pack manifest itself.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// Prefix tags a hex digest with the hash algorithm. Manifests and CLI
// output carry the tagged form; archive-internal records store bare hex.
const Prefix = "blake3:"

// Digest is a 32-byte BLAKE3 hash.
type Digest [32]byte

// HashBytes computes the BLAKE3 digest of data.
func HashBytes(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// HashReader computes the BLAKE3 digest of everything readable from r.
func HashReader(r io.Reader) (Digest, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, fmt.Errorf("hashing stream: %w", err)
	}
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d, nil
}

// HashFile computes the BLAKE3 digest of the file at path without
// loading it into memory.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()
	d, err := HashReader(file)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return d, nil
}

// Hex returns the bare 64-character hex encoding.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// String returns the tagged form "blake3:<64 hex>".
func (d Digest) String() string {
	return Prefix + d.Hex()
}

// Parse parses the tagged form "blake3:<64 hex>".
func Parse(s string) (Digest, error) {
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok {
		return Digest{}, fmt.Errorf("digest %q lacks the %q prefix", s, Prefix)
	}
	return ParseHex(rest)
}

// ParseHex parses a bare 64-character hex digest.
func ParseHex(hexString string) (Digest, error) {
	var d Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return d, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(d) {
		return d, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(d))
	}
	copy(d[:], decoded)
	return d, nil
}

// StripPrefix removes the algorithm tag from a digest string when
// present. Manifest component records store the bare hex form.
func StripPrefix(s string) string {
	return strings.TrimPrefix(s, Prefix)
}
