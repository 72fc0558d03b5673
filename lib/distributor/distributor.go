// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package distributor resolves component coordinates to local
// artifacts. Only the abstract contract lives here — resolve a
// coordinate, hand back verified bytes on disk — together with the
// two offline-capable implementations: a local-path resolver and a
// JSONC stub file for network-shaped coordinates. The HTTP
// distributor client is a separate concern and not part of this
// package.
package distributor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/weftworks/weft/lib/digest"
)

// Resolution is a resolved coordinate: a component artifact on the
// local filesystem plus its content digest.
type Resolution struct {
	// Coordinate is the input that resolved.
	Coordinate string `json:"coordinate"`

	// ArtifactPath is the local path of the component directory or
	// manifest.
	ArtifactPath string `json:"artifact_path"`

	// Digest is the tagged blake3 digest of the component binary,
	// when the source declared one.
	Digest string `json:"digest,omitempty"`
}

// Resolver resolves a component coordinate to a local artifact.
// Implementations: Local (filesystem paths), Stub (JSONC stub file).
type Resolver interface {
	Resolve(ctx context.Context, coordinate string) (*Resolution, error)
}

// Offline reports whether WEFT_OFFLINE forbids network resolution.
func Offline() bool {
	switch os.Getenv("WEFT_OFFLINE") {
	case "1", "true", "TRUE":
		return true
	}
	return false
}

// IsPathCoordinate reports whether coordinate names something on the
// local filesystem rather than a distributor entry.
func IsPathCoordinate(coordinate string) bool {
	if strings.HasPrefix(coordinate, "/") || strings.HasPrefix(coordinate, "./") || strings.HasPrefix(coordinate, "../") {
		return true
	}
	_, err := os.Stat(coordinate)
	return err == nil
}

// Select picks the resolver for coordinate: local paths resolve
// directly; anything else needs the stub file named by
// WEFT_RESOLVE_STUB. Without a stub, network-shaped coordinates are
// refused — offline mode just makes the refusal explicit in the
// message.
func Select(coordinate string) (Resolver, error) {
	if IsPathCoordinate(coordinate) {
		return Local{}, nil
	}
	if stubPath := os.Getenv("WEFT_RESOLVE_STUB"); stubPath != "" {
		return LoadStub(stubPath)
	}
	if Offline() {
		return nil, fmt.Errorf("offline mode: coordinate %q needs a network distributor and no WEFT_RESOLVE_STUB is set", coordinate)
	}
	return nil, fmt.Errorf("coordinate %q is not a local path and no WEFT_RESOLVE_STUB is set (the network distributor client is not part of this build)", coordinate)
}

// verifyDigest recomputes the binary digest under the resolved
// artifact and compares it with want (tagged form). An empty want
// skips verification.
func verifyDigest(wasmPath, want string) error {
	if want == "" {
		return nil
	}
	expected, err := digest.Parse(want)
	if err != nil {
		return fmt.Errorf("declared digest: %w", err)
	}
	computed, err := digest.HashFile(wasmPath)
	if err != nil {
		return err
	}
	if computed != expected {
		return fmt.Errorf("artifact %s digest is %s, declared %s", wasmPath, computed, expected)
	}
	return nil
}
