// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package distributor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weftworks/weft/lib/digest"
)

// Local resolves coordinates that are filesystem paths: a component
// directory, its manifest, or its wasm binary.
type Local struct{}

func (Local) Resolve(_ context.Context, coordinate string) (*Resolution, error) {
	info, err := os.Stat(coordinate)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", coordinate, err)
	}

	dir := coordinate
	if !info.IsDir() {
		dir = filepath.Dir(coordinate)
	}
	wasmPath, err := findBinary(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", coordinate, err)
	}
	d, err := digest.HashFile(wasmPath)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Coordinate:   coordinate,
		ArtifactPath: dir,
		Digest:       d.String(),
	}, nil
}

// findBinary locates the single .wasm file in dir.
func findBinary(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".wasm" {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no .wasm artifact in %s", dir)
}
