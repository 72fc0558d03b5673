// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package distributor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// Stub resolves coordinates from a JSONC stub file, used in tests and
// offline development in place of the network distributor. The file
// maps coordinates to artifact locations:
//
//	{
//	  // comments are allowed
//	  "demo/echo@0.1.0": {
//	    "artifact": "fixtures/echo",
//	    "digest": "blake3:..."   // optional; verified when present
//	  }
//	}
//
// Relative artifact paths are anchored at the stub file's directory.
type Stub struct {
	dir     string
	entries map[string]stubEntry
}

type stubEntry struct {
	Artifact string `json:"artifact"`
	Digest   string `json:"digest"`
}

// LoadStub parses the stub file at path.
func LoadStub(path string) (*Stub, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resolve stub: %w", err)
	}
	entries := make(map[string]stubEntry)
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("parsing resolve stub %s: %w", path, err)
	}
	return &Stub{dir: filepath.Dir(path), entries: entries}, nil
}

func (s *Stub) Resolve(_ context.Context, coordinate string) (*Resolution, error) {
	entry, ok := s.entries[coordinate]
	if !ok {
		return nil, fmt.Errorf("resolve stub has no entry for %q", coordinate)
	}
	artifact := entry.Artifact
	if !filepath.IsAbs(artifact) {
		artifact = filepath.Join(s.dir, artifact)
	}
	info, err := os.Stat(artifact)
	if err != nil {
		return nil, fmt.Errorf("stub artifact for %q: %w", coordinate, err)
	}
	dir := artifact
	if !info.IsDir() {
		dir = filepath.Dir(artifact)
	}
	if entry.Digest != "" {
		wasmPath, err := findBinary(dir)
		if err != nil {
			return nil, fmt.Errorf("stub artifact for %q: %w", coordinate, err)
		}
		if err := verifyDigest(wasmPath, entry.Digest); err != nil {
			return nil, fmt.Errorf("stub artifact for %q: %w", coordinate, err)
		}
	}
	return &Resolution{
		Coordinate:   coordinate,
		ArtifactPath: dir,
		Digest:       entry.Digest,
	}, nil
}
