// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// InstalledComponent records one component imported into the
// workspace by "weft component add".
type InstalledComponent struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Path is the component directory, relative to the workspace root.
	Path string `json:"path"`
	// Digest is the tagged blake3 digest of the component binary.
	Digest string `json:"digest"`
}

// Manifest is the workspace manifest at .weft/workspace.json. It
// indexes the components installed into the workspace.
type Manifest struct {
	Components []InstalledComponent `json:"components"`
}

// LoadManifest reads the workspace manifest under root. A missing
// file yields an empty manifest.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(root))
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading workspace manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing workspace manifest: %w", err)
	}
	return &manifest, nil
}

// Upsert records component, replacing any existing entry with the
// same name.
func (m *Manifest) Upsert(component InstalledComponent) {
	for i := range m.Components {
		if m.Components[i].Name == component.Name {
			m.Components[i] = component
			return
		}
	}
	m.Components = append(m.Components, component)
}

// SaveManifest writes the manifest under root atomically, creating
// the .weft directory when missing.
func SaveManifest(root string, manifest *Manifest) error {
	path := ManifestPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing workspace manifest: %w", err)
	}
	data = append(data, '\n')
	temp, err := os.CreateTemp(filepath.Dir(path), ".workspace-*.json")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing workspace manifest: %w", err)
	}
	return nil
}
