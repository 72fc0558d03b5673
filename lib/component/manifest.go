// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/weftworks/weft/lib/digest"
	"github.com/weftworks/weft/lib/flowdef"
)

// ManifestName is the manifest filename every component ships.
const ManifestName = "component.manifest.json"

// Manifest is a validated component.manifest.json document. Fields the
// pipeline never interprets (capabilities, limits, provenance) are
// carried as raw JSON so they round-trip into pack output untouched.
type Manifest struct {
	ID             string
	Name           string
	Version        *semver.Version
	World          string
	DescribeExport string
	Supports       []flowdef.Kind
	Artifacts      Artifacts
	Hashes         Hashes
	ConfigSchema   json.RawMessage
	Capabilities   json.RawMessage
	Limits         json.RawMessage
	Provenance     json.RawMessage
}

type Artifacts struct {
	ComponentWasm string `json:"component_wasm"`
}

type Hashes struct {
	ComponentWasm string `json:"component_wasm"`
}

type rawManifest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Version        string          `json:"version"`
	World          string          `json:"world"`
	DescribeExport string          `json:"describe_export"`
	Supports       []string        `json:"supports"`
	Artifacts      Artifacts       `json:"artifacts"`
	Hashes         Hashes          `json:"hashes"`
	ConfigSchema   json.RawMessage `json:"config_schema"`
	Capabilities   json.RawMessage `json:"capabilities"`
	Limits         json.RawMessage `json:"limits"`
	Provenance     json.RawMessage `json:"provenance"`
}

// ParseManifest decodes and validates a manifest document. Unknown
// keys are ignored so manifests may carry tool-specific extensions.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return nil, errors.New("manifest id must not be empty")
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, errors.New("manifest name must not be empty")
	}
	version, err := semver.StrictNewVersion(raw.Version)
	if err != nil {
		return nil, fmt.Errorf("manifest version %q: %w", raw.Version, err)
	}
	if strings.TrimSpace(raw.World) == "" {
		return nil, errors.New("manifest world must not be empty")
	}
	if strings.TrimSpace(raw.DescribeExport) == "" {
		return nil, errors.New("manifest describe_export must not be empty")
	}
	if err := checkArtifactPath(raw.Artifacts.ComponentWasm); err != nil {
		return nil, err
	}
	if _, err := digest.Parse(raw.Hashes.ComponentWasm); err != nil {
		return nil, fmt.Errorf("manifest hashes.component_wasm: %w", err)
	}

	var supports []flowdef.Kind
	for _, s := range raw.Supports {
		kind, err := flowdef.ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("manifest supports: %w", err)
		}
		supports = append(supports, kind)
	}

	return &Manifest{
		ID:             id,
		Name:           name,
		Version:        version,
		World:          raw.World,
		DescribeExport: raw.DescribeExport,
		Supports:       supports,
		Artifacts:      raw.Artifacts,
		Hashes:         raw.Hashes,
		ConfigSchema:   raw.ConfigSchema,
		Capabilities:   raw.Capabilities,
		Limits:         raw.Limits,
		Provenance:     raw.Provenance,
	}, nil
}

// WasmPath resolves the declared wasm artifact against the component
// root (the manifest's directory).
func (m *Manifest) WasmPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(m.Artifacts.ComponentWasm))
}

func checkArtifactPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("manifest artifacts.component_wasm must not be empty")
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("manifest artifact path %q must be relative", p)
	}
	for _, segment := range strings.Split(filepath.ToSlash(p), "/") {
		if segment == ".." {
			return fmt.Errorf("manifest artifact path %q must not escape the component root", p)
		}
	}
	return nil
}
