// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/weftworks/weft/lib/codec"
	"github.com/weftworks/weft/lib/wasm"
)

// DescribePayload is a component's self-description: one or more
// schema versions, optionally tied to a schema id.
type DescribePayload struct {
	Name     string            `json:"name"`
	Versions []DescribeVersion `json:"versions"`
	SchemaID string            `json:"schema_id,omitempty"`
}

type DescribeVersion struct {
	Version  *semver.Version `json:"version"`
	Schema   json.RawMessage `json:"schema"`
	Defaults json.RawMessage `json:"defaults,omitempty"`
}

// Latest returns the highest-versioned entry, preferring the earlier
// entry on ties. Nil when the payload has no versions.
func (p *DescribePayload) Latest() *DescribeVersion {
	if p == nil || len(p.Versions) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(p.Versions); i++ {
		if p.Versions[i].Version.GreaterThan(p.Versions[best].Version) {
			best = i
		}
	}
	return &p.Versions[best]
}

// parseDescribeFile reads a describe payload from disk. A payload must
// carry a name and a versions array, and every entry needs a version
// and a schema; anything less makes the source unusable and the
// caller falls through to the next one.
func parseDescribeFile(path string) (*DescribePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload DescribePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing describe payload %s: %w", path, err)
	}
	if payload.Name == "" || payload.Versions == nil {
		return nil, fmt.Errorf("describe payload %s: missing name or versions", path)
	}
	for i, version := range payload.Versions {
		if version.Version == nil || version.Schema == nil {
			return nil, fmt.Errorf("describe payload %s: entry %d missing version or schema", path, i)
		}
	}
	return &payload, nil
}

// describeFromSchemaDir returns the first parseable payload among the
// JSON files in dir, in name order. Nil when none qualifies.
func describeFromSchemaDir(dir string) *DescribePayload {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if payload, err := parseDescribeFile(filepath.Join(dir, entry.Name())); err == nil {
			return payload
		}
	}
	return nil
}

// payloadFromWorld synthesizes a describe payload for a binary that
// declares its world. The schema lists the exported functions; the
// version comes from the world reference, defaulting to 0.0.0.
func payloadFromWorld(info *wasm.Info) (*DescribePayload, error) {
	ref, err := wasm.NormalizeWorldRef(info.World)
	if err != nil {
		return nil, err
	}

	version := semver.New(0, 0, 0, "", "")
	if raw := wasm.WorldVersion(ref); raw != "" {
		parsed, err := semver.StrictNewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("world version %q: %w", raw, err)
		}
		version = semver.New(parsed.Major(), parsed.Minor(), parsed.Patch(), "", "")
	}

	functions := make([]map[string]any, 0, len(info.FuncExports))
	for _, name := range info.FuncExports {
		functions = append(functions, map[string]any{"name": name})
	}
	schemaJSON, err := codec.CanonicalJSON(map[string]any{
		"world":     ref,
		"functions": functions,
	})
	if err != nil {
		return nil, err
	}

	return &DescribePayload{
		Name:     wasm.WorldShortName(ref),
		SchemaID: ref,
		Versions: []DescribeVersion{{Version: version, Schema: schemaJSON}},
	}, nil
}
