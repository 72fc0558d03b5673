// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Meta is the optional pack-metadata overlay (pack.toml). Every field
// overrides a default derived from the flow; see Assemble for the
// defaulting rules. Unknown keys are rejected so a typo never
// silently drops an override.
type Meta struct {
	PackID       string         `toml:"pack_id"`
	Version      string         `toml:"version"`
	Name         string         `toml:"name"`
	Kind         string         `toml:"kind"`
	Description  string         `toml:"description"`
	Authors      []string       `toml:"authors"`
	License      string         `toml:"license"`
	EntryFlows   []string       `toml:"entry_flows"`
	Events       map[string]any `toml:"events"`
	Imports      []ImportRef    `toml:"imports"`
	Annotations  map[string]any `toml:"annotations"`
	CreatedAtUTC string         `toml:"created_at_utc"`
}

// ImportRef declares a dependency on another pack.
type ImportRef struct {
	PackID     string `toml:"pack_id"     json:"pack_id"`
	VersionReq string `toml:"version_req" json:"version_req"`
}

// LoadMeta reads and strictly decodes a pack.toml overlay.
func LoadMeta(path string) (*Meta, error) {
	var meta Meta
	decoded, err := toml.DecodeFile(path, &meta)
	if err != nil {
		return nil, &AssemblyError{Reason: fmt.Sprintf("reading metadata overlay %s", path), Err: err}
	}
	if undecoded := decoded.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, &AssemblyError{Reason: fmt.Sprintf("metadata overlay %s has unknown keys: %s",
			path, strings.Join(keys, ", "))}
	}
	if meta.CreatedAtUTC != "" {
		if _, err := time.Parse(time.RFC3339, meta.CreatedAtUTC); err != nil {
			return nil, &AssemblyError{Reason: "created_at_utc is not RFC 3339", Err: err}
		}
	}
	return &meta, nil
}

// jsonValue converts a TOML-decoded value into a JSON-compatible one.
// TOML datetimes become RFC 3339 strings; maps and arrays convert
// recursively.
func jsonValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, element := range value {
			out[key] = jsonValue(element)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, element := range value {
			out[i] = jsonValue(element)
		}
		return out
	case []map[string]any:
		out := make([]any, len(value))
		for i, element := range value {
			out[i] = jsonValue(element)
		}
		return out
	case time.Time:
		return value.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// jsonTable converts a TOML table to JSON-compatible values. Nil maps
// convert to an empty map so manifests never carry null annotations.
func jsonTable(table map[string]any) map[string]any {
	out := make(map[string]any, len(table))
	for key, value := range table {
		out[key] = jsonValue(value)
	}
	return out
}
