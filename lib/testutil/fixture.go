// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/weftworks/weft/lib/digest"
)

func putUvarint(v int) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(v))
	return buf[:n]
}

func wasmSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, putUvarint(len(content))...)
	return append(out, content...)
}

func wasmCustomSection(name string, payload []byte) []byte {
	content := putUvarint(len(name))
	content = append(content, name...)
	content = append(content, payload...)
	return wasmSection(0, content)
}

func wasmExportSection(names ...string) []byte {
	content := putUvarint(len(names))
	for i, name := range names {
		content = append(content, putUvarint(len(name))...)
		content = append(content, name...)
		content = append(content, 0x00)
		content = append(content, putUvarint(i)...)
	}
	return wasmSection(7, content)
}

// Wasm builds a minimal core module with function exports, an
// optional world declaration in the weft-world custom section, and
// the wasm32-wasip2 producers marker.
func Wasm(world string, exports ...string) []byte {
	b := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if len(exports) > 0 {
		b = append(b, wasmExportSection(exports...)...)
	}
	if world != "" {
		b = append(b, wasmCustomSection("weft-world", []byte(world))...)
	}
	return append(b, wasmCustomSection("producers", []byte("wasm32-wasip2"))...)
}

// ComponentSpec shapes a component fixture written by WriteComponent.
// Zero-value fields get working defaults.
type ComponentSpec struct {
	// ID is the manifest identifier. Defaults to the Name.
	ID string

	// Name is the display name. Defaults to "echo".
	Name string

	// Version defaults to "0.1.0".
	Version string

	// World defaults to "demo:proc/<name>@<version>".
	World string

	// ConfigSchema, when set, is embedded in the manifest as the
	// inline config_schema.
	ConfigSchema json.RawMessage

	// Exports are the function export names in the binary. Defaults
	// to {"describe", "run"}.
	Exports []string

	// Mutate, when set, edits the manifest document before it is
	// written, after the hash has been recorded.
	Mutate func(manifest map[string]any)
}

// WriteComponent writes a loadable component fixture under dir: the
// wasm binary plus a component.manifest.json whose recorded hash
// matches the binary. It returns the manifest path.
func WriteComponent(t *testing.T, dir string, spec ComponentSpec) string {
	t.Helper()
	if spec.Name == "" {
		spec.Name = "echo"
	}
	if spec.ID == "" {
		spec.ID = spec.Name
	}
	if spec.Version == "" {
		spec.Version = "0.1.0"
	}
	if spec.World == "" {
		spec.World = "demo:proc/" + spec.Name + "@" + spec.Version
	}
	if spec.Exports == nil {
		spec.Exports = []string{"describe", "run"}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	wasmBytes := Wasm("", spec.Exports...)
	if err := os.WriteFile(filepath.Join(dir, "component.wasm"), wasmBytes, 0o644); err != nil {
		t.Fatalf("write wasm: %v", err)
	}

	manifest := map[string]any{
		"id":              spec.ID,
		"name":            spec.Name,
		"version":         spec.Version,
		"world":           spec.World,
		"describe_export": "describe",
		"artifacts":       map[string]any{"component_wasm": "component.wasm"},
		"hashes":          map[string]any{"component_wasm": digest.HashBytes(wasmBytes).String()},
	}
	if len(spec.ConfigSchema) > 0 {
		manifest["config_schema"] = spec.ConfigSchema
	}
	if spec.Mutate != nil {
		spec.Mutate(manifest)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	manifestPath := filepath.Join(dir, "component.manifest.json")
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return manifestPath
}

// WriteFlow writes a flow document and returns its path.
func WriteFlow(t *testing.T, dir, name, yaml string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write flow: %v", err)
	}
	return path
}
