// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weftworks/weft/lib/digest"
	"github.com/weftworks/weft/lib/schema"
	"github.com/weftworks/weft/lib/wasm"
)

// Loader discovers and prepares components. Implementations are the
// filesystem loader below and test doubles.
type Loader interface {
	Load(locator string) (*PreparedComponent, error)
}

// PreparedComponent is a fully verified component: manifest parsed,
// artifact hash recomputed and checked, binary scanned, world checked
// against the manifest, describe payload materialized.
type PreparedComponent struct {
	Manifest     *Manifest
	ManifestPath string
	WasmPath     string
	Root         string
	WasmHash     digest.Digest
	Describe     *DescribePayload
	Lifecycle    wasm.Lifecycle
	HashVerified bool
	WorldOK      bool
}

// FSLoader loads components from the filesystem. A locator is tried as
// an explicit path, then as a workspace build-output name, then as a
// registry entry.
type FSLoader struct {
	// WorkDir anchors workspace build-output discovery under
	// target/wasm32-wasip2. Empty means the process working directory.
	WorkDir string

	// RegistryDir overrides the default registry at ~/.weft/components.
	RegistryDir string

	// Extractor supplies config schemas for components with no
	// describe source of their own. Nil gets a quiet default.
	Extractor *schema.Extractor
}

func (l *FSLoader) Load(locator string) (*PreparedComponent, error) {
	manifestPath, err := l.discover(locator)
	if err != nil {
		return nil, err
	}
	return l.prepare(locator, manifestPath)
}

func (l *FSLoader) discover(locator string) (string, error) {
	if path, ok := tryExplicit(locator); ok {
		return path, nil
	}
	if path, ok := l.tryWorkspace(locator); ok {
		return path, nil
	}
	if path, ok := l.tryRegistry(locator); ok {
		return path, nil
	}
	return "", &ResolveError{Name: locator, Reason: ReasonNotFound,
		Err: errors.New("no explicit path, workspace build output, or registry entry")}
}

// tryExplicit maps a locator that names something on disk to its
// manifest: a directory holds the manifest directly, a .json path is
// the manifest, a .wasm path has it as a sibling.
func tryExplicit(locator string) (string, bool) {
	info, err := os.Stat(locator)
	if err != nil {
		return "", false
	}
	var candidate string
	switch {
	case info.IsDir():
		candidate = filepath.Join(locator, ManifestName)
	case filepath.Ext(locator) == ".json":
		return locator, true
	case filepath.Ext(locator) == ".wasm":
		candidate = filepath.Join(filepath.Dir(locator), ManifestName)
	default:
		candidate = filepath.Join(locator, ManifestName)
	}
	if pathExists(candidate) {
		return candidate, true
	}
	return "", false
}

func (l *FSLoader) tryWorkspace(name string) (string, bool) {
	work := l.WorkDir
	if work == "" {
		work = "."
	}
	for _, profile := range []string{"release", "debug"} {
		wasmPath := filepath.Join(work, "target", "wasm32-wasip2", profile, name+".wasm")
		if !pathExists(wasmPath) {
			continue
		}
		manifestPath := filepath.Join(filepath.Dir(wasmPath), ManifestName)
		if pathExists(manifestPath) {
			return manifestPath, true
		}
	}
	return "", false
}

// tryRegistry matches registry entries by exact name, or by prefix
// when the name carries no version pin. Candidates are tried in
// descending name order so newer entries win.
func (l *FSLoader) tryRegistry(name string) (string, bool) {
	root := l.RegistryDir
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		root = filepath.Join(home, ".weft", "components")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	exact := strings.Contains(name, "@")
	var candidates []string
	for _, entry := range entries {
		entryName := entry.Name()
		if entryName == name || (!exact && strings.HasPrefix(entryName, name)) {
			candidates = append(candidates, entryName)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))
	for _, candidate := range candidates {
		manifestPath := filepath.Join(root, candidate, ManifestName)
		if pathExists(manifestPath) {
			return manifestPath, true
		}
	}
	return "", false
}

func (l *FSLoader) prepare(locator, manifestPath string) (*PreparedComponent, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", manifestPath, err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, &ResolveError{Name: locator, Reason: ReasonManifestInvalid,
			Err: fmt.Errorf("%s: %w", manifestPath, err)}
	}

	root := filepath.Dir(manifestPath)
	wasmPath := manifest.WasmPath(root)
	if !pathExists(wasmPath) {
		return nil, &ResolveError{Name: locator, Reason: ReasonManifestInvalid,
			Err: fmt.Errorf("declared artifact %s not found under %s", manifest.Artifacts.ComponentWasm, root)}
	}

	computed, err := digest.HashFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", wasmPath, err)
	}
	if computed.String() != manifest.Hashes.ComponentWasm {
		return nil, &ResolveError{Name: locator, Reason: ReasonHashMismatch,
			Err: fmt.Errorf("manifest records %s, artifact is %s", manifest.Hashes.ComponentWasm, computed)}
	}

	info, err := wasm.ScanFile(wasmPath)
	if err != nil {
		return nil, &ResolveError{Name: locator, Reason: ReasonManifestInvalid, Err: err}
	}
	if !info.HasWASITarget {
		return nil, &ResolveError{Name: locator, Reason: ReasonManifestInvalid,
			Err: fmt.Errorf("%s does not target wasm32-wasip2", wasmPath)}
	}

	// A binary without a world declaration cannot contradict the
	// manifest, so the check only runs when one is present.
	if info.World != "" {
		expected, err := wasm.NormalizeWorldRef(manifest.World)
		if err != nil {
			return nil, &ResolveError{Name: locator, Reason: ReasonManifestInvalid, Err: err}
		}
		if !wasm.WorldsMatch(info.World, expected) {
			return nil, &ResolveError{Name: locator, Reason: ReasonWorldMismatch,
				Err: fmt.Errorf("manifest declares %s, binary declares %s", expected, info.World)}
		}
	}

	describe, err := l.loadDescribe(info, wasmPath, manifest, root)
	if err != nil {
		return nil, err
	}
	if len(describe.Versions) == 0 {
		return nil, &ResolveError{Name: locator, Reason: ReasonDescribeMissing,
			Err: errors.New("describe payload has no versions")}
	}

	return &PreparedComponent{
		Manifest:     manifest,
		ManifestPath: manifestPath,
		WasmPath:     wasmPath,
		Root:         root,
		WasmHash:     computed,
		Describe:     describe,
		Lifecycle:    info.Lifecycle(),
		HashVerified: true,
		WorldOK:      true,
	}, nil
}

// loadDescribe materializes the describe payload. A world declaration
// in the binary wins; then the sidecar next to the wasm, then the
// first parseable schemas/v1 payload, then a payload synthesized from
// the extracted config schema at the manifest version.
func (l *FSLoader) loadDescribe(info *wasm.Info, wasmPath string, manifest *Manifest, root string) (*DescribePayload, error) {
	if info.World != "" {
		if payload, err := payloadFromWorld(info); err == nil {
			return payload, nil
		}
	}

	wasmDir := filepath.Dir(wasmPath)
	sidecar := filepath.Join(wasmDir, manifest.DescribeExport+".describe.json")
	if payload, err := parseDescribeFile(sidecar); err == nil {
		return payload, nil
	}

	if payload := describeFromSchemaDir(filepath.Join(root, "schemas", "v1")); payload != nil {
		return payload, nil
	}

	extracted, err := l.extractor().ComponentSchema(manifest.ID, root, manifest.World, manifest.ConfigSchema)
	if err != nil {
		return nil, err
	}
	return &DescribePayload{
		Name:     manifest.Name,
		SchemaID: manifest.World,
		Versions: []DescribeVersion{{Version: manifest.Version, Schema: json.RawMessage(extracted.Schema)}},
	}, nil
}

func (l *FSLoader) extractor() *schema.Extractor {
	if l.Extractor != nil {
		return l.Extractor
	}
	return schema.NewExtractor(nil)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
