// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package component loads, verifies, and resolves WebAssembly
// components for the pack pipeline: manifest parsing, filesystem
// discovery, hash and world verification, describe materialization,
// and version-aware resolution with a process-lifetime cache.
package component

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/weftworks/weft/lib/codec"
	"github.com/weftworks/weft/lib/digest"
	"github.com/weftworks/weft/lib/wasm"
)

// ResolvedComponent is the pipeline's view of one component at one
// exact version. Name is the manifest id, which may differ from the
// name a flow used to reach it.
type ResolvedComponent struct {
	Name         string
	Version      *semver.Version
	WasmPath     string
	ManifestPath string
	WasmHash     digest.Digest
	World        string
	SchemaJSON   string
	ManifestJSON string
	Capabilities json.RawMessage
	Describe     *DescribePayload
	Lifecycle    wasm.Lifecycle
}

type cacheKey struct {
	name    string
	version string
}

// Resolver turns node component references into verified
// ResolvedComponents, memoized by (name, exact version).
type Resolver struct {
	loader Loader
	dir    string
	cache  map[cacheKey]*ResolvedComponent
}

// NewResolver builds a resolver over loader. A non-empty componentsDir
// switches every lookup to path mode under that directory; otherwise
// names go through loader discovery.
func NewResolver(loader Loader, componentsDir string) *Resolver {
	return &Resolver{
		loader: loader,
		dir:    componentsDir,
		cache:  make(map[cacheKey]*ResolvedComponent),
	}
}

// Resolve loads the component name references and checks the loaded
// version against versionReq. Empty or blank requirements accept any
// version. Repeated resolutions of one (name, exact version) share a
// single ResolvedComponent; the load and version check still run every
// call so a changed artifact or narrowed requirement is never masked
// by the cache.
func (r *Resolver) Resolve(name, versionReq string) (*ResolvedComponent, error) {
	req, err := parseVersionReq(versionReq)
	if err != nil {
		return nil, &ResolveError{Name: name, VersionReq: versionReq, Reason: ReasonVersionMismatch,
			Err: fmt.Errorf("invalid version requirement: %w", err)}
	}

	locator := name
	if r.dir != "" {
		locator = filepath.Join(r.dir, name)
	}
	prepared, err := r.loader.Load(locator)
	if err != nil {
		var resolveErr *ResolveError
		if errors.As(err, &resolveErr) {
			resolveErr.Name = name
			if resolveErr.VersionReq == "" {
				resolveErr.VersionReq = versionReq
			}
			return nil, err
		}
		return nil, fmt.Errorf("resolving component %q: %w", name, err)
	}

	version := prepared.Manifest.Version
	if !req.Check(version) {
		return nil, &ResolveError{Name: name, VersionReq: versionReq, Reason: ReasonVersionMismatch,
			Err: fmt.Errorf("component version is %s", version)}
	}

	key := cacheKey{name: name, version: version.String()}
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}
	resolved, err := newResolvedComponent(prepared)
	if err != nil {
		return nil, err
	}
	r.cache[key] = resolved
	return resolved, nil
}

func parseVersionReq(raw string) (*semver.Constraints, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = "*"
	}
	return semver.NewConstraint(trimmed)
}

func newResolvedComponent(prepared *PreparedComponent) (*ResolvedComponent, error) {
	manifestJSON, err := os.ReadFile(prepared.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", prepared.ManifestPath, err)
	}

	schemaJSON := ""
	if latest := prepared.Describe.Latest(); latest != nil {
		canonical, err := codec.CanonicalizeJSON(latest.Schema)
		if err != nil {
			return nil, fmt.Errorf("canonicalizing schema for %q: %w", prepared.Manifest.ID, err)
		}
		schemaJSON = string(canonical)
	}

	return &ResolvedComponent{
		Name:         prepared.Manifest.ID,
		Version:      prepared.Manifest.Version,
		WasmPath:     prepared.WasmPath,
		ManifestPath: prepared.ManifestPath,
		WasmHash:     prepared.WasmHash,
		World:        prepared.Manifest.World,
		SchemaJSON:   schemaJSON,
		ManifestJSON: string(manifestJSON),
		Capabilities: prepared.Manifest.Capabilities,
		Describe:     prepared.Describe,
		Lifecycle:    prepared.Lifecycle,
	}, nil
}
