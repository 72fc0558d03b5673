// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/weftworks/weft/lib/clock"
	"github.com/weftworks/weft/lib/codec"
	"github.com/weftworks/weft/lib/component"
	"github.com/weftworks/weft/lib/digest"
	"github.com/weftworks/weft/lib/flowdef"
	"github.com/weftworks/weft/lib/schema"
	"github.com/weftworks/weft/lib/workspace"
)

// Options configure one pack build.
type Options struct {
	// FlowPath is the flow document to build.
	FlowPath string

	// OutPath is the archive destination. Its parent is created when
	// missing; the archive only appears there on success.
	OutPath string

	// MetaPath optionally names a pack.toml metadata overlay.
	MetaPath string

	// ComponentsDir, when set, resolves every node under this
	// directory instead of loader discovery.
	ComponentsDir string

	// Signing defaults to SignDev.
	Signing SigningMode

	// WorkspaceRoot anchors the resolved-config sidecar directory.
	// Empty means the workspace containing the flow document.
	WorkspaceRoot string

	// Loader overrides component loading; nil uses the filesystem
	// loader rooted at the workspace.
	Loader component.Loader

	// Clock supplies the build timestamp when neither the
	// WEFT_BUILD_TIMESTAMP override nor the overlay pins one.
	Clock clock.Clock

	Logger *slog.Logger
}

// Result reports a successful build.
type Result struct {
	OutPath string
	// ManifestHash is the blake3 digest of the serialized manifest
	// bytes.
	ManifestHash digest.Digest
}

// Strict reports whether WEFT_STRICT enables the determinism prover.
func Strict() bool {
	switch os.Getenv("WEFT_STRICT") {
	case "1", "true", "TRUE":
		return true
	}
	return false
}

// Build runs the whole pipeline: load the flow, resolve every node,
// validate configs, assemble the manifest, and write the archive. In
// strict mode it then rebuilds into a scratch directory and requires
// byte-identical output.
func Build(ctx context.Context, opts Options) (*Result, error) {
	b, err := newBuilder(ctx, opts)
	if err != nil {
		return nil, err
	}

	result, err := b.run(ctx, opts.OutPath)
	if err != nil {
		return nil, err
	}

	if Strict() {
		if err := b.prove(ctx, result); err != nil {
			return nil, err
		}
		b.logger.Info("strict mode verified deterministic pack output")
	}
	return result, nil
}

// builder carries the state shared between the primary build and the
// strict-mode proving rebuild: the component and schema caches, the
// resolved timestamp, the overlay, and the provenance snapshot.
type builder struct {
	opts      Options
	logger    *slog.Logger
	root      string
	resolver  *component.Resolver
	validator *schema.Validator
	meta      *Meta
	timestamp string
	prov      Provenance
}

func newBuilder(ctx context.Context, opts Options) (*builder, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	root := opts.WorkspaceRoot
	if root == "" {
		root = workspace.FindRoot(filepath.Dir(opts.FlowPath))
	}

	loader := opts.Loader
	if loader == nil {
		loader = &component.FSLoader{
			WorkDir:   root,
			Extractor: schema.NewExtractor(logger),
		}
	}

	var meta *Meta
	if opts.MetaPath != "" {
		loaded, err := LoadMeta(opts.MetaPath)
		if err != nil {
			return nil, err
		}
		meta = loaded
	}

	timestamp, err := resolveTimestamp(meta, opts.Clock)
	if err != nil {
		return nil, err
	}

	return &builder{
		opts:      opts,
		logger:    logger,
		root:      root,
		resolver:  component.NewResolver(loader, opts.ComponentsDir),
		validator: schema.NewValidator(),
		meta:      meta,
		timestamp: timestamp,
		prov:      CollectProvenance(ctx, root, timestamp),
	}, nil
}

// resolveTimestamp picks the single RFC 3339 instant used for
// created_at_utc and built_at_utc: the WEFT_BUILD_TIMESTAMP override,
// else the overlay's created_at_utc, else the clock.
func resolveTimestamp(meta *Meta, c clock.Clock) (string, error) {
	if override := os.Getenv("WEFT_BUILD_TIMESTAMP"); override != "" {
		parsed, err := time.Parse(time.RFC3339, override)
		if err != nil {
			return "", &AssemblyError{Reason: "WEFT_BUILD_TIMESTAMP is not RFC 3339", Err: err}
		}
		return parsed.UTC().Format(time.RFC3339), nil
	}
	if meta != nil && meta.CreatedAtUTC != "" {
		return meta.CreatedAtUTC, nil
	}
	if c == nil {
		c = clock.Real()
	}
	return c.Now().UTC().Format(time.RFC3339), nil
}

func (b *builder) run(ctx context.Context, outPath string) (*Result, error) {
	flow, err := flowdef.Load(b.opts.FlowPath)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("flow loaded", "flow", flow.ID, "nodes", len(flow.Nodes), "hash", flow.Hash)

	nodes := make([]ResolvedNode, 0, len(flow.Nodes))
	for _, ref := range flow.Nodes {
		resolved, err := b.resolver.Resolve(ref.Component.Name, ref.Component.VersionReq)
		if err != nil {
			return nil, err
		}
		b.logger.Debug("node resolved", "node", ref.NodeID,
			"component", resolved.Name, "version", resolved.Version)
		nodes = append(nodes, ResolvedNode{Ref: ref, Component: resolved})
	}

	var violations []schema.Violation
	for _, node := range nodes {
		if node.Component.SchemaJSON == "" {
			continue
		}
		found, err := b.validator.ValidateConfig(node.Ref.NodeID, node.Component.Name,
			node.Ref.ConfigPointer, node.Component.SchemaJSON, node.Ref.Config)
		if err != nil {
			return nil, err
		}
		violations = append(violations, found...)
	}
	if len(violations) > 0 {
		return nil, &schema.ValidationError{Violations: violations}
	}

	if err := b.writeSidecars(nodes); err != nil {
		return nil, err
	}

	manifest, err := Assemble(flow, nodes, b.meta, b.timestamp, b.prov)
	if err != nil {
		return nil, err
	}

	// The archive entry path is derived from the manifest identity,
	// which can differ from the node's component name; map entry
	// paths back to the binaries the resolver verified.
	sources := make(map[string]string, len(nodes))
	for _, node := range nodes {
		sources[ComponentEntryPath(node.Component.Name, node.Component.Version.String())] = node.Component.WasmPath
	}

	return b.write(manifest, sources, outPath)
}

// writeSidecars recreates <workspace>/.cache/resolved_config with one
// record per node. Runs only after validation has passed.
func (b *builder) writeSidecars(nodes []ResolvedNode) error {
	dir := workspace.ResolvedConfigDir(b.root)
	if err := os.RemoveAll(dir); err != nil {
		return &BuildError{Stage: "sidecar", Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &BuildError{Stage: "sidecar", Err: err}
	}
	for _, node := range nodes {
		record := map[string]any{
			"node_id":   node.Ref.NodeID,
			"component": node.Component.Name,
			"version":   node.Component.Version.String(),
			"config":    json.RawMessage(node.Ref.Config),
		}
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return &BuildError{Stage: "sidecar", Err: err}
		}
		path := filepath.Join(dir, node.Ref.NodeID+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return &BuildError{Stage: "sidecar", Err: err}
		}
	}
	return nil
}

// write serializes the manifest, gathers the archive entries, and
// lands the archive at outPath via a temp file so a failing build
// never leaves a partial archive behind.
func (b *builder) write(manifest *Manifest, sources map[string]string, outPath string) (*Result, error) {
	manifestBytes, err := codec.Marshal(manifest)
	if err != nil {
		return nil, &BuildError{Stage: "manifest serialization", Err: err}
	}

	entries := []Entry{{
		Category: categoryManifest,
		Path:     ManifestEntryName,
		Data:     manifestBytes,
	}}
	for _, artifact := range manifest.Components {
		wasmBytes, err := componentBytes(artifact, sources)
		if err != nil {
			return nil, &BuildError{Stage: "component embedding", Err: err}
		}
		entries = append(entries, Entry{
			Category: categoryComponent,
			Path:     artifact.Path,
			Data:     wasmBytes,
			Store:    true,
		})
		if artifact.SchemaJSON != "" {
			entries = append(entries, Entry{
				Category: categorySchema,
				Path:     SchemaEntryPath(artifact.Name, artifact.Version),
				Data:     []byte(artifact.SchemaJSON),
			})
		}
		if artifact.ManifestJSON != "" {
			entries = append(entries, Entry{
				Category: categorySchema,
				Path:     ComponentManifestEntryPath(artifact.Name, artifact.Version),
				Data:     []byte(artifact.ManifestJSON),
			})
		}
	}

	signing := b.opts.Signing
	if signing == "" {
		signing = SignDev
	}
	if signing == SignDev {
		signatureBytes, err := codec.Marshal(SignManifest(manifestBytes))
		if err != nil {
			return nil, &BuildError{Stage: "signature serialization", Err: err}
		}
		entries = append(entries, Entry{
			Category: categorySignature,
			Path:     SignatureEntryName,
			Data:     signatureBytes,
		})
	}

	if err := writeArchiveFile(outPath, entries); err != nil {
		return nil, err
	}
	return &Result{OutPath: outPath, ManifestHash: digest.HashBytes(manifestBytes)}, nil
}

// componentBytes reads and re-verifies one component binary as it is
// embedded.
func componentBytes(artifact ComponentArtifact, sources map[string]string) ([]byte, error) {
	wasmPath, ok := sources[artifact.Path]
	if !ok {
		return nil, fmt.Errorf("no source binary recorded for archive entry %s", artifact.Path)
	}
	wasmBytes, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, err
	}
	if got := digest.HashBytes(wasmBytes).Hex(); got != artifact.HashBlake3 {
		return nil, fmt.Errorf("component %s@%s changed on disk during the build", artifact.Name, artifact.Version)
	}
	return wasmBytes, nil
}

func writeArchiveFile(outPath string, entries []Entry) error {
	outDir := filepath.Dir(outPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &BuildError{Stage: "archive write", Err: err}
	}
	tempPath := outPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &BuildError{Stage: "archive write", Err: err}
	}
	if err := WriteArchive(file, entries); err != nil {
		file.Close()
		os.Remove(tempPath)
		return &BuildError{Stage: "archive write", Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return &BuildError{Stage: "archive write", Err: err}
	}
	if err := os.Rename(tempPath, outPath); err != nil {
		os.Remove(tempPath)
		return &BuildError{Stage: "archive write", Err: err}
	}
	return nil
}

// prove rebuilds the pack into a scratch directory with the same
// caches, timestamp, and overlay, then byte-compares the archives.
func (b *builder) prove(ctx context.Context, primary *Result) error {
	scratch, err := os.MkdirTemp("", "weft-prove-*")
	if err != nil {
		return &BuildError{Stage: "determinism proof", Err: err}
	}
	defer os.RemoveAll(scratch)

	provePath := filepath.Join(scratch, "deterministic.wpack")
	if _, err := b.run(ctx, provePath); err != nil {
		return fmt.Errorf("determinism proof rebuild: %w", err)
	}

	first, err := os.ReadFile(primary.OutPath)
	if err != nil {
		return &BuildError{Stage: "determinism proof", Err: err}
	}
	second, err := os.ReadFile(provePath)
	if err != nil {
		return &BuildError{Stage: "determinism proof", Err: err}
	}
	if !bytes.Equal(first, second) {
		return ErrNondeterministic
	}
	return nil
}
