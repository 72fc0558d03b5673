// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/component"
	"github.com/weftworks/weft/lib/distributor"
	"github.com/weftworks/weft/lib/workspace"
)

// artifactFileName is the binary's name inside an installed
// component's directory.
const artifactFileName = "artifact.wasm"

type addParams struct {
	cli.JSONOutput
}

// addReport describes one installed component.
type addReport struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
	Digest  string `json:"digest"`
}

func addCommand() *cli.Command {
	var params addParams

	return &cli.Command{
		Name:    "add",
		Summary: "Import a component into the workspace",
		Description: `Resolve a component coordinate to an artifact, verify it, and install
it under .weft/components/<name>-<version>/ with an entry in the
workspace manifest (.weft/workspace.json). Re-adding a name replaces
its manifest entry.

A coordinate that names a path on disk resolves locally. Any other
coordinate needs a resolution stub (WEFT_RESOLVE_STUB pointing at a
JSONC file mapping coordinates to artifacts); with WEFT_OFFLINE=1 and
no stub, non-path coordinates are refused.`,
		Usage: "weft component add <coordinate-or-path> [--json]",
		Examples: []cli.Example{
			{
				Description: "Install from a local component directory",
				Command:     "weft component add ./components/echo",
			},
			{
				Description: "Install a registry coordinate through a stub",
				Command:     "WEFT_RESOLVE_STUB=resolve.jsonc weft component add demo:proc/echo@0.1.0",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("add", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no coordinate given")
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument %q", args[1])
			}
			coordinate := args[0]

			report, err := addComponent(context.Background(), coordinate)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(report); done {
				return err
			}
			fmt.Fprintf(os.Stdout, "✓ added %s@%s at %s\n", report.Name, report.Version, report.Path)
			return nil
		},
	}
}

// addComponent resolves the coordinate, verifies the component, and
// installs it into the workspace rooted at the working directory.
func addComponent(ctx context.Context, coordinate string) (*addReport, error) {
	resolver, err := distributor.Select(coordinate)
	if err != nil {
		return nil, err
	}
	resolution, err := resolver.Resolve(ctx, coordinate)
	if err != nil {
		return nil, err
	}

	// Full verification before anything lands in the workspace: the
	// loader re-hashes the binary, checks the manifest, and scans the
	// wasm for target and world.
	loader := &component.FSLoader{}
	prepared, err := loader.Load(resolution.ArtifactPath)
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root := workspace.FindRoot(wd)

	name := prepared.Manifest.ID
	version := prepared.Manifest.Version.String()
	destDir := filepath.Join(workspace.ComponentsDir(root), name+"-"+version)
	if err := installComponent(prepared, destDir); err != nil {
		return nil, err
	}

	manifest, err := workspace.LoadManifest(root)
	if err != nil {
		return nil, err
	}
	relDir, err := filepath.Rel(root, destDir)
	if err != nil {
		relDir = destDir
	}
	installed := workspace.InstalledComponent{
		Name:    name,
		Version: version,
		Path:    relDir,
		Digest:  prepared.WasmHash.String(),
	}
	manifest.Upsert(installed)
	if err := workspace.SaveManifest(root, manifest); err != nil {
		return nil, err
	}

	return &addReport{
		Name:    installed.Name,
		Version: installed.Version,
		Path:    installed.Path,
		Digest:  installed.Digest,
	}, nil
}

// installComponent copies the verified binary and its manifest into
// destDir. The manifest's artifact pointer is rewritten to the
// installed file name; all other keys round-trip untouched.
func installComponent(prepared *component.PreparedComponent, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}

	wasmBytes, err := os.ReadFile(prepared.WasmPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", prepared.WasmPath, err)
	}
	if err := os.WriteFile(filepath.Join(destDir, artifactFileName), wasmBytes, 0o644); err != nil {
		return fmt.Errorf("installing artifact: %w", err)
	}

	manifestBytes, err := os.ReadFile(prepared.ManifestPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", prepared.ManifestPath, err)
	}
	var document map[string]any
	if err := json.Unmarshal(manifestBytes, &document); err != nil {
		return fmt.Errorf("parsing %s: %w", prepared.ManifestPath, err)
	}
	artifacts, ok := document["artifacts"].(map[string]any)
	if !ok {
		artifacts = make(map[string]any)
		document["artifacts"] = artifacts
	}
	artifacts["component_wasm"] = artifactFileName

	rewritten, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing manifest: %w", err)
	}
	manifestDest := filepath.Join(destDir, component.ManifestName)
	if err := os.WriteFile(manifestDest, append(rewritten, '\n'), 0o644); err != nil {
		return fmt.Errorf("installing manifest: %w", err)
	}
	return nil
}
