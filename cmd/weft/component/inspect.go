// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/component"
	"github.com/weftworks/weft/lib/wasm"
	"github.com/weftworks/weft/lib/workspace"
)

type inspectParams struct {
	cli.JSONOutput
	Registry string `json:"registry" flag:"registry" desc:"registry directory override"`
}

// inspectReport is the verified identity of one component.
type inspectReport struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Version        string         `json:"version"`
	World          string         `json:"world"`
	WasmPath       string         `json:"wasm_path"`
	ManifestPath   string         `json:"manifest_path"`
	Digest         string         `json:"digest"`
	Lifecycle      wasm.Lifecycle `json:"lifecycle"`
	HashVerified   bool           `json:"hash_verified"`
	SchemaVersions []string       `json:"schema_versions"`
}

func inspectCommand() *cli.Command {
	var params inspectParams

	return &cli.Command{
		Name:    "inspect",
		Summary: "Load, verify, and describe a component",
		Description: `Resolve a locator the way the build pipeline would — explicit path,
workspace build output, then registry — and print the component's
verified identity: manifest fields, recomputed artifact digest,
lifecycle exports, and available schema versions. Fails with the
resolver's error taxonomy when the component does not verify.`,
		Usage: "weft component inspect <locator> [--json]",
		Examples: []cli.Example{
			{
				Description: "Inspect a component directory",
				Command:     "weft component inspect ./components/echo",
			},
			{
				Description: "Inspect a registry entry by name",
				Command:     "weft component inspect echo --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("inspect", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no locator given")
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument %q", args[1])
			}

			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			registry := params.Registry
			if registry == "" {
				registry = workspace.ComponentsDir(workspace.FindRoot(wd))
			}
			loader := &component.FSLoader{WorkDir: wd, RegistryDir: registry}
			prepared, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			report := inspectReport{
				ID:           prepared.Manifest.ID,
				Name:         prepared.Manifest.Name,
				Version:      prepared.Manifest.Version.String(),
				World:        prepared.Manifest.World,
				WasmPath:     prepared.WasmPath,
				ManifestPath: prepared.ManifestPath,
				Digest:       prepared.WasmHash.String(),
				Lifecycle:    prepared.Lifecycle,
				HashVerified: prepared.HashVerified,
			}
			for _, v := range prepared.Describe.Versions {
				report.SchemaVersions = append(report.SchemaVersions, v.Version.String())
			}

			if done, err := params.EmitJSON(report); done {
				return err
			}

			fmt.Fprintf(os.Stdout, "%s@%s (%s)\n", report.ID, report.Version, report.Name)
			fmt.Fprintf(os.Stdout, "  world:     %s\n", report.World)
			fmt.Fprintf(os.Stdout, "  artifact:  %s\n", report.WasmPath)
			fmt.Fprintf(os.Stdout, "  digest:    %s\n", report.Digest)
			fmt.Fprintf(os.Stdout, "  lifecycle: init=%t health=%t shutdown=%t\n",
				report.Lifecycle.Init, report.Lifecycle.Health, report.Lifecycle.Shutdown)
			fmt.Fprintf(os.Stdout, "  schemas:   %v\n", report.SchemaVersions)
			return nil
		},
	}
}
