// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete weft CLI command tree. Keeping
// the tree in its own package lets main_test.go walk every command
// without importing main.
package commands

import (
	"fmt"

	cborcmd "github.com/weftworks/weft/cmd/weft/cbor"
	"github.com/weftworks/weft/cmd/weft/cli"
	componentcmd "github.com/weftworks/weft/cmd/weft/component"
	configcmd "github.com/weftworks/weft/cmd/weft/config"
	flowcmd "github.com/weftworks/weft/cmd/weft/flow"
	packcmd "github.com/weftworks/weft/cmd/weft/pack"
	"github.com/weftworks/weft/lib/version"
)

// Root builds and returns the complete weft CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "weft",
		Description: `Weft: deterministic flow packaging.

Validate flow definitions, resolve their WebAssembly components,
check node configuration against extracted schemas, and build
byte-reproducible .wpack archives.`,
		Subcommands: []*cli.Command{
			flowcmd.Command(),
			packcmd.Command(),
			componentcmd.Command(),
			configcmd.Command(),
			cborcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("weft %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Validate a flow definition",
				Command:     "weft flow validate greet.flow.yaml",
			},
			{
				Description: "Build a signed pack from a flow",
				Command:     "weft pack build greet.flow.yaml --out dist/greet.wpack",
			},
			{
				Description: "Verify a pack under the strict signature policy",
				Command:     "weft pack verify dist/greet.wpack --policy strict",
			},
			{
				Description: "Install a component into the workspace",
				Command:     "weft component add ./vendor/echo",
			},
			{
				Description: "Decode a manifest entry to JSON",
				Command:     "weft cbor decode manifest.cbor",
			},
		},
	}
}
