// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package pack implements the "weft pack" command group: building
// flow documents into deterministic .wpack archives and verifying
// built archives.
package pack

import (
	"github.com/weftworks/weft/cmd/weft/cli"
)

// Command returns the "pack" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "pack",
		Summary: "Build and verify flow packs",
		Subcommands: []*cli.Command{
			buildCommand(),
			verifyCommand(),
		},
	}
}
