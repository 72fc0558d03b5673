// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package component implements the "weft component" command group:
// importing components into the workspace registry, inspecting a
// component's verified identity, and listing what is installed.
package component

import (
	"github.com/weftworks/weft/cmd/weft/cli"
)

// Command returns the "component" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "component",
		Summary: "Manage workspace components",
		Subcommands: []*cli.Command{
			addCommand(),
			inspectCommand(),
			listCommand(),
		},
	}
}
