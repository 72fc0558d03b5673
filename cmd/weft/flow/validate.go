// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package flow implements the "weft flow" command group.
package flow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/flowdef"
)

// Command returns the "flow" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "flow",
		Summary: "Work with flow documents",
		Subcommands: []*cli.Command{
			validateCommand(),
		},
	}
}

type validateParams struct {
	cli.JSONOutput
	File      string `json:"file"      flag:"file,f"    desc:"flow document to validate"`
	Canonical bool   `json:"canonical" flag:"canonical" desc:"print the canonical JSON projection"`
}

// validateReport is the machine-readable result of a validation run.
type validateReport struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Entry     string          `json:"entry,omitempty"`
	Hash      string          `json:"hash"`
	Nodes     []nodeReport    `json:"nodes"`
	Canonical json.RawMessage `json:"canonical,omitempty"`
}

type nodeReport struct {
	NodeID     string `json:"node_id"`
	Component  string `json:"component"`
	VersionReq string `json:"version_req"`
	SchemaID   string `json:"schema_id,omitempty"`
}

func validateCommand() *cli.Command {
	var params validateParams

	return &cli.Command{
		Name:    "validate",
		Summary: "Parse a flow document and print its canonical identity",
		Description: `Parse a flow document, project it to canonical JSON, and print the
flow's identity: id, kind, entry node, node list, and the blake3 hash
of the canonical form. The same document always produces the same
hash, regardless of YAML formatting, key order, or comments.

Exits non-zero with the loader's error when the document does not
parse or violates flow structure rules (duplicate node ids, missing
component names, duplicate mapping keys).`,
		Usage: "weft flow validate -f <flow.yaml> [--json]",
		Examples: []cli.Example{
			{
				Description: "Validate a flow and show its canonical hash",
				Command:     "weft flow validate -f flows/greet.flow.yaml",
			},
			{
				Description: "Machine-readable validation report",
				Command:     "weft flow validate -f flows/greet.flow.yaml --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("validate", &params)
		},
		Run: func(args []string) error {
			path := params.File
			if path == "" && len(args) > 0 {
				path = args[0]
				args = args[1:]
			}
			if path == "" {
				return fmt.Errorf("no flow document given (use -f or a positional path)")
			}
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}

			bundle, err := flowdef.Load(path)
			if err != nil {
				return err
			}

			report := validateReport{
				ID:    bundle.ID,
				Kind:  string(bundle.Kind),
				Entry: bundle.Entry,
				Hash:  bundle.Hash.String(),
				Nodes: make([]nodeReport, len(bundle.Nodes)),
			}
			for i, node := range bundle.Nodes {
				report.Nodes[i] = nodeReport{
					NodeID:     node.NodeID,
					Component:  node.Component.Name,
					VersionReq: node.Component.VersionReq,
					SchemaID:   node.SchemaID,
				}
			}
			if params.Canonical {
				report.Canonical = json.RawMessage(bundle.JSON)
			}

			if done, err := params.EmitJSON(report); done {
				return err
			}

			if params.Canonical {
				os.Stdout.Write(bundle.JSON)
				fmt.Fprintln(os.Stdout)
				return nil
			}

			fmt.Fprintf(os.Stdout, "✓ flow %s valid (%d nodes)\n", bundle.ID, len(bundle.Nodes))
			fmt.Fprintf(os.Stdout, "  kind:  %s\n", bundle.Kind)
			if bundle.Entry != "" {
				fmt.Fprintf(os.Stdout, "  entry: %s\n", bundle.Entry)
			}
			fmt.Fprintf(os.Stdout, "  hash:  %s\n", bundle.Hash)
			for _, node := range report.Nodes {
				fmt.Fprintf(os.Stdout, "  node %s: %s@%s\n", node.NodeID, node.Component, node.VersionReq)
			}
			return nil
		},
	}
}
