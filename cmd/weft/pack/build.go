// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/pack"
	"github.com/weftworks/weft/lib/workspace"
)

type buildParams struct {
	Out        string `json:"out"        flag:"out,o"      desc:"output archive path (default dist/<flow-id>.wpack)"`
	Meta       string `json:"meta"       flag:"meta"       desc:"pack.toml metadata overlay"`
	Components string `json:"components" flag:"components" desc:"resolve every node under this directory"`
	Sign       string `json:"sign"       flag:"sign"       desc:"signing mode: dev or none" default:"dev"`
}

func buildCommand() *cli.Command {
	var params buildParams

	return &cli.Command{
		Name:    "build",
		Summary: "Build a flow document into a .wpack archive",
		Description: `Run the full pack pipeline: load the flow, resolve every node's
component at a matching version, validate node configs against the
components' schemas, assemble the manifest, and write the archive.

The archive bytes are a pure function of the flow document, the
resolved components, the metadata overlay, and one build timestamp.
Pin the timestamp with WEFT_BUILD_TIMESTAMP (RFC 3339) or the
overlay's created_at_utc for reproducible builds; set WEFT_STRICT=1
to have the builder rebuild into a scratch directory and fail unless
the two archives are byte-identical.`,
		Usage: "weft pack build <flow.yaml> [flags]",
		Examples: []cli.Example{
			{
				Description: "Build with defaults (dev signature, dist/ output)",
				Command:     "weft pack build flows/greet.flow.yaml",
			},
			{
				Description: "Reproducible build with a pinned timestamp",
				Command:     "WEFT_BUILD_TIMESTAMP=2026-01-01T00:00:00Z weft pack build flows/greet.flow.yaml --out dist/greet.wpack",
			},
			{
				Description: "Apply a metadata overlay and skip signing",
				Command:     "weft pack build flows/greet.flow.yaml --meta pack.toml --sign none",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("build", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no flow document given")
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument %q", args[1])
			}
			flowPath := args[0]

			signing, err := pack.ParseSigningMode(params.Sign)
			if err != nil {
				return err
			}

			outPath := params.Out
			if outPath == "" {
				stem := strings.TrimSuffix(filepath.Base(flowPath), filepath.Ext(flowPath))
				stem = strings.TrimSuffix(stem, ".flow")
				outPath = filepath.Join("dist", stem+".wpack")
			}

			logger := cli.NewCommandLogger().With("command", "pack/build")
			result, err := pack.Build(context.Background(), pack.Options{
				FlowPath:      flowPath,
				OutPath:       outPath,
				MetaPath:      params.Meta,
				ComponentsDir: params.Components,
				Signing:       signing,
				WorkspaceRoot: workspace.FindRoot(filepath.Dir(flowPath)),
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "✓ pack built at %s (manifest hash %s)\n", result.OutPath, result.ManifestHash)
			return nil
		},
	}
}
