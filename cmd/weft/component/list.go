// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/workspace"
)

type listParams struct {
	cli.JSONOutput
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List components installed in the workspace",
		Usage:   "weft component list [--json]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("list takes no arguments, got %q", args[0])
			}

			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			manifest, err := workspace.LoadManifest(workspace.FindRoot(wd))
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(manifest.Components); done {
				return err
			}

			if len(manifest.Components) == 0 {
				fmt.Fprintln(os.Stdout, "no components installed")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVERSION\tPATH\tDIGEST")
			for _, installed := range manifest.Components {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					installed.Name, installed.Version, installed.Path, installed.Digest)
			}
			return tw.Flush()
		},
	}
}
