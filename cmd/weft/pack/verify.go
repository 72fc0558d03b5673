// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/pack"
)

type verifyParams struct {
	cli.JSONOutput
	Pack   string `json:"pack"   flag:"pack,p"  desc:"pack archive to verify"`
	Policy string `json:"policy" flag:"policy"  desc:"signature policy: dev-ok or strict" default:"dev-ok"`
}

func verifyCommand() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check a pack archive's integrity and signature",
		Description: `Read a .wpack archive, re-hash every embedded component against the
hashes the manifest records, check the embedded schema copies, and
judge the signature under the selected policy.

Policies:

  dev-ok  accept a valid dev signature; accept unsigned packs with a
          warning (the default)
  strict  fail for dev-signed and unsigned packs. weft only produces
          dev signatures, so strict verification documents that a
          pack has no production signature.`,
		Usage: "weft pack verify -p <pack.wpack> [--policy dev-ok|strict] [--json]",
		Examples: []cli.Example{
			{
				Description: "Verify a dev-signed pack",
				Command:     "weft pack verify -p dist/greet.wpack",
			},
			{
				Description: "Assert the pack would fail production verification",
				Command:     "weft pack verify -p dist/greet.wpack --policy strict",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(args []string) error {
			path := params.Pack
			if path == "" && len(args) > 0 {
				path = args[0]
				args = args[1:]
			}
			if path == "" {
				return fmt.Errorf("no pack archive given (use -p or a positional path)")
			}
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}

			policy, err := pack.ParsePolicy(params.Policy)
			if err != nil {
				return err
			}

			report, err := pack.Verify(path, policy)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(report); done {
				return err
			}

			fmt.Fprintf(os.Stdout, "✓ pack %s@%s verified (%d components, manifest hash %s)\n",
				report.PackID, report.Version, report.Components, report.ManifestHash)
			if report.Signed {
				fmt.Fprintf(os.Stdout, "  signature: dev key %s (unproven)\n", report.KeyID)
			}
			for _, warning := range report.Warnings {
				fmt.Fprintf(os.Stdout, "  warning: %s\n", warning)
			}
			return nil
		},
	}
}
