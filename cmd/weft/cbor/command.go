// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package cbor implements the "weft cbor" command group: inspection
// tools for the CBOR pack manifests and signatures that weft emits.
package cbor

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
)

// cborParams holds the parameters for the top-level "weft cbor"
// command. The group has subcommands (decode, diag) and a Run
// fallback: with no subcommand it behaves as "decode".
type cborParams struct {
	Compact  bool `json:"compact"   flag:"compact,c" desc:"compact output (no indentation)"`
	HexInput bool `json:"hex_input" flag:"hex,x"     desc:"treat input as hex-encoded CBOR"`
}

// Command returns the "cbor" command group.
func Command() *cli.Command {
	var params cborParams

	return &cli.Command{
		Name:    "cbor",
		Summary: "Inspect CBOR data",
		Description: `Tools for working with CBOR data from the command line.

Pack manifests (manifest.cbor) and signatures (signature.cbor) use
CBOR with Core Deterministic Encoding. This command provides
ergonomic access to that data.

With no arguments, decodes CBOR on stdin to pretty-printed JSON on
stdout (equivalent to "weft cbor decode").

All subcommands accept an optional trailing file path argument. When
provided, input is read from the file instead of stdin. With --hex,
input is treated as hex-encoded CBOR; whitespace in the hex is
ignored.`,
		Subcommands: []*cli.Command{
			decodeCommand(),
			diagCommand(),
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("cbor", &params)
		},
		Run: func(args []string) error {
			data, remainingArgs, err := readInput(args, params.HexInput)
			if err != nil {
				return err
			}
			if len(remainingArgs) > 0 {
				return unknownArgError(remainingArgs[0])
			}
			return decodeCBOR(data, os.Stdout, params.Compact)
		},
		Examples: []cli.Example{
			{
				Description: "Decode CBOR to pretty JSON",
				Command:     "weft cbor < manifest.cbor",
			},
			{
				Description: "Decode a pack manifest extracted from an archive",
				Command:     "unzip -p dist/greet.wpack manifest.cbor | weft cbor decode",
			},
			{
				Description: "Decode hex-encoded CBOR",
				Command:     "echo 'a163...' | weft cbor --hex",
			},
			{
				Description: "Inspect CBOR structure with diagnostic notation",
				Command:     "weft cbor diag signature.cbor",
			},
		},
	}
}
