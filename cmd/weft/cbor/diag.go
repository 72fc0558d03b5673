// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/codec"
)

func diagCommand() *cli.Command {
	var params cborParams

	return &cli.Command{
		Name:    "diag",
		Summary: "Convert CBOR to diagnostic notation",
		Description: `Read CBOR from a file or stdin and write RFC 8949 Extended Diagnostic
Notation (EDN) to stdout.

Unlike JSON output, diagnostic notation preserves CBOR type
information: integer vs float, byte strings vs text strings, integer
map keys, and tagged values. This is useful for inspecting the exact
wire representation of pack manifests and signatures.

Examples of diagnostic notation:

  {"pack_id": "dev.local.greet", "schema_version": 1}
  h'a1636b6579'                           byte string in hex`,
		Usage: "weft cbor diag [file]",
		Examples: []cli.Example{
			{
				Description: "Show diagnostic notation for a signature entry",
				Command:     "weft cbor diag signature.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("diag", &params)
		},
		Run: func(args []string) error {
			data, remainingArgs, err := readInput(args, params.HexInput)
			if err != nil {
				return err
			}
			if len(remainingArgs) > 0 {
				return unknownArgError(remainingArgs[0])
			}
			return diagCBOR(data, os.Stdout)
		},
	}
}

// diagCBOR writes diagnostic notation for data to w. Input is
// processed as a sequence: one line per item, so single items and
// CBOR sequences (RFC 8742) both work.
func diagCBOR(data []byte, w io.Writer) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}

	remaining := data
	for len(remaining) > 0 {
		notation, rest, err := codec.DiagnoseFirst(remaining)
		if err != nil {
			offset := len(data) - len(remaining)
			return fmt.Errorf("diagnose CBOR at byte %d: %w", offset, err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		remaining = rest
	}

	return nil
}
