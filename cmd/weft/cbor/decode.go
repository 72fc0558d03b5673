// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	gocbor "github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
)

// toolDecMode is a CBOR decoder for the CLI tool. Unlike lib/codec's
// decoder (which sets DefaultMapType to map[string]any), this one uses
// the default map type (map[any]any) so it can decode CBOR with
// integer keys. The normalizeValue function then converts the result
// to JSON-compatible types.
var toolDecMode gocbor.DecMode

func init() {
	var err error
	toolDecMode, err = gocbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cbor tool: decoder initialization failed: " + err.Error())
	}
}

func decodeCommand() *cli.Command {
	var params cborParams

	return &cli.Command{
		Name:    "decode",
		Summary: "Convert CBOR to JSON",
		Description: `Read CBOR data from a file or stdin and write the equivalent JSON to
stdout.

By default, output is pretty-printed with 2-space indentation. Use -c
for compact single-line output.

CBOR integer map keys appear as string keys in JSON (e.g., "1", "2")
since JSON requires string keys. Use "weft cbor diag" for a
representation that preserves CBOR types.`,
		Usage: "weft cbor decode [-c] [file]",
		Examples: []cli.Example{
			{
				Description: "Decode a manifest to pretty JSON",
				Command:     "weft cbor decode manifest.cbor",
			},
			{
				Description: "Compact output from stdin",
				Command:     "weft cbor decode -c < manifest.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("decode", &params)
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
	}
}

// decodeCBOR decodes one CBOR item from data and writes JSON to w.
func decodeCBOR(data []byte, w io.Writer, compact bool) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}

	var value any
	if err := toolDecMode.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode CBOR: %w", err)
	}

	return writeJSON(w, normalizeValue(value), compact)
}

// normalizeValue recursively converts CBOR-decoded values to
// JSON-compatible types. The main transformation is converting
// map[any]any (from CBOR maps with integer keys) to map[string]any
// with fmt.Sprint'd keys.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case map[any]any:
		result := make(map[string]any, len(value))
		for key, element := range value {
			result[fmt.Sprint(key)] = normalizeValue(element)
		}
		return result

	case map[string]any:
		for key, element := range value {
			value[key] = normalizeValue(element)
		}
		return value

	case []any:
		for index, element := range value {
			value[index] = normalizeValue(element)
		}
		return value

	case []byte:
		// Byte strings have no natural JSON form; hex keeps them
		// greppable against digest output.
		return fmt.Sprintf("%x", value)

	default:
		return v
	}
}

// writeJSON encodes value as JSON and writes it to w with a trailing
// newline. When compact is false, output is pretty-printed with
// 2-space indentation.
func writeJSON(w io.Writer, value any, compact bool) error {
	var output []byte
	var err error
	if compact {
		output, err = json.Marshal(value)
	} else {
		output, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(output))
	return err
}
