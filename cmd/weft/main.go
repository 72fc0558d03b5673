// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/cmd/weft/commands"
	"github.com/weftworks/weft/lib/schema"
)

func main() {
	if err := run(); err != nil {
		// Commands that manage their own output return an ExitError
		// with the desired exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		// Schema validation failures get an itemized breakdown so
		// the user can fix every violation in one pass.
		var validation *schema.ValidationError
		if errors.As(err, &validation) {
			for _, v := range validation.Violations {
				fmt.Fprintf(os.Stderr, "  - node %s (%s) %s: %s\n",
					v.NodeID, v.Component, v.Pointer, v.Message)
			}
		}
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(rootArgs(os.Args[1:]))
}

// rootArgs handles flags that apply to every command before dispatch.
// Currently only --verbose, which lowers the logger level to Debug.
func rootArgs(args []string) []string {
	filtered := args[:0:0]
	for _, arg := range args {
		if arg == "--verbose" {
			cli.SetVerbose()
			continue
		}
		filtered = append(filtered, arg)
	}
	return filtered
}
