// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package config implements the "weft config" command group for
// reading and writing the user configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/weftworks/weft/cmd/weft/cli"
	"github.com/weftworks/weft/lib/workspace"
)

// Command returns the "config" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Read and write user configuration",
		Description: `Read and write the weft user configuration file.

The config file is TOML. Known settings:

  [registry]
  dir = "/path/to/shared/registry"   component registry directory

  [build]
  sign = "dev"                       default signing mode for pack build

The file location is $WEFT_CONFIG when set, otherwise
~/.config/weft/config.toml. A missing file behaves as an empty
configuration; "config set" creates it on first write.`,
		Subcommands: []*cli.Command{
			showCommand(),
			pathCommand(),
			getCommand(),
			setCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Point component resolution at a shared registry",
				Command:     "weft config set registry.dir ~/registries/team",
			},
			{
				Description: "Show the effective configuration",
				Command:     "weft config show",
			},
		},
	}
}

type showParams struct {
	cli.JSONOutput
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Print the effective configuration",
		Usage:   "weft config show [--json]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			config, err := workspace.LoadConfig()
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(map[string]string{
				"path":         config.Path(),
				"registry_dir": config.RegistryDir(),
				"build_sign":   config.DefaultSign(),
			}); done {
				return err
			}
			fmt.Fprintf(os.Stdout, "config file:  %s\n", config.Path())
			fmt.Fprintf(os.Stdout, "registry.dir: %s\n", orUnset(config.RegistryDir()))
			fmt.Fprintf(os.Stdout, "build.sign:   %s\n", orUnset(config.DefaultSign()))
			return nil
		},
	}
}

func pathCommand() *cli.Command {
	return &cli.Command{
		Name:    "path",
		Summary: "Print the config file location",
		Usage:   "weft config path",
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			path, err := workspace.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, path)
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:    "get",
		Summary: "Print one configuration value",
		Usage:   "weft config get <key>",
		Examples: []cli.Example{
			{
				Description: "Print the default signing mode",
				Command:     "weft config get build.sign",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: weft config get <key>")
			}
			config, err := workspace.LoadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, config.Get(args[0]))
			return nil
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:    "set",
		Summary: "Set one configuration value",
		Description: `Set a configuration value at a dotted key path and write the file
back. Unknown keys are preserved, so settings from newer versions of
weft survive round-trips through older ones.`,
		Usage: "weft config set <key> <value>",
		Examples: []cli.Example{
			{
				Description: "Default all builds to unsigned packs",
				Command:     "weft config set build.sign none",
			},
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: weft config set <key> <value>")
			}
			config, err := workspace.LoadConfig()
			if err != nil {
				return err
			}
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "✓ %s = %s (%s)\n", args[0], args[1], config.Path())
			return nil
		},
	}
}

func orUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return value
}
