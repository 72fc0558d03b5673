// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the weft binary: a
// declarative command tree with lazy pflag flag sets, struct-tag flag
// binding, typo suggestions for unknown commands and flags, optional
// --json output, and exit-code control for commands whose non-zero
// exit is an answer rather than an error.
//
// Commands are plain [Command] values. Leaf commands set Run; groups
// set Subcommands. Flags come from a params struct via
// [FlagsFromParams], which binds fields tagged with flag/desc/default
// to a pflag.FlagSet.
package cli
