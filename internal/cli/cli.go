// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements argument parsing and the non-TUI commands.
package cli

import (
	"fmt"
	"os"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdRepl
	CmdVersion
	CmdHelp
)

// Parse reads os.Args and routes to a command. Anything without a
// recognized subcommand starts the TUI.
func Parse() (Command, *ArgParser) {
	parser := NewArgParser(os.Args[1:])

	switch parser.Subcommand() {
	case "ask":
		return CmdAsk, parser
	case "repl", "chat":
		return CmdRepl, parser
	case "version":
		return CmdVersion, parser
	case "help":
		return CmdHelp, parser
	case "":
		if parser.BoolFlag("version") {
			return CmdVersion, parser
		}
		if parser.BoolFlag("help") {
			return CmdHelp, parser
		}
		return CmdTUI, parser
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", parser.Subcommand())
		return CmdHelp, parser
	}
}

// PrintVersion writes the build information to stdout.
func PrintVersion() {
	fmt.Printf("stemma %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

// PrintHelp writes the usage summary to stdout.
func PrintHelp() {
	fmt.Print(`stemma - branching chat client

Usage:
  stemma                 Start the TUI
  stemma ask "question"  Ask once and print the reply
  stemma repl            Interactive line-mode chat
  stemma version         Print version information

Flags:
  --chat ID       Use an existing chat instead of creating one
  --model NAME    Model to route to (overrides config)
  --plain         Disable markdown rendering
  --debug FILE    Write debug logs to FILE (TUI only)
`)
}
