package main

import (
	"os"

	"github.com/hashicorp/cli"
)

// Commands returns the factory map cli.CLI dispatches on, one entry per top-level subcommand.
// Grounded on hashicorp/nomad's own command/commands.go structure (a single map literal of
// cli.CommandFactory), scaled down to this repository's much smaller command surface.
func Commands() map[string]cli.CommandFactory {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	return map[string]cli.CommandFactory{
		"fmt": func() (cli.Command, error) {
			return &FmtCommand{UI: ui}, nil
		},
		"inspect tokens": func() (cli.Command, error) {
			return &InspectTokensCommand{UI: ui}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{UI: ui}, nil
		},
	}
}
