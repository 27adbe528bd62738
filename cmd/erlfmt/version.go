package main

import (
	"github.com/hashicorp/cli"

	"github.com/bsm/erlfmt/internal/version"
)

// VersionCommand prints the module's build version.
type VersionCommand struct {
	UI cli.Ui
}

func (c *VersionCommand) Help() string {
	return "Usage: erlfmt version\n\n  Print the erlfmt build version."
}

func (c *VersionCommand) Synopsis() string {
	return "Print the erlfmt version"
}

func (c *VersionCommand) Run(args []string) int {
	c.UI.Output(version.Version())
	return 0
}
