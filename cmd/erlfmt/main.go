// Command erlfmt formats source files for the language described by internal/build and
// internal/layout: tokenize, build a layout document, render it at a configured width.
package main

import (
	"os"

	"github.com/hashicorp/cli"

	"github.com/bsm/erlfmt/internal/version"
)

func main() {
	c := &cli.CLI{
		Name:     "erlfmt",
		Version:  version.Version(),
		Args:     os.Args[1:],
		Commands: Commands(),
		HelpFunc: cli.BasicHelpFunc("erlfmt"),
	}

	exitCode, err := c.Run()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(exitCode)
}
