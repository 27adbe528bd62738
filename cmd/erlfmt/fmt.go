package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/cli"

	"github.com/bsm/erlfmt/internal/build"
	"github.com/bsm/erlfmt/internal/format"
	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/internal/lexer"
)

// FmtCommand formats files or stdin in place, following §6.2's driver surface. Its flag set is
// built per invocation the way teleivo/dot's cmd/dotx/main.go builds one flag.FlagSet per
// subcommand, rather than sharing one package-level set across commands.
type FmtCommand struct {
	UI *cli.BasicUi
}

func (c *FmtCommand) Synopsis() string {
	return "Format source files"
}

func (c *FmtCommand) Help() string {
	var b strings.Builder
	b.WriteString("Usage: erlfmt fmt [flags] [path ...]\n\n")
	b.WriteString("  Format the given files or directories in place. With no path, reads from\n")
	b.WriteString("  stdin and writes the formatted result to stdout.\n\n")
	b.WriteString("Flags:\n")
	b.WriteString("  -linelength int   maximum output line width (default 100)\n")
	b.WriteString("  -check            report files that would change instead of rewriting them\n")
	b.WriteString("  -diff             with -check, print a line diff of what would change\n")
	b.WriteString("  -debug            enable debug logging\n")
	b.WriteString("  -format string    'default', 'layout', or 'go' (default \"default\")\n")
	return b.String()
}

func (c *FmtCommand) Run(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(c.UI.ErrorWriter)
	lineLength := fs.Int("linelength", format.DefaultLineLength, "maximum output line width")
	check := fs.Bool("check", false, "report files that would change instead of rewriting them")
	diff := fs.Bool("diff", false, "with -check, print a line diff of what would change")
	debug := fs.Bool("debug", false, "enable debug logging")
	renderFormat := fs.String("format", "default", "render the document as 'default' text, 'layout' (debug tree), or 'go' (runnable reconstruction)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ft, err := layout.NewFormat(*renderFormat)
	if err != nil {
		c.UI.Error(err.Error())
		return 2
	}

	if ft != layout.Default {
		return c.runDebugFormat(fs.Args(), ft)
	}

	cfg := format.Config{Check: *check, LineLength: *lineLength}

	if fs.NArg() == 0 {
		if err := format.Reader(os.Stdin, os.Stdout, nil, cfg.LineLength); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		return 0
	}

	exit := 0
	for _, path := range fs.Args() {
		fi, err := os.Stat(path)
		if err != nil {
			c.UI.Error(err.Error())
			exit = 1
			continue
		}

		if fi.IsDir() {
			changed, err := format.Dir(path, nil, cfg)
			if err != nil {
				logger.Error("directory format failed", "path", path, "err", err)
				exit = 1
			}
			for _, f := range changed {
				c.reportChanged(logger, f, cfg)
			}
			continue
		}

		before, rerr := os.ReadFile(path)
		changed, err := format.File(path, nil, cfg)
		if err != nil {
			var broken *format.BrokenFormatError
			if errors.As(err, &broken) {
				logger.Error("formatting changed program meaning", "path", path, "crash_dump", broken.CrashDumpPath)
			} else {
				logger.Error("format failed", "path", path, "err", err)
			}
			exit = 1
			continue
		}
		if changed {
			c.reportChanged(logger, path, cfg)
			if cfg.Check && *diff && rerr == nil {
				after, _ := format.Format(before, *lineLength)
				printDiff(os.Stderr, path, before, []byte(after))
			}
		}
	}
	return exit
}

func (c *FmtCommand) reportChanged(logger *slog.Logger, path string, cfg format.Config) {
	if cfg.Check {
		logger.Info("needs formatting", "path", path)
		c.UI.Output(path)
		return
	}
	logger.Info("formatted", "path", path)
}

// runDebugFormat renders the document in the 'layout' or 'go' debug representation instead of
// writing files, adapted from teleivo/dot's -format flag on cmd/dotx fmt. Debug formats only make
// sense for a single rendered document, so files are concatenated as separate documents read from
// stdin or each given path in turn.
func (c *FmtCommand) runDebugFormat(paths []string, ft layout.Format) int {
	render := func(src []byte) error {
		toks, err := lexer.All(bytes.NewReader(src))
		if err != nil {
			return err
		}
		doc, err := build.Build(toks)
		if err != nil {
			return err
		}
		return doc.Render(os.Stdout, 0, ft)
	}

	if len(paths) == 0 {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		if err := render(src); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		return 0
	}

	exit := 0
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			c.UI.Error(err.Error())
			exit = 1
			continue
		}
		if err := render(src); err != nil {
			c.UI.Error(fmt.Sprintf("%s: %v", path, err))
			exit = 1
		}
	}
	return exit
}

// printDiff writes a simple line-oriented before/after diff to w: unchanged lines are skipped,
// removed lines are prefixed "-", added lines are prefixed "+". This is the stdlib bufio-based
// fallback named in §12: no unified-diff third-party library in the retrieved pack was grounded
// closely enough to justify pulling one in for this single call site.
func printDiff(w io.Writer, path string, before, after []byte) {
	fmt.Fprintf(w, "--- %s\n+++ %s (formatted)\n", path, path)
	beforeLines := splitLines(before)
	afterLines := splitLines(after)

	i, j := 0, 0
	for i < len(beforeLines) && j < len(afterLines) {
		if beforeLines[i] == afterLines[j] {
			i++
			j++
			continue
		}
		fmt.Fprintf(w, "-%s\n", beforeLines[i])
		fmt.Fprintf(w, "+%s\n", afterLines[j])
		i++
		j++
	}
	for ; i < len(beforeLines); i++ {
		fmt.Fprintf(w, "-%s\n", beforeLines[i])
	}
	for ; j < len(afterLines); j++ {
		fmt.Fprintf(w, "+%s\n", afterLines[j])
	}
}

func splitLines(b []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
