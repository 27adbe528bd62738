// Package format provides file and directory formatting for source files, wiring the lexer and
// the builder together and handling the driver-level concerns named in §6.2: atomic rewrite,
// check mode, and the optional AST-preservation safety net.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/renameio"

	"github.com/bsm/erlfmt/internal/build"
	"github.com/bsm/erlfmt/internal/lexer"
)

// DefaultLineLength is the line width used when a [Config] doesn't specify one.
const DefaultLineLength = 100

// Config carries the recognized driver options from §6.2.
type Config struct {
	Check      bool
	LineLength int
}

func (c Config) lineLength() int {
	if c.LineLength > 0 {
		return c.LineLength
	}
	return DefaultLineLength
}

// ASTChecker is the out-of-scope external parser collaborator: given source bytes, it returns
// some representation of the parsed program, or an error if the source doesn't parse. format.File
// and format.Reader accept a nilable ASTChecker; when nil, AST preservation is skipped.
type ASTChecker interface {
	Check(src []byte) (ast any, err error)
}

// BrokenFormatError reports that formatting changed the program's meaning: the checker produced
// different ASTs for the original and the reformatted source, or failed to parse the output at
// all. The unverified output has already been written to CrashDumpPath for a human to inspect.
type BrokenFormatError struct {
	Path          string
	CrashDumpPath string
	Diff          string
}

func (e *BrokenFormatError) Error() string {
	return fmt.Sprintf("%s: formatter_broke_the_code, unsafe output written to %s\n%s", e.Path, e.CrashDumpPath, e.Diff)
}

// sourceExtensions are the extensions an [ASTChecker] comparison applies to; everything else is
// formatted unconditionally with no AST round-trip.
var sourceExtensions = map[string]bool{".erl": true, ".hrl": true}

// Format tokenizes and builds src, returning the formatted text.
func Format(src []byte, lineLength int) (string, error) {
	toks, err := lexer.All(bytes.NewReader(src))
	if err != nil {
		return "", err
	}
	out, err := build.FormatTokens(toks, lineLength)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Reader formats source read from r and writes the result to w. checker, if non-nil, verifies
// AST preservation the same way [File] does; on mismatch the formatted text is still written to w
// (there is no file path to divert a crash-dump to) and a *BrokenFormatError with an empty
// CrashDumpPath is returned.
func Reader(r io.Reader, w io.Writer, checker ASTChecker, lineLength int) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	out, err := Format(src, lineLength)
	if err != nil {
		return err
	}
	if checker != nil {
		if diff, ok := astDrift(checker, src, []byte(out)); ok {
			if _, werr := io.WriteString(w, out); werr != nil {
				return werr
			}
			return &BrokenFormatError{Diff: diff}
		}
	}
	_, err = io.WriteString(w, out)
	return err
}

// File formats a single file in place. If path's extension is a recognized source extension and
// checker is non-nil, the pre- and post-format ASTs are compared; on drift the reformatted text
// is diverted to a fixed crash-dump path instead of overwriting path. If check is true in cfg and
// the file would change, File returns (true, nil) without writing anything.
func File(path string, checker ASTChecker, cfg Config) (changed bool, err error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	if fi.IsDir() {
		return false, fmt.Errorf("%s: is a directory", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("error reading file: %w", err)
	}

	out, err := Format(src, cfg.lineLength())
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	if bytes.Equal(src, []byte(out)) {
		return false, nil
	}

	checkAST := checker != nil && sourceExtensions[strings.ToLower(filepath.Ext(path))]
	if checkAST {
		if diff, ok := astDrift(checker, src, []byte(out)); ok {
			dump := crashDumpPath(path)
			if werr := renameio.WriteFile(dump, []byte(out), fi.Mode().Perm()); werr != nil {
				return false, fmt.Errorf("failed to write crash dump: %w", werr)
			}
			return false, &BrokenFormatError{Path: path, CrashDumpPath: dump, Diff: diff}
		}
	}

	if cfg.Check {
		return true, nil
	}

	if err := renameio.WriteFile(path, []byte(out), fi.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write file: %w", err)
	}
	return true, nil
}

// astDrift reports whether checker produces different (or erroring) ASTs for before and after,
// with a cmp.Diff-rendered description of the mismatch when it does.
func astDrift(checker ASTChecker, before, after []byte) (diff string, drifted bool) {
	preAST, preErr := checker.Check(before)
	postAST, postErr := checker.Check(after)
	if preErr != nil || postErr != nil {
		return fmt.Sprintf("pre-format parse error: %v\npost-format parse error: %v", preErr, postErr), true
	}
	if d := cmp.Diff(preAST, postAST); d != "" {
		return d, true
	}
	return "", false
}

// crashDumpPath is the fixed, deterministic location File diverts unverified output to.
func crashDumpPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, ".erlfmt-crash-"+base)
}

// Dir formats every .erl/.hrl file in a directory tree, generalized from the teacher's own
// extension-filtered fs.WalkDir, collecting per-file errors with errors.Join rather than
// aborting on the first one.
func Dir(root string, checker ASTChecker, cfg Config) (changed []string, err error) {
	var errs []error
	walkErr := fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, fsErr error) error {
		if fsErr != nil {
			return fsErr
		}
		if d.IsDir() {
			return nil
		}
		if !sourceExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		file := filepath.Join(root, path)
		didChange, err := File(file, checker, cfg)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if didChange {
			changed = append(changed, file)
		}
		return nil
	})
	if walkErr != nil {
		return changed, walkErr
	}
	return changed, errors.Join(errs...)
}
