package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/agentic-research/quotaframe/internal/builder"
	"github.com/agentic-research/quotaframe/internal/codec"
	"github.com/agentic-research/quotaframe/internal/plan"
	"github.com/agentic-research/quotaframe/internal/quota"
	"github.com/agentic-research/quotaframe/internal/validate"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
)

// openDir returns a filesystem rooted at the directory holding path, and the
// file name within it.
func openDir(path string) (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return osfs.New(filepath.Dir(abs)), filepath.Base(abs), nil
}

func isPlan(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".hcl")
}

// loadFrame reads a frame from an HCL plan (.hcl) or a JSON frame document
// (anything else). Targets are always read.
func (a *app) loadFrame(path string) (*quota.Frame, error) {
	fsys, name, err := openDir(path)
	if err != nil {
		return nil, err
	}
	if isPlan(path) {
		p, err := plan.Load(fsys, name)
		if err != nil {
			return nil, err
		}
		f, err := p.Build(builder.WithLogger(a.logger))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return f, nil
	}
	return codec.ReadFile(fsys, name, codec.Options{})
}

// writeFrame encodes f to out, or to w when out is empty.
func (a *app) writeFrame(w io.Writer, f *quota.Frame, out string) error {
	if out == "" {
		return codec.Encode(w, f, a.codecOptions())
	}
	fsys, name, err := openDir(out)
	if err != nil {
		return err
	}
	if err := codec.WriteFile(fsys, name, f, a.codecOptions()); err != nil {
		return err
	}
	a.logger.Info("frame written", zap.String("path", out))
	return nil
}

// printResult writes one line per violation, or "valid".
func printResult(w io.Writer, res validate.Result) {
	if res.IsValid {
		_, _ = fmt.Fprintln(w, "valid")
		return
	}
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(w, "%s: %s\n", e.Code, e.Message)
	}
}
