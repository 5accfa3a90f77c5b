// Package install copies rendered subagent documents into the directory the
// Claude Code runtime loads agents from.
package install

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/render"
)

// Installer writes documents into a runtime agents directory.
type Installer struct {
	dir string
}

// New returns an installer targeting dir.
func New(dir string) *Installer {
	return &Installer{dir: dir}
}

// Dir is the installation directory.
func (i *Installer) Dir() string {
	return i.dir
}

// Install verifies and writes every document output. Documents whose
// frontmatter does not parse are rejected and reported in the returned
// error; the others are still installed.
func (i *Installer) Install(ctx context.Context, outputs []render.Output) ([]string, error) {
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create install directory %s", i.dir)
	}

	var (
		installed []string
		merr      *multierror.Error
	)
	for _, o := range outputs {
		path, err := i.install(o)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		installed = append(installed, path)
		logger.G(ctx).WithField("path", path).Debug("installed agent document")
	}

	return installed, merr.ErrorOrNil()
}

// InstallFiles installs already rendered documents from disk.
func (i *Installer) InstallFiles(ctx context.Context, paths []string) ([]string, error) {
	var (
		outputs []render.Output
		merr    *multierror.Error
	)
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "failed to read %s", p))
			continue
		}
		outputs = append(outputs, render.Output{Name: filepath.Base(p), Content: content})
	}

	installed, err := i.Install(ctx, outputs)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	return installed, merr.ErrorOrNil()
}

func (i *Installer) install(o render.Output) (string, error) {
	if !strings.HasSuffix(o.Name, ".md") {
		return "", errors.Errorf("%s is not a subagent document", o.Name)
	}

	doc, err := render.ParseDocument(o.Content)
	if err != nil {
		return "", errors.Wrapf(err, "refusing to install %s", o.Name)
	}
	if want := strings.TrimSuffix(o.Name, ".md"); doc.Name != want {
		return "", errors.Errorf("refusing to install %s: frontmatter name %q does not match file name", o.Name, doc.Name)
	}

	path := filepath.Join(i.dir, o.Name)
	if err := lockedfile.Write(path, bytes.NewReader(o.Content), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
