package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

// Result lists what a file render wrote.
type Result struct {
	Written []string
	// Manifest and Aggregator are set for targets with collection outputs.
	Manifest   string
	Aggregator string
}

// LoadSpec loads the document at path for rendering. Documents without an
// id are named after their file.
func LoadSpec(path string) (spec.Specification, error) {
	s, err := spec.Load(path)
	if err != nil {
		return nil, err
	}
	if s.ID() != "" {
		return s, nil
	}

	named := make(spec.Specification, len(s)+1)
	for k, v := range s {
		named[k] = v
	}
	named["id"] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return named, nil
}

// RenderPaths loads and renders every path. A file that fails is skipped
// and reported in the returned error; the remaining outputs are still
// produced, collection outputs included.
func (r *Renderer) RenderPaths(ctx context.Context, paths []string, target Target) ([]Output, error) {
	strategy, err := r.strategy(target)
	if err != nil {
		return nil, err
	}

	var (
		merr     *multierror.Error
		outputs  []Output
		rendered []spec.Specification
	)
	for _, path := range paths {
		s, err := LoadSpec(path)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		out, err := r.Render(ctx, s, target)
		if err != nil {
			merr = multierror.Append(merr, errors.Wrap(err, path))
			continue
		}
		outputs = append(outputs, out...)
		rendered = append(rendered, s)
	}

	if cs, ok := strategy.(CollectionStrategy); ok && len(rendered) > 0 {
		out, err := cs.RenderCollection(ctx, rendered, r.templates[target])
		if err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "failed to render %s collection", target))
		} else {
			outputs = append(outputs, out...)
		}
	}

	return outputs, merr.ErrorOrNil()
}

// RenderFiles renders paths and writes the outputs into outDir.
func (r *Renderer) RenderFiles(ctx context.Context, paths []string, target Target, outDir string) (*Result, error) {
	outputs, renderErr := r.RenderPaths(ctx, paths, target)
	if errors.Is(renderErr, ErrUnknownTarget) {
		return nil, renderErr
	}

	written, err := WriteOutputs(outDir, outputs)
	if err != nil {
		return nil, err
	}

	res := &Result{Written: written}
	if _, ok := r.strategies[target].(CollectionStrategy); ok {
		for _, p := range written {
			switch filepath.Base(p) {
			case ManifestFile:
				res.Manifest = p
			case AggregatorFile:
				res.Aggregator = p
			}
		}
	}

	logger.G(ctx).WithField("target", target).
		WithField("written", len(written)).
		WithField("out_dir", outDir).
		Info("rendered files")

	return res, renderErr
}

// RenderFile renders a single document into outDir.
func (r *Renderer) RenderFile(ctx context.Context, path string, target Target, outDir string) (*Result, error) {
	return r.RenderFiles(ctx, []string{path}, target, outDir)
}

// WriteOutputs writes outputs into dir and returns the written paths.
func WriteOutputs(dir string, outputs []Output) ([]string, error) {
	if len(outputs) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		p := filepath.Join(dir, o.Name)
		if err := os.WriteFile(p, o.Content, 0o644); err != nil {
			return paths, errors.Wrapf(err, "failed to write %s", p)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Drift compares outputs with the files in dir and returns a unified diff
// for every file that is missing or different.
func Drift(dir string, outputs []Output) (map[string]string, error) {
	diffs := map[string]string{}
	for _, o := range outputs {
		p := filepath.Join(dir, o.Name)

		existing, err := os.ReadFile(p)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read %s", p)
		}
		if string(existing) == string(o.Content) {
			continue
		}
		diffs[p] = udiff.Unified(p, p+" (rendered)", string(existing), string(o.Content))
	}
	return diffs, nil
}
