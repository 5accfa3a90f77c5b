// Package render turns validated specifications into runtime artifacts:
// Claude Code subagent documents, agentmesh Go programs and OpenAI
// assistant configurations. Each target is served by a Strategy looked up
// from a table fixed at construction, and every template is resolved and
// parsed once, also at construction.
package render

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/telemetry"
)

//go:embed templates
var builtinTemplates embed.FS

// Output is one generated artifact.
type Output struct {
	Name    string
	Content []byte
}

// Strategy renders a single specification for one target.
type Strategy interface {
	Target() Target
	// Templates lists the template files the strategy executes, relative
	// to the target's template directory.
	Templates() []string
	Render(ctx context.Context, s spec.Specification, tmpl *template.Template) ([]Output, error)
}

// CollectionStrategy is implemented by strategies that also produce
// artifacts spanning several specifications.
type CollectionStrategy interface {
	Strategy
	RenderCollection(ctx context.Context, specs []spec.Specification, tmpl *template.Template) ([]Output, error)
}

// Renderer dispatches specifications to strategies.
type Renderer struct {
	strategies  map[Target]Strategy
	templates   map[Target]*template.Template
	templateDir string
}

// Option configures a Renderer.
type Option func(*Renderer) error

// WithTemplateDir makes templates under dir/<target>/ take precedence over
// the built-in ones.
func WithTemplateDir(dir string) Option {
	return func(r *Renderer) error {
		info, err := os.Stat(dir)
		if err != nil {
			return errors.Wrapf(err, "template directory %s", dir)
		}
		if !info.IsDir() {
			return errors.Errorf("template directory %s is not a directory", dir)
		}
		r.templateDir = dir
		return nil
	}
}

// WithStrategy registers s, replacing any strategy for the same target.
func WithStrategy(s Strategy) Option {
	return func(r *Renderer) error {
		r.strategies[s.Target()] = s
		return nil
	}
}

// DefaultStrategies returns the built-in strategy table.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewDocumentStrategy(),
		NewProgramStrategy(DefaultProgramTables()),
		NewConfigStrategy(DefaultAssistantModels()),
	}
}

// New builds a Renderer and parses every template its strategies need.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		strategies: map[Target]Strategy{},
		templates:  map[Target]*template.Template{},
	}
	for _, s := range DefaultStrategies() {
		r.strategies[s.Target()] = s
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, errors.Wrap(err, "failed to apply renderer option")
		}
	}

	for target, s := range r.strategies {
		tmpl, err := r.loadTemplates(target, s.Templates())
		if err != nil {
			return nil, err
		}
		r.templates[target] = tmpl
	}

	return r, nil
}

func (r *Renderer) loadTemplates(target Target, names []string) (*template.Template, error) {
	set := template.New(string(target)).Funcs(templateFuncs())
	for _, name := range names {
		content, err := r.readTemplate(target, name)
		if err != nil {
			return nil, err
		}
		if _, err := set.New(name).Parse(string(content)); err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s/%s", target, name)
		}
	}
	return set, nil
}

func (r *Renderer) readTemplate(target Target, name string) ([]byte, error) {
	if r.templateDir != "" {
		content, err := os.ReadFile(filepath.Join(r.templateDir, string(target), name))
		if err == nil {
			return content, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read template %s/%s", target, name)
		}
	}

	content, err := fs.ReadFile(builtinTemplates, path.Join("templates", string(target), name))
	if err != nil {
		return nil, &TemplateNotFoundError{Name: path.Join(string(target), name)}
	}
	return content, nil
}

func (r *Renderer) strategy(target Target) (Strategy, error) {
	s, ok := r.strategies[target]
	if !ok {
		return nil, &UnknownTargetError{Target: target}
	}
	return s, nil
}

// Render produces the artifacts of s for target.
func (r *Renderer) Render(ctx context.Context, s spec.Specification, target Target) ([]Output, error) {
	strategy, err := r.strategy(target)
	if err != nil {
		return nil, err
	}

	var outputs []Output
	err = telemetry.WithSpan(ctx, "render.render", func(ctx context.Context) error {
		if s.ID() == "" {
			return errors.New("specification has no id")
		}

		out, err := strategy.Render(ctx, s, r.templates[target])
		if err != nil {
			return errors.Wrapf(err, "failed to render %s for %s", s.ID(), target)
		}
		outputs = out

		logger.G(ctx).WithField("target", target).
			WithField("id", s.ID()).
			WithField("outputs", len(outputs)).
			Debug("rendered specification")
		return nil
	}, attribute.String("target", string(target)), attribute.String("spec.id", s.ID()))

	return outputs, err
}

// RenderCollection renders every specification and, for strategies that
// support it, the artifacts that span the whole set.
func (r *Renderer) RenderCollection(ctx context.Context, specs []spec.Specification, target Target) ([]Output, error) {
	strategy, err := r.strategy(target)
	if err != nil {
		return nil, err
	}

	var outputs []Output
	for _, s := range specs {
		out, err := r.Render(ctx, s, target)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out...)
	}

	cs, ok := strategy.(CollectionStrategy)
	if !ok {
		return outputs, nil
	}

	err = telemetry.WithSpan(ctx, "render.collection", func(ctx context.Context) error {
		out, err := cs.RenderCollection(ctx, specs, r.templates[target])
		if err != nil {
			return errors.Wrapf(err, "failed to render %s collection", target)
		}
		outputs = append(outputs, out...)
		return nil
	}, attribute.String("target", string(target)), attribute.Int("specs", len(specs)))

	return outputs, err
}
