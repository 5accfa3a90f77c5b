// Package validation checks specification documents against a structural
// JSON Schema and a list of semantic checks, producing a verdict that lists
// every violation found.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/telemetry"
)

const schemaURL = "https://schemas.claude-code-agents.dev/document.json"

// Verdict is the outcome of validating one document.
type Verdict struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Check is a semantic rule evaluated after the structural schema. It returns
// one message per violation and never stops at the first one.
type Check func(spec.Specification) []string

// Validator validates documents against a compiled schema plus checks.
// It holds no per-call state and can be reused.
type Validator struct {
	name     string
	schema   *jsonschema.Schema
	required []string
	checks   []Check
}

// Option configures a Validator.
type Option func(*Validator)

// WithChecks appends semantic checks.
func WithChecks(checks ...Check) Option {
	return func(v *Validator) {
		v.checks = append(v.checks, checks...)
	}
}

// WithName labels the validator in logs and traces.
func WithName(name string) Option {
	return func(v *Validator) {
		v.name = name
	}
}

// New compiles schemaDoc (draft 2020-12 unless the document says otherwise).
func New(schemaDoc []byte, opts ...Option) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDoc))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse schema document")
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, errors.Wrap(err, "failed to register schema")
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile schema")
	}

	v := &Validator{
		name:     "document",
		schema:   sch,
		required: rootRequired(doc),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func rootRequired(doc any) []string {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	list, _ := m["required"].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Validate returns every schema and semantic violation of s. An empty or nil
// document yields a single missing-required-fields error.
func (v *Validator) Validate(ctx context.Context, s spec.Specification) Verdict {
	var verdict Verdict

	telemetry.WithSpanFunc(ctx, "validation.validate", func(ctx context.Context) {
		if len(s) == 0 {
			verdict = Verdict{Errors: []string{v.emptyMessage()}}
			return
		}

		errs := v.schemaErrors(s)
		for _, check := range v.checks {
			errs = append(errs, check(s)...)
		}

		verdict = Verdict{Valid: len(errs) == 0, Errors: errs}
		if verdict.Errors == nil {
			verdict.Errors = []string{}
		}

		logger.G(ctx).WithField("validator", v.name).
			WithField("id", s.ID()).
			WithField("errors", len(errs)).
			Debug("validated document")
	}, attribute.String("validator", v.name), attribute.String("spec.id", s.ID()))

	return verdict
}

func (v *Validator) emptyMessage() string {
	msg := "document is empty"
	if len(v.required) > 0 {
		msg += ": missing required fields: " + strings.Join(v.required, ", ")
	}
	return msg
}

func (v *Validator) schemaErrors(s spec.Specification) []string {
	inst, err := toInstance(s)
	if err != nil {
		return []string{err.Error()}
	}

	err = v.schema.Validate(inst)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	var found []fieldError
	collectLeaves(verr, inst, &found)

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].path != found[j].path {
			return found[i].path < found[j].path
		}
		return found[i].message < found[j].message
	})

	out := make([]string, 0, len(found))
	seen := map[string]bool{}
	for _, fe := range found {
		line := fe.String()
		if seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}

// toInstance converts decoder output into the value model the schema
// library expects (json.Number for numbers, string keys only).
func toInstance(s spec.Specification) (any, error) {
	data, err := json.Marshal(map[string]any(s))
	if err != nil {
		return nil, errors.Wrap(err, "document cannot be represented as JSON")
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

func collectLeaves(verr *jsonschema.ValidationError, inst any, out *[]fieldError) {
	if len(verr.Causes) == 0 {
		*out = append(*out, describe(verr, inst)...)
		return
	}
	for _, cause := range verr.Causes {
		collectLeaves(cause, inst, out)
	}
}
