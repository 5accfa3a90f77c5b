package validation

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/schemas"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

// ValidateFile loads and validates the document at path. Missing and
// malformed sources are returned as errors because they cannot be evaluated;
// an empty document is an invalid verdict.
func (v *Validator) ValidateFile(ctx context.Context, path string) (Verdict, error) {
	s, err := spec.Load(path)
	if err != nil {
		if errors.Is(err, spec.ErrEmptyDocument) {
			return v.Validate(ctx, nil), nil
		}
		return Verdict{}, err
	}
	return v.Validate(ctx, s), nil
}

// FileResult is the outcome for one file of a batch.
type FileResult struct {
	Path    string    `json:"path"`
	Kind    spec.Kind `json:"kind"`
	Verdict Verdict   `json:"verdict"`
	Err     error     `json:"-"`
}

// Report aggregates a batch run.
type Report struct {
	Results []FileResult `json:"results"`
	Total   int          `json:"total"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
}

// Failed reports whether any document was invalid or unreadable.
func (r *Report) Failed() bool {
	return r.Invalid > 0
}

// Err joins the load failures of the batch, or returns nil.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, res := range r.Results {
		if res.Err != nil {
			result = multierror.Append(result, res.Err)
		}
	}
	return result.ErrorOrNil()
}

// Suite pairs the agent and recipe validators.
type Suite struct {
	Agent  *Validator
	Recipe *Validator
}

// NewSuite compiles both schemas from store. Recipe documents always run
// the stage graph check; extra checks are appended after it.
func NewSuite(store *schemas.Store, recipeChecks ...Check) (*Suite, error) {
	agentDoc, err := store.ForKind(spec.KindAgent)
	if err != nil {
		return nil, err
	}
	recipeDoc, err := store.ForKind(spec.KindRecipe)
	if err != nil {
		return nil, err
	}

	agent, err := New(agentDoc, WithName("agent"))
	if err != nil {
		return nil, errors.Wrap(err, "agent schema")
	}
	recipe, err := New(recipeDoc, WithName("recipe"), WithChecks(append([]Check{StageGraph}, recipeChecks...)...))
	if err != nil {
		return nil, errors.Wrap(err, "recipe schema")
	}

	return &Suite{Agent: agent, Recipe: recipe}, nil
}

// For returns the validator for kind k.
func (s *Suite) For(k spec.Kind) *Validator {
	if k == spec.KindRecipe {
		return s.Recipe
	}
	return s.Agent
}

// ValidatePath validates one file, picking the validator from its kind.
func (s *Suite) ValidatePath(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}

	doc, err := spec.Load(path)
	switch {
	case errors.Is(err, spec.ErrEmptyDocument):
		res.Kind = spec.DetectKind(path, nil)
		if res.Kind == spec.KindUnknown {
			res.Kind = spec.KindAgent
		}
		res.Verdict = s.For(res.Kind).Validate(ctx, nil)
	case err != nil:
		res.Kind = spec.DetectKind(path, nil)
		res.Err = err
		res.Verdict = Verdict{Errors: []string{err.Error()}}
	default:
		res.Kind = spec.DetectKind(path, doc)
		res.Verdict = s.For(res.Kind).Validate(ctx, doc)
	}

	logger.G(ctx).WithField("path", path).
		WithField("kind", res.Kind).
		WithField("valid", res.Verdict.Valid).
		Debug("validated file")
	return res
}

// ValidatePaths validates every path and tallies the results.
func (s *Suite) ValidatePaths(ctx context.Context, paths []string) *Report {
	report := &Report{Results: make([]FileResult, 0, len(paths))}
	for _, p := range paths {
		res := s.ValidatePath(ctx, p)
		report.Results = append(report.Results, res)
		report.Total++
		if res.Verdict.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}
	}
	return report
}
