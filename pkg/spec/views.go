package spec

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// ModelParams are the optional sampling parameters of an agent model.
type ModelParams struct {
	Temperature *float64 `mapstructure:"temperature"`
	MaxTokens   *int     `mapstructure:"max_tokens"`
	TopP        *float64 `mapstructure:"top_p"`
}

// Model selects the language model backing an agent.
type Model struct {
	Provider string      `mapstructure:"provider"`
	Family   string      `mapstructure:"family"`
	Tier     string      `mapstructure:"tier"`
	Params   ModelParams `mapstructure:"params"`
}

// Tool is a capability declared by an agent.
type Tool struct {
	ID          string         `mapstructure:"id"`
	Type        string         `mapstructure:"type"`
	Description string         `mapstructure:"description"`
	Endpoint    string         `mapstructure:"endpoint"`
	Method      string         `mapstructure:"method"`
	Parameters  map[string]any `mapstructure:"parameters"`
}

// Constraints limit what an agent may do.
type Constraints struct {
	PIIPolicy string `mapstructure:"pii_policy"`
	MaxTokens *int   `mapstructure:"max_tokens"`
}

// Evaluation holds the acceptance criteria of an agent.
type Evaluation struct {
	Acceptance []string `mapstructure:"acceptance"`
}

// Ownership names who is responsible for an agent.
type Ownership struct {
	Owner string `mapstructure:"owner"`
	Team  string `mapstructure:"team"`
}

// AgentSpec is a typed, read-only view of an agent document.
type AgentSpec struct {
	ID          string      `mapstructure:"id"`
	Name        string      `mapstructure:"name"`
	Summary     string      `mapstructure:"summary"`
	Role        string      `mapstructure:"role"`
	Model       Model       `mapstructure:"model"`
	Tools       []Tool      `mapstructure:"tools"`
	Constraints Constraints `mapstructure:"constraints"`
	Evaluation  Evaluation  `mapstructure:"evaluation"`
	Ownership   Ownership   `mapstructure:"ownership"`
	Version     string      `mapstructure:"version"`
	Tags        []string    `mapstructure:"tags"`
}

// MaxTokens prefers the constraint ceiling over the model parameter.
func (a *AgentSpec) MaxTokens() *int {
	if a.Constraints.MaxTokens != nil {
		return a.Constraints.MaxTokens
	}
	return a.Model.Params.MaxTokens
}

// Step references an agent participating in a stage.
type Step struct {
	Agent   string `mapstructure:"agent"`
	Input   string `mapstructure:"input"`
	Timeout string `mapstructure:"timeout"`
}

// Stage is one node of a recipe graph.
type Stage struct {
	Stage    string `mapstructure:"stage"`
	Sequence []Step `mapstructure:"sequence"`
	Parallel []Step `mapstructure:"parallel"`
}

// RecipeSpec is a typed, read-only view of a recipe document.
type RecipeSpec struct {
	ID      string   `mapstructure:"id"`
	Name    string   `mapstructure:"name"`
	Summary string   `mapstructure:"summary"`
	Version string   `mapstructure:"version"`
	Graph   []Stage  `mapstructure:"graph"`
	Tags    []string `mapstructure:"tags"`
}

// Agents returns every agent id referenced by the recipe, in graph order.
func (r *RecipeSpec) Agents() []string {
	seen := map[string]bool{}
	var out []string
	for _, st := range r.Graph {
		for _, step := range append(append([]Step{}, st.Sequence...), st.Parallel...) {
			if step.Agent != "" && !seen[step.Agent] {
				seen[step.Agent] = true
				out = append(out, step.Agent)
			}
		}
	}
	return out
}

// AsAgent decodes the document into an AgentSpec.
func (s Specification) AsAgent() (*AgentSpec, error) {
	var a AgentSpec
	if err := decode(s, &a); err != nil {
		return nil, errors.Wrap(err, "failed to decode agent specification")
	}
	return &a, nil
}

// AsRecipe decodes the document into a RecipeSpec.
func (s Specification) AsRecipe() (*RecipeSpec, error) {
	var r RecipeSpec
	if err := decode(s, &r); err != nil {
		return nil, errors.Wrap(err, "failed to decode recipe specification")
	}
	return &r, nil
}

func decode(s Specification, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       timeToStringHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(s))
}

// timeToStringHook turns decoded dates, such as an unquoted TOML date in
// version, back into their textual form for string fields.
func timeToStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || from != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	t := data.(time.Time)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly), nil
	}
	return t.Format(time.RFC3339), nil
}
