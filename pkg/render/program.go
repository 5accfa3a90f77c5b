package render

import (
	"bytes"
	"context"
	"encoding/json"
	"go/format"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

const (
	programAgentTemplate  = "agent.go.tmpl"
	programRecipeTemplate = "recipe.go.tmpl"
	programMainTemplate   = "main.go.tmpl"
	programModTemplate    = "go.mod.tmpl"

	// ManifestFile and AggregatorFile are the collection outputs of the
	// program target.
	ManifestFile   = "go.mod"
	AggregatorFile = "main.go"

	defaultStageTimeout = 5 * time.Minute
)

// Requirement is one module dependency of a generated program.
type Requirement struct {
	Path    string
	Version string
}

// ProgramTables holds the constant lookup tables of the program strategy.
type ProgramTables struct {
	Module    string
	GoVersion string
	// AnthropicModels and OpenAIModels map a model tier to a model id.
	// Tiers missing from the table are used as model ids verbatim.
	AnthropicModels       map[string]string
	DefaultAnthropicModel string
	OpenAIModels          map[string]string
	DefaultOpenAIModel    string
	// BaseRequires are always part of the manifest; ProviderRequires adds
	// entries for each distinct provider in the collection.
	BaseRequires     []Requirement
	ProviderRequires map[string][]Requirement
	// FallbackRequires is used for providers absent from ProviderRequires.
	FallbackRequires []Requirement
}

// DefaultProgramTables returns the built-in tables.
func DefaultProgramTables() ProgramTables {
	anthropicSDK := Requirement{Path: "github.com/anthropics/anthropic-sdk-go", Version: "v1.9.1"}
	openaiSDK := Requirement{Path: "github.com/openai/openai-go", Version: "v1.12.0"}

	return ProgramTables{
		Module:    "agents",
		GoVersion: "1.24.5",
		AnthropicModels: map[string]string{
			"haiku":  string(anthropic.ModelClaude3_5HaikuLatest),
			"sonnet": string(anthropic.ModelClaudeSonnet4_0),
			"opus":   string(anthropic.ModelClaudeOpus4_1_20250805),
		},
		DefaultAnthropicModel: string(anthropic.ModelClaudeSonnet4_0),
		OpenAIModels: map[string]string{
			"fast":     openai.GPT4oMini,
			"standard": openai.GPT4o,
			"gpt-4o":   openai.GPT4o,
			"gpt-4.1":  openai.GPT4Dot1,
			"o3":       openai.O3,
			"o4-mini":  openai.O4Mini,
		},
		DefaultOpenAIModel: openai.GPT4o,
		BaseRequires: []Requirement{
			{Path: "github.com/hupe1980/agentmesh", Version: "v0.1.0"},
		},
		ProviderRequires: map[string][]Requirement{
			"anthropic": {anthropicSDK},
			"openai":    {openaiSDK},
		},
		FallbackRequires: []Requirement{openaiSDK},
	}
}

// ProgramStrategy renders agentmesh Go programs: one file per agent or
// recipe, plus a go.mod manifest and a main.go registry for a collection.
type ProgramStrategy struct {
	tables ProgramTables
}

// NewProgramStrategy returns a program strategy using tables.
func NewProgramStrategy(tables ProgramTables) *ProgramStrategy {
	return &ProgramStrategy{tables: tables}
}

func (p *ProgramStrategy) Target() Target {
	return TargetAgentMesh
}

func (p *ProgramStrategy) Templates() []string {
	return []string{programAgentTemplate, programRecipeTemplate, programMainTemplate, programModTemplate}
}

type programTool struct {
	ID          string
	Description string
	Schema      string
}

type programAgent struct {
	ID          string
	Summary     string
	Func        string
	Const       string
	Provider    string
	Anthropic   bool
	Model       string
	Temperature string
	MaxTokens   string
	Instruction string
	Tools       []programTool
	Source      string
}

type programStage struct {
	Var      string
	Name     string
	Parallel bool
	Timeout  int64
	Agents   []string
}

type programRecipe struct {
	ID          string
	Summary     string
	Func        string
	Stages      []programStage
	HasParallel bool
	Source      string
}

type programCollection struct {
	Agents  []programAgent
	Recipes []programRecipe
}

type programManifest struct {
	Module    string
	GoVersion string
	Requires  []Requirement
}

func (p *ProgramStrategy) Render(_ context.Context, s spec.Specification, tmpl *template.Template) ([]Output, error) {
	if s.Kind() == spec.KindRecipe {
		recipe, err := p.recipeData(s)
		if err != nil {
			return nil, err
		}
		content, err := executeGo(tmpl, programRecipeTemplate, recipe)
		if err != nil {
			return nil, err
		}
		return []Output{{Name: snakeCase(recipe.ID) + "_recipe.go", Content: content}}, nil
	}

	agent, err := p.agentData(s)
	if err != nil {
		return nil, err
	}
	content, err := executeGo(tmpl, programAgentTemplate, agent)
	if err != nil {
		return nil, err
	}
	return []Output{{Name: snakeCase(agent.ID) + "_agent.go", Content: content}}, nil
}

// RenderCollection emits the manifest and the aggregator for specs.
func (p *ProgramStrategy) RenderCollection(_ context.Context, specs []spec.Specification, tmpl *template.Template) ([]Output, error) {
	var coll programCollection
	for _, s := range specs {
		if s.Kind() == spec.KindRecipe {
			r, err := p.recipeData(s)
			if err != nil {
				return nil, err
			}
			coll.Recipes = append(coll.Recipes, r)
			continue
		}
		a, err := p.agentData(s)
		if err != nil {
			return nil, err
		}
		coll.Agents = append(coll.Agents, a)
	}
	sort.Slice(coll.Agents, func(i, j int) bool { return coll.Agents[i].ID < coll.Agents[j].ID })
	sort.Slice(coll.Recipes, func(i, j int) bool { return coll.Recipes[i].ID < coll.Recipes[j].ID })

	aggregator, err := executeGo(tmpl, programMainTemplate, coll)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, programModTemplate, p.manifest(coll)); err != nil {
		return nil, errors.Wrap(err, "failed to execute manifest template")
	}

	return []Output{
		{Name: ManifestFile, Content: buf.Bytes()},
		{Name: AggregatorFile, Content: aggregator},
	}, nil
}

func (p *ProgramStrategy) manifest(coll programCollection) programManifest {
	reqs := map[string]string{}
	add := func(list []Requirement) {
		for _, r := range list {
			reqs[r.Path] = r.Version
		}
	}

	add(p.tables.BaseRequires)
	for _, a := range coll.Agents {
		if list, ok := p.tables.ProviderRequires[a.Provider]; ok {
			add(list)
		} else {
			add(p.tables.FallbackRequires)
		}
	}

	out := programManifest{Module: p.tables.Module, GoVersion: p.tables.GoVersion}
	for path, version := range reqs {
		out.Requires = append(out.Requires, Requirement{Path: path, Version: version})
	}
	sort.Slice(out.Requires, func(i, j int) bool { return out.Requires[i].Path < out.Requires[j].Path })
	return out
}

func (p *ProgramStrategy) agentData(s spec.Specification) (programAgent, error) {
	a, err := s.AsAgent()
	if err != nil {
		return programAgent{}, err
	}

	data := programAgent{
		ID:          a.ID,
		Summary:     oneLine(a.Summary),
		Func:        "New" + pascalCase(a.ID) + "Agent",
		Const:       camelCase(a.ID) + "Instruction",
		Provider:    a.Model.Provider,
		Anthropic:   a.Model.Provider == "anthropic",
		Instruction: strings.TrimSpace(a.Role),
		Source:      a.ID + ".yaml",
	}
	if t := a.Model.Params.Temperature; t != nil {
		data.Temperature = strconv.FormatFloat(*t, 'g', -1, 64)
	}
	if mt := a.MaxTokens(); mt != nil {
		data.MaxTokens = strconv.Itoa(*mt)
	}
	if data.Anthropic {
		data.Model = lookupModel(p.tables.AnthropicModels, a.Model.Tier, p.tables.DefaultAnthropicModel)
	} else {
		data.Model = lookupModel(p.tables.OpenAIModels, a.Model.Tier, p.tables.DefaultOpenAIModel)
	}

	for _, t := range a.Tools {
		if t.ID == "" {
			continue
		}
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		schema, err := json.Marshal(params)
		if err != nil {
			return programAgent{}, errors.Wrapf(err, "tool %s has unsupported parameters", t.ID)
		}
		desc := t.Description
		if desc == "" {
			desc = t.ID
		}
		data.Tools = append(data.Tools, programTool{ID: t.ID, Description: oneLine(desc), Schema: string(schema)})
	}

	return data, nil
}

func (p *ProgramStrategy) recipeData(s spec.Specification) (programRecipe, error) {
	r, err := s.AsRecipe()
	if err != nil {
		return programRecipe{}, err
	}

	data := programRecipe{
		ID:      r.ID,
		Summary: oneLine(r.Summary),
		Func:    "New" + pascalCase(r.ID) + "Recipe",
		Source:  r.ID + ".yaml",
	}
	for i, st := range r.Graph {
		name := st.Stage
		if name == "" {
			name = "stage_" + strconv.Itoa(i)
		}
		stage := programStage{Var: "stage" + strconv.Itoa(i), Name: r.ID + "." + name}

		steps := st.Sequence
		if len(st.Parallel) > 0 {
			stage.Parallel = true
			steps = st.Parallel
			data.HasParallel = true
			stage.Timeout = int64(stageTimeout(st.Parallel) / time.Second)
		}
		for _, step := range steps {
			stage.Agents = append(stage.Agents, step.Agent)
		}
		data.Stages = append(data.Stages, stage)
	}
	return data, nil
}

// stageTimeout is the longest step timeout of a parallel stage.
func stageTimeout(steps []spec.Step) time.Duration {
	var longest time.Duration
	for _, step := range steps {
		if d, err := time.ParseDuration(step.Timeout); err == nil && d > longest {
			longest = d
		}
	}
	if longest < time.Second {
		return defaultStageTimeout
	}
	return longest
}

func lookupModel(table map[string]string, tier, fallback string) string {
	if tier == "" {
		return fallback
	}
	if id, ok := table[tier]; ok {
		return id
	}
	return tier
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// executeGo runs a Go source template and formats the result. Output that
// does not parse as Go is an error.
func executeGo(tmpl *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.Wrapf(err, "failed to execute template %s", name)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "template %s produced invalid Go", name)
	}
	return src, nil
}
