package render

import (
	"context"
	"encoding/json"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

func testAgent() spec.Specification {
	return spec.Specification{
		"id":      "test-agent",
		"name":    "Test Agent",
		"summary": "A test agent for unit testing",
		"role":    "You are a test agent.\nBe precise.",
		"model": map[string]any{
			"provider": "anthropic",
			"family":   "claude",
			"tier":     "sonnet",
			"params":   map[string]any{"temperature": 0.2},
		},
		"tools": []any{
			map[string]any{"id": "test_tool", "type": "function", "description": "A test tool"},
		},
		"constraints": map[string]any{"pii_policy": "mask", "max_tokens": 2048},
		"evaluation":  map[string]any{"acceptance": []any{"Answers are accurate", "Cites sources"}},
		"ownership":   map[string]any{"owner": "test@example.com"},
		"version":     "1.0.0",
	}
}

func minimalAgent(id, provider string) spec.Specification {
	return spec.Specification{
		"id":        id,
		"name":      "Minimal",
		"summary":   "Bare agent",
		"role":      "Help.",
		"model":     map[string]any{"provider": provider, "family": "any"},
		"ownership": map[string]any{"owner": "team@example.com"},
	}
}

func testRecipe() spec.Specification {
	return spec.Specification{
		"id":      "ship-it",
		"name":    "Ship It",
		"summary": "Plan then review in parallel",
		"version": "1.0.0",
		"graph": []any{
			map[string]any{"stage": "plan", "sequence": []any{map[string]any{"agent": "test-agent"}}},
			map[string]any{"stage": "review", "parallel": []any{
				map[string]any{"agent": "test-agent", "timeout": "90s"},
				map[string]any{"agent": "helper"},
			}},
		},
	}
}

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	require.NoError(t, err)
	return r
}

func renderOne(t *testing.T, r *Renderer, s spec.Specification, target Target) Output {
	t.Helper()
	out, err := r.Render(context.Background(), s, target)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func assertGo(t *testing.T, o Output) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), o.Name, o.Content, parser.AllErrors)
	require.NoError(t, err, "%s:\n%s", o.Name, o.Content)
}

func TestDocument_TestAgent(t *testing.T) {
	out := renderOne(t, newRenderer(t), testAgent(), TargetClaude)
	assert.Equal(t, "test-agent.md", out.Name)

	content := string(out.Content)
	assert.True(t, strings.HasPrefix(content, "---\nname: test-agent\ndescription: A test agent for unit testing\nmodel: sonnet\ntools: test_tool\n---\n\nYou are a test agent.\nBe precise.\n"), content)
	assert.Contains(t, content, "## Privacy Policy")
	assert.Contains(t, content, "## Available Tools\n\n- **test_tool** (function): A test tool\n")
	assert.Contains(t, content, "## Success Criteria\n\n- Answers are accurate\n- Cites sources\n")
	assert.Contains(t, content, "Keep each response under 2048 tokens.")
	assert.True(t, strings.HasSuffix(content, "*Generated from test-agent.yaml v1.0.0*\n"), content)
}

func TestDocument_OptionalSectionsOmitted(t *testing.T) {
	out := renderOne(t, newRenderer(t), minimalAgent("bare", "anthropic"), TargetClaude)
	content := string(out.Content)

	assert.NotContains(t, content, "model:")
	assert.NotContains(t, content, "tools:")
	assert.NotContains(t, content, "## Privacy Policy")
	assert.NotContains(t, content, "## Available Tools")
	assert.NotContains(t, content, "## Success Criteria")
	assert.True(t, strings.HasSuffix(content, "*Generated from bare.yaml*\n"), content)
}

func TestDocument_RoundTrip(t *testing.T) {
	r := newRenderer(t)

	tricky := testAgent()
	tricky["summary"] = "Reviews code: finds bugs, #1 priority"
	tricky["tools"] = []any{
		map[string]any{"id": "search", "type": "builtin"},
		map[string]any{"id": "fetch", "type": "http"},
	}

	for _, s := range []spec.Specification{testAgent(), tricky, minimalAgent("bare", "openai")} {
		out := renderOne(t, r, s, TargetClaude)

		doc, err := ParseDocument(out.Content)
		require.NoError(t, err)

		a, err := s.AsAgent()
		require.NoError(t, err)

		assert.Equal(t, a.ID, doc.Name)
		assert.Equal(t, a.Summary, doc.Description)
		assert.Equal(t, a.Model.Tier, doc.Model)

		var toolIDs []string
		for _, tool := range a.Tools {
			toolIDs = append(toolIDs, tool.ID)
		}
		assert.Equal(t, toolIDs, doc.Tools)
		assert.True(t, strings.HasPrefix(doc.Body, strings.TrimSpace(a.Role)))
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	_, err := ParseDocument([]byte("# just markdown\n"))
	assert.Error(t, err)

	_, err = ParseDocument([]byte("---\ndescription: no name\n---\nbody\n"))
	assert.Error(t, err)
}

func TestRender_Idempotent(t *testing.T) {
	r := newRenderer(t)
	specs := []spec.Specification{testAgent(), minimalAgent("other", "openai"), testRecipe()}

	for _, target := range Targets() {
		var input []spec.Specification
		for _, s := range specs {
			if target != TargetAgentMesh && s.Kind() == spec.KindRecipe {
				continue
			}
			input = append(input, s)
		}

		first, err := r.RenderCollection(context.Background(), input, target)
		require.NoError(t, err)
		second, err := r.RenderCollection(context.Background(), input, target)
		require.NoError(t, err)
		assert.Equal(t, first, second, "target %s", target)
	}
}

func TestRender_UnknownTarget(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), testAgent(), Target("langgraph"))
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrUnknownTarget))

	var ute *UnknownTargetError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, Target("langgraph"), ute.Target)

	_, err = r.RenderCollection(context.Background(), []spec.Specification{testAgent()}, Target("nope"))
	assert.True(t, errors.Is(err, ErrUnknownTarget))
}

func TestRender_MissingID(t *testing.T) {
	s := testAgent()
	delete(s, "id")

	_, err := newRenderer(t).Render(context.Background(), s, TargetClaude)
	assert.Error(t, err)
}

func TestProgram_AgentIsWellFormed(t *testing.T) {
	r := newRenderer(t)

	full := renderOne(t, r, testAgent(), TargetAgentMesh)
	assert.Equal(t, "test_agent_agent.go", full.Name)
	assertGo(t, full)

	content := string(full.Content)
	assert.Contains(t, content, "func NewTestAgentAgent() *agent.ModelAgent")
	assert.Contains(t, content, `anthropicmodel "github.com/hupe1980/agentmesh/model/anthropic"`)
	assert.Contains(t, content, `o.Model = "claude-sonnet-4-0"`)
	assert.Contains(t, content, "o.Temperature = 0.2")
	assert.Contains(t, content, "o.MaxTokens = 2048")
	assert.Contains(t, content, `"test_tool"`)

	bare := renderOne(t, r, minimalAgent("bare-bones", "mistral"), TargetAgentMesh)
	assertGo(t, bare)

	content = string(bare.Content)
	assert.Contains(t, content, `openaimodel "github.com/hupe1980/agentmesh/model/openai"`)
	assert.Contains(t, content, `o.Model = "gpt-4o"`)
	assert.NotContains(t, content, "Temperature")
	assert.NotContains(t, content, "MaxCompletionTokens")
	assert.NotContains(t, content, "RegisterTool")
	assert.NotContains(t, content, `"fmt"`)
}

func TestDefaultProgramTables_Models(t *testing.T) {
	tables := DefaultProgramTables()

	for _, tier := range []string{"haiku", "sonnet", "opus"} {
		t.Run(tier, func(t *testing.T) {
			assert.NotEmpty(t, tables.AnthropicModels[tier])
		})
	}
	for tier, model := range tables.AnthropicModels {
		assert.NotEmpty(t, model, "anthropic tier %s", tier)
	}
	for tier, model := range tables.OpenAIModels {
		assert.NotEmpty(t, model, "openai tier %s", tier)
	}
	assert.NotEmpty(t, tables.DefaultAnthropicModel)
	assert.NotEmpty(t, tables.DefaultOpenAIModel)
}

func TestProgram_TierMapping(t *testing.T) {
	tables := DefaultProgramTables()
	tables.AnthropicModels = map[string]string{"sonnet": "claude-test-model"}
	r := newRenderer(t, WithStrategy(NewProgramStrategy(tables)))

	s := testAgent()
	out := renderOne(t, r, s, TargetAgentMesh)
	assert.Contains(t, string(out.Content), `o.Model = "claude-test-model"`)

	s["model"] = map[string]any{"provider": "anthropic", "family": "claude", "tier": "claude-custom-1"}
	out = renderOne(t, r, s, TargetAgentMesh)
	assert.Contains(t, string(out.Content), `o.Model = "claude-custom-1"`)
}

func TestProgram_Collection(t *testing.T) {
	r := newRenderer(t)

	outputs, err := r.RenderCollection(context.Background(), []spec.Specification{
		testAgent(),
		minimalAgent("helper", "openai"),
		minimalAgent("second-helper", "openai"),
		testRecipe(),
	}, TargetAgentMesh)
	require.NoError(t, err)

	byName := map[string]Output{}
	for _, o := range outputs {
		byName[o.Name] = o
	}
	require.Contains(t, byName, ManifestFile)
	require.Contains(t, byName, AggregatorFile)
	require.Contains(t, byName, "ship_it_recipe.go")

	for name, o := range byName {
		if strings.HasSuffix(name, ".go") {
			assertGo(t, o)
		}
	}

	assert.Equal(t, `module agents

go 1.24.5

require (
	github.com/anthropics/anthropic-sdk-go v1.9.1
	github.com/hupe1980/agentmesh v0.1.0
	github.com/openai/openai-go v1.12.0
)
`, string(byName[ManifestFile].Content))

	aggregator := string(byName[AggregatorFile].Content)
	assert.Contains(t, aggregator, `"test-agent":`)
	assert.Contains(t, aggregator, `"ship-it":`)
	assert.Contains(t, aggregator, "NewShipItRecipe")
	assert.Contains(t, aggregator, `"POST /agents/{id}/invoke"`)
	assert.Contains(t, aggregator, "http.StatusNotFound")

	recipe := string(byName["ship_it_recipe.go"].Content)
	assert.Contains(t, recipe, `agent.NewSequentialAgent("ship-it.plan", stage0...)`)
	assert.Contains(t, recipe, `agent.NewParallelAgent("ship-it.review", 90*time.Second, stage1...)`)
}

func TestProgram_ManifestPerProvider(t *testing.T) {
	p := NewProgramStrategy(DefaultProgramTables())

	anthropicOnly := p.manifest(programCollection{Agents: []programAgent{{Provider: "anthropic"}}})
	assert.Equal(t, []Requirement{
		{Path: "github.com/anthropics/anthropic-sdk-go", Version: "v1.9.1"},
		{Path: "github.com/hupe1980/agentmesh", Version: "v0.1.0"},
	}, anthropicOnly.Requires)

	fallback := p.manifest(programCollection{Agents: []programAgent{{Provider: "local"}, {Provider: "google"}}})
	assert.Equal(t, []Requirement{
		{Path: "github.com/hupe1980/agentmesh", Version: "v0.1.0"},
		{Path: "github.com/openai/openai-go", Version: "v1.12.0"},
	}, fallback.Requires)
}

func TestConfig_Mapping(t *testing.T) {
	r := newRenderer(t)

	s := testAgent()
	s["model"] = map[string]any{"provider": "openai", "family": "gpt", "tier": "gpt-4o"}
	s["tools"] = []any{
		map[string]any{"id": "code_interpreter", "type": "builtin"},
		map[string]any{"id": "web_browser", "type": "builtin"},
		map[string]any{"id": "lookup", "type": "http", "description": "Look things up"},
		map[string]any{"id": "calc", "type": "function", "parameters": map[string]any{
			"type":       "object",
			"properties": map[string]any{"expr": map[string]any{"type": "string"}},
			"required":   []any{"expr"},
		}},
	}

	out := renderOne(t, r, s, TargetAssistants)
	assert.Equal(t, "test-agent_assistant.json", out.Name)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(out.Content, &payload))

	assert.Equal(t, "gpt-4o", payload["model"])
	assert.Equal(t, "Test Agent", payload["name"])
	assert.Equal(t, "A test agent for unit testing", payload["description"])
	assert.Equal(t, "You are a test agent.\nBe precise.", payload["instructions"])
	assert.Equal(t, map[string]any{
		"agent_id": "test-agent",
		"version":  "1.0.0",
		"owner":    "test@example.com",
	}, payload["metadata"])

	tools, ok := payload["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 3)

	assert.Equal(t, map[string]any{"type": "code_interpreter"}, tools[0])

	lookup := tools[1].(map[string]any)
	assert.Equal(t, "function", lookup["type"])
	fn := lookup["function"].(map[string]any)
	assert.Equal(t, "lookup", fn["name"])
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, fn["parameters"])

	calc := tools[2].(map[string]any)["function"].(map[string]any)
	params := calc["parameters"].(map[string]any)
	assert.Equal(t, []any{"expr"}, params["required"])
}

func TestConfig_ModelFallback(t *testing.T) {
	c := NewConfigStrategy(DefaultAssistantModels())

	tests := []struct {
		model    spec.Model
		expected string
	}{
		{spec.Model{Provider: "openai", Tier: "gpt-3.5"}, "gpt-3.5-turbo"},
		{spec.Model{Provider: "openai", Tier: "gpt-4"}, "gpt-4"},
		{spec.Model{Provider: "openai", Tier: "mystery"}, "gpt-4"},
		{spec.Model{Provider: "openai"}, "gpt-4"},
		{spec.Model{Provider: "anthropic", Tier: "gpt-4o"}, "gpt-4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, c.model(tt.model), "%+v", tt.model)
	}
}

type stubStrategy struct{ templates []string }

func (s stubStrategy) Target() Target      { return Target("stub") }
func (s stubStrategy) Templates() []string { return s.templates }
func (s stubStrategy) Render(_ context.Context, sp spec.Specification, tmpl *template.Template) ([]Output, error) {
	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, s.templates[0], sp); err != nil {
		return nil, err
	}
	return []Output{{Name: sp.ID() + ".txt", Content: []byte(b.String())}}, nil
}

func TestTemplateDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "claude"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "claude", documentTemplate), []byte("custom {{ .Name }}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stub", "hello.tmpl"), []byte("hello {{ .id }}"), 0o644))

	r := newRenderer(t, WithTemplateDir(dir), WithStrategy(stubStrategy{templates: []string{"hello.tmpl"}}))

	out := renderOne(t, r, testAgent(), TargetClaude)
	assert.Equal(t, "custom test-agent\n", string(out.Content))

	out = renderOne(t, r, testAgent(), Target("stub"))
	assert.Equal(t, "hello test-agent", string(out.Content))

	// Templates missing from the override fall back to the built-in set.
	assertGo(t, renderOne(t, r, testAgent(), TargetAgentMesh))

	_, err := New(WithStrategy(stubStrategy{templates: []string{"absent.tmpl"}}))
	assert.True(t, errors.Is(err, ErrTemplateNotFound))

	_, err = New(WithTemplateDir(filepath.Join(dir, "missing")))
	assert.Error(t, err)
}

func TestRenderFiles(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(src, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	agentPath := write("reviewer.yaml", `id: reviewer
name: Reviewer
summary: Reviews changes
role: Review the diff.
model: {provider: openai, family: gpt, tier: gpt-4o}
ownership: {owner: team@example.com}
version: 0.1.0
`)
	nameless := write("nameless.yaml", `name: Nameless
summary: No id
role: Do things.
model: {provider: anthropic, family: claude, tier: haiku}
`)
	broken := write("broken.yaml", "id: [")

	r := newRenderer(t)

	res, err := r.RenderFiles(context.Background(), []string{agentPath, nameless, broken}, TargetAgentMesh, out)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, filepath.Join(out, ManifestFile), res.Manifest)
	assert.Equal(t, filepath.Join(out, AggregatorFile), res.Aggregator)
	assert.FileExists(t, filepath.Join(out, "reviewer_agent.go"))
	assert.FileExists(t, filepath.Join(out, "nameless_agent.go"))

	res, err = r.RenderFile(context.Background(), agentPath, TargetClaude, out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "reviewer.md")}, res.Written)
	assert.Empty(t, res.Manifest)

	_, err = r.RenderFile(context.Background(), agentPath, Target("bogus"), out)
	assert.True(t, errors.Is(err, ErrUnknownTarget))
}

func TestDrift(t *testing.T) {
	dir := t.TempDir()
	outputs := []Output{{Name: "a.md", Content: []byte("one\n")}, {Name: "b.md", Content: []byte("two\n")}}

	diffs, err := Drift(dir, outputs)
	require.NoError(t, err)
	assert.Len(t, diffs, 2)

	_, err = WriteOutputs(dir, outputs)
	require.NoError(t, err)
	diffs, err = Drift(dir, outputs)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	outputs[1].Content = []byte("three\n")
	diffs, err = Drift(dir, outputs)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	diff := diffs[filepath.Join(dir, "b.md")]
	assert.Contains(t, diff, "-two")
	assert.Contains(t, diff, "+three")
}

func TestCaseHelpers(t *testing.T) {
	assert.Equal(t, "CodeReviewer", pascalCase("code-reviewer"))
	assert.Equal(t, "X3dModeler", pascalCase("3d-modeler"))
	assert.Equal(t, "codeReviewer", camelCase("code-reviewer"))
	assert.Equal(t, "code_reviewer", snakeCase("code-reviewer"))
	assert.Equal(t, "plain", yamlScalar("plain"))
	assert.Equal(t, "'a: b'", yamlScalar("a: b"))
}
