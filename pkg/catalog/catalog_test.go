package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/schemas"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/validation"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupAgents(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "engineering", "code-reviewer.yaml"), `id: code-reviewer
name: Code Reviewer
summary: `+strings.Repeat("r", 90)+`
version: 1.2.0
tags: [review, quality, go, security]
`)
	writeFile(t, filepath.Join(dir, "engineering", "api-designer.yaml"), `id: api-designer
name: API Designer
summary: Designs APIs
version: 1.0.0
tags: [design]
`)
	writeFile(t, filepath.Join(dir, "data", "analyst.yaml"), `name: Analyst
summary: Crunches numbers
tags: [data, review]
`)
	writeFile(t, filepath.Join(dir, "_templates", "agent-template.yaml"), "id: my-agent-id\n")
	writeFile(t, filepath.Join(dir, "engineering", "pipeline.yaml"), "id: pipeline\ngraph:\n  - stage: a\n    sequence: [{agent: x}]\n")
	return dir
}

func TestList(t *testing.T) {
	dir := setupAgents(t)

	entries, err := List(context.Background(), []string{dir}, spec.NewDiscoverOptions(), Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "analyst", entries[0].ID)
	assert.Equal(t, "data", entries[0].Domain)
	assert.Equal(t, "0.0.0", entries[0].Version)

	assert.Equal(t, "api-designer", entries[1].ID)
	assert.Equal(t, "code-reviewer", entries[2].ID)
	assert.Equal(t, "engineering", entries[2].Domain)
	assert.Equal(t, strings.Repeat("r", 80)+"...", entries[2].Summary)
	assert.Equal(t, []string{"review", "quality", "go", "security"}, entries[2].Tags)
}

func TestList_Filters(t *testing.T) {
	dir := setupAgents(t)
	opts := spec.NewDiscoverOptions()

	entries, err := List(context.Background(), []string{dir}, opts, Filter{Domain: "engineering"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = List(context.Background(), []string{dir}, opts, Filter{Tag: "review"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "analyst", entries[0].ID)
	assert.Equal(t, "code-reviewer", entries[1].ID)

	entries, err = List(context.Background(), []string{dir}, opts, Filter{Domain: "data", Tag: "design"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_SkipsBrokenFiles(t *testing.T) {
	dir := setupAgents(t)
	writeFile(t, filepath.Join(dir, "ops", "broken.yaml"), "id: [\n")

	entries, err := List(context.Background(), []string{dir}, spec.NewDiscoverOptions(), Filter{})
	assert.Error(t, err)
	assert.Len(t, entries, 3)
}

func TestList_MissingDir(t *testing.T) {
	_, err := List(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, spec.NewDiscoverOptions(), Filter{})
	assert.True(t, errors.Is(err, spec.ErrNotFound))
}

func TestListOutput(t *testing.T) {
	entries := []Entry{{
		ID:      "code-reviewer",
		Name:    "Code Reviewer",
		Domain:  "engineering",
		Summary: "Reviews code",
		Version: "1.2.0",
		Tags:    []string{"review", "quality", "go", "security"},
		Path:    "agents/engineering/code-reviewer.yaml",
	}}

	var buf bytes.Buffer
	require.NoError(t, NewListOutput(entries, TableFormat).Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "Available Agents (1 found)")
	assert.Contains(t, out, "code-reviewer")
	assert.Contains(t, out, "review, quality, go...")

	buf.Reset()
	require.NoError(t, NewListOutput(entries, JSONFormat).Render(&buf))
	var payload struct {
		Agents []Entry `json:"agents"`
		Total  int     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, 1, payload.Total)
	assert.Equal(t, entries, payload.Agents)

	buf.Reset()
	require.NoError(t, NewListOutput(nil, TableFormat).Render(&buf))
	assert.Equal(t, "No agents found matching criteria\n", buf.String())
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir, "data-analyst", InitOptions{Domain: "data", Owner: "data@example.com"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "data-analyst.yaml"), path)

	s, err := spec.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data-analyst", s.ID())
	assert.Equal(t, "Data Analyst", s.String("name"))
	assert.Equal(t, "data@example.com", s.LookupString("ownership.owner"))
	assert.Equal(t, []any{"data"}, s.List("tags"))

	doc, err := schemas.NewStore().ForKind(spec.KindAgent)
	require.NoError(t, err)
	v, err := validation.New(doc)
	require.NoError(t, err)
	verdict := v.Validate(context.Background(), s)
	assert.True(t, verdict.Valid, "%v", verdict.Errors)

	_, err = Init(dir, "data-analyst", InitOptions{Domain: "data"})
	assert.True(t, errors.Is(err, ErrAgentExists))
}

func TestInit_Defaults(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir, "helper", InitOptions{Name: "Helper: v2"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", "helper.yaml"), path)

	s, err := spec.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Helper: v2", s.String("name"))
	assert.Equal(t, "team@company.com", s.LookupString("ownership.owner"))
}

func TestInit_InvalidID(t *testing.T) {
	_, err := Init(t.TempDir(), "Not Valid", NewInitOptions())
	assert.Error(t, err)
}
