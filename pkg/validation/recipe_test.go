package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

func step(agent string) map[string]any {
	return map[string]any{"agent": agent}
}

func TestStageGraph(t *testing.T) {
	tests := []struct {
		name     string
		graph    any
		expected []string
	}{
		{
			name: "valid",
			graph: []any{
				map[string]any{"stage": "plan", "sequence": []any{step("a")}},
				map[string]any{"stage": "review", "parallel": []any{step("b"), step("c")}},
			},
		},
		{
			name: "duplicate names reported once in first occurrence order",
			graph: []any{
				map[string]any{"stage": "test", "sequence": []any{step("a")}},
				map[string]any{"stage": "build", "sequence": []any{step("a")}},
				map[string]any{"stage": "build", "sequence": []any{step("b")}},
				map[string]any{"stage": "test", "parallel": []any{step("c")}},
				map[string]any{"stage": "build", "sequence": []any{step("d")}},
			},
			expected: []string{"graph: duplicate stage names found: test, build"},
		},
		{
			name:     "neither mode",
			graph:    []any{map[string]any{"stage": "idle"}},
			expected: []string{"graph: stage 'idle' must have either 'parallel' or 'sequence' field"},
		},
		{
			name: "both modes",
			graph: []any{map[string]any{
				"stage":    "greedy",
				"sequence": []any{step("a")},
				"parallel": []any{step("b")},
			}},
			expected: []string{"graph: stage 'greedy' cannot have both 'parallel' and 'sequence' fields"},
		},
		{
			name: "empty and null values are absent",
			graph: []any{
				map[string]any{"stage": "hollow", "sequence": []any{}, "parallel": nil},
				map[string]any{"stage": "half", "sequence": []any{step("a")}, "parallel": []any{}},
			},
			expected: []string{"graph: stage 'hollow' must have either 'parallel' or 'sequence' field"},
		},
		{
			name: "unnamed stages use positional fallback",
			graph: []any{
				map[string]any{"stage": "first", "sequence": []any{step("a")}},
				map[string]any{},
				"not-a-stage",
			},
			expected: []string{
				"graph: stage 'stage_1' must have either 'parallel' or 'sequence' field",
				"graph: stage 'stage_2' must have either 'parallel' or 'sequence' field",
			},
		},
		{
			name: "rules are independent",
			graph: []any{
				map[string]any{"stage": "build"},
				map[string]any{"stage": "build", "sequence": []any{step("a")}, "parallel": []any{step("b")}},
			},
			expected: []string{
				"graph: duplicate stage names found: build",
				"graph: stage 'build' must have either 'parallel' or 'sequence' field",
				"graph: stage 'build' cannot have both 'parallel' and 'sequence' fields",
			},
		},
		{
			name:  "missing graph is left to the schema",
			graph: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec.Specification{"id": "r"}
			if tt.graph != nil {
				s["graph"] = tt.graph
			}
			assert.Equal(t, tt.expected, StageGraph(s))
		})
	}
}

func TestAgentReferences(t *testing.T) {
	check := AgentReferences(map[string]bool{"planner": true, "coder": true})

	s := spec.Specification{
		"graph": []any{
			map[string]any{"stage": "plan", "sequence": []any{step("planner")}},
			map[string]any{"parallel": []any{step("coder"), step("ghost")}},
		},
	}

	assert.Equal(t, []string{"graph: stage 'stage_1' references unknown agent 'ghost'"}, check(s))
	assert.Empty(t, check(spec.Specification{"id": "no-graph"}))
}
