package validation

import (
	"fmt"
	"strings"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

// StageGraph checks the recipe graph for duplicate stage names and for
// stages that do not declare exactly one execution mode. It reads the raw
// graph so it still reports on documents the schema rejected.
func StageGraph(s spec.Specification) []string {
	graph, _ := s["graph"].([]any)
	if len(graph) == 0 {
		return nil
	}

	var errs []string

	counts := map[string]int{}
	var order []string
	for _, item := range graph {
		stage, _ := item.(map[string]any)
		name, ok := stage["stage"].(string)
		if !ok || name == "" {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	var dupes []string
	for _, name := range order {
		if counts[name] > 1 {
			dupes = append(dupes, name)
		}
	}
	if len(dupes) > 0 {
		errs = append(errs, "graph: duplicate stage names found: "+strings.Join(dupes, ", "))
	}

	for i, item := range graph {
		stage, _ := item.(map[string]any)
		name := stageName(stage, i)

		hasParallel := present(stage, "parallel")
		hasSequence := present(stage, "sequence")

		switch {
		case !hasParallel && !hasSequence:
			errs = append(errs, fmt.Sprintf("graph: stage '%s' must have either 'parallel' or 'sequence' field", name))
		case hasParallel && hasSequence:
			errs = append(errs, fmt.Sprintf("graph: stage '%s' cannot have both 'parallel' and 'sequence' fields", name))
		}
	}

	return errs
}

// AgentReferences returns a check that reports graph steps naming agents
// outside known.
func AgentReferences(known map[string]bool) Check {
	return func(s spec.Specification) []string {
		graph, _ := s["graph"].([]any)

		var errs []string
		for i, item := range graph {
			stage, _ := item.(map[string]any)
			name := stageName(stage, i)

			for _, mode := range []string{"sequence", "parallel"} {
				steps, _ := stage[mode].([]any)
				for _, raw := range steps {
					step, _ := raw.(map[string]any)
					agent, ok := step["agent"].(string)
					if !ok || agent == "" || known[agent] {
						continue
					}
					errs = append(errs, fmt.Sprintf("graph: stage '%s' references unknown agent '%s'", name, agent))
				}
			}
		}
		return errs
	}
}

func stageName(stage map[string]any, index int) string {
	if name, ok := stage["stage"].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("stage_%d", index)
}

// present reports whether key holds a non-null, non-empty value.
func present(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case string:
		return t != ""
	default:
		return true
	}
}
