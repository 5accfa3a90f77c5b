package render

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Target names a generation output family.
type Target string

const (
	// TargetClaude renders Claude Code subagent documents.
	TargetClaude Target = "claude"
	// TargetAgentMesh renders Go programs built on agentmesh.
	TargetAgentMesh Target = "agentmesh"
	// TargetAssistants renders OpenAI assistant configurations.
	TargetAssistants Target = "assistants"
)

// Targets lists the built-in targets in display order.
func Targets() []Target {
	return []Target{TargetClaude, TargetAgentMesh, TargetAssistants}
}

var (
	// ErrUnknownTarget is matched by errors.Is for unsupported targets.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrTemplateNotFound is matched by errors.Is when a template is missing.
	ErrTemplateNotFound = errors.New("template not found")
)

// UnknownTargetError reports a target with no registered strategy.
type UnknownTargetError struct {
	Target Target
}

func (e *UnknownTargetError) Error() string {
	names := make([]string, 0, len(Targets()))
	for _, t := range Targets() {
		names = append(names, string(t))
	}
	return fmt.Sprintf("unknown target %q (supported: %s)", e.Target, strings.Join(names, ", "))
}

func (e *UnknownTargetError) Is(target error) bool {
	return target == ErrUnknownTarget
}

// TemplateNotFoundError reports a template that neither the override
// directory nor the built-in set provides.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return "template not found: " + e.Name
}

func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}
