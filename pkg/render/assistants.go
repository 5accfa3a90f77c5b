package render

import (
	"context"
	"encoding/json"
	"text/template"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

// AssistantModels maps model tiers of the openai provider to model ids.
type AssistantModels struct {
	Tiers    map[string]string
	Fallback string
	// Builtins maps builtin tool ids to assistant tool types. Builtin tools
	// outside this table are dropped.
	Builtins map[string]openai.AssistantToolType
}

// DefaultAssistantModels returns the built-in assistant tables.
func DefaultAssistantModels() AssistantModels {
	return AssistantModels{
		Tiers: map[string]string{
			"gpt-3.5":     openai.GPT3Dot5Turbo,
			"gpt-4":       openai.GPT4,
			"gpt-4o":      openai.GPT4o,
			"gpt-4o-mini": openai.GPT4oMini,
		},
		Fallback: openai.GPT4,
		Builtins: map[string]openai.AssistantToolType{
			"code_interpreter": openai.AssistantToolTypeCodeInterpreter,
			"file_search":      openai.AssistantToolTypeFileSearch,
		},
	}
}

// ConfigStrategy renders OpenAI assistant creation payloads as JSON.
type ConfigStrategy struct {
	models AssistantModels
}

// NewConfigStrategy returns a configuration strategy using models.
func NewConfigStrategy(models AssistantModels) *ConfigStrategy {
	return &ConfigStrategy{models: models}
}

func (c *ConfigStrategy) Target() Target {
	return TargetAssistants
}

// Templates is empty: the payload is serialized, not templated.
func (c *ConfigStrategy) Templates() []string {
	return nil
}

func (c *ConfigStrategy) Render(ctx context.Context, s spec.Specification, _ *template.Template) ([]Output, error) {
	req, err := c.Request(ctx, s)
	if err != nil {
		return nil, err
	}

	content, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode assistant configuration")
	}
	content = append(content, '\n')

	return []Output{{Name: s.ID() + "_assistant.json", Content: content}}, nil
}

// Request builds the assistant creation request for s.
func (c *ConfigStrategy) Request(ctx context.Context, s spec.Specification) (openai.AssistantRequest, error) {
	a, err := s.AsAgent()
	if err != nil {
		return openai.AssistantRequest{}, err
	}

	req := openai.AssistantRequest{
		Model:        c.model(a.Model),
		Name:         stringPtr(a.Name),
		Description:  stringPtr(a.Summary),
		Instructions: stringPtr(a.Role),
		Tools:        []openai.AssistantTool{},
		Metadata:     map[string]any{"agent_id": a.ID},
	}
	if a.Version != "" {
		req.Metadata["version"] = a.Version
	}
	if a.Ownership.Owner != "" {
		req.Metadata["owner"] = a.Ownership.Owner
	}
	if t := a.Model.Params.Temperature; t != nil {
		temp := float32(*t)
		req.Temperature = &temp
	}
	if p := a.Model.Params.TopP; p != nil {
		topP := float32(*p)
		req.TopP = &topP
	}

	for _, t := range a.Tools {
		if t.Type == "builtin" {
			kind, ok := c.models.Builtins[t.ID]
			if !ok {
				logger.G(ctx).WithField("agent", a.ID).
					WithField("tool", t.ID).
					Warn("builtin tool has no assistant equivalent, dropping it")
				continue
			}
			req.Tools = append(req.Tools, openai.AssistantTool{Type: kind})
			continue
		}

		params, err := toolParameters(t.Parameters)
		if err != nil {
			return openai.AssistantRequest{}, errors.Wrapf(err, "tool %s", t.ID)
		}
		req.Tools = append(req.Tools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.ID,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}

	return req, nil
}

func (c *ConfigStrategy) model(m spec.Model) string {
	if m.Provider != "openai" {
		return c.models.Fallback
	}
	if id, ok := c.models.Tiers[m.Tier]; ok {
		return id
	}
	return c.models.Fallback
}

// toolParameters converts a declared parameter schema, defaulting to an
// object without properties.
func toolParameters(raw map[string]any) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return &jsonschema.Schema{
			Type:       "object",
			Properties: jsonschema.NewProperties(),
		}, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parameters are not JSON encodable")
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, errors.Wrap(err, "parameters are not a JSON schema")
	}
	return &schema, nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
