package render

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

const documentTemplate = "agent.md.tmpl"

var privacyNotices = map[string]string{
	"none":   "No special handling of personal data is required.",
	"mask":   "Mask personally identifiable information (PII) in every response. Replace names, emails, phone numbers and account identifiers with placeholders.",
	"redact": "Redact personally identifiable information (PII) before processing or repeating any input. Never echo redacted values back.",
	"forbid": "Do not process personally identifiable information (PII). Refuse requests that require it and ask for anonymized input instead.",
}

// DocumentStrategy renders Claude Code subagent markdown documents.
type DocumentStrategy struct{}

// NewDocumentStrategy returns the document strategy.
func NewDocumentStrategy() *DocumentStrategy {
	return &DocumentStrategy{}
}

func (d *DocumentStrategy) Target() Target {
	return TargetClaude
}

func (d *DocumentStrategy) Templates() []string {
	return []string{documentTemplate}
}

type documentTool struct {
	ID          string
	Type        string
	Description string
}

type documentData struct {
	Name          string
	Description   string
	Model         string
	ToolIDs       []string
	Tools         []documentTool
	Role          string
	PIIPolicy     string
	PrivacyNotice string
	MaxTokens     int
	Acceptance    []string
	Source        string
	Version       string
}

func (d *DocumentStrategy) Render(_ context.Context, s spec.Specification, tmpl *template.Template) ([]Output, error) {
	agent, err := s.AsAgent()
	if err != nil {
		return nil, err
	}

	data := documentData{
		Name:        agent.ID,
		Description: agent.Summary,
		Model:       agent.Model.Tier,
		Role:        strings.TrimSpace(agent.Role),
		PIIPolicy:   agent.Constraints.PIIPolicy,
		Acceptance:  agent.Evaluation.Acceptance,
		Source:      agent.ID + ".yaml",
		Version:     agent.Version,
	}
	if data.PIIPolicy != "" {
		data.PrivacyNotice = privacyNotices[data.PIIPolicy]
		if data.PrivacyNotice == "" {
			data.PrivacyNotice = "Follow the '" + data.PIIPolicy + "' policy for personally identifiable information."
		}
	}
	if mt := agent.Constraints.MaxTokens; mt != nil {
		data.MaxTokens = *mt
	}
	for _, t := range agent.Tools {
		if t.ID == "" {
			continue
		}
		data.ToolIDs = append(data.ToolIDs, t.ID)
		data.Tools = append(data.Tools, documentTool{ID: t.ID, Type: t.Type, Description: t.Description})
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, documentTemplate, data); err != nil {
		return nil, errors.Wrap(err, "failed to execute document template")
	}

	return []Output{{Name: agent.ID + ".md", Content: buf.Bytes()}}, nil
}

// Document is a parsed subagent document.
type Document struct {
	Name        string
	Description string
	Model       string
	Tools       []string
	Body        string
}

// ParseDocument reads the frontmatter and body of a subagent document.
func ParseDocument(content []byte) (*Document, error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse document")
	}

	fm, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid frontmatter")
	}
	if len(fm) == 0 {
		return nil, errors.New("document has no frontmatter")
	}

	doc := &Document{Body: documentBody(string(content))}
	doc.Name, _ = fm["name"].(string)
	doc.Description, _ = fm["description"].(string)
	doc.Model, _ = fm["model"].(string)
	if tools, ok := fm["tools"].(string); ok {
		for _, t := range strings.Split(tools, ",") {
			if t = strings.TrimSpace(t); t != "" {
				doc.Tools = append(doc.Tools, t)
			}
		}
	}

	if doc.Name == "" {
		return nil, errors.New("frontmatter is missing name")
	}
	return doc, nil
}

func documentBody(content string) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return content
	}
	return strings.TrimLeft(rest[end+len("\n---\n"):], "\n")
}
