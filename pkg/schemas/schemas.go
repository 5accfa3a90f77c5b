// Package schemas ships the structural schemas for agent and recipe
// documents. An override directory can replace any of them without
// rebuilding the binary.
package schemas

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

const (
	AgentSchemaFile  = "agent-spec-v1.json"
	RecipeSchemaFile = "recipe-spec-v1.json"
)

//go:embed data/*.json
var builtin embed.FS

// Store resolves schema documents, preferring the override directory.
type Store struct {
	dir string
}

// Option configures a Store.
type Option func(*Store)

// WithDir makes files in dir take precedence over the embedded schemas.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = dir
	}
}

// NewStore creates a schema store.
func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the raw schema document with the given file name.
func (s *Store) Read(name string) ([]byte, error) {
	if s.dir != "" {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read schema %s", name)
		}
	}

	data, err := builtin.ReadFile("data/" + name)
	if err != nil {
		return nil, &spec.NotFoundError{Path: name}
	}
	return data, nil
}

// ForKind returns the schema document used for documents of kind k.
func (s *Store) ForKind(k spec.Kind) ([]byte, error) {
	switch k {
	case spec.KindAgent:
		return s.Read(AgentSchemaFile)
	case spec.KindRecipe:
		return s.Read(RecipeSchemaFile)
	default:
		return nil, errors.Errorf("no schema for document kind %q", k)
	}
}
