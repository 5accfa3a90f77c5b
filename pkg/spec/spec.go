// Package spec holds the generic specification document model shared by the
// validators and renderers, together with the loader that produces it from
// YAML, JSON or TOML sources.
package spec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Specification is a parsed agent or recipe document. Values are plain Go
// data: nested mappings are map[string]any, sequences are []any. A
// Specification is treated as immutable once loaded.
type Specification map[string]any

// Kind tells which schema family a document belongs to.
type Kind string

const (
	KindAgent   Kind = "agent"
	KindRecipe  Kind = "recipe"
	KindUnknown Kind = "unknown"
)

// ID returns the document identifier, or "" when it is absent or not a string.
func (s Specification) ID() string {
	return s.String("id")
}

// String returns the string value stored at key, or "".
func (s Specification) String(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Map returns the nested mapping stored at key, or nil.
func (s Specification) Map(key string) map[string]any {
	if v, ok := s[key].(map[string]any); ok {
		return v
	}
	return nil
}

// List returns the sequence stored at key, or nil.
func (s Specification) List(key string) []any {
	if v, ok := s[key].([]any); ok {
		return v
	}
	return nil
}

// Lookup walks a dotted path ("model.tier") through nested mappings.
func (s Specification) Lookup(path string) (any, bool) {
	var cur any = map[string]any(s)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString is Lookup restricted to string leaves.
func (s Specification) LookupString(path string) string {
	v, ok := s.Lookup(path)
	if !ok {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return ""
}

// Kind infers the document kind from its contents: recipes carry a graph.
func (s Specification) Kind() Kind {
	if _, ok := s["graph"]; ok {
		return KindRecipe
	}
	return KindAgent
}

// DetectKind infers the kind of the document at path. A directory segment
// named "agents" or "recipes" wins; otherwise the content decides.
func DetectKind(path string, s Specification) Kind {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		switch part {
		case "agents":
			return KindAgent
		case "recipes":
			return KindRecipe
		}
	}
	if s == nil {
		return KindUnknown
	}
	return s.Kind()
}

// normalize converts decoder output into the canonical value shapes.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
