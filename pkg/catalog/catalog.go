// Package catalog lists the agent documents of a repository and scaffolds
// new ones.
package catalog

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

const (
	summaryLimit = 80
	tagLimit     = 3
)

// Entry describes one agent document.
type Entry struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Domain  string   `json:"domain"`
	Summary string   `json:"summary"`
	Version string   `json:"version"`
	Tags    []string `json:"tags"`
	Path    string   `json:"path"`
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Domain string
	Tag    string
}

func (f Filter) match(e Entry) bool {
	if f.Domain != "" && e.Domain != f.Domain {
		return false
	}
	if f.Tag == "" {
		return true
	}
	for _, t := range e.Tags {
		if t == f.Tag {
			return true
		}
	}
	return false
}

// List returns the agents found under dirs that match f, ordered by domain
// then id. Documents that cannot be loaded are skipped and reported in the
// returned error alongside the entries that could be read.
func List(ctx context.Context, dirs []string, opts spec.DiscoverOptions, f Filter) ([]Entry, error) {
	paths, err := spec.Discover(dirs, opts)
	if err != nil {
		return nil, err
	}

	var (
		entries []Entry
		merr    *multierror.Error
	)
	for _, p := range paths {
		s, err := spec.Load(p)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		if spec.DetectKind(p, s) == spec.KindRecipe {
			continue
		}

		e := newEntry(p, s)
		if !f.match(e) {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Domain != entries[j].Domain {
			return entries[i].Domain < entries[j].Domain
		}
		return entries[i].ID < entries[j].ID
	})

	logger.G(ctx).WithField("dirs", dirs).
		WithField("found", len(entries)).
		Debug("listed agents")

	if merr != nil {
		return entries, errors.Wrap(merr, "some agents could not be loaded")
	}
	return entries, nil
}

func newEntry(path string, s spec.Specification) Entry {
	e := Entry{
		ID:      s.ID(),
		Name:    s.String("name"),
		Domain:  filepath.Base(filepath.Dir(path)),
		Summary: truncate(s.String("summary"), summaryLimit),
		Version: s.String("version"),
		Path:    path,
	}
	if e.ID == "" {
		e.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if e.Name == "" {
		e.Name = "Unknown"
	}
	if e.Version == "" {
		e.Version = "0.0.0"
	}
	for _, t := range s.List("tags") {
		if tag, ok := t.(string); ok {
			e.Tags = append(e.Tags, tag)
		}
	}
	return e
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// shortTags joins the first few tags for table display.
func shortTags(tags []string) string {
	if len(tags) <= tagLimit {
		return strings.Join(tags, ", ")
	}
	return strings.Join(tags[:tagLimit], ", ") + "..."
}
