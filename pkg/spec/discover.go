package spec

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// DefaultExcludes skips scaffolding templates that are not real documents.
var DefaultExcludes = []string{"**/_templates/**"}

// DiscoverOptions controls which files Discover returns.
type DiscoverOptions struct {
	// Include is a doublestar pattern relative to each root.
	Include string
	// Exclude holds glob patterns matched against slash-separated paths.
	Exclude []string
}

// NewDiscoverOptions returns options matching YAML documents outside _templates.
func NewDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		Include: "**/*.{yaml,yml}",
		Exclude: DefaultExcludes,
	}
}

// Discover expands roots into a sorted, de-duplicated list of document paths.
// A root that is a regular file is returned as is.
func Discover(roots []string, opts DiscoverOptions) ([]string, error) {
	if opts.Include == "" {
		opts.Include = NewDiscoverOptions().Include
	}

	excluded, err := opts.excluder()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &NotFoundError{Path: root}
			}
			return nil, errors.Wrapf(err, "failed to stat %s", root)
		}

		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				out = append(out, root)
			}
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(root), opts.Include)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to search %s", root)
		}
		for _, m := range matches {
			path := filepath.Join(root, filepath.FromSlash(m))
			if excluded(path) || seen[path] {
				continue
			}
			seen[path] = true
			out = append(out, path)
		}
	}

	sort.Strings(out)
	return out, nil
}

func (o DiscoverOptions) excluder() (func(string) bool, error) {
	excludes := make([]glob.Glob, 0, len(o.Exclude))
	for _, pattern := range o.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid exclude pattern %q", pattern)
		}
		excludes = append(excludes, g)
	}

	return func(path string) bool {
		slashed := filepath.ToSlash(path)
		for _, g := range excludes {
			if g.Match(slashed) || g.Match("/"+slashed) {
				return true
			}
		}
		return false
	}, nil
}

// Matches reports whether a file path found under some root would be
// discovered: its base name fits the include pattern and no exclude
// pattern matches it.
func (o DiscoverOptions) Matches(path string) (bool, error) {
	include := o.Include
	if include == "" {
		include = NewDiscoverOptions().Include
	}
	ok, err := doublestar.Match(include, filepath.ToSlash(filepath.Base(path)))
	if err != nil {
		return false, errors.Wrapf(err, "invalid include pattern %q", include)
	}
	if !ok {
		return false, nil
	}

	excluded, err := o.excluder()
	if err != nil {
		return false, err
	}
	return !excluded(path), nil
}
