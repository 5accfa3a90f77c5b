package catalog

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed templates/agent.yaml.tmpl
var boilerplate string

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ErrAgentExists is returned when the scaffold target already exists.
var ErrAgentExists = errors.New("agent already exists")

// InitOptions holds the placeholders of a new agent document.
type InitOptions struct {
	Domain string
	Name   string
	Owner  string
}

// NewInitOptions returns the defaults used by init.
func NewInitOptions() InitOptions {
	return InitOptions{
		Domain: "custom",
		Owner:  "team@company.com",
	}
}

// Init writes <agentsDir>/<domain>/<id>.yaml from the built-in boilerplate
// and returns its path. Existing files are never overwritten.
func Init(agentsDir, id string, opts InitOptions) (string, error) {
	if !idPattern.MatchString(id) {
		return "", errors.Errorf("invalid agent id %q: use lowercase kebab-case", id)
	}
	if opts.Domain == "" {
		opts.Domain = NewInitOptions().Domain
	}
	if opts.Owner == "" {
		opts.Owner = NewInitOptions().Owner
	}
	if opts.Name == "" {
		opts.Name = titleFromID(id)
	}

	content, err := scaffold(id, opts)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(agentsDir, opts.Domain)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create domain directory %s", dir)
	}

	path := filepath.Join(dir, id+".yaml")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", errors.Wrapf(ErrAgentExists, "%s at %s", id, path)
		}
		return "", errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}

func scaffold(id string, opts InitOptions) ([]byte, error) {
	tmpl, err := template.New("agent").Funcs(template.FuncMap{"yaml": yamlString}).Parse(boilerplate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse agent boilerplate")
	}

	data := struct {
		ID     string
		Name   string
		Domain string
		Owner  string
	}{ID: id, Name: opts.Name, Domain: opts.Domain, Owner: opts.Owner}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "failed to execute agent boilerplate")
	}
	return buf.Bytes(), nil
}

func yamlString(s string) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// titleFromID turns "data-analyst" into "Data Analyst".
func titleFromID(id string) string {
	parts := strings.Split(id, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
