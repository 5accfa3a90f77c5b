package spec

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a specification source.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

var (
	// ErrNotFound is matched by errors.Is when the source does not exist.
	ErrNotFound = errors.New("specification not found")
	// ErrEmptyDocument is returned for a well-formed source with no content.
	ErrEmptyDocument = errors.New("document is empty")
)

// NotFoundError reports a missing specification source.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "file not found: " + e.Path
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseError reports a source that is not a well-formed document.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return string(e.Format) + " parsing error: " + e.Err.Error()
	}
	return string(e.Format) + " parsing error in " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatForPath picks the decoder from the file extension, defaulting to YAML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Load reads and parses the specification at path.
func Load(path string) (Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	s, err := Parse(data, FormatForPath(path))
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Parse decodes data in the given format. The result is a non-empty mapping;
// otherwise a *ParseError or ErrEmptyDocument is returned.
func Parse(data []byte, format Format) (Specification, error) {
	var raw any

	switch format {
	case FormatTOML:
		m := map[string]any{}
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
			return nil, &ParseError{Format: format, Err: err}
		}
		raw = m
	default:
		// JSON documents are valid YAML.
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &ParseError{Format: format, Err: err}
		}
	}

	if raw == nil {
		return nil, ErrEmptyDocument
	}

	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, &ParseError{Format: format, Err: errors.Errorf("document root must be a mapping, got %T", raw)}
	}
	if len(m) == 0 {
		return nil, ErrEmptyDocument
	}

	return Specification(m), nil
}
