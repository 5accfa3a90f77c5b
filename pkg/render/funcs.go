package render

import (
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"gopkg.in/yaml.v3"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"quote":  strconv.Quote,
		"yaml":   yamlScalar,
		"join":   strings.Join,
		"pascal": pascalCase,
		"snake":  snakeCase,
		"camel":  camelCase,
	}
}

// yamlScalar renders s as a single-line YAML scalar, quoting only when needed.
func yamlScalar(s string) string {
	if strings.ContainsAny(s, "\n\r") {
		return strconv.Quote(s)
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	scalar := strings.TrimSuffix(string(out), "\n")
	if strings.Contains(scalar, "\n") {
		return strconv.Quote(s)
	}
	return scalar
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// pascalCase turns "code-reviewer" into "CodeReviewer".
func pascalCase(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// camelCase turns "code-reviewer" into "codeReviewer".
func camelCase(s string) string {
	p := pascalCase(s)
	if p == "" {
		return p
	}
	runes := []rune(p)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// snakeCase turns "code-reviewer" into "code_reviewer".
func snakeCase(s string) string {
	return strings.ToLower(strings.Join(words(s), "_"))
}
