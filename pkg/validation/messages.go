package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

type fieldError struct {
	path    string
	message string
}

func (fe fieldError) String() string {
	if fe.path == "" {
		return fe.message
	}
	return fe.path + ": " + fe.message
}

func describe(verr *jsonschema.ValidationError, inst any) []fieldError {
	path := strings.Join(verr.InstanceLocation, ".")
	at := func(msg string) fieldError {
		return fieldError{path: path, message: msg}
	}

	switch k := verr.ErrorKind.(type) {
	case *kind.Required:
		out := make([]fieldError, 0, len(k.Missing))
		for _, name := range k.Missing {
			out = append(out, at(fmt.Sprintf("%s is a required property", quote(name))))
		}
		return out
	case *kind.Enum:
		return []fieldError{at(fmt.Sprintf("%s is not one of %s", repr(k.Got), reprList(k.Want)))}
	case *kind.Pattern:
		return []fieldError{at(fmt.Sprintf("%s does not match pattern %s", quote(k.Got), quote(k.Want)))}
	case *kind.Type:
		value, _ := valueAt(inst, verr.InstanceLocation)
		want := make([]string, len(k.Want))
		for i, w := range k.Want {
			want[i] = quote(w)
		}
		return []fieldError{at(fmt.Sprintf("%s is not of type %s", repr(value), strings.Join(want, ", ")))}
	case *kind.AdditionalProperties:
		names := make([]string, len(k.Properties))
		for i, p := range k.Properties {
			names[i] = quote(p)
		}
		verb := "was"
		if len(names) > 1 {
			verb = "were"
		}
		return []fieldError{at(fmt.Sprintf("Additional properties are not allowed (%s %s unexpected)", strings.Join(names, ", "), verb))}
	default:
		return []fieldError{at(verr.ErrorKind.LocalizedString(printer))}
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func repr(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return quote(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		return t.String()
	case []any:
		return reprList(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func reprList(items []any) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = repr(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func valueAt(inst any, loc []string) (any, bool) {
	cur := inst
	for _, tok := range loc {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[tok]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			var idx int
			if _, err := fmt.Sscanf(tok, "%d", &idx); err != nil || idx < 0 || idx >= len(t) {
				return nil, false
			}
			cur = t[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
