package api

import (
	"fmt"
	"strings"
)

// ExpandPath substitutes {name} placeholders in a path template with values
// from params. Values are inserted verbatim; callers escape them for the
// URL position they land in. A placeholder without a value is an error.
func ExpandPath(tmpl string, params map[string]string) (string, error) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}

	var b strings.Builder
	rest := tmpl
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		name := rest[start+1 : end]
		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("%w: no value for {%s} in %q", ErrConfiguration, name, tmpl)
		}
		b.WriteString(value)
		rest = rest[end+1:]
	}
	return b.String(), nil
}
