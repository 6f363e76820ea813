// Package template implements the deterministic substitution engine used by
// query builders. A template is a string with {name} placeholders; rendering
// replaces each placeholder with a value from the resolution context. The
// same inputs always produce the same output, which is what makes the
// rendered text usable as a cache key.
package template

import (
	"strings"

	"github.com/attrflow/attrflow/pkg/errors"
)

type segment struct {
	text        string
	placeholder bool
}

// Template is a parsed query template. Immutable after Parse.
type Template struct {
	raw      string
	segments []segment
	names    []string
}

// Parse parses a template string. It fails if a substitution delimiter is
// unbalanced or a placeholder is empty.
func Parse(raw string) (*Template, error) {
	t := &Template{raw: raw}
	rest := raw

	for {
		start := strings.Index(rest, "{")
		if start == -1 {
			if end := strings.Index(rest, "}"); end != -1 {
				return nil, errors.Newf(errors.ErrorTypeQueryConstruction,
					"unbalanced substitution delimiter in template %q", raw)
			}
			if rest != "" {
				t.segments = append(t.segments, segment{text: rest})
			}
			break
		}

		end := strings.Index(rest[start:], "}")
		if end == -1 {
			return nil, errors.Newf(errors.ErrorTypeQueryConstruction,
				"unbalanced substitution delimiter in template %q", raw)
		}
		end += start

		name := rest[start+1 : end]
		if name == "" {
			return nil, errors.Newf(errors.ErrorTypeQueryConstruction,
				"empty placeholder in template %q", raw)
		}

		if start > 0 {
			t.segments = append(t.segments, segment{text: rest[:start]})
		}
		t.segments = append(t.segments, segment{text: name, placeholder: true})
		t.names = append(t.names, name)
		rest = rest[end+1:]
	}

	return t, nil
}

// MustParse parses a template and panics on error. For static templates in
// tests and examples.
func MustParse(raw string) *Template {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Raw returns the original template text
func (t *Template) Raw() string {
	return t.raw
}

// Names returns the placeholder names in order of appearance, duplicates
// included
func (t *Template) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Render substitutes placeholder values into the template. Every placeholder
// must have a value; a missing one is a query construction error. The
// optional escape function is applied to substituted values only, never to
// literal template text.
func (t *Template) Render(values map[string]string, escape func(string) string) (string, error) {
	var b strings.Builder
	b.Grow(len(t.raw))

	for _, seg := range t.segments {
		if !seg.placeholder {
			b.WriteString(seg.text)
			continue
		}

		value, ok := values[seg.text]
		if !ok {
			return "", errors.Newf(errors.ErrorTypeQueryConstruction,
				"no value for placeholder %q in template %q", seg.text, t.raw)
		}
		if escape != nil {
			value = escape(value)
		}
		b.WriteString(value)
	}

	return b.String(), nil
}
