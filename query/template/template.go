// Package template substitutes ${name} placeholders in query templates.
//
// Substitution is a single left-to-right scan over the template text. Each
// placeholder is matched by its exact name and replaced by the bound value;
// substituted values are never rescanned, so a value that itself contains
// "${...}" is inserted verbatim. A placeholder with no binding is an error,
// as is binding the same name twice. Bindings that the template does not
// use are allowed, since dialects differ in which values they need.
package template

import (
	"fmt"
	"strings"

	"github.com/anhcx0209/ontodia-search/errors"
)

// Binding supplies the value for one placeholder.
type Binding struct {
	Name  string
	Value string
}

// Bind is shorthand for Binding{name, value}.
func Bind(name, value string) Binding {
	return Binding{Name: name, Value: value}
}

// Resolve replaces every placeholder in tpl with its bound value.
func Resolve(tpl string, bindings ...Binding) (string, error) {
	values := make(map[string]string, len(bindings))
	for _, b := range bindings {
		if _, dup := values[b.Name]; dup {
			return "", errors.NewComposition("resolve", errors.ErrDuplicatePlaceholder, "binding %q given twice", b.Name)
		}
		values[b.Name] = b.Value
	}

	var (
		out     strings.Builder
		missing []string
	)
	out.Grow(len(tpl))

	scan(tpl, func(literal string, name string, ok bool) {
		out.WriteString(literal)
		if !ok {
			return
		}
		if v, bound := values[name]; bound {
			out.WriteString(v)
			return
		}
		out.WriteString("${" + name + "}")
		missing = appendUnique(missing, name)
	})

	if len(missing) > 0 {
		return "", errors.NewComposition("resolve", errors.ErrUnresolvedPlaceholder, "no value for %s", quoteAll(missing))
	}
	return out.String(), nil
}

// Placeholders returns the distinct placeholder names in tpl in order of
// first appearance.
func Placeholders(tpl string) []string {
	var names []string
	scan(tpl, func(_ string, name string, ok bool) {
		if ok {
			names = appendUnique(names, name)
		}
	})
	return names
}

// scan walks tpl and calls emit with each run of literal text followed by
// the placeholder name that ends it, if any.
func scan(tpl string, emit func(literal, name string, ok bool)) {
	rest := tpl
	pending := 0
	for {
		i := strings.Index(rest[pending:], "${")
		if i < 0 {
			emit(rest, "", false)
			return
		}
		start := pending + i
		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			emit(rest, "", false)
			return
		}
		name := rest[start+2 : start+2+end]
		if !validName(name) {
			// Not a placeholder; keep scanning after the "${".
			pending = start + 2
			continue
		}
		emit(rest[:start], name, true)
		rest = rest[start+2+end+1:]
		pending = 0
	}
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("${%s}", n)
	}
	return strings.Join(quoted, ", ")
}
