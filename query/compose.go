// Package query composes SPARQL text for each provider operation from a
// dialect's templates.
//
// Every function is pure: it takes resolved dialect settings and the
// operation's parameters and returns one query string. All template text
// passes through template.Resolve, so a placeholder the dialect left
// unresolved surfaces here as a CompositionError instead of reaching the
// endpoint.
package query

import (
	"fmt"
	"strings"

	"github.com/anhcx0209/ontodia-search/dialect"
	"github.com/anhcx0209/ontodia-search/query/template"
)

// Concepts lists instances of conceptClass with their classes and labels.
func Concepts(s dialect.Settings, conceptClass string) (string, error) {
	class, err := IRI(conceptClass)
	if err != nil {
		return "", err
	}
	return assemble(s, fmt.Sprintf(`
SELECT ?inst ?class ?label
WHERE {
    ?inst a %s .
    OPTIONAL { ?inst a ?class . }
    OPTIONAL { ?inst %s ?label . }
}
`, class, s.DataLabelProperty))
}

// ClassTree returns the dialect's class hierarchy query.
func ClassTree(s dialect.Settings) (string, error) {
	body, err := template.Resolve(s.ClassTreeQuery)
	if err != nil {
		return "", err
	}
	return assemble(s, body)
}

// ClassInfo fetches labels for the given classes. Instance counts are not
// computed here, so ?instcount is bound empty.
func ClassInfo(s dialect.Settings, classIDs []string) (string, error) {
	return schemaInfo(s, "class", classIDs, true)
}

// PropertyInfo fetches labels for the given datatype properties.
func PropertyInfo(s dialect.Settings, propertyIDs []string) (string, error) {
	return schemaInfo(s, "prop", propertyIDs, false)
}

// LinkTypesInfo fetches labels for the given link types.
func LinkTypesInfo(s dialect.Settings, linkTypeIDs []string) (string, error) {
	return schemaInfo(s, "link", linkTypeIDs, true)
}

func schemaInfo(s dialect.Settings, variable string, ids []string, withCount bool) (string, error) {
	values, err := Values(ids)
	if err != nil {
		return "", err
	}
	count, bind := "", ""
	if withCount {
		count = " ?instcount"
		bind = "\n    BIND(\"\" as ?instcount)"
	}
	return assemble(s, fmt.Sprintf(`
SELECT ?%[1]s ?label%[2]s
WHERE {
    VALUES (?%[1]s) {%[3]s}
    OPTIONAL { ?%[1]s %[4]s ?label . }%[5]s
}
`, variable, count, values, s.SchemaLabelProperty, bind))
}

// LinkTypes lists the link types matched by the dialect's link types pattern.
func LinkTypes(s dialect.Settings) (string, error) {
	pattern, err := template.Resolve(s.LinkTypesPattern)
	if err != nil {
		return "", err
	}
	return assemble(s, fmt.Sprintf(`
SELECT ?link ?instcount ?label
WHERE {
%s
    OPTIONAL { ?link %s ?label . }
}
`, indent(pattern, "    "), s.SchemaLabelProperty))
}

// ElementInfo fetches classes, labels and literal properties of elements.
func ElementInfo(s dialect.Settings, elementIDs []string) (string, error) {
	values, err := Values(elementIDs)
	if err != nil {
		return "", err
	}
	body, err := template.Resolve(s.ElementInfoQuery,
		template.Bind(dialect.PlaceholderIDs, values),
		template.Bind(dialect.PlaceholderDataLabelProperty, s.DataLabelProperty),
	)
	if err != nil {
		return "", err
	}
	return assemble(s, body)
}

// ElementImages fetches ?image for elements through the given image
// properties, using the dialect's image pattern.
func ElementImages(s dialect.Settings, elementIDs, imageProperties []string) (string, error) {
	ids, err := Values(elementIDs)
	if err != nil {
		return "", err
	}
	props, err := Values(imageProperties)
	if err != nil {
		return "", err
	}
	pattern, err := template.Resolve(s.ImageQueryPattern)
	if err != nil {
		return "", err
	}
	return assemble(s, fmt.Sprintf(`
SELECT ?inst ?linkType ?image
WHERE {{
    VALUES (?inst) {%s}
    VALUES (?linkType) {%s}
%s
}}
`, ids, props, indent(pattern, "    ")))
}

// LinksInfo fetches the links among a set of elements. A non-empty
// linkTypeIDs restricts the result to those link types.
func LinksInfo(s dialect.Settings, elementIDs, linkTypeIDs []string) (string, error) {
	ids, err := Values(elementIDs)
	if err != nil {
		return "", err
	}
	typeFilter := ""
	if len(linkTypeIDs) > 0 {
		types, err := Values(linkTypeIDs)
		if err != nil {
			return "", err
		}
		typeFilter = fmt.Sprintf("\n    VALUES (?type) {%s}", types)
	}
	return assemble(s, fmt.Sprintf(`
SELECT ?source ?type ?target
WHERE {
    ?source ?type ?target .
    VALUES (?source) {%[1]s}
    VALUES (?target) {%[1]s}%[2]s
}
`, ids, typeFilter))
}

// LinkTypesOf counts incoming and outgoing links of one element per link type.
func LinkTypesOf(s dialect.Settings, elementID string) (string, error) {
	iri, err := IRI(elementID)
	if err != nil {
		return "", err
	}
	body, err := template.Resolve(s.LinkTypesOfQuery, template.Bind(dialect.PlaceholderElementIRI, iri))
	if err != nil {
		return "", err
	}
	return assemble(s, body)
}

// ElementTriples builds a CONSTRUCT query returning every statement whose
// subject is one of the elements.
func ElementTriples(s dialect.Settings, elementIDs []string) (string, error) {
	ids, err := Values(elementIDs)
	if err != nil {
		return "", err
	}
	return assemble(s, fmt.Sprintf(`
CONSTRUCT { ?inst ?p ?o }
WHERE {
    VALUES (?inst) {%s}
    ?inst ?p ?o .
}
`, ids))
}

// assemble prefixes body with the dialect's default prefix block.
func assemble(s dialect.Settings, body string, extraPrefixes ...string) (string, error) {
	var b strings.Builder
	prefix, err := template.Resolve(s.DefaultPrefix)
	if err != nil {
		return "", err
	}
	b.WriteString(prefix)
	for _, p := range extraPrefixes {
		if p == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		b.WriteString(p)
	}
	b.WriteString(body)
	return b.String(), nil
}

// indent prefixes every non-blank line of text, dropping blank lines at
// either end.
func indent(text, prefix string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
