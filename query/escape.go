package query

import (
	"strings"

	"github.com/anhcx0209/ontodia-search/errors"
)

// IRI writes iri in angle brackets. Characters that cannot appear in an
// IRIREF are rejected rather than escaped, since an id containing them
// cannot name a resource in the store anyway.
func IRI(iri string) (string, error) {
	if iri == "" {
		return "", errors.NewComposition("iri", errors.ErrInvalidIRI, "empty IRI")
	}
	for _, r := range iri {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return "", errors.NewComposition("iri", errors.ErrInvalidIRI, "%q contains %q", iri, r)
		}
	}
	return "<" + iri + ">", nil
}

// IRIs writes each id with IRI.
func IRIs(ids []string) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		iri, err := IRI(id)
		if err != nil {
			return nil, err
		}
		out[i] = iri
	}
	return out, nil
}

// Values renders the body of a single-variable VALUES block:
// " (<a>) (<b>) ".
func Values(ids []string) (string, error) {
	iris, err := IRIs(ids)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteByte(' ')
	for _, iri := range iris {
		b.WriteString("(")
		b.WriteString(iri)
		b.WriteString(") ")
	}
	return b.String(), nil
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeLiteral escapes text for use between double quotes in a SPARQL
// string literal. Search templates quote ${text} themselves.
func EscapeLiteral(text string) string {
	return literalEscaper.Replace(text)
}
