// Package vocabulary holds the namespace IRIs the dialect presets and the
// provider rely on, plus small helpers for working with IRIs at the edges:
// expanding and compacting prefixed names, and deriving a display name from
// an IRI when no label is bound.
//
// Prefixes is a small concurrent-safe map from prefix to namespace. It is a
// value, not a process-wide registry; Standard returns a fresh copy seeded
// with the well-known prefixes.
//
//	p := vocabulary.Standard()
//	p.Register("ex", "http://example.org/")
//	iri, _ := p.Expand("ex:Person") // http://example.org/Person
package vocabulary
