// Package normalize turns endpoint responses into canonical records.
//
// There are two decode paths, chosen by the operation and never by sniffing
// the payload: SPARQL JSON result bindings (DecodeBindings and the record
// builders in this package) and Turtle documents (DecodeTurtle).
//
// Builders fold repeated rows into one record per subject. Output keeps the
// order in which subjects first appear, and a variable that is not bound in
// a row leaves the corresponding field unset.
package normalize

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/model"
)

// FormatBindings names the SPARQL JSON results format in ParseErrors.
const FormatBindings = "sparql-json"

// Term types in SPARQL JSON results.
const (
	TermURI          = "uri"
	TermLiteral      = "literal"
	TermTypedLiteral = "typed-literal"
	TermBlank        = "bnode"
)

// Term is one bound value in a result row.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Binding is one result row keyed by variable name.
type Binding map[string]Term

// Get returns the term bound to name. Unbound variables report false.
func (b Binding) Get(name string) (Term, bool) {
	t, ok := b[name]
	return t, ok
}

// Value returns the lexical value bound to name, or "".
func (b Binding) Value(name string) string {
	return b[name].Value
}

// Response is a decoded SPARQL JSON results document.
type Response struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Rows returns the result rows; a nil Response has none.
func (r *Response) Rows() []Binding {
	if r == nil {
		return nil
	}
	return r.Results.Bindings
}

// DecodeBindings reads a SPARQL JSON results document. A TransportError
// from r is returned as is; other failures are ParseErrors.
func DecodeBindings(r io.Reader) (*Response, error) {
	var resp Response
	src := &readTracker{r: r}
	dec := json.NewDecoder(src)
	if err := dec.Decode(&resp); err != nil {
		return nil, src.failure(FormatBindings, err)
	}
	for i, row := range resp.Results.Bindings {
		for name, t := range row {
			if !validTermType(t.Type) {
				return nil, &errors.ParseError{
					Format: FormatBindings,
					Err:    fmt.Errorf("row %d: variable %s has unknown term type %q", i, name, t.Type),
				}
			}
		}
	}
	return &resp, nil
}

func validTermType(t string) bool {
	switch t {
	case TermURI, TermLiteral, TermTypedLiteral, TermBlank:
		return true
	}
	return false
}

func localized(t Term) model.LocalizedString {
	return model.LocalizedString{Text: t.Value, Lang: t.Lang}
}

// count parses an instance count. Empty or non-numeric values are unknown.
func count(t Term, ok bool) *int {
	if !ok {
		return nil
	}
	v := strings.TrimSpace(t.Value)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return nil
		}
		n = int(f)
	}
	return &n
}

func integer(t Term) int {
	n, err := strconv.Atoi(strings.TrimSpace(t.Value))
	if err != nil {
		return 0
	}
	return n
}

// readTracker keeps the first non-EOF error of the underlying reader, so a
// failed read is reported even when a decoder hides it behind a syntax
// error or an early end of input. The Turtle lexer reads from its own
// goroutine.
type readTracker struct {
	r io.Reader

	mu  sync.Mutex
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.mu.Lock()
		if t.err == nil {
			t.err = err
		}
		t.mu.Unlock()
	}
	return n, err
}

// readErr returns the first read failure, if any.
func (t *readTracker) readErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// failure classifies a decode error. A read failure takes precedence over
// err, and a TransportError passes through unwrapped.
func (t *readTracker) failure(format string, err error) error {
	if rerr := t.readErr(); rerr != nil {
		err = rerr
	}
	if errors.IsTransport(err) {
		return err
	}
	return &errors.ParseError{Format: format, Err: err}
}
