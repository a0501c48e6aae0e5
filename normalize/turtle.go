package normalize

import (
	"io"
	"strings"

	"github.com/knakk/rdf"

	"github.com/anhcx0209/ontodia-search/model"
)

// FormatTurtle names the Turtle format in ParseErrors.
const FormatTurtle = "turtle"

// DecodeTurtle reads every triple of a Turtle document in document order.
// The result is returned only once the decoder reports end of input; any
// syntax or read error discards the triples read so far. A TransportError
// from r is returned as is.
func DecodeTurtle(r io.Reader) ([]model.Triple, error) {
	src := &readTracker{r: r}
	dec := rdf.NewTripleDecoder(src, rdf.Turtle)

	var triples []model.Triple
	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			if rerr := src.readErr(); rerr != nil {
				return nil, src.failure(FormatTurtle, rerr)
			}
			break
		}
		if err != nil {
			return nil, src.failure(FormatTurtle, err)
		}
		triples = append(triples, model.Triple{
			Subject:   node(tr.Subj),
			Predicate: node(tr.Pred),
			Object:    node(tr.Obj),
		})
	}
	if triples == nil {
		triples = []model.Triple{}
	}
	return triples, nil
}

// node classifies a term by its surface form: a quoted lexical form is a
// literal, anything else is treated as an IRI. Blank nodes keep their _:
// label so they stay distinct from relative IRIs.
func node(t rdf.Term) model.RDFNode {
	surface := t.Serialize(rdf.NTriples)
	if t.Type() == rdf.TermBlank {
		return model.IRI(surface)
	}
	if !strings.HasPrefix(surface, `"`) {
		return model.IRI(t.String())
	}
	lang := ""
	if lit, ok := t.(rdf.Literal); ok {
		lang = lit.Lang()
	}
	return model.Literal(t.String(), lang)
}
