package query

import (
	"fmt"
	"strings"

	"github.com/anhcx0209/ontodia-search/dialect"
	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/model"
	"github.com/anhcx0209/ontodia-search/query/template"
)

// extractLabelBlock binds ?extractedLabel to the tail of the ?inst IRI:
// the fragment, else the last of up to three path segments after the host.
const extractLabelBlock = `BIND ( str( ?inst ) as ?uriStr)
BIND ( strafter(?uriStr, "#") as ?label3)
BIND ( strafter(strafter(?uriStr, "//"), "/") as ?label6)
BIND ( strafter(?label6, "/") as ?label5)
BIND ( strafter(?label5, "/") as ?label4)
BIND (if (?label3 != "", ?label3,
    if (?label4 != "", ?label4,
    if (?label5 != "", ?label5, ?label6))) as ?extractedLabel)`

// Filter composes a filtered, paginated element search using the dialect's
// generic full-text clause. The request's SearchMode is ignored.
func Filter(s dialect.Settings, req model.FilterRequest) (string, error) {
	req.SearchMode = model.SearchDefault
	return filter(s, s, req)
}

// FilterExtended composes the same search as Filter, taking the full-text
// clause for req.SearchMode from search. A mode that search does not define
// falls back to the generic clause of s.
func FilterExtended(s, search dialect.Settings, req model.FilterRequest) (string, error) {
	return filter(s, search, req)
}

// CheckFilter validates a request without composing it.
func CheckFilter(req model.FilterRequest) error {
	if req.RefElementLinkID != "" && req.RefElementID == "" {
		return errors.NewComposition("filter", errors.ErrRefLinkWithoutElement, "link type %q", req.RefElementLinkID)
	}
	if req.Limit < 0 || req.Offset < 0 {
		return errors.NewComposition("filter", errors.ErrInvalidPaging, "limit %d, offset %d", req.Limit, req.Offset)
	}
	if !req.Direction.Valid() {
		return errors.NewComposition("filter", errors.ErrInvalidData, "unknown link direction %q", req.Direction)
	}
	return nil
}

func filter(s, search dialect.Settings, req model.FilterRequest) (string, error) {
	if err := CheckFilter(req); err != nil {
		return "", err
	}

	var parts []string

	if req.ElementTypeID != "" {
		typeIRI, err := IRI(req.ElementTypeID)
		if err != nil {
			return "", err
		}
		part, err := template.Resolve(s.FilterTypePattern, template.Bind(dialect.PlaceholderElementTypeIRI, typeIRI))
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	if req.RefElementID != "" {
		part, err := refClause(s, req)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	extract := s.FullTextSearch.ExtractLabel
	if req.Text != "" {
		pattern := s.FullTextSearch.QueryPattern
		if modePattern, ok := search.SearchPattern(req.SearchMode); ok {
			pattern = modePattern
			extract = extract || search.FullTextSearch.ExtractLabel
		}
		part, err := template.Resolve(pattern,
			template.Bind(dialect.PlaceholderText, EscapeLiteral(req.Text)),
			template.Bind(dialect.PlaceholderDataLabelProperty, s.DataLabelProperty),
		)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	restriction, err := template.Resolve(s.FilterAdditionalRestriction)
	if err != nil {
		return "", err
	}
	parts = append(parts, restriction)

	if extract {
		parts = append(parts, extractLabelBlock)
	}

	elementInfo, err := template.Resolve(s.FilterElementInfoPattern,
		template.Bind(dialect.PlaceholderDataLabelProperty, s.DataLabelProperty))
	if err != nil {
		return "", err
	}

	var inner []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			inner = append(inner, indent(p, "            "))
		}
	}

	body := fmt.Sprintf(`
SELECT ?inst ?class ?label ?score
WHERE {
    {
        SELECT DISTINCT ?inst ?score WHERE {
%s
        } ORDER BY DESC(?score) LIMIT %d OFFSET %d
    }
%s
} ORDER BY DESC(?score)
`, strings.Join(inner, "\n"), req.PageSize(), req.Offset, indent(elementInfo, "    "))

	prefixes := []string{s.FullTextSearch.Prefix}
	if search.FullTextSearch.Prefix != s.FullTextSearch.Prefix {
		prefixes = append(prefixes, search.FullTextSearch.Prefix)
	}
	return assemble(s, body, prefixes...)
}

// refClause matches ?inst linked to the reference element, through one link
// type if given, in one direction if given, otherwise both joined by UNION.
func refClause(s dialect.Settings, req model.FilterRequest) (string, error) {
	ref, err := IRI(req.RefElementID)
	if err != nil {
		return "", err
	}
	link := "?link"
	if req.RefElementLinkID != "" {
		if link, err = IRI(req.RefElementLinkID); err != nil {
			return "", err
		}
	}

	out := fmt.Sprintf("{ %s %s ?inst . FILTER ISIRI(?inst) }", ref, link)
	in := fmt.Sprintf("{ ?inst %s %s . FILTER ISIRI(?inst) }", link, ref)

	var clause string
	switch req.Direction {
	case model.DirectionOut:
		clause = out
	case model.DirectionIn:
		clause = in
	default:
		clause = out + "\nUNION\n" + in
	}

	if req.RefElementLinkID == "" {
		restriction, err := template.Resolve(s.FilterRefElementLinkPattern)
		if err != nil {
			return "", err
		}
		if r := strings.TrimSpace(restriction); r != "" {
			clause += "\n" + r
		}
	}
	return clause, nil
}
