package model

// DefaultPageSize replaces a zero limit in a FilterRequest.
const DefaultPageSize = 100

// DefaultLanguage is used for display labels when a request names none.
const DefaultLanguage = "en"

// LinkDirection restricts a reference-element filter to one side of the link.
type LinkDirection string

// Link directions. DirectionAny matches both.
const (
	DirectionAny LinkDirection = ""
	DirectionIn  LinkDirection = "in"
	DirectionOut LinkDirection = "out"
)

// Valid reports whether d is one of the known directions.
func (d LinkDirection) Valid() bool {
	return d == DirectionAny || d == DirectionIn || d == DirectionOut
}

// SearchMode selects a dialect-specific full-text clause.
type SearchMode string

// Search modes. A dialect defines clauses for any subset of them; the
// empty mode always means the dialect's generic full-text clause.
const (
	SearchDefault  SearchMode = ""
	SearchExact    SearchMode = "exact"
	SearchContains SearchMode = "contains"
	SearchFuzzy    SearchMode = "fuzzy"
	SearchBoolean  SearchMode = "boolean"
)

// SearchModes lists the named modes in display order.
var SearchModes = []SearchMode{SearchExact, SearchContains, SearchFuzzy, SearchBoolean}

// FilterRequest describes one page of a filtered element search.
type FilterRequest struct {
	ElementTypeID    string        `json:"elementTypeId,omitempty"`
	RefElementID     string        `json:"refElementId,omitempty"`
	RefElementLinkID string        `json:"refElementLinkId,omitempty"`
	Direction        LinkDirection `json:"linkDirection,omitempty"`
	Text             string        `json:"text,omitempty"`
	SearchMode       SearchMode    `json:"searchMode,omitempty"`
	Limit            int           `json:"limit"`
	Offset           int           `json:"offset"`
	LanguageCode     string        `json:"languageCode,omitempty"`
}

// Empty reports whether the request carries no criteria at all.
func (r FilterRequest) Empty() bool {
	return r.Text == "" && r.ElementTypeID == "" && r.RefElementID == "" && r.RefElementLinkID == ""
}

// PageSize returns the effective limit.
func (r FilterRequest) PageSize() int {
	if r.Limit == 0 {
		return DefaultPageSize
	}
	return r.Limit
}

// MoreAvailable reports whether a page of n results suggests another page
// exists: a full page means there may be more.
func (r FilterRequest) MoreAvailable(n int) bool {
	return n >= r.PageSize()
}

// Next returns the request for the following page.
func (r FilterRequest) Next() FilterRequest {
	r.Limit = r.PageSize()
	r.Offset += r.Limit
	return r
}
