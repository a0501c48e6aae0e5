package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/model"
)

const (
	typeIRI = "http://ex/Person"
	refIRI  = "http://ex/alice"
	linkIRI = "http://ex/knows"
)

func TestFilter_TextOnly(t *testing.T) {
	s := preset(t, "owl-stats")

	q, err := Filter(s, model.FilterRequest{Text: "smith", Limit: 100})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(q, `FILTER regex(COALESCE(str(?search1), str(?extractedLabel)), "smith", "i")`))
	assert.NotContains(t, q, "<"+typeIRI+">")
	assert.NotContains(t, q, "?inst rdf:type <")
	assert.NotContains(t, q, "UNION")
	assert.NotContains(t, q, "?link")
	assert.Contains(t, q, "?extractedLabel)")
	requireResolved(t, q)
}

func TestFilter_RefOnlyBothDirections(t *testing.T) {
	s := preset(t, "owl-stats")

	q, err := Filter(s, model.FilterRequest{RefElementID: refIRI})
	require.NoError(t, err)

	assert.Contains(t, q, "{ <http://ex/alice> ?link ?inst . FILTER ISIRI(?inst) }")
	assert.Contains(t, q, "{ ?inst ?link <http://ex/alice> . FILTER ISIRI(?inst) }")
	assert.Equal(t, 1, strings.Count(q, "UNION"))
	assert.NotContains(t, q, "regex(")
}

func TestFilter_RefWithLinkAndDirection(t *testing.T) {
	s := preset(t, "owl-rdfs")

	tests := []struct {
		direction model.LinkDirection
		want      []string
		absent    []string
	}{
		{
			direction: model.DirectionOut,
			want:      []string{"{ <http://ex/alice> <http://ex/knows> ?inst . FILTER ISIRI(?inst) }"},
			absent:    []string{"UNION", "?inst <http://ex/knows>"},
		},
		{
			direction: model.DirectionIn,
			want:      []string{"{ ?inst <http://ex/knows> <http://ex/alice> . FILTER ISIRI(?inst) }"},
			absent:    []string{"UNION", "<http://ex/alice> <http://ex/knows>"},
		},
		{
			direction: model.DirectionAny,
			want: []string{
				"{ <http://ex/alice> <http://ex/knows> ?inst . FILTER ISIRI(?inst) }\n",
				"UNION",
				"{ ?inst <http://ex/knows> <http://ex/alice> . FILTER ISIRI(?inst) }",
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			q, err := Filter(s, model.FilterRequest{RefElementID: refIRI, RefElementLinkID: linkIRI, Direction: tt.direction})
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, q, w)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, q, a)
			}
			assert.NotContains(t, q, "?link")
		})
	}
}

func TestFilter_RefLinkRestrictionFromDialect(t *testing.T) {
	s := preset(t, "wikidata")

	q, err := Filter(s, model.FilterRequest{RefElementID: refIRI})
	require.NoError(t, err)
	assert.Contains(t, q, `FILTER regex(STR(?link), "direct")`)

	q, err = Filter(s, model.FilterRequest{RefElementID: refIRI, RefElementLinkID: linkIRI})
	require.NoError(t, err)
	assert.NotContains(t, q, `FILTER regex(STR(?link), "direct")`)
}

func TestFilter_TypeClause(t *testing.T) {
	q, err := Filter(preset(t, "owl-rdfs"), model.FilterRequest{ElementTypeID: typeIRI})
	require.NoError(t, err)

	assert.Contains(t, q, "?inst rdf:type <http://ex/Person> .")
	assert.NotContains(t, q, "regex(")
	assert.NotContains(t, q, "UNION")
}

func TestFilter_RefLinkWithoutElement(t *testing.T) {
	for _, s := range allDialects(t) {
		_, err := Filter(s, model.FilterRequest{RefElementLinkID: linkIRI})
		require.Error(t, err)
		assert.True(t, errors.IsComposition(err))
		assert.ErrorIs(t, err, errors.ErrRefLinkWithoutElement)

		_, err = FilterExtended(s, s, model.FilterRequest{RefElementLinkID: linkIRI})
		assert.ErrorIs(t, err, errors.ErrRefLinkWithoutElement)
	}
}

func TestFilter_Paging(t *testing.T) {
	s := preset(t, "owl-rdfs")

	q, err := Filter(s, model.FilterRequest{Text: "a", Limit: 0, Offset: 200})
	require.NoError(t, err)
	assert.Contains(t, q, "ORDER BY DESC(?score) LIMIT 100 OFFSET 200")

	q, err = Filter(s, model.FilterRequest{Text: "a", Limit: 25})
	require.NoError(t, err)
	assert.Contains(t, q, "LIMIT 25 OFFSET 0")

	_, err = Filter(s, model.FilterRequest{Text: "a", Limit: -1})
	assert.ErrorIs(t, err, errors.ErrInvalidPaging)
	_, err = Filter(s, model.FilterRequest{Text: "a", Offset: -5})
	assert.ErrorIs(t, err, errors.ErrInvalidPaging)
}

func TestFilter_Shape(t *testing.T) {
	s := preset(t, "wikidata")

	q, err := Filter(s, model.FilterRequest{Text: "tree", Limit: 10})
	require.NoError(t, err)

	prefixEnd := strings.Index(q, "PREFIX bds:")
	require.Positive(t, prefixEnd)
	assert.True(t, strings.HasPrefix(q, s.DefaultPrefix))

	sel := strings.Index(q, "SELECT ?inst ?class ?label ?score")
	inner := strings.Index(q, "SELECT DISTINCT ?inst ?score WHERE {")
	limit := strings.Index(q, "} ORDER BY DESC(?score) LIMIT 10 OFFSET 0")
	info := strings.Index(q, "OPTIONAL {?inst wdt:P31 ?foundClass}")
	outer := strings.LastIndex(q, "} ORDER BY DESC(?score)")

	assert.True(t, prefixEnd < sel && sel < inner && inner < limit && limit < info && info < outer, q)
	assert.Contains(t, q, `bds:search "tree*"`)
	assert.Contains(t, q, "BIND(STR(?inst) as ?strInst)")
	assert.NotContains(t, q, "?extractedLabel")
}

func TestFilter_EscapesText(t *testing.T) {
	q, err := Filter(preset(t, "owl-rdfs"), model.FilterRequest{Text: `a "quoted" ${ids}`})
	require.NoError(t, err)

	assert.Contains(t, q, `"a \"quoted\" ${ids}"`)
}

func TestFilter_IgnoresSearchMode(t *testing.T) {
	s := preset(t, "stardog")
	q, err := Filter(s, model.FilterRequest{Text: "x", SearchMode: model.SearchFuzzy})
	require.NoError(t, err)
	assert.NotContains(t, q, `"x~"`)
	assert.Contains(t, q, `stardog:property:textMatch "x"`)
}

func TestFilterExtended_SearchModes(t *testing.T) {
	base := preset(t, "owl-stats")
	stardog := preset(t, "stardog")

	tests := []struct {
		mode model.SearchMode
		want string
	}{
		{model.SearchExact, `FILTER (COALESCE(str(?search1), str(?extractedLabel)) = "x")`},
		{model.SearchContains, `FILTER regex(COALESCE(str(?search1), str(?extractedLabel)), "x", "i")`},
		{model.SearchFuzzy, `stardog:property:textMatch "x~"`},
		{model.SearchBoolean, `stardog:property:textMatch "x".`},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			q, err := FilterExtended(base, stardog, model.FilterRequest{
				Text: "x", SearchMode: tt.mode, ElementTypeID: typeIRI,
			})
			require.NoError(t, err)

			assert.Contains(t, q, tt.want)
			assert.Contains(t, q, "PREFIX stardog: <tag:stardog:api:>")
			assert.Contains(t, q, "?inst rdf:type <http://ex/Person> .")
			requireResolved(t, q)
		})
	}
}

// Modes the search dialect does not define use the generic clause of the
// base dialect. This mirrors the long-standing fallback and is kept on
// purpose; change this test together with any change to that rule.
func TestFilterExtended_UnknownModeFallsBackToGenericClause(t *testing.T) {
	base := preset(t, "owl-stats")
	generic := `FILTER regex(COALESCE(str(?search1), str(?extractedLabel)), "x", "i")`

	for _, mode := range []model.SearchMode{"phonetic", model.SearchDefault} {
		q, err := FilterExtended(base, preset(t, "stardog"), model.FilterRequest{Text: "x", SearchMode: mode})
		require.NoError(t, err)
		assert.Contains(t, q, generic, "mode %q", mode)
		assert.NotContains(t, q, "textMatch")
	}

	q, err := FilterExtended(base, base, model.FilterRequest{Text: "x", SearchMode: model.SearchFuzzy})
	require.NoError(t, err)
	assert.Contains(t, q, generic)
}

func TestFilter_InvalidDirection(t *testing.T) {
	_, err := Filter(preset(t, "owl-rdfs"), model.FilterRequest{RefElementID: refIRI, Direction: "sideways"})
	assert.True(t, errors.IsComposition(err))
}
