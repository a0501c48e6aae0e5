package dialect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/model"
)

func TestBuiltinPresets(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"dbpedia", "owl-rdfs", "owl-stats", "stardog", "wikidata"}, r.Names())

	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			s, err := r.Resolve(name)
			require.NoError(t, err)
			assert.Equal(t, name, s.Name)
			assert.NoError(t, Validate(s))
		})
	}
}

func TestPresetInheritance(t *testing.T) {
	base, err := Preset("owl-rdfs")
	require.NoError(t, err)
	stats, err := Preset("owl-stats")
	require.NoError(t, err)
	stardog, err := Preset("stardog")
	require.NoError(t, err)
	dbpedia, err := Preset("dbpedia")
	require.NoError(t, err)

	assert.NotEqual(t, base.ClassTreeQuery, stats.ClassTreeQuery)
	assert.Contains(t, stats.ClassTreeQuery, "?instcount")
	assert.Equal(t, base.ElementInfoQuery, stats.ElementInfoQuery)
	assert.Equal(t, base.FullTextSearch, stats.FullTextSearch)

	assert.Equal(t, "PREFIX stardog: <tag:stardog:api:>\n", stardog.FullTextSearch.Prefix)
	assert.True(t, stardog.FullTextSearch.ExtractLabel)
	assert.Equal(t, base.FilterTypePattern, stardog.FilterTypePattern)
	assert.Equal(t, []model.SearchMode{model.SearchExact, model.SearchContains, model.SearchFuzzy, model.SearchBoolean}, stardog.Modes())
	fuzzy, ok := stardog.SearchPattern(model.SearchFuzzy)
	require.True(t, ok)
	assert.Contains(t, fuzzy, `"${text}~"`)

	assert.False(t, dbpedia.FullTextSearch.ExtractLabel)
	assert.Contains(t, dbpedia.FullTextSearch.QueryPattern, "bif:contains")
	assert.Equal(t, base.LinkTypesOfQuery, dbpedia.LinkTypesOfQuery)

	assert.Empty(t, base.Modes())
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, DefaultName, s.Name)
	assert.Contains(t, s.ClassTreeQuery, "instcount")
}

func TestCompose_IsTotal(t *testing.T) {
	base := Default()

	same := Compose(base, Overrides{})
	assert.Equal(t, base, same)

	label := "skos:prefLabel"
	extract := false
	derived := Compose(base, Overrides{
		DataLabelProperty: &label,
		FullTextSearch:    &FullTextSearchOverrides{ExtractLabel: &extract},
		SearchModes:       map[model.SearchMode]string{model.SearchExact: `FILTER(?l = "${text}")`},
	})

	assert.Equal(t, "skos:prefLabel", derived.DataLabelProperty)
	assert.False(t, derived.FullTextSearch.ExtractLabel)
	assert.Equal(t, base.FullTextSearch.QueryPattern, derived.FullTextSearch.QueryPattern)
	assert.Equal(t, base.ClassTreeQuery, derived.ClassTreeQuery)
	assert.Len(t, derived.SearchModes, 1)

	// base is untouched
	assert.Equal(t, "rdfs:label", base.DataLabelProperty)
	assert.Empty(t, base.SearchModes)
}

func TestCompose_RemovesSearchMode(t *testing.T) {
	stardog, err := Preset("stardog")
	require.NoError(t, err)

	derived := Compose(stardog, Overrides{SearchModes: map[model.SearchMode]string{model.SearchFuzzy: ""}})

	_, ok := derived.SearchPattern(model.SearchFuzzy)
	assert.False(t, ok)
	assert.Len(t, stardog.SearchModes, 4)
}

func TestValidate(t *testing.T) {
	good := Default()

	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"empty name", func(s *Settings) { s.Name = "" }, "name is empty"},
		{"missing class tree", func(s *Settings) { s.ClassTreeQuery = "  " }, "class_tree_query is empty"},
		{"stray placeholder", func(s *Settings) { s.ClassTreeQuery += " ${graph}" }, "class_tree_query: placeholder ${graph} is never supplied"},
		{"ids missing", func(s *Settings) { s.ElementInfoQuery = "SELECT * WHERE {}" }, "element_info_query: missing placeholder ${ids}"},
		{"text missing", func(s *Settings) { s.FullTextSearch.QueryPattern = "BIND(0 as ?score)" }, "missing placeholder ${text}"},
		{"unknown mode", func(s *Settings) {
			s.SearchModes = map[model.SearchMode]string{"phonetic": `"${text}"`}
		}, `unknown mode "phonetic"`},
		{"mode with wrong placeholder", func(s *Settings) {
			s.SearchModes = map[model.SearchMode]string{model.SearchFuzzy: `"${text}" ${ids}`}
		}, "search_modes.fuzzy: placeholder ${ids}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compose(good, Overrides{})
			tt.mutate(&s)

			err := Validate(s)
			require.Error(t, err)
			assert.True(t, errors.IsComposition(err))
			assert.ErrorIs(t, err, errors.ErrInvalidDialect)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_Define(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	prefix := "PREFIX ex: <http://example.org/>\n"
	s, err := r.Define("example", "owl-stats", Overrides{DefaultPrefix: &prefix})
	require.NoError(t, err)
	assert.Equal(t, "example", s.Name)

	got, err := r.Resolve("example")
	require.NoError(t, err)
	assert.Equal(t, prefix, got.DefaultPrefix)

	broken := "SELECT ${oops}"
	_, err = r.Define("broken", "owl-stats", Overrides{ClassTreeQuery: &broken})
	require.Error(t, err)
	_, err = r.Resolve("broken")
	assert.ErrorIs(t, err, errors.ErrUnknownDialect)

	_, err = r.Define("orphan", "missing", Overrides{})
	assert.ErrorIs(t, err, errors.ErrUnknownDialect)
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	content := `name: local-skos
extends: owl-stats
data_label_property: skos:prefLabel
---
name: local-skos-stardog
extends: local-skos
search_modes:
  exact: |
    FILTER (str(?l) = "${text}")
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	r, err := NewRegistry(WithFiles(file))
	require.NoError(t, err)

	s, err := r.Resolve("local-skos-stardog")
	require.NoError(t, err)
	assert.Equal(t, "skos:prefLabel", s.DataLabelProperty)
	assert.Equal(t, []model.SearchMode{model.SearchExact}, s.Modes())
	assert.Contains(t, r.Names(), "local-skos")
}

func TestRegistry_LoadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown field", "name: x\nextends: owl-rdfs\nclass_tree: foo\n", errors.ErrInvalidDialect},
		{"no name", "extends: owl-rdfs\n", errors.ErrInvalidDialect},
		{"unknown base", "name: x\nextends: nowhere\n", errors.ErrUnknownDialect},
		{"incomplete standalone", "name: x\nclass_tree_query: SELECT\n", errors.ErrInvalidDialect},
		{"cycle", "name: a\nextends: b\n---\nname: b\nextends: a\n", errors.ErrUnknownDialect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry()
			require.NoError(t, err)
			before := r.Names()

			err = r.Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, r.Names())
		})
	}
}

func TestRegistry_WithoutPresets(t *testing.T) {
	r, err := NewRegistry(WithoutPresets())
	require.NoError(t, err)
	assert.Empty(t, r.Names())

	require.NoError(t, r.Register(Default()))
	assert.Equal(t, []string{DefaultName}, r.Names())
}
