package dialect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/model"
	"github.com/anhcx0209/ontodia-search/query/template"
)

// Placeholder names supplied by the query composer.
const (
	PlaceholderIDs               = "ids"
	PlaceholderDataLabelProperty = "dataLabelProperty"
	PlaceholderElementIRI        = "elementIri"
	PlaceholderElementTypeIRI    = "elementTypeIri"
	PlaceholderText              = "text"
)

type fieldRule struct {
	name      string
	value     func(Settings) string
	required  bool
	allowed   []string
	mandatory []string // must appear in the template
}

var fieldRules = []fieldRule{
	{name: "default_prefix", value: func(s Settings) string { return s.DefaultPrefix }},
	{name: "schema_label_property", value: func(s Settings) string { return s.SchemaLabelProperty }, required: true},
	{name: "data_label_property", value: func(s Settings) string { return s.DataLabelProperty }, required: true},
	{name: "full_text_search.prefix", value: func(s Settings) string { return s.FullTextSearch.Prefix }},
	{
		name:      "full_text_search.query_pattern",
		value:     func(s Settings) string { return s.FullTextSearch.QueryPattern },
		required:  true,
		allowed:   []string{PlaceholderText, PlaceholderDataLabelProperty},
		mandatory: []string{PlaceholderText},
	},
	{name: "class_tree_query", value: func(s Settings) string { return s.ClassTreeQuery }, required: true},
	{name: "link_types_pattern", value: func(s Settings) string { return s.LinkTypesPattern }, required: true},
	{
		name:      "element_info_query",
		value:     func(s Settings) string { return s.ElementInfoQuery },
		required:  true,
		allowed:   []string{PlaceholderIDs, PlaceholderDataLabelProperty},
		mandatory: []string{PlaceholderIDs},
	},
	{name: "image_query_pattern", value: func(s Settings) string { return s.ImageQueryPattern }, required: true},
	{
		name:      "link_types_of_query",
		value:     func(s Settings) string { return s.LinkTypesOfQuery },
		required:  true,
		allowed:   []string{PlaceholderElementIRI},
		mandatory: []string{PlaceholderElementIRI},
	},
	{name: "filter_ref_element_link_pattern", value: func(s Settings) string { return s.FilterRefElementLinkPattern }},
	{
		name:      "filter_type_pattern",
		value:     func(s Settings) string { return s.FilterTypePattern },
		required:  true,
		allowed:   []string{PlaceholderElementTypeIRI},
		mandatory: []string{PlaceholderElementTypeIRI},
	},
	{
		name:     "filter_element_info_pattern",
		value:    func(s Settings) string { return s.FilterElementInfoPattern },
		required: true,
		allowed:  []string{PlaceholderDataLabelProperty},
	},
	{name: "filter_additional_restriction", value: func(s Settings) string { return s.FilterAdditionalRestriction }},
}

// Validate checks that s is complete and that every template uses only the
// placeholders its caller supplies.
func Validate(s Settings) error {
	var problems []string

	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "name is empty")
	}

	for _, rule := range fieldRules {
		problems = append(problems, checkTemplate(rule.name, rule.value(s), rule.required, rule.allowed, rule.mandatory)...)
	}

	modes := make([]string, 0, len(s.SearchModes))
	for mode := range s.SearchModes {
		modes = append(modes, string(mode))
	}
	sort.Strings(modes)
	for _, name := range modes {
		mode := model.SearchMode(name)
		pattern := s.SearchModes[mode]
		if !knownMode(mode) {
			problems = append(problems, fmt.Sprintf("search_modes: unknown mode %q", mode))
			continue
		}
		field := "search_modes." + string(mode)
		problems = append(problems, checkTemplate(field, pattern, true,
			[]string{PlaceholderText, PlaceholderDataLabelProperty}, []string{PlaceholderText})...)
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.NewComposition("dialect "+s.Name, errors.ErrInvalidDialect, "%s", strings.Join(problems, "; "))
}

func checkTemplate(field, value string, required bool, allowed, mandatory []string) []string {
	var problems []string
	if strings.TrimSpace(value) == "" {
		if required {
			problems = append(problems, field+" is empty")
		}
		return problems
	}

	present := template.Placeholders(value)
	for _, name := range present {
		if !contains(allowed, name) {
			problems = append(problems, fmt.Sprintf("%s: placeholder ${%s} is never supplied", field, name))
		}
	}
	for _, name := range mandatory {
		if !contains(present, name) {
			problems = append(problems, fmt.Sprintf("%s: missing placeholder ${%s}", field, name))
		}
	}
	return problems
}

func knownMode(mode model.SearchMode) bool {
	for _, m := range model.SearchModes {
		if m == mode {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
