// Package dialect holds the query templates that adapt the provider to one
// triple store or ontology convention.
//
// A dialect is a Settings value. Dialects are data: the built-in presets
// are embedded YAML documents, and further dialects can be loaded from
// files in the same format. A document either spells out every template or
// names a base dialect with "extends" and overrides only what differs.
// Composition and validation both happen when a dialect is registered, so
// a broken override is reported before any query is built.
package dialect

import (
	"github.com/anhcx0209/ontodia-search/model"
)

// FullTextSearch configures the generic full-text clause of a dialect.
type FullTextSearch struct {
	// Prefix is added to filter queries after the dialect's default prefix.
	Prefix string `yaml:"prefix" json:"prefix"`
	// QueryPattern binds ?inst and ?score for ${text}.
	QueryPattern string `yaml:"query_pattern" json:"queryPattern"`
	// ExtractLabel derives ?extractedLabel from the IRI of ?inst so that
	// datasets without labels can still be searched.
	ExtractLabel bool `yaml:"extract_label" json:"extractLabel"`
}

// Settings is a resolved dialect. Every field is defined once a Settings
// value leaves Compose.
type Settings struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	DefaultPrefix       string `yaml:"default_prefix" json:"defaultPrefix"`
	SchemaLabelProperty string `yaml:"schema_label_property" json:"schemaLabelProperty"`
	DataLabelProperty   string `yaml:"data_label_property" json:"dataLabelProperty"`

	FullTextSearch FullTextSearch `yaml:"full_text_search" json:"fullTextSearch"`

	ClassTreeQuery   string `yaml:"class_tree_query" json:"classTreeQuery"`
	LinkTypesPattern string `yaml:"link_types_pattern" json:"linkTypesPattern"`
	ElementInfoQuery string `yaml:"element_info_query" json:"elementInfoQuery"`
	// ImageQueryPattern binds ?image for ?inst and the image property ?linkType.
	ImageQueryPattern string `yaml:"image_query_pattern" json:"imageQueryPattern"`
	LinkTypesOfQuery  string `yaml:"link_types_of_query" json:"linkTypesOfQuery"`

	// FilterRefElementLinkPattern restricts ?link when a reference element
	// is given without a link type.
	FilterRefElementLinkPattern string `yaml:"filter_ref_element_link_pattern" json:"filterRefElementLinkPattern"`
	FilterTypePattern           string `yaml:"filter_type_pattern" json:"filterTypePattern"`
	FilterElementInfoPattern    string `yaml:"filter_element_info_pattern" json:"filterElementInfoPattern"`
	FilterAdditionalRestriction string `yaml:"filter_additional_restriction" json:"filterAdditionalRestriction"`

	// SearchModes holds the clause for each named search mode the dialect
	// supports. A mode missing here falls back to FullTextSearch.
	SearchModes map[model.SearchMode]string `yaml:"search_modes,omitempty" json:"searchModes,omitempty"`
}

// SearchPattern returns the clause for mode, if the dialect defines one.
func (s Settings) SearchPattern(mode model.SearchMode) (string, bool) {
	if mode == model.SearchDefault {
		return "", false
	}
	p, ok := s.SearchModes[mode]
	return p, ok && p != ""
}

// Modes returns the named search modes the dialect defines, in display order.
func (s Settings) Modes() []model.SearchMode {
	var modes []model.SearchMode
	for _, m := range model.SearchModes {
		if _, ok := s.SearchPattern(m); ok {
			modes = append(modes, m)
		}
	}
	return modes
}

// FullTextSearchOverrides replaces individual full-text fields.
type FullTextSearchOverrides struct {
	Prefix       *string `yaml:"prefix"`
	QueryPattern *string `yaml:"query_pattern"`
	ExtractLabel *bool   `yaml:"extract_label"`
}

// Overrides names the fields a derived dialect replaces. Nil fields are
// inherited from the base. SearchModes entries replace the base entry for
// the same mode; an empty string removes it.
type Overrides struct {
	Description *string `yaml:"description"`

	DefaultPrefix       *string `yaml:"default_prefix"`
	SchemaLabelProperty *string `yaml:"schema_label_property"`
	DataLabelProperty   *string `yaml:"data_label_property"`

	FullTextSearch *FullTextSearchOverrides `yaml:"full_text_search"`

	ClassTreeQuery    *string `yaml:"class_tree_query"`
	LinkTypesPattern  *string `yaml:"link_types_pattern"`
	ElementInfoQuery  *string `yaml:"element_info_query"`
	ImageQueryPattern *string `yaml:"image_query_pattern"`
	LinkTypesOfQuery  *string `yaml:"link_types_of_query"`

	FilterRefElementLinkPattern *string `yaml:"filter_ref_element_link_pattern"`
	FilterTypePattern           *string `yaml:"filter_type_pattern"`
	FilterElementInfoPattern    *string `yaml:"filter_element_info_pattern"`
	FilterAdditionalRestriction *string `yaml:"filter_additional_restriction"`

	SearchModes map[model.SearchMode]string `yaml:"search_modes"`
}

// Compose returns base with the fields named in o replaced. It never fails;
// call Validate on the result.
func Compose(base Settings, o Overrides) Settings {
	out := base
	out.SearchModes = make(map[model.SearchMode]string, len(base.SearchModes)+len(o.SearchModes))
	for k, v := range base.SearchModes {
		out.SearchModes[k] = v
	}

	set(&out.Description, o.Description)
	set(&out.DefaultPrefix, o.DefaultPrefix)
	set(&out.SchemaLabelProperty, o.SchemaLabelProperty)
	set(&out.DataLabelProperty, o.DataLabelProperty)
	set(&out.ClassTreeQuery, o.ClassTreeQuery)
	set(&out.LinkTypesPattern, o.LinkTypesPattern)
	set(&out.ElementInfoQuery, o.ElementInfoQuery)
	set(&out.ImageQueryPattern, o.ImageQueryPattern)
	set(&out.LinkTypesOfQuery, o.LinkTypesOfQuery)
	set(&out.FilterRefElementLinkPattern, o.FilterRefElementLinkPattern)
	set(&out.FilterTypePattern, o.FilterTypePattern)
	set(&out.FilterElementInfoPattern, o.FilterElementInfoPattern)
	set(&out.FilterAdditionalRestriction, o.FilterAdditionalRestriction)

	if fts := o.FullTextSearch; fts != nil {
		set(&out.FullTextSearch.Prefix, fts.Prefix)
		set(&out.FullTextSearch.QueryPattern, fts.QueryPattern)
		set(&out.FullTextSearch.ExtractLabel, fts.ExtractLabel)
	}

	for mode, pattern := range o.SearchModes {
		if pattern == "" {
			delete(out.SearchModes, mode)
			continue
		}
		out.SearchModes[mode] = pattern
	}
	if len(out.SearchModes) == 0 {
		out.SearchModes = nil
	}
	return out
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
