package model

import (
	"github.com/anhcx0209/ontodia-search/vocabulary"
)

// LocalizedString is a literal value with an optional language tag.
type LocalizedString struct {
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
}

// PropertyValue is a literal value of an element property.
type PropertyValue struct {
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Element is an instance node: its classes, labels, literal properties and
// an optional image URL.
type Element struct {
	ID         string                     `json:"id"`
	Types      []string                   `json:"types"`
	Labels     []LocalizedString          `json:"label,omitempty"`
	Properties map[string][]PropertyValue `json:"properties,omitempty"`
	Image      string                     `json:"image,omitempty"`
}

// NewElement returns an element with no types, labels or properties.
func NewElement(id string) *Element {
	return &Element{ID: id, Types: []string{}}
}

// AddType records classID once.
func (e *Element) AddType(classID string) {
	for _, t := range e.Types {
		if t == classID {
			return
		}
	}
	e.Types = append(e.Types, classID)
}

// AddLabel records label once.
func (e *Element) AddLabel(label LocalizedString) {
	e.Labels = appendLabel(e.Labels, label)
}

// AddProperty records one literal value of property once.
func (e *Element) AddProperty(property string, value PropertyValue) {
	if e.Properties == nil {
		e.Properties = make(map[string][]PropertyValue)
	}
	for _, v := range e.Properties[property] {
		if v == value {
			return
		}
	}
	e.Properties[property] = append(e.Properties[property], value)
}

// DisplayLabel picks a label for lang: an exact language match, then an
// untagged label, then the first label, and finally the IRI's local name.
func (e *Element) DisplayLabel(lang string) string {
	return pickLabel(e.Labels, lang, e.ID)
}

// ClassNode is one class in the class hierarchy. Count is nil when the
// dialect does not report instance counts.
type ClassNode struct {
	ID       string            `json:"id"`
	Label    []LocalizedString `json:"label,omitempty"`
	ParentID string            `json:"parent,omitempty"`
	Count    *int              `json:"count,omitempty"`
	Children []*ClassNode      `json:"children,omitempty"`
}

// AddLabel records label once.
func (c *ClassNode) AddLabel(label LocalizedString) {
	c.Label = appendLabel(c.Label, label)
}

// DisplayLabel picks a label the same way Element.DisplayLabel does.
func (c *ClassNode) DisplayLabel(lang string) string {
	return pickLabel(c.Label, lang, c.ID)
}

// LinkType describes a link predicate. Count is nil when unknown.
type LinkType struct {
	ID    string            `json:"id"`
	Label []LocalizedString `json:"label,omitempty"`
	Count *int              `json:"count,omitempty"`
}

// AddLabel records label once.
func (l *LinkType) AddLabel(label LocalizedString) {
	l.Label = appendLabel(l.Label, label)
}

// Property describes a datatype property.
type Property struct {
	ID    string            `json:"id"`
	Label []LocalizedString `json:"label,omitempty"`
}

// AddLabel records label once.
func (p *Property) AddLabel(label LocalizedString) {
	p.Label = appendLabel(p.Label, label)
}

// Link is one link instance between two elements.
type Link struct {
	SourceID string `json:"sourceId"`
	TypeID   string `json:"linkTypeId"`
	TargetID string `json:"targetId"`
}

// LinkCount holds per-type link statistics for one element.
type LinkCount struct {
	ID       string `json:"id"`
	OutCount int    `json:"outCount"`
	InCount  int    `json:"inCount"`
}

// NodeType tags an RDF term.
type NodeType string

// RDF term kinds produced by the Turtle path.
const (
	NodeIRI     NodeType = "uri"
	NodeLiteral NodeType = "literal"
)

// RDFNode is one term of a triple.
type RDFNode struct {
	Type  NodeType `json:"type"`
	Value string   `json:"value"`
	Lang  string   `json:"xml:lang,omitempty"`
}

// IRI returns an IRI node.
func IRI(value string) RDFNode { return RDFNode{Type: NodeIRI, Value: value} }

// Literal returns a literal node.
func Literal(value, lang string) RDFNode {
	return RDFNode{Type: NodeLiteral, Value: value, Lang: lang}
}

// Triple is one statement from a Turtle response.
type Triple struct {
	Subject   RDFNode `json:"subject"`
	Predicate RDFNode `json:"predicate"`
	Object    RDFNode `json:"object"`
}

func appendLabel(labels []LocalizedString, label LocalizedString) []LocalizedString {
	for _, l := range labels {
		if l == label {
			return labels
		}
	}
	return append(labels, label)
}

func pickLabel(labels []LocalizedString, lang, id string) string {
	if len(labels) == 0 {
		return vocabulary.LocalName(id)
	}
	for _, l := range labels {
		if l.Lang == lang {
			return l.Text
		}
	}
	for _, l := range labels {
		if l.Lang == "" {
			return l.Text
		}
	}
	return labels[0].Text
}
