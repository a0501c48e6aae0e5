// Package ontodiasearch is the root of a SPARQL data provider for ontology
// diagrams. It answers the questions a diagram asks about a triplestore:
// the class hierarchy, link types, element details, links between elements
// and paged element search.
//
// # Layers
//
// Each provider operation flows through the same pipeline:
//
//	dialect    resolves the named template bundle for one triplestore flavour
//	query      fills the templates into a complete SPARQL query
//	transport  sends it over HTTP GET or POST and returns the body
//	normalize  turns SPARQL JSON bindings or Turtle into canonical records
//	provider   merges the records and adds element images
//
// The search package keeps the state of a search box on top of a provider:
// stale responses are dropped and further pages are appended in order.
//
// # Binaries
//
// cmd/ontodia-search runs single operations from the command line and, with
// serve, exposes them as the JSON API in the gateway package together with
// prometheus metrics and an endpoint health probe.
//
// # Errors
//
// Every failure is classified by the errors package: composition errors
// never reach the endpoint, transport and protocol errors come from the
// round trip and parse errors from an unreadable response.
package ontodiasearch
