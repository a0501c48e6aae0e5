// Package model defines the canonical records produced by the data provider.
//
// Every record is a plain value built fresh for one response. Element-keyed
// results use Dict, an insertion-ordered map: subjects keep the order in
// which they first appeared in the response, and a repeated key updates the
// existing entry in place.
package model
