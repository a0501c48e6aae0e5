// Package gateway exposes a data provider as the JSON API consumed by the
// diagram widget in the browser.
//
// Schema reads are GET routes; every operation taking a list of ids, a
// filter or a page is a POST with a JSON body:
//
//	GET  /api/dialects                  registered dialect names
//	GET  /api/dialects/{name}           one resolved dialect
//	GET  /api/class-tree                class hierarchy roots
//	GET  /api/link-types                all link types
//	GET  /api/schema                    class tree and link types together
//	GET  /api/link-types-of?id=IRI      per-type link counts of one element
//	POST /api/class-info                {"ids": [...]}
//	POST /api/property-info             {"ids": [...]}
//	POST /api/link-types-info           {"ids": [...]}
//	POST /api/element-info              {"ids": [...]}
//	POST /api/links-info                {"elementIds": [...], "linkTypeIds": [...]}
//	POST /api/link-elements             {"elementId": ..., "linkId": ..., "direction": ...}
//	POST /api/filter                    a filter request
//	POST /api/filter-extended           a filter request with searchMode
//	POST /api/triples                   {"ids": [...]}
//	GET  /healthz                       aggregated health, 503 when unhealthy
//	GET  /metrics
//
// Every response carries X-Request-ID, taken from the request or generated.
// Failures are JSON objects with the error kind. Composition errors map to
// 400, protocol and parse errors to 502 and transport errors to 504.
package gateway
