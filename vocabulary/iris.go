package vocabulary

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// LocalName derives a display name from an IRI: the fragment after '#',
// otherwise the last non-empty path segment. IRIs without either separator
// are returned unchanged.
func LocalName(iri string) string {
	if i := strings.LastIndexByte(iri, '#'); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	trimmed := strings.TrimRight(iri, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return iri
}

// Prefixes maps prefixed-name prefixes to namespace IRIs.
type Prefixes struct {
	mu sync.RWMutex
	ns map[string]string
}

// NewPrefixes returns an empty prefix map.
func NewPrefixes() *Prefixes {
	return &Prefixes{ns: make(map[string]string)}
}

// Standard returns a prefix map seeded with the namespaces used by the
// built-in dialects.
func Standard() *Prefixes {
	p := NewPrefixes()
	p.Register("rdf", RDFNamespace)
	p.Register("rdfs", RDFSNamespace)
	p.Register("owl", OWLNamespace)
	p.Register("xsd", XSDNamespace)
	p.Register("skos", SKOSNamespace)
	p.Register("wdt", WikidataDirect)
	p.Register("wd", WikidataEntity)
	p.Register("bds", BigdataSearch)
	p.Register("dbo", DBpediaOntology)
	p.Register("schema", SchemaOrgNamespace)
	p.Register("foaf", FOAFNamespace)
	return p
}

// Register adds or replaces a prefix.
func (p *Prefixes) Register(prefix, namespace string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ns[prefix] = namespace
}

// Namespace returns the namespace bound to prefix.
func (p *Prefixes) Namespace(prefix string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ns, ok := p.ns[prefix]
	return ns, ok
}

// Names returns the registered prefixes in sorted order.
func (p *Prefixes) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.ns))
	for name := range p.ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand turns a prefixed name such as "owl:Class" into a full IRI.
// Values that already look like absolute IRIs, and values whose prefix is
// not registered, are returned unchanged. An unknown prefix is reported
// only when strict is requested through MustExpand.
func (p *Prefixes) Expand(name string) string {
	iri, _ := p.expand(name)
	return iri
}

// MustExpand is Expand that fails for a prefixed name with an unknown prefix.
func (p *Prefixes) MustExpand(name string) (string, error) {
	iri, ok := p.expand(name)
	if !ok {
		return "", fmt.Errorf("unknown prefix in %q", name)
	}
	return iri, nil
}

func (p *Prefixes) expand(name string) (string, bool) {
	if strings.Contains(name, "://") || strings.HasPrefix(name, "urn:") || strings.HasPrefix(name, "tag:") {
		return name, true
	}
	prefix, local, found := strings.Cut(name, ":")
	if !found {
		return name, true
	}
	ns, ok := p.Namespace(prefix)
	if !ok {
		return name, false
	}
	return ns + local, true
}

// Compact rewrites iri as a prefixed name using the longest matching
// namespace, or returns it unchanged.
func (p *Prefixes) Compact(iri string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	best, bestNS := "", ""
	for prefix, ns := range p.ns {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS == "" || len(iri) == len(bestNS) {
		return iri
	}
	return best + ":" + iri[len(bestNS):]
}

// SPARQL renders the prefixes as a SPARQL PREFIX block, in sorted order.
func (p *Prefixes) SPARQL() string {
	var b strings.Builder
	for _, name := range p.Names() {
		ns, _ := p.Namespace(name)
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", name, ns)
	}
	return b.String()
}
