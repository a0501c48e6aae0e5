package vocabulary

// Namespace IRIs
const (
	RDFNamespace       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace      = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace       = "http://www.w3.org/2002/07/owl#"
	XSDNamespace       = "http://www.w3.org/2001/XMLSchema#"
	SKOSNamespace      = "http://www.w3.org/2004/02/skos/core#"
	WikidataDirect     = "http://www.wikidata.org/prop/direct/"
	WikidataEntity     = "http://www.wikidata.org/entity/"
	BigdataSearch      = "http://www.bigdata.com/rdf/search#"
	StardogAPI         = "tag:stardog:api:"
	DBpediaOntology    = "http://dbpedia.org/ontology/"
	SchemaOrgNamespace = "http://schema.org/"
	FOAFNamespace      = "http://xmlns.com/foaf/0.1/"
)

// RDF and RDF Schema terms
const (
	RdfType        = RDFNamespace + "type"
	RdfProperty    = RDFNamespace + "Property"
	RdfsLabel      = RDFSNamespace + "label"
	RdfsComment    = RDFSNamespace + "comment"
	RdfsClass      = RDFSNamespace + "Class"
	RdfsSubClassOf = RDFSNamespace + "subClassOf"
)

// OWL terms
const (
	OwlThing          = OWLNamespace + "Thing"
	OwlClass          = OWLNamespace + "Class"
	OwlObjectProperty = OWLNamespace + "ObjectProperty"
	OwlSameAs         = OWLNamespace + "sameAs"
)

// SKOS terms
const (
	// SkosConcept is the default class listed by the concepts operation.
	SkosConcept   = SKOSNamespace + "Concept"
	SkosPrefLabel = SKOSNamespace + "prefLabel"
	SkosAltLabel  = SKOSNamespace + "altLabel"
)

// Image-bearing predicates commonly passed as image property IRIs.
const (
	WikidataImage = WikidataDirect + "P18"
	SchemaImage   = SchemaOrgNamespace + "image"
	FoafDepiction = FOAFNamespace + "depiction"
)
