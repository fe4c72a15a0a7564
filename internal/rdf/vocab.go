package rdf

// Namespace IRIs of the vocabularies every query can use without declaring.
const (
	NamespaceRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NamespaceOWL  = "http://www.w3.org/2002/07/owl#"
	NamespaceXSD  = "http://www.w3.org/2001/XMLSchema#"
	NamespaceSKOS = "http://www.w3.org/2004/02/skos/core#"
	NamespaceDC   = "http://purl.org/dc/terms/"
	NamespacePROV = "http://www.w3.org/ns/prov#"
)

// Datatype IRIs referenced by the term constructors.
const (
	XSDString     = NamespaceXSD + "string"
	XSDBoolean    = NamespaceXSD + "boolean"
	XSDInteger    = NamespaceXSD + "integer"
	RDFLangString = NamespaceRDF + "langString"
	RDFType       = NamespaceRDF + "type"
)

// DefaultPrefixes returns the standard prefix bindings shared by all
// decoded queries. A fresh map is returned on every call.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  NamespaceRDF,
		"rdfs": NamespaceRDFS,
		"owl":  NamespaceOWL,
		"xsd":  NamespaceXSD,
		"skos": NamespaceSKOS,
		"dc":   NamespaceDC,
		"prov": NamespacePROV,
	}
}
