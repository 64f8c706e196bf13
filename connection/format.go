package connection

// SparqlResultFormat selects the Accept header of a SPARQL query and with
// it the serialization of the result.
type SparqlResultFormat string

const (
	FormatJSON   SparqlResultFormat = "application/sparql-results+json"
	FormatXML    SparqlResultFormat = "application/sparql-results+xml"
	FormatTurtle SparqlResultFormat = "text/turtle"
	FormatN3     SparqlResultFormat = "text/rdf+n3"
	FormatNQuads SparqlResultFormat = "text/x-nquads"
	FormatJSONLD SparqlResultFormat = "application/ld+json"
	FormatTriX   SparqlResultFormat = "application/trix"
	FormatTriG   SparqlResultFormat = "application/x-trig"
	FormatText   SparqlResultFormat = "text/plain"
)

// Accept returns the MIME type for the Accept header.
func (f SparqlResultFormat) Accept() string {
	return string(f)
}
