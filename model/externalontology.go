package model

import (
	"fmt"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/xsd"
)

// ExternalOntology references a foreign ontology a data model builds on:
// a prefix bound to a namespace IRI, declared in the project's shapes
// graph so a reread can rebuild the context. No OWL is emitted for
// external ontologies.
type ExternalOntology struct {
	con       connection.IConnection
	project   *Project
	prefix    xsd.NCName
	namespace dtypes.NamespaceIRI
}

// NewExternalOntology builds a reference and registers the prefix in the
// session context.
func NewExternalOntology(con connection.IConnection, project *Project, prefix xsd.NCName, ns dtypes.NamespaceIRI) *ExternalOntology {
	con.Context().Set(prefix, ns)
	return &ExternalOntology{con: con, project: project, prefix: prefix, namespace: ns}
}

// Prefix returns the ontology's prefix.
func (e *ExternalOntology) Prefix() xsd.NCName { return e.prefix }

// Namespace returns the ontology's namespace IRI.
func (e *ExternalOntology) Namespace() dtypes.NamespaceIRI { return e.namespace }

// QName returns the key the data model indexes the reference under.
func (e *ExternalOntology) QName() xsd.QName {
	return xsd.MakeQName(e.project.ShortName(), string(e.prefix))
}

// CreateSHACL declares the reference in the shapes graph.
func (e *ExternalOntology) CreateSHACL(indent int) string {
	pad := fmt.Sprintf("%*s", indent*4, "")
	return fmt.Sprintf("%s%s:shapes oldap:usesOntology [\n%s    oldap:prefix %s ;\n%s    oldap:namespaceIri %s ;\n%s] .\n",
		pad, e.project.ShortName(),
		pad, e.prefix.ToRDF(),
		pad, xsd.AnyURI(e.namespace).ToRDF(),
		pad)
}

// searchExternalOntologies reads the declared references of a project.
func searchExternalOntologies(con connection.IConnection, project *Project) ([]*ExternalOntology, error) {
	ctx := con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?prefix ?ns
FROM %s:shacl
WHERE {
    %s:shapes oldap:usesOntology ?decl .
    ?decl oldap:prefix ?prefix .
    ?decl oldap:namespaceIri ?ns .
}`, project.ShortName(), project.ShortName())
	qp, err := con.QuerySelect(sparql)
	if err != nil {
		return nil, err
	}
	var ontos []*ExternalOntology
	for _, row := range qp.Rows() {
		prefix, ns := row["prefix"], row["ns"]
		if prefix == nil || ns == nil {
			continue
		}
		nsIRI, err := dtypes.NewNamespaceIRI(lexical(ns))
		if err != nil {
			continue
		}
		ontos = append(ontos, NewExternalOntology(con, project, xsd.NCName(lexical(prefix)), nsIRI))
	}
	return ontos, nil
}
