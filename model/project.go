package model

import (
	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// Project is the scope every data model and resource instance lives in. A
// project owns four named graphs derived from its short name: :shacl,
// :onto, :data and :lists. The project records themselves live in the
// cross-project oldap:admin graph.
type Project struct {
	con           connection.IConnection
	projectIRI    xsd.IRI
	shortName     xsd.NCName
	namespaceIRI  dtypes.NamespaceIRI
}

// ReadProject loads a project from the admin graph by short name or IRI and
// registers its namespace in the session context.
func ReadProject(con connection.IConnection, idOrIRI string) (*Project, error) {
	ctx := con.Context()
	sparql := ctx.SPARQLPrologue() + `
SELECT ?proj ?sname ?ns
WHERE {
    GRAPH oldap:admin {
        ?proj a oldap:Project .
        ?proj oldap:projectShortName ?sname .
        ?proj oldap:namespaceIri ?ns .
    }
}`
	qp, err := con.QuerySelect(sparql)
	if err != nil {
		return nil, err
	}
	for _, row := range qp.Rows() {
		proj, sname, ns := row["proj"], row["sname"], row["ns"]
		if proj == nil || sname == nil || ns == nil {
			continue
		}
		shortName := lexical(sname)
		if shortName != idOrIRI && proj.String() != idOrIRI {
			continue
		}
		nsIRI, err := dtypes.NewNamespaceIRI(lexical(ns))
		if err != nil {
			return nil, err
		}
		p := &Project{
			con:          con,
			projectIRI:   xsd.IRIFromRDF(proj.String()),
			shortName:    xsd.NCName(shortName),
			namespaceIRI: nsIRI,
		}
		ctx.Set(p.shortName, p.namespaceIRI)
		ctx.Use(p.shortName)
		return p, nil
	}
	return nil, oldaperror.New(oldaperror.NotFound, "project %q not found", idOrIRI)
}

// NewProject builds a project handle without consulting the store. Intended
// for bootstrap code and tests that know the project triple.
func NewProject(con connection.IConnection, iri xsd.IRI, shortName xsd.NCName, ns dtypes.NamespaceIRI) *Project {
	p := &Project{con: con, projectIRI: iri, shortName: shortName, namespaceIRI: ns}
	ctx := con.Context()
	ctx.Set(shortName, ns)
	ctx.Use(shortName)
	return p
}

// IRI returns the project's IRI.
func (p *Project) IRI() xsd.IRI { return p.projectIRI }

// ShortName returns the project short name, the prefix of its graphs.
func (p *Project) ShortName() xsd.NCName { return p.shortName }

// NamespaceIRI returns the project's namespace.
func (p *Project) NamespaceIRI() dtypes.NamespaceIRI { return p.namespaceIRI }

// Graph returns the name of one of the project's named graphs, e.g.
// Graph("shacl") == "myproj:shacl".
func (p *Project) Graph(kind string) string {
	return string(p.shortName) + ":" + kind
}

func lexical(v xsd.Value) string {
	if s, ok := v.(xsd.String); ok {
		return s.Value()
	}
	return v.String()
}
