package model

import (
	"fmt"
	"strings"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// CreateSHACL renders the class's NodeShape: the audit fields, the class
// attributes, sh:node links for superclasses with a SHACL definition, the
// rdf:type property node and one sh:property entry per binding (inline
// blank node for internal properties, a Shape reference for standalone
// ones).
func (rc *ResourceClass) CreateSHACL(timestamp xsd.DateTime, indent int) string {
	pad1 := strings.Repeat(" ", (indent+1)*4)
	pad2 := strings.Repeat(" ", (indent+2)*4)
	pad3 := strings.Repeat(" ", (indent+3)*4)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%sShape a sh:NodeShape, %s", pad1, rc.owlClass.ToRDF(), rc.owlClass.ToRDF())
	fmt.Fprintf(&sb, " ;\n%ssh:targetClass %s", pad2, rc.owlClass.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:hasVersion %s", pad2, rc.version.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:created %s", pad2, timestamp.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:creator %s", pad2, rc.con.UserIRI().ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:modified %s", pad2, timestamp.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:contributor %s", pad2, rc.con.UserIRI().ToRDF())
	if rc.label != nil && rc.label.Len() > 0 {
		fmt.Fprintf(&sb, " ;\n%srdfs:label %s", pad2, rc.label.ToRDF())
	}
	if rc.comment != nil && rc.comment.Len() > 0 {
		fmt.Fprintf(&sb, " ;\n%srdfs:comment %s", pad2, rc.comment.ToRDF())
	}
	if rc.closed != nil {
		fmt.Fprintf(&sb, " ;\n%ssh:closed %s", pad2, rc.closed.ToRDF())
	}
	var scShapes []string
	for _, iri := range rc.superclasses.IRIs() {
		if resolved, _ := rc.superclasses.Get(iri); resolved != nil {
			scShapes = append(scShapes, iri.ToRDF()+"Shape")
		}
	}
	if len(scShapes) > 0 {
		fmt.Fprintf(&sb, " ;\n%ssh:node %s", pad2, strings.Join(scShapes, ", "))
	}
	fmt.Fprintf(&sb, " ;\n%ssh:property", pad2)
	fmt.Fprintf(&sb, "\n%s[\n%ssh:path rdf:type ;\n%s]", pad3, pad3+"    ", pad3)
	for _, iri := range rc.propOrder {
		hp := rc.properties[iri]
		if hp.Kind() == PropInternal && hp.Prop() != nil {
			fmt.Fprintf(&sb, " ;\n%ssh:property\n%s[\n", pad2, pad3)
			sb.WriteString(hp.Prop().propertyNodeSHACL(timestamp, hp.Data(), indent+4))
			fmt.Fprintf(&sb, " ;\n%s]", pad3)
		} else {
			fmt.Fprintf(&sb, " ;\n%ssh:property %sShape", pad2, iri.ToRDF())
		}
	}
	sb.WriteString(" .\n")
	return sb.String()
}

// CreateOWL renders the class declaration for the ontology graph: property
// declarations for the not-yet-stored children, the owl:Class with its
// audit fields, and rdfs:subClassOf entries for each superclass plus one
// restriction node per property.
func (rc *ResourceClass) CreateOWL(timestamp xsd.DateTime, indent int) string {
	pad2 := strings.Repeat(" ", (indent+2)*4)
	pad3 := strings.Repeat(" ", (indent+3)*4)
	var sb strings.Builder
	for _, iri := range rc.propOrder {
		hp := rc.properties[iri]
		if hp.Prop() != nil && !hp.Prop().FromStore() {
			sb.WriteString(hp.Prop().CreateOWLPart1(timestamp, indent+2))
		}
	}
	fmt.Fprintf(&sb, "%s%s rdf:type owl:Class ;\n", pad2, rc.owlClass.ToRDF())
	fmt.Fprintf(&sb, "%sdcterms:hasVersion %s ;\n", pad3, rc.version.ToRDF())
	fmt.Fprintf(&sb, "%sdcterms:created %s ;\n", pad3, timestamp.ToRDF())
	fmt.Fprintf(&sb, "%sdcterms:creator %s ;\n", pad3, rc.con.UserIRI().ToRDF())
	fmt.Fprintf(&sb, "%sdcterms:modified %s ;\n", pad3, timestamp.ToRDF())
	fmt.Fprintf(&sb, "%sdcterms:contributor %s ;\n", pad3, rc.con.UserIRI().ToRDF())
	var supers []string
	for _, iri := range rc.superclasses.IRIs() {
		supers = append(supers, iri.ToRDF())
	}
	if len(supers) > 0 {
		fmt.Fprintf(&sb, "%srdfs:subClassOf %s", pad3, strings.Join(supers, ", "))
		if len(rc.propOrder) > 0 {
			sb.WriteString(" ,\n")
		}
	} else {
		fmt.Fprintf(&sb, "%srdfs:subClassOf\n", pad3)
	}
	for i, iri := range rc.propOrder {
		hp := rc.properties[iri]
		if hp.Prop() != nil {
			sb.WriteString(hp.Prop().CreateOWLPart2(hp.Data(), indent+4))
		} else {
			sb.WriteString(externalRestriction(iri, hp.Data(), indent+4))
		}
		if i < len(rc.propOrder)-1 {
			sb.WriteString(" ,\n")
		}
	}
	sb.WriteString(" .\n")
	return sb.String()
}

// externalRestriction renders the restriction node for a property known
// only by IRI.
func externalRestriction(propIRI xsd.IRI, hpd *HasPropertyData, indent int) string {
	pad := strings.Repeat(" ", indent*4)
	pad1 := strings.Repeat(" ", (indent+1)*4)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[\n", pad)
	fmt.Fprintf(&sb, "%srdf:type owl:Restriction ;\n", pad1)
	fmt.Fprintf(&sb, "%sowl:onProperty %s", pad1, propIRI.ToRDF())
	if hpd != nil {
		sb.WriteString(hpd.CreateOWL(indent))
	}
	fmt.Fprintf(&sb, " ;\n%s]", pad)
	return sb.String()
}

func (rc *ResourceClass) readModifiedSHACL() (*xsd.DateTime, error) {
	ctx := rc.con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`SELECT ?modified
FROM %s:shacl
WHERE {
    BIND(%sShape as ?res)
    ?res dcterms:modified ?modified .
}`, rc.graph, rc.owlClass.ToRDF())
	qp, err := rc.con.TransactionQuery(sparql)
	if err != nil {
		return nil, err
	}
	return modifiedFromResult(qp)
}

func (rc *ResourceClass) readModifiedOWL() (*xsd.DateTime, error) {
	ctx := rc.con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`SELECT ?modified
FROM %s:onto
WHERE {
    BIND(%s as ?res)
    ?res dcterms:modified ?modified .
}`, rc.graph, rc.owlClass.ToRDF())
	qp, err := rc.con.TransactionQuery(sparql)
	if err != nil {
		return nil, err
	}
	return modifiedFromResult(qp)
}

// Create writes the class's SHACL and OWL materializations in one
// transactional INSERT DATA, refusing on an existing shape and verifying
// through the timestamp read-back.
func (rc *ResourceClass) Create() error {
	if rc.fromStore {
		return oldaperror.New(oldaperror.AlreadyExists,
			"cannot create resource class %q that was read from the store", rc.owlClass)
	}
	timestamp := xsd.DateTimeNow()
	ctx := rc.con.Context()

	var sb strings.Builder
	sb.WriteString(ctx.SPARQLPrologue())
	sb.WriteString("INSERT DATA {\n")
	fmt.Fprintf(&sb, "    GRAPH %s:shacl {\n", rc.graph)
	sb.WriteString(rc.CreateSHACL(timestamp, 0))
	sb.WriteString("    }\n")
	fmt.Fprintf(&sb, "    GRAPH %s:onto {\n", rc.graph)
	sb.WriteString(rc.CreateOWL(timestamp, 0))
	sb.WriteString("    }\n}\n")

	if err := rc.con.TransactionStart(); err != nil {
		return err
	}
	existing, err := rc.readModifiedSHACL()
	if err != nil {
		rc.con.TransactionAbort()
		return err
	}
	if existing != nil {
		rc.con.TransactionAbort()
		return oldaperror.New(oldaperror.AlreadyExists, "resource class %q already exists", rc.owlClass)
	}
	if err := rc.con.TransactionUpdate(sb.String()); err != nil {
		rc.con.TransactionAbort()
		return err
	}
	modShacl, err := rc.readModifiedSHACL()
	if err != nil {
		rc.con.TransactionAbort()
		return err
	}
	modOwl, err := rc.readModifiedOWL()
	if err != nil {
		rc.con.TransactionAbort()
		return err
	}
	if modShacl == nil || modOwl == nil || !modShacl.Equal(timestamp) || !modOwl.Equal(timestamp) {
		rc.con.TransactionAbort()
		return oldaperror.New(oldaperror.UpdateFailed, "creating resource class %q failed", rc.owlClass)
	}
	if err := rc.con.TransactionCommit(); err != nil {
		rc.con.TransactionAbort()
		return err
	}
	rc.setCreationMetadata(timestamp)
	rc.fromStore = true
	for _, hp := range rc.properties {
		if hp.Prop() != nil {
			hp.Prop().setCreationMetadata(timestamp)
			hp.Prop().fromStore = true
		}
	}
	rc.ClearChangeset()
	return nil
}

// updatePatches renders the guarded patches for every recorded change:
// class attributes, superclass set-difference in both graphs, and
// added/removed/modified property bindings.
func (rc *ResourceClass) updatePatches(timestamp xsd.DateTime) ([]string, error) {
	lastMod := rc.modified.ToRDF()
	shape := rc.owlClass.ToRDF() + "Shape"
	var patches []string

	for attr, change := range rc.attrChangeset {
		switch attr {
		case ResLabel, ResComment:
			var ls *dtypes.LangString
			if attr == ResLabel {
				ls = rc.label
			} else {
				ls = rc.comment
			}
			if change.Action == dtypes.ActionModify && ls != nil {
				graphClause := fmt.Sprintf("WITH %s:shacl\n", rc.graph)
				subject := func(sb *strings.Builder) {
					fmt.Fprintf(sb, "    BIND(%s as ?subj)\n", shape)
				}
				patches = append(patches, langStringPatches(ls, graphClause, subject, string(attr), lastMod)...)
				continue
			}
			ele := rdfModifyItem{property: string(attr)}
			if change.Action != dtypes.ActionCreate {
				if old, ok := change.Old.(*dtypes.LangString); ok && old != nil && old.Len() > 0 {
					ele.oldValue = old.ToRDF()
				} else {
					ele.oldValue = "?val"
				}
			}
			if change.Action != dtypes.ActionDelete && ls != nil {
				ele.newValue = ls.ToRDF()
			}
			patches = append(patches, modifySHACLProp(string(rc.graph), "", rc.owlClass.ToRDF(), ele, lastMod))
		case ResClosed:
			ele := rdfModifyItem{property: string(ResClosed)}
			if change.Action != dtypes.ActionCreate {
				if old, ok := change.Old.(*xsd.Boolean); ok && old != nil {
					ele.oldValue = old.ToRDF()
				} else {
					ele.oldValue = "?val"
				}
			}
			if change.Action != dtypes.ActionDelete && rc.closed != nil {
				ele.newValue = rc.closed.ToRDF()
			}
			patches = append(patches, modifySHACLProp(string(rc.graph), "", rc.owlClass.ToRDF(), ele, lastMod))
		case ResSuperclass:
			old, _ := change.Old.(*SuperclassMap)
			patches = append(patches, rc.superclassPatches(old)...)
		}
	}

	for iri, change := range rc.propChangeset {
		switch change.Action {
		case dtypes.ActionCreate:
			hp := rc.properties[iri]
			patches = append(patches, rc.insertPropertyPatches(hp, timestamp)...)
		case dtypes.ActionDelete:
			hp := change.Old
			if hp == nil {
				continue
			}
			if hp.Kind() == PropInternal && hp.Prop() != nil {
				patches = append(patches, hp.Prop().deleteSHACL()...)
				patches = append(patches, hp.Prop().deleteOWL()...)
			} else {
				patches = append(patches, rc.dropPropertyRefPatches(iri)...)
			}
		case dtypes.ActionModify:
			hp := rc.properties[iri]
			if hp == nil {
				continue
			}
			patches = append(patches, hp.UpdateSHACL(rc.owlClass)...)
			if owl := hp.UpdateOWL(rc.owlClass); owl != "" {
				patches = append(patches, owl)
			}
			if hp.Prop() != nil && len(hp.Prop().Changeset()) > 0 {
				shacl, err := hp.Prop().updateSHACL(timestamp)
				if err != nil {
					return nil, err
				}
				patches = append(patches, shacl...)
				patches = append(patches, hp.Prop().updateOWL(timestamp)...)
			}
		}
	}

	patches = append(patches,
		modifySHACLProp(string(rc.graph), "", rc.owlClass.ToRDF(),
			rdfModifyItem{property: "dcterms:contributor", oldValue: rc.contributor.ToRDF(), newValue: rc.con.UserIRI().ToRDF()}, lastMod),
		modifySHACLProp(string(rc.graph), "", rc.owlClass.ToRDF(),
			rdfModifyItem{property: "dcterms:modified", oldValue: rc.modified.ToRDF(), newValue: timestamp.ToRDF()}, lastMod),
		modifyOWLProp(string(rc.graph), rc.owlClass.ToRDF(),
			rdfModifyItem{property: "dcterms:contributor", oldValue: rc.contributor.ToRDF(), newValue: rc.con.UserIRI().ToRDF()}, lastMod),
		modifyOWLProp(string(rc.graph), rc.owlClass.ToRDF(),
			rdfModifyItem{property: "dcterms:modified", oldValue: rc.modified.ToRDF(), newValue: timestamp.ToRDF()}, lastMod))
	return patches, nil
}

// superclassPatches synchronizes the stored superclass links with the
// in-memory map as a set difference: removed entries are deleted, added
// ones inserted, in both the SHACL and the OWL graph.
func (rc *ResourceClass) superclassPatches(old *SuperclassMap) []string {
	if old == nil {
		old = NewSuperclassMap()
	}
	current := map[xsd.IRI]bool{}
	for _, iri := range rc.superclasses.IRIs() {
		current[iri] = true
	}
	previous := map[xsd.IRI]bool{}
	for _, iri := range old.IRIs() {
		previous[iri] = true
	}
	shape := rc.owlClass.ToRDF() + "Shape"
	var patches []string
	for _, iri := range old.IRIs() {
		if current[iri] {
			continue
		}
		if resolved, _ := old.Get(iri); resolved != nil {
			patches = append(patches, fmt.Sprintf(
				"WITH %s:shacl\nDELETE {\n    %s sh:node %sShape .\n}\nWHERE {\n    %s sh:node %sShape .\n}",
				rc.graph, shape, iri.ToRDF(), shape, iri.ToRDF()))
		}
		patches = append(patches, fmt.Sprintf(
			"WITH %s:onto\nDELETE {\n    %s rdfs:subClassOf %s .\n}\nWHERE {\n    %s rdfs:subClassOf %s .\n}",
			rc.graph, rc.owlClass.ToRDF(), iri.ToRDF(), rc.owlClass.ToRDF(), iri.ToRDF()))
	}
	for _, iri := range rc.superclasses.IRIs() {
		if previous[iri] {
			continue
		}
		if resolved, _ := rc.superclasses.Get(iri); resolved != nil {
			patches = append(patches, fmt.Sprintf(
				"WITH %s:shacl\nINSERT {\n    %s sh:node %sShape .\n}\nWHERE {}",
				rc.graph, shape, iri.ToRDF()))
		}
		patches = append(patches, fmt.Sprintf(
			"WITH %s:onto\nINSERT {\n    %s rdfs:subClassOf %s .\n}\nWHERE {}",
			rc.graph, rc.owlClass.ToRDF(), iri.ToRDF()))
	}
	return patches
}

// insertPropertyPatches renders the addition of a property binding to an
// existing class: the inline node (or Shape reference) in SHACL and the
// restriction node plus, for a fresh internal property, its declaration in
// OWL.
func (rc *ResourceClass) insertPropertyPatches(hp *HasProperty, timestamp xsd.DateTime) []string {
	shape := rc.owlClass.ToRDF() + "Shape"
	var patches []string
	var shacl strings.Builder
	fmt.Fprintf(&shacl, "WITH %s:shacl\nINSERT {\n", rc.graph)
	if hp.Kind() == PropInternal && hp.Prop() != nil {
		fmt.Fprintf(&shacl, "    %s sh:property [\n", shape)
		shacl.WriteString(hp.Prop().propertyNodeSHACL(timestamp, hp.Data(), 2))
		shacl.WriteString(" ;\n    ] .\n")
	} else {
		fmt.Fprintf(&shacl, "    %s sh:property %sShape .\n", shape, hp.PropertyIRI().ToRDF())
	}
	shacl.WriteString("}\nWHERE {}")
	patches = append(patches, shacl.String())

	var owl strings.Builder
	fmt.Fprintf(&owl, "WITH %s:onto\nINSERT {\n", rc.graph)
	if hp.Kind() == PropInternal && hp.Prop() != nil && !hp.Prop().FromStore() {
		owl.WriteString(hp.Prop().CreateOWLPart1(timestamp, 1))
	}
	fmt.Fprintf(&owl, "    %s rdfs:subClassOf\n", rc.owlClass.ToRDF())
	if hp.Prop() != nil {
		owl.WriteString(hp.Prop().CreateOWLPart2(hp.Data(), 1))
	} else {
		owl.WriteString(externalRestriction(hp.PropertyIRI(), hp.Data(), 1))
	}
	owl.WriteString(" .\n}\nWHERE {}")
	patches = append(patches, owl.String())
	return patches
}

// dropPropertyRefPatches removes the reference to a standalone or external
// property from the class without touching the property itself.
func (rc *ResourceClass) dropPropertyRefPatches(iri xsd.IRI) []string {
	shape := rc.owlClass.ToRDF() + "Shape"
	return []string{
		fmt.Sprintf("WITH %s:shacl\nDELETE {\n    %s sh:property %sShape .\n}\nWHERE {\n    %s sh:property %sShape .\n}",
			rc.graph, shape, iri.ToRDF(), shape, iri.ToRDF()),
		fmt.Sprintf(`WITH %s:onto
DELETE {
    %s rdfs:subClassOf ?node .
    ?node ?p ?v .
}
WHERE {
    %s rdfs:subClassOf ?node .
    ?node owl:onProperty %s .
    ?node ?p ?v .
}`, rc.graph, rc.owlClass.ToRDF(), rc.owlClass.ToRDF(), iri.ToRDF()),
	}
}

// Update pushes all recorded changes in one transaction guarded by the
// class's modification timestamp, synchronizing the OWL restriction nodes
// with their SHACL counterparts.
func (rc *ResourceClass) Update() error {
	timestamp := xsd.DateTimeNow()
	ctx := rc.con.Context()
	patches, err := rc.updatePatches(timestamp)
	if err != nil {
		return err
	}
	sparql := ctx.SPARQLPrologue() + strings.Join(patches, " ;\n")

	if err := rc.con.TransactionStart(); err != nil {
		return err
	}
	if err := rc.con.TransactionUpdate(sparql); err != nil {
		rc.con.TransactionAbort()
		return err
	}
	modShacl, err := rc.readModifiedSHACL()
	if err != nil {
		rc.con.TransactionAbort()
		return err
	}
	modOwl, err := rc.readModifiedOWL()
	if err != nil {
		rc.con.TransactionAbort()
		return err
	}
	if modShacl == nil || modOwl == nil || !modShacl.Equal(timestamp) || !modOwl.Equal(timestamp) {
		rc.con.TransactionAbort()
		return oldaperror.New(oldaperror.UpdateFailed,
			"update of resource class %q failed: timestamp mismatch", rc.owlClass)
	}
	if err := rc.con.TransactionCommit(); err != nil {
		rc.con.TransactionAbort()
		return err
	}
	rc.setUpdateMetadata(timestamp)
	rc.ClearChangeset()
	return nil
}

// DeleteFromStore removes the NodeShape with every blank-node child from
// the SHACL graph, then the restriction nodes and the class declaration
// from the OWL graph, in one transaction.
func (rc *ResourceClass) DeleteFromStore() error {
	ctx := rc.con.Context()
	shape := rc.owlClass.ToRDF() + "Shape"
	patches := []string{
		// blank-node children with their potential list cells
		fmt.Sprintf(`WITH %s:shacl
DELETE {
    ?z rdf:first ?head ;
        rdf:rest ?tail .
}
WHERE {
    %s sh:property ?propnode .
    FILTER isBlank(?propnode)
    ?propnode ?listprop ?list .
    ?list rdf:rest* ?z .
    ?z rdf:first ?head ;
        rdf:rest ?tail .
}`, rc.graph, shape),
		fmt.Sprintf(`WITH %s:shacl
DELETE {
    ?propnode ?p ?v .
}
WHERE {
    %s sh:property ?propnode .
    FILTER isBlank(?propnode)
    ?propnode ?p ?v .
}`, rc.graph, shape),
		fmt.Sprintf(`WITH %s:shacl
DELETE {
    %s ?p ?v .
}
WHERE {
    %s ?p ?v .
}`, rc.graph, shape, shape),
		fmt.Sprintf(`WITH %s:onto
DELETE {
    %s rdfs:subClassOf ?node .
    ?node ?p ?v .
}
WHERE {
    %s rdfs:subClassOf ?node .
    FILTER isBlank(?node)
    ?node ?p ?v .
}`, rc.graph, rc.owlClass.ToRDF(), rc.owlClass.ToRDF()),
		fmt.Sprintf(`WITH %s:onto
DELETE {
    %s ?p ?v .
}
WHERE {
    %s ?p ?v .
}`, rc.graph, rc.owlClass.ToRDF(), rc.owlClass.ToRDF()),
	}
	sparql := ctx.SPARQLPrologue() + strings.Join(patches, " ;\n")

	if err := rc.con.TransactionStart(); err != nil {
		return err
	}
	if err := rc.con.TransactionUpdate(sparql); err != nil {
		rc.con.TransactionAbort()
		return err
	}
	modShacl, err := rc.readModifiedSHACL()
	if err != nil {
		rc.con.TransactionAbort()
		return err
	}
	if modShacl != nil {
		rc.con.TransactionAbort()
		return oldaperror.New(oldaperror.UpdateFailed, "deleting resource class %q failed", rc.owlClass)
	}
	if err := rc.con.TransactionCommit(); err != nil {
		rc.con.TransactionAbort()
		return err
	}
	rc.fromStore = false
	return nil
}

// InUse counts the distinct instances typed as this class.
func (rc *ResourceClass) InUse() (bool, error) {
	ctx := rc.con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT (COUNT(DISTINCT ?instance) as ?n)
FROM %s:data
WHERE {
    ?instance a %s .
}`, rc.graph, rc.owlClass.ToRDF())
	qp, err := rc.con.QuerySelect(sparql)
	if err != nil {
		return false, err
	}
	return countResult(qp, "n")
}

// --- read path ---------------------------------------------------------

// queryResourceProps fetches the sh:property children of the shape. The
// children are either blank nodes (inline definitions) or IRIs referencing
// standalone shapes.
func queryResourceProps(con connection.IConnection, project *Project, classIRI xsd.IRI) (map[string]propAttributes, []xsd.IRI, error) {
	ctx := con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?prop ?attriri ?value ?oo
FROM %s:shacl
WHERE {
    BIND(%sShape AS ?shape)
    ?shape sh:property ?prop .
    OPTIONAL {
        ?prop ?attriri ?value .
        OPTIONAL {
            ?value rdf:rest*/rdf:first ?oo
        }
    }
}`, project.ShortName(), classIRI.ToRDF())
	qp, err := con.QuerySelect(sparql)
	if err != nil {
		return nil, nil, err
	}
	inline := map[string]propAttributes{}
	var refs []xsd.IRI
	seenRefs := map[xsd.IRI]bool{}
	for _, row := range qp.Rows() {
		propNode, ok := row["prop"]
		if !ok {
			continue
		}
		switch node := propNode.(type) {
		case dtypes.BNode:
			attrs, ok := inline[string(node)]
			if !ok {
				attrs = propAttributes{}
				inline[string(node)] = attrs
			}
			if err := processPropertyTriple(row, attrs); err != nil {
				return nil, nil, err
			}
		case xsd.IRI:
			ref := xsd.IRIFromRDF(strings.TrimSuffix(node.String(), "Shape"))
			if !seenRefs[ref] {
				seenRefs[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return inline, refs, nil
}

// queryResourceSHACL fetches the class-level triples of the shape.
func queryResourceSHACL(con connection.IConnection, project *Project, classIRI xsd.IRI) (propAttributes, error) {
	ctx := con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?attriri ?value
FROM %s:shacl
WHERE {
    BIND(%sShape AS ?shape)
    ?shape ?attriri ?value
}`, project.ShortName(), classIRI.ToRDF())
	qp, err := con.QuerySelect(sparql)
	if err != nil {
		return nil, err
	}
	if qp.Len() == 0 {
		return nil, oldaperror.New(oldaperror.NotFound, "resource class %q not found", classIRI)
	}
	attrs := propAttributes{}
	for _, row := range qp.Rows() {
		attrVal, ok := row["attriri"]
		if !ok {
			continue
		}
		value, ok := row["value"]
		if !ok {
			continue
		}
		if _, isBNode := value.(dtypes.BNode); isBNode {
			continue
		}
		key := attrVal.String()
		switch key {
		case "sh:property":
			continue
		case "sh:node", "rdf:type":
			list, _ := attrs[key].([]xsd.Value)
			attrs[key] = append(list, value)
		default:
			if s, isStr := value.(xsd.String); isStr && s.Lang() != "" {
				ls, ok := attrs[key].(*dtypes.LangString)
				if !ok {
					ls = dtypes.LangStringFromRDF()
					attrs[key] = ls
				}
				ls.Set(dtypes.Language(s.Lang()), s.Value())
				ls.ClearChangeset()
				continue
			}
			attrs[key] = value
		}
	}
	return attrs, nil
}

// owlRestriction carries the cardinality data read from one OWL
// restriction node.
type owlRestriction struct {
	propIRI  xsd.IRI
	minCount *xsd.Integer
	maxCount *xsd.Integer
}

// queryOWLRestrictions pairs each property with its restriction node and
// returns the superclass IRIs.
func queryOWLRestrictions(con connection.IConnection, project *Project, classIRI xsd.IRI) (map[xsd.IRI]*owlRestriction, []xsd.IRI, error) {
	ctx := con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?node ?p ?o
FROM %s:onto
WHERE {
    %s rdfs:subClassOf ?node .
    ?node ?p ?o .
    FILTER(?o != owl:Restriction)
}`, project.ShortName(), classIRI.ToRDF())
	qp, err := con.QuerySelect(sparql)
	if err != nil {
		return nil, nil, err
	}
	byNode := map[string]*owlRestriction{}
	for _, row := range qp.Rows() {
		node, ok := row["node"].(dtypes.BNode)
		if !ok {
			continue
		}
		r, ok := byNode[string(node)]
		if !ok {
			r = &owlRestriction{}
			byNode[string(node)] = r
		}
		pred, obj := row["p"], row["o"]
		if pred == nil || obj == nil {
			continue
		}
		switch pred.String() {
		case "owl:onProperty":
			r.propIRI = xsd.IRIFromRDF(obj.String())
		case "owl:minQualifiedCardinality":
			if n, ok := asInteger(obj); ok {
				r.minCount = &n
			}
		case "owl:maxQualifiedCardinality":
			if n, ok := asInteger(obj); ok {
				r.maxCount = &n
			}
		case "owl:qualifiedCardinality":
			if n, ok := asInteger(obj); ok {
				m := n
				r.minCount = &n
				r.maxCount = &m
			}
		}
	}
	restrictions := map[xsd.IRI]*owlRestriction{}
	for _, r := range byNode {
		if r.propIRI != "" {
			restrictions[r.propIRI] = r
		}
	}

	scSparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?superclass
FROM %s:onto
WHERE {
    %s rdfs:subClassOf ?superclass .
    FILTER isIRI(?superclass)
}`, project.ShortName(), classIRI.ToRDF())
	scQP, err := con.QuerySelect(scSparql)
	if err != nil {
		return nil, nil, err
	}
	var supers []xsd.IRI
	for _, row := range scQP.Rows() {
		if sc, ok := row["superclass"]; ok {
			supers = append(supers, xsd.IRIFromRDF(sc.String()))
		}
	}
	return restrictions, supers, nil
}

// ReadResourceClass loads a resource class from the store: shape triples,
// inline and referenced property children, the OWL restriction pairing and
// the superclass chain. Superclasses in the same project are read through
// recursively; everything else stays IRI-only. Standalone properties
// already loaded (saProps) are shared, not re-read.
func ReadResourceClass(con connection.IConnection, project *Project, classIRI xsd.IRI, saProps map[xsd.IRI]*PropertyClass) (*ResourceClass, error) {
	inline, refs, err := queryResourceProps(con, project, classIRI)
	if err != nil {
		return nil, err
	}
	restrictions, supers, err := queryOWLRestrictions(con, project, classIRI)
	if err != nil {
		return nil, err
	}

	rc := &ResourceClass{
		Model:         Model{con: con},
		project:       project,
		graph:         project.ShortName(),
		owlClass:      classIRI,
		version:       InitialVersion,
		superclasses:  NewSuperclassMap(),
		properties:    map[xsd.IRI]*HasProperty{},
		attrChangeset: map[ResClassAttr]AttributeChange{},
		propChangeset: map[xsd.IRI]PropertyChange{},
	}

	for _, attrs := range inline {
		prop, err := NewPropertyClass(con, project, "", nil)
		if err != nil {
			return nil, err
		}
		hpd, err := prop.parseSHACL(attrs)
		if err != nil {
			return nil, err
		}
		if hpd != nil && hpd.RefProp != "" {
			// a blank node carrying sh:node references a standalone shape
			refIRI := hpd.RefProp
			hp := rc.resolveRef(con, project, refIRI, hpd, saProps)
			if err := rc.attachProperty(hp); err != nil {
				return nil, err
			}
			continue
		}
		prop.SetInternal(classIRI)
		if err := prop.readOWL(); err != nil {
			return nil, err
		}
		hp, err := NewHasProperty(con, project, PropInternal, prop, hpd)
		if err != nil {
			return nil, err
		}
		hp.fromStoreAudit(prop)
		if err := rc.attachProperty(hp); err != nil {
			return nil, err
		}
	}
	for _, refIRI := range refs {
		var hpd *HasPropertyData
		if r, ok := restrictions[refIRI]; ok {
			hpd = &HasPropertyData{MinCount: r.minCount, MaxCount: r.maxCount}
		}
		hp := rc.resolveRef(con, project, refIRI, hpd, saProps)
		if err := rc.attachProperty(hp); err != nil {
			return nil, err
		}
	}

	attrs, err := queryResourceSHACL(con, project, classIRI)
	if err != nil {
		return nil, err
	}
	if err := rc.parseSHACL(attrs); err != nil {
		return nil, err
	}

	for _, sc := range supers {
		if _, known := rc.superclasses.Get(sc); known {
			continue
		}
		rc.superclasses.Set(sc, nil)
	}

	rc.fromStore = true
	rc.ClearChangeset()
	return rc, nil
}

// resolveRef turns a standalone/external property reference into a
// HasProperty, reusing already-loaded standalone properties.
func (rc *ResourceClass) resolveRef(con connection.IConnection, project *Project, refIRI xsd.IRI, hpd *HasPropertyData, saProps map[xsd.IRI]*PropertyClass) *HasProperty {
	if prop, ok := saProps[refIRI]; ok {
		hp, err := NewHasProperty(con, project, PropStandalone, prop, hpd)
		if err == nil {
			return hp
		}
	}
	if refIRI.Prefix() == string(project.ShortName()) {
		if prop, err := ReadPropertyClass(con, project, refIRI); err == nil {
			if hp, err := NewHasProperty(con, project, PropStandalone, prop, hpd); err == nil {
				return hp
			}
		}
	}
	return NewHasPropertyRef(con, project, refIRI, hpd)
}

// parseSHACL populates the class-level attributes from the shape triples.
func (rc *ResourceClass) parseSHACL(attrs propAttributes) error {
	for key, val := range attrs {
		switch key {
		case "sh:targetClass", "rdf:type":
			continue
		case "dcterms:hasVersion":
			if v, ok := val.(xsd.Value); ok {
				version, err := ParseSemanticVersion(lexical(v))
				if err != nil {
					return err
				}
				rc.version = version
			}
		case "dcterms:creator":
			if v, ok := val.(xsd.Value); ok {
				rc.creator = xsd.IRIFromRDF(v.String())
			}
		case "dcterms:created":
			if dt, ok := val.(xsd.DateTime); ok {
				rc.created = dt
			}
		case "dcterms:contributor":
			if v, ok := val.(xsd.Value); ok {
				rc.contributor = xsd.IRIFromRDF(v.String())
			}
		case "dcterms:modified":
			if dt, ok := val.(xsd.DateTime); ok {
				rc.modified = dt
			}
		case "sh:node":
			nodes, _ := val.([]xsd.Value)
			for _, node := range nodes {
				ref := node.String()
				if !strings.HasSuffix(ref, "Shape") {
					return oldaperror.New(oldaperror.Inconsistency,
						`superclass node %q must end with "Shape"`, ref)
				}
				scIRI := xsd.IRIFromRDF(strings.TrimSuffix(ref, "Shape"))
				if scIRI.Prefix() == string(rc.project.ShortName()) {
					super, err := ReadResourceClass(rc.con, rc.project, scIRI, nil)
					if err != nil {
						return err
					}
					rc.superclasses.Set(scIRI, super)
				} else {
					rc.superclasses.Set(scIRI, nil)
				}
			}
		case "rdfs:label":
			if ls, ok := val.(*dtypes.LangString); ok {
				rc.label = ls
			} else if v, ok := val.(xsd.String); ok {
				rc.label = dtypes.LangStringFromRDF(v)
			}
		case "rdfs:comment":
			if ls, ok := val.(*dtypes.LangString); ok {
				rc.comment = ls
			} else if v, ok := val.(xsd.String); ok {
				rc.comment = dtypes.LangStringFromRDF(v)
			}
		case "sh:closed":
			if b, ok := val.(xsd.Boolean); ok {
				rc.closed = &b
			}
		}
	}
	rc.hookNested()
	return nil
}

// fromStoreAudit copies the audit fields of a freshly parsed property onto
// its binding.
func (hp *HasProperty) fromStoreAudit(prop *PropertyClass) {
	hp.creator = prop.creator
	hp.created = prop.created
	hp.contributor = prop.contributor
	hp.modified = prop.modified
}
