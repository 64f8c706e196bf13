package model

import (
	"fmt"
	"sort"
	"strings"

	"oldap.evalgo.org/context"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// propAttrEmissionOrder fixes the order facets appear in emitted SHACL so
// repeated emissions are byte-identical.
var propAttrEmissionOrder = []PropClassAttr{
	PropSubPropertyOf, PropClass, PropNodeKind, PropDatatype, PropName,
	PropDescription, PropLanguageIn, PropUniqueLang, PropIn, PropMinLength,
	PropMaxLength, PropPattern, PropMinExclusive, PropMinInclusive,
	PropMaxExclusive, PropMaxInclusive, PropLessThan, PropLessThanOrEquals,
	PropInverseOf, PropEquivalentProperty,
}

// propertyNodeSHACL renders the body of the property node: sh:path, the
// audit fields and every SHACL-targeted facet.
func (p *PropertyClass) propertyNodeSHACL(timestamp xsd.DateTime, hpd *HasPropertyData, indent int) string {
	pad := strings.Repeat(" ", indent*4)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%ssh:path %s", pad, p.propIRI.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:hasVersion %s", pad, p.version.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:creator %s", pad, p.con.UserIRI().ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:created %s", pad, timestamp.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:contributor %s", pad, p.con.UserIRI().ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:modified %s", pad, timestamp.ToRDF())
	for _, attr := range propAttrEmissionOrder {
		if attr.Target() != TargetSHACL {
			continue
		}
		value, ok := p.attributes[attr]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, " ;\n%s%s %s", pad, attr.ToRDF(), rdfOf(value))
	}
	if hpd != nil {
		sb.WriteString(hpd.CreateSHACL(indent))
	}
	return sb.String()
}

// CreateSHACL renders the property's SHACL block: a standalone
// sh:PropertyShape for an external property, or an inline blank node
// attached to the owning shape for an internal one. Standalone properties
// carry no cardinality facets.
func (p *PropertyClass) CreateSHACL(timestamp xsd.DateTime, hpd *HasPropertyData, indent int) string {
	pad := strings.Repeat(" ", indent*4)
	var sb strings.Builder
	if p.internal == "" {
		fmt.Fprintf(&sb, "%s%sShape a sh:PropertyShape ;\n", pad, p.propIRI.ToRDF())
		sb.WriteString(p.propertyNodeSHACL(timestamp, nil, indent+1))
	} else {
		fmt.Fprintf(&sb, "%s%sShape sh:property _:propnode .\n", pad, p.internal.ToRDF())
		fmt.Fprintf(&sb, "%s_:propnode ", pad)
		sb.WriteString(strings.TrimLeft(p.propertyNodeSHACL(timestamp, hpd, indent+1), " "))
	}
	sb.WriteString(" .\n")
	return sb.String()
}

// CreateOWLPart1 renders the property declaration for the ontology graph:
// the rdf:type(s), rdfs:range, the domain for internal properties and the
// audit fields.
func (p *PropertyClass) CreateOWLPart1(timestamp xsd.DateTime, indent int) string {
	pad := strings.Repeat(" ", indent*4)
	pad1 := strings.Repeat(" ", (indent+1)*4)
	var sb strings.Builder
	types := make([]string, len(p.owlTypes))
	for i, t := range p.owlTypes {
		types[i] = string(t)
	}
	fmt.Fprintf(&sb, "%s%s rdf:type %s", pad, p.propIRI.ToRDF(), strings.Join(types, ", "))
	if sub, ok := p.attributes[PropSubPropertyOf]; ok {
		fmt.Fprintf(&sb, " ;\n%srdfs:subPropertyOf %s", pad1, rdfOf(sub))
	}
	if inv, ok := p.attributes[PropInverseOf]; ok {
		fmt.Fprintf(&sb, " ;\n%sowl:inverseOf %s", pad1, rdfOf(inv))
	}
	if eq, ok := p.attributes[PropEquivalentProperty]; ok {
		fmt.Fprintf(&sb, " ;\n%sowl:equivalentProperty %s", pad1, rdfOf(eq))
	}
	if p.internal != "" {
		fmt.Fprintf(&sb, " ;\n%srdfs:domain %s", pad1, p.internal.ToRDF())
	}
	if p.owlTypes[0] == OwlDataProperty {
		fmt.Fprintf(&sb, " ;\n%srdfs:range %s", pad1, string(p.Datatype()))
	} else if cls, ok := p.attributes[PropClass]; ok {
		fmt.Fprintf(&sb, " ;\n%srdfs:range %s", pad1, rdfOf(cls))
	}
	fmt.Fprintf(&sb, " ;\n%sdcterms:creator %s", pad1, p.con.UserIRI().ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:created %s", pad1, timestamp.ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:contributor %s", pad1, p.con.UserIRI().ToRDF())
	fmt.Fprintf(&sb, " ;\n%sdcterms:modified %s", pad1, timestamp.ToRDF())
	sb.WriteString(" .\n")
	return sb.String()
}

// CreateOWLPart2 renders the owl:Restriction node the owning class hangs
// off rdfs:subClassOf, pairing the property with its cardinality and its
// onDatatype/onClass target.
func (p *PropertyClass) CreateOWLPart2(hpd *HasPropertyData, indent int) string {
	pad := strings.Repeat(" ", indent*4)
	pad1 := strings.Repeat(" ", (indent+1)*4)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[\n", pad)
	fmt.Fprintf(&sb, "%srdf:type owl:Restriction ;\n", pad1)
	fmt.Fprintf(&sb, "%sowl:onProperty %s", pad1, p.propIRI.ToRDF())
	if hpd != nil {
		sb.WriteString(hpd.CreateOWL(indent))
	}
	if p.owlTypes[0] == OwlDataProperty {
		fmt.Fprintf(&sb, " ;\n%sowl:onDatatype %s", pad1, string(p.Datatype()))
	} else if cls, ok := p.attributes[PropClass]; ok {
		fmt.Fprintf(&sb, " ;\n%sowl:onClass %s", pad1, rdfOf(cls))
	}
	fmt.Fprintf(&sb, " ;\n%s]", pad)
	return sb.String()
}

// readModifiedSHACL fetches the property node's dcterms:modified inside the
// open transaction; nil means the node does not exist.
func (p *PropertyClass) readModifiedSHACL() (*xsd.DateTime, error) {
	ctx := p.con.Context()
	var sb strings.Builder
	sb.WriteString(ctx.SPARQLPrologue())
	sb.WriteString("SELECT ?modified\n")
	fmt.Fprintf(&sb, "FROM %s:shacl\n", p.graph)
	sb.WriteString("WHERE {\n")
	if p.internal != "" {
		fmt.Fprintf(&sb, "    %sShape sh:property ?prop .\n", p.internal.ToRDF())
		fmt.Fprintf(&sb, "    ?prop sh:path %s .\n", p.propIRI.ToRDF())
	} else {
		fmt.Fprintf(&sb, "    BIND(%sShape as ?prop)\n", p.propIRI.ToRDF())
	}
	sb.WriteString("    ?prop dcterms:modified ?modified .\n}")
	qp, err := p.con.TransactionQuery(sb.String())
	if err != nil {
		return nil, err
	}
	return modifiedFromResult(qp)
}

// readModifiedOWL fetches the OWL declaration's dcterms:modified inside the
// open transaction.
func (p *PropertyClass) readModifiedOWL() (*xsd.DateTime, error) {
	ctx := p.con.Context()
	var sb strings.Builder
	sb.WriteString(ctx.SPARQLPrologue())
	sb.WriteString("SELECT ?modified\n")
	fmt.Fprintf(&sb, "FROM %s:onto\n", p.graph)
	sb.WriteString("WHERE {\n")
	fmt.Fprintf(&sb, "    BIND(%s AS ?prop)\n", p.propIRI.ToRDF())
	sb.WriteString("    ?prop dcterms:modified ?modified .\n}")
	qp, err := p.con.TransactionQuery(sb.String())
	if err != nil {
		return nil, err
	}
	return modifiedFromResult(qp)
}

func modifiedFromResult(qp *context.QueryProcessor) (*xsd.DateTime, error) {
	if qp.Len() != 1 {
		return nil, nil
	}
	row, err := qp.Row(0)
	if err != nil {
		return nil, err
	}
	switch v := row["modified"].(type) {
	case xsd.DateTime:
		return &v, nil
	case xsd.DateTimeStamp:
		dt := xsd.DateTimeFromTime(v.Time())
		return &dt, nil
	}
	return nil, nil
}

// Create writes the property's SHACL and OWL materializations in one
// transactional INSERT DATA, refusing when the property already exists and
// verifying the write through the modification-timestamp read-back.
func (p *PropertyClass) Create(hpd *HasPropertyData) error {
	if p.fromStore {
		return oldaperror.New(oldaperror.AlreadyExists,
			"cannot create property %q that was read from the store", p.propIRI)
	}
	timestamp := xsd.DateTimeNow()
	ctx := p.con.Context()

	var sb strings.Builder
	sb.WriteString(ctx.SPARQLPrologue())
	sb.WriteString("INSERT DATA {\n")
	fmt.Fprintf(&sb, "    GRAPH %s:shacl {\n", p.graph)
	sb.WriteString(p.CreateSHACL(timestamp, hpd, 2))
	sb.WriteString("    }\n")
	fmt.Fprintf(&sb, "    GRAPH %s:onto {\n", p.graph)
	sb.WriteString(p.CreateOWLPart1(timestamp, 2))
	sb.WriteString("    }\n}\n")

	if err := p.con.TransactionStart(); err != nil {
		return err
	}
	existing, err := p.readModifiedSHACL()
	if err != nil {
		p.con.TransactionAbort()
		return err
	}
	if existing != nil {
		p.con.TransactionAbort()
		return oldaperror.New(oldaperror.AlreadyExists, "property %q already exists", p.propIRI)
	}
	if err := p.con.TransactionUpdate(sb.String()); err != nil {
		p.con.TransactionAbort()
		return err
	}
	modShacl, err := p.readModifiedSHACL()
	if err != nil {
		p.con.TransactionAbort()
		return err
	}
	modOwl, err := p.readModifiedOWL()
	if err != nil {
		p.con.TransactionAbort()
		return err
	}
	if modShacl == nil || modOwl == nil || !modShacl.Equal(timestamp) || !modOwl.Equal(timestamp) {
		p.con.TransactionAbort()
		return oldaperror.New(oldaperror.UpdateFailed, "creating property %q failed", p.propIRI)
	}
	if err := p.con.TransactionCommit(); err != nil {
		p.con.TransactionAbort()
		return err
	}
	p.setCreationMetadata(timestamp)
	p.fromStore = true
	p.ClearChangeset()
	return nil
}

// updateSHACL renders the guarded patches for every changed attribute in
// the SHACL graph, plus the contributor/modified bump.
func (p *PropertyClass) updateSHACL(timestamp xsd.DateTime) ([]string, error) {
	owlClass := ""
	if p.internal != "" {
		owlClass = p.internal.ToRDF()
	}
	lastMod := p.modified.ToRDF()
	var patches []string
	for _, attr := range sortedPropAttrs(p.changeset) {
		change := p.changeset[attr]
		if attr.Target() != TargetSHACL {
			continue
		}
		if _, present := p.attributes[attr]; !present && change.Action != dtypes.ActionDelete {
			// created and removed again before the update: net no-op
			if change.Action == dtypes.ActionCreate {
				continue
			}
			change.Action = dtypes.ActionDelete
		}
		switch {
		case change.Action == dtypes.ActionModify:
			ls, ok := p.attributes[attr].(*dtypes.LangString)
			if !ok {
				return nil, oldaperror.New(oldaperror.Inconsistency,
					"attribute %q cannot carry a MODIFY action", attr)
			}
			graphClause := fmt.Sprintf("WITH %s:shacl\n", p.graph)
			subject := func(sb *strings.Builder) {
				if owlClass != "" {
					fmt.Fprintf(sb, "    %sShape sh:property ?subj .\n", owlClass)
					fmt.Fprintf(sb, "    ?subj sh:path %s .\n", p.propIRI.ToRDF())
				} else {
					fmt.Fprintf(sb, "    BIND(%sShape as ?subj)\n", p.propIRI.ToRDF())
				}
			}
			patches = append(patches, langStringPatches(ls, graphClause, subject, string(attr), lastMod)...)
		case attr == PropIn || attr == PropLanguageIn:
			newList := ""
			if change.Action != dtypes.ActionDelete {
				newList = rdfListOf(p.attributes[attr])
			}
			patches = append(patches, replaceRDFList(string(p.graph), owlClass, p.propIRI.ToRDF(), string(attr), newList, lastMod))
		default:
			ele := rdfModifyItem{property: string(attr)}
			if change.Action != dtypes.ActionCreate {
				if change.Action == dtypes.ActionDelete {
					ele.oldValue = "?val"
				} else {
					ele.oldValue = rdfOf(change.Old)
				}
			}
			if change.Action != dtypes.ActionDelete {
				ele.newValue = rdfOf(p.attributes[attr])
			}
			patches = append(patches, modifySHACLProp(string(p.graph), owlClass, p.propIRI.ToRDF(), ele, lastMod))
		}
	}
	patches = append(patches,
		modifySHACLProp(string(p.graph), owlClass, p.propIRI.ToRDF(),
			rdfModifyItem{property: "dcterms:contributor", oldValue: p.contributor.ToRDF(), newValue: p.con.UserIRI().ToRDF()}, lastMod),
		modifySHACLProp(string(p.graph), owlClass, p.propIRI.ToRDF(),
			rdfModifyItem{property: "dcterms:modified", oldValue: p.modified.ToRDF(), newValue: timestamp.ToRDF()}, lastMod))
	return patches, nil
}

// updateOWL renders the OWL-side patches: range/subPropertyOf changes, the
// rdf:type flip when the property switches between data and object kind,
// and the audit bump.
func (p *PropertyClass) updateOWL(timestamp xsd.DateTime) []string {
	lastMod := p.modified.ToRDF()
	var patches []string
	for _, attr := range sortedPropAttrs(p.changeset) {
		change := p.changeset[attr]
		switch attr {
		case PropSubPropertyOf, PropDatatype, PropClass:
			predicate := "rdfs:range"
			if attr == PropSubPropertyOf {
				predicate = "rdfs:subPropertyOf"
			}
			ele := rdfModifyItem{property: predicate}
			if change.Action != dtypes.ActionCreate && change.Old != nil {
				ele.oldValue = rdfOf(change.Old)
			}
			if change.Action != dtypes.ActionDelete {
				ele.newValue = rdfOf(p.attributes[attr])
			}
			patches = append(patches, modifyOWLProp(string(p.graph), p.propIRI.ToRDF(), ele, lastMod))
		}
		if attr == PropDatatype || attr == PropClass {
			// Switching the restriction kind flips the OWL property type in
			// the same patch set.
			var ele rdfModifyItem
			if _, isObject := p.attributes[PropClass]; isObject {
				ele = rdfModifyItem{property: "rdf:type", oldValue: string(OwlDataProperty), newValue: string(OwlObjectProperty)}
			} else {
				ele = rdfModifyItem{property: "rdf:type", oldValue: string(OwlObjectProperty), newValue: string(OwlDataProperty)}
			}
			patches = append(patches, modifyOWLProp(string(p.graph), p.propIRI.ToRDF(), ele, lastMod))
		}
	}
	patches = append(patches,
		modifyOWLProp(string(p.graph), p.propIRI.ToRDF(),
			rdfModifyItem{property: "dcterms:contributor", oldValue: p.contributor.ToRDF(), newValue: p.con.UserIRI().ToRDF()}, lastMod),
		modifyOWLProp(string(p.graph), p.propIRI.ToRDF(),
			rdfModifyItem{property: "dcterms:modified", oldValue: p.modified.ToRDF(), newValue: timestamp.ToRDF()}, lastMod))
	return patches
}

// Update pushes the recorded attribute changes to the store in one
// transaction. The patches match on the last-known modification timestamp;
// if the read-back after the write does not return the new timestamp the
// transaction aborts with an update failure.
func (p *PropertyClass) Update() error {
	timestamp := xsd.DateTimeNow()
	ctx := p.con.Context()

	shaclPatches, err := p.updateSHACL(timestamp)
	if err != nil {
		return err
	}
	patches := append(shaclPatches, p.updateOWL(timestamp)...)
	sparql := ctx.SPARQLPrologue() + strings.Join(patches, " ;\n")

	if err := p.con.TransactionStart(); err != nil {
		return err
	}
	if err := p.con.TransactionUpdate(sparql); err != nil {
		p.con.TransactionAbort()
		return err
	}
	modShacl, err := p.readModifiedSHACL()
	if err != nil {
		p.con.TransactionAbort()
		return err
	}
	modOwl, err := p.readModifiedOWL()
	if err != nil {
		p.con.TransactionAbort()
		return err
	}
	if modShacl == nil || modOwl == nil || !modShacl.Equal(timestamp) || !modOwl.Equal(timestamp) {
		p.con.TransactionAbort()
		return oldaperror.New(oldaperror.UpdateFailed,
			"update of property %q failed: timestamp mismatch", p.propIRI)
	}
	if err := p.con.TransactionCommit(); err != nil {
		p.con.TransactionAbort()
		return err
	}
	p.setUpdateMetadata(timestamp)
	p.ClearChangeset()
	return nil
}

// deleteSHACL renders the SHACL removal: first the RDF list cells of any
// list-valued facet, then every triple on the property node (and the
// sh:property link for internal properties).
func (p *PropertyClass) deleteSHACL() []string {
	owlClass := ""
	if p.internal != "" {
		owlClass = p.internal.ToRDF()
	}
	lastMod := p.modified.ToRDF()
	var lists strings.Builder
	fmt.Fprintf(&lists, "WITH %s:shacl\n", p.graph)
	lists.WriteString("DELETE {\n    ?z rdf:first ?head ;\n        rdf:rest ?tail .\n}\n")
	lists.WriteString("WHERE {\n")
	if owlClass != "" {
		fmt.Fprintf(&lists, "    %sShape sh:property ?propnode .\n", owlClass)
		fmt.Fprintf(&lists, "    ?propnode sh:path %s .\n", p.propIRI.ToRDF())
	} else {
		fmt.Fprintf(&lists, "    BIND(%sShape as ?propnode)\n", p.propIRI.ToRDF())
	}
	lists.WriteString("    ?propnode ?listprop ?list .\n")
	lists.WriteString("    ?list rdf:rest* ?z .\n")
	lists.WriteString("    ?z rdf:first ?head ;\n        rdf:rest ?tail .\n")
	lists.WriteString("    ?propnode dcterms:modified ?modified .\n")
	fmt.Fprintf(&lists, "    FILTER(?modified = %s)\n}", lastMod)

	var rest strings.Builder
	fmt.Fprintf(&rest, "WITH %s:shacl\n", p.graph)
	rest.WriteString("DELETE {\n")
	if owlClass != "" {
		fmt.Fprintf(&rest, "    %sShape sh:property ?propnode .\n", owlClass)
	}
	rest.WriteString("    ?propnode ?p ?v\n}\n")
	rest.WriteString("WHERE {\n")
	if owlClass != "" {
		fmt.Fprintf(&rest, "    %sShape sh:property ?propnode .\n", owlClass)
		fmt.Fprintf(&rest, "    ?propnode sh:path %s .\n", p.propIRI.ToRDF())
	} else {
		fmt.Fprintf(&rest, "    BIND(%sShape as ?propnode)\n", p.propIRI.ToRDF())
	}
	rest.WriteString("    ?propnode ?p ?v .\n")
	rest.WriteString("    ?propnode dcterms:modified ?modified .\n")
	fmt.Fprintf(&rest, "    FILTER(?modified = %s)\n}", lastMod)

	return []string{lists.String(), rest.String()}
}

// deleteOWL renders the removal of the OWL axioms, including the owning
// class's restriction node for internal properties.
func (p *PropertyClass) deleteOWL() []string {
	lastMod := p.modified.ToRDF()
	var decl strings.Builder
	fmt.Fprintf(&decl, "WITH %s:onto\n", p.graph)
	decl.WriteString("DELETE {\n    ?propnode ?p ?v\n}\n")
	decl.WriteString("WHERE {\n")
	fmt.Fprintf(&decl, "    BIND(%s as ?propnode)\n", p.propIRI.ToRDF())
	decl.WriteString("    ?propnode ?p ?v .\n")
	decl.WriteString("    ?propnode dcterms:modified ?modified .\n")
	fmt.Fprintf(&decl, "    FILTER(?modified = %s)\n}", lastMod)
	patches := []string{decl.String()}
	if p.internal != "" {
		patches = append(patches, p.deleteOWLSubclassNode(p.internal))
	}
	return patches
}

// deleteOWLSubclassNode removes the rdfs:subClassOf restriction node of the
// owning class that points at this property.
func (p *PropertyClass) deleteOWLSubclassNode(owner xsd.IRI) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH %s:onto\n", p.graph)
	sb.WriteString("DELETE {\n")
	fmt.Fprintf(&sb, "    %s rdfs:subClassOf ?propnode .\n", owner.ToRDF())
	sb.WriteString("    ?propnode ?p ?v .\n}\n")
	sb.WriteString("WHERE {\n")
	fmt.Fprintf(&sb, "    %s rdfs:subClassOf ?propnode .\n", owner.ToRDF())
	fmt.Fprintf(&sb, "    ?propnode owl:onProperty %s .\n", p.propIRI.ToRDF())
	sb.WriteString("    ?propnode ?p ?v .\n}")
	return sb.String()
}

// DeleteFromStore removes the property's SHACL and OWL materializations
// transactionally: list tails first, then the SHACL triples, then the OWL
// axioms. The read-back must come up empty or the transaction aborts.
func (p *PropertyClass) DeleteFromStore() error {
	ctx := p.con.Context()
	patches := append(p.deleteSHACL(), p.deleteOWL()...)
	sparql := ctx.SPARQLPrologue() + strings.Join(patches, " ;\n")

	if err := p.con.TransactionStart(); err != nil {
		return err
	}
	if err := p.con.TransactionUpdate(sparql); err != nil {
		p.con.TransactionAbort()
		return err
	}
	modShacl, err := p.readModifiedSHACL()
	if err != nil {
		p.con.TransactionAbort()
		return err
	}
	modOwl, err := p.readModifiedOWL()
	if err != nil {
		p.con.TransactionAbort()
		return err
	}
	if modShacl != nil || modOwl != nil {
		p.con.TransactionAbort()
		return oldaperror.New(oldaperror.UpdateFailed, "deleting property %q failed", p.propIRI)
	}
	if err := p.con.TransactionCommit(); err != nil {
		p.con.TransactionAbort()
		return err
	}
	p.fromStore = false
	return nil
}

// InUse reports whether any stored triple uses the property as predicate.
func (p *PropertyClass) InUse() (bool, error) {
	ctx := p.con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT (COUNT(?instance) as ?n)
WHERE {
    ?instance %s ?value .
}`, p.propIRI.ToRDF())
	qp, err := p.con.QuerySelect(sparql)
	if err != nil {
		return false, err
	}
	return countResult(qp, "n")
}

func countResult(qp *context.QueryProcessor, name string) (bool, error) {
	if qp.Len() != 1 {
		return false, oldaperror.New(oldaperror.Generic, "malformed count result")
	}
	row, err := qp.Row(0)
	if err != nil {
		return false, err
	}
	if n, ok := row[name].(xsd.Numeric); ok {
		return n.Float64() > 0, nil
	}
	return false, oldaperror.New(oldaperror.Generic, "malformed count result")
}

func sortedPropAttrs(changeset map[PropClassAttr]AttributeChange) []PropClassAttr {
	attrs := make([]PropClassAttr, 0, len(changeset))
	for attr := range changeset {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

// rdfListOf renders a set-valued attribute as an RDF collection.
func rdfListOf(value any) string {
	switch v := value.(type) {
	case *dtypes.XsdSet:
		return v.ToRDF()
	case *dtypes.LanguageIn:
		return v.ToRDF()
	}
	return ""
}
