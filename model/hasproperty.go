package model

import (
	"fmt"
	"strings"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// PropKind distinguishes how a property is bound into a resource class.
type PropKind int

const (
	// PropInternal properties live as blank nodes inside one NodeShape.
	PropInternal PropKind = iota
	// PropStandalone properties are addressable sh:PropertyShape instances
	// within the same project, referenced via sh:node.
	PropStandalone
	// PropExternal properties belong to a foreign ontology; only their IRI
	// is known.
	PropExternal
)

// HasPropAttr enumerates the binding attributes of a HasProperty.
type HasPropAttr string

const (
	HasPropMinCount HasPropAttr = "sh:minCount"
	HasPropMaxCount HasPropAttr = "sh:maxCount"
	HasPropOrder    HasPropAttr = "sh:order"
	HasPropGroup    HasPropAttr = "sh:group"
)

// HasProperty binds a property class into a resource class, wrapping it
// with cardinality, ordering and grouping. For a functional OWL property
// the binding must carry maxCount 1; an inverse-functional property needs
// the exact cardinality 1..1. Both are checked at construction.
type HasProperty struct {
	Model
	project  *Project
	kind     PropKind
	prop     *PropertyClass
	propIRI  xsd.IRI
	minCount *xsd.Integer
	maxCount *xsd.Integer
	order    *xsd.Decimal
	group    xsd.QName

	changeset map[HasPropAttr]AttributeChange
	notifier  func()
}

// NewHasProperty binds a property class carried in full (internal or
// standalone).
func NewHasProperty(con connection.IConnection, project *Project, kind PropKind, prop *PropertyClass, hpd *HasPropertyData) (*HasProperty, error) {
	hp := &HasProperty{
		Model:     Model{con: con},
		project:   project,
		kind:      kind,
		prop:      prop,
		propIRI:   prop.PropertyClassIRI(),
		changeset: map[HasPropAttr]AttributeChange{},
	}
	if hpd != nil {
		hp.minCount = hpd.MinCount
		hp.maxCount = hpd.MaxCount
		hp.order = hpd.Order
		hp.group = hpd.Group
	}
	if err := hp.checkConsistency(); err != nil {
		return nil, err
	}
	return hp, nil
}

// NewHasPropertyRef binds a property by IRI only (an external reference).
func NewHasPropertyRef(con connection.IConnection, project *Project, propIRI xsd.IRI, hpd *HasPropertyData) *HasProperty {
	hp := &HasProperty{
		Model:     Model{con: con},
		project:   project,
		kind:      PropExternal,
		propIRI:   propIRI,
		changeset: map[HasPropAttr]AttributeChange{},
	}
	if hpd != nil {
		hp.minCount = hpd.MinCount
		hp.maxCount = hpd.MaxCount
		hp.order = hpd.Order
		hp.group = hpd.Group
	}
	return hp
}

// checkConsistency enforces the functional and inverse-functional
// cardinality invariants.
func (hp *HasProperty) checkConsistency() error {
	if hp.prop == nil {
		return nil
	}
	if hp.prop.HasOwlType(OwlFunctionalProperty) {
		if hp.maxCount == nil || *hp.maxCount != 1 {
			return oldaperror.New(oldaperror.Inconsistency,
				"functional property %q must have maxCount=1", hp.propIRI)
		}
	}
	if hp.prop.HasOwlType(OwlInverseFunctionalProperty) {
		if hp.minCount == nil || hp.maxCount == nil || *hp.minCount != 1 || *hp.maxCount != 1 {
			return oldaperror.New(oldaperror.Inconsistency,
				"inverse-functional property %q must have cardinality 1..1", hp.propIRI)
		}
	}
	return nil
}

// SetNotifier registers the owning resource class's callback, chaining it
// into the wrapped property class.
func (hp *HasProperty) SetNotifier(n func()) {
	hp.notifier = n
	if hp.prop != nil {
		hp.prop.SetNotifier(n)
	}
}

// Kind reports how the property is bound.
func (hp *HasProperty) Kind() PropKind { return hp.kind }

// Prop returns the wrapped property class, nil for external references.
func (hp *HasProperty) Prop() *PropertyClass { return hp.prop }

// PropertyIRI returns the bound property's IRI.
func (hp *HasProperty) PropertyIRI() xsd.IRI { return hp.propIRI }

// MinCount returns the sh:minCount facet, or nil.
func (hp *HasProperty) MinCount() *xsd.Integer { return hp.minCount }

// MaxCount returns the sh:maxCount facet, or nil.
func (hp *HasProperty) MaxCount() *xsd.Integer { return hp.maxCount }

// Order returns the sh:order facet, or nil.
func (hp *HasProperty) Order() *xsd.Decimal { return hp.order }

// Group returns the sh:group facet, or "".
func (hp *HasProperty) Group() xsd.QName { return hp.group }

// Data bundles the binding facets.
func (hp *HasProperty) Data() *HasPropertyData {
	return &HasPropertyData{
		MinCount: hp.minCount,
		MaxCount: hp.maxCount,
		Order:    hp.order,
		Group:    hp.group,
	}
}

// SetMinCount assigns sh:minCount with change tracking.
func (hp *HasProperty) SetMinCount(n xsd.Integer) {
	hp.record(HasPropMinCount, hp.minCount)
	hp.minCount = &n
}

// SetMaxCount assigns sh:maxCount with change tracking.
func (hp *HasProperty) SetMaxCount(n xsd.Integer) {
	hp.record(HasPropMaxCount, hp.maxCount)
	hp.maxCount = &n
}

// SetOrder assigns sh:order with change tracking.
func (hp *HasProperty) SetOrder(d xsd.Decimal) {
	hp.record(HasPropOrder, hp.order)
	hp.order = &d
}

// SetGroup assigns sh:group with change tracking.
func (hp *HasProperty) SetGroup(g xsd.QName) {
	hp.record(HasPropGroup, hp.group)
	hp.group = g
}

func (hp *HasProperty) record(attr HasPropAttr, old any) {
	if _, ok := hp.changeset[attr]; !ok {
		action := dtypes.ActionReplace
		switch v := old.(type) {
		case *xsd.Integer:
			if v == nil {
				action = dtypes.ActionCreate
			}
		case *xsd.Decimal:
			if v == nil {
				action = dtypes.ActionCreate
			}
		case xsd.QName:
			if v == "" {
				action = dtypes.ActionCreate
			}
		}
		hp.changeset[attr] = AttributeChange{Old: old, Action: action}
	}
	if hp.notifier != nil {
		hp.notifier()
	}
}

// Changeset returns the recorded binding changes.
func (hp *HasProperty) Changeset() map[HasPropAttr]AttributeChange {
	return hp.changeset
}

// ClearChangeset forgets the recorded changes, recursing into the wrapped
// property class.
func (hp *HasProperty) ClearChangeset() {
	if hp.prop != nil {
		hp.prop.ClearChangeset()
	}
	hp.changeset = map[HasPropAttr]AttributeChange{}
}

// Dirty reports whether the binding or the wrapped property carries
// un-cleared changes.
func (hp *HasProperty) Dirty() bool {
	if len(hp.changeset) > 0 {
		return true
	}
	return hp.prop != nil && len(hp.prop.Changeset()) > 0
}

// CreateSHACL emits the binding facets onto the owning inline property
// node.
func (hp *HasProperty) CreateSHACL(indent int) string {
	return hp.Data().CreateSHACL(indent)
}

// CreateOWL emits the qualified-cardinality triples of the binding.
func (hp *HasProperty) CreateOWL(indent int) string {
	return hp.Data().CreateOWL(indent)
}

// UpdateSHACL renders guarded patches for the changed binding facets on
// the property node of the owning class.
func (hp *HasProperty) UpdateSHACL(resclassIRI xsd.IRI) []string {
	var patches []string
	for attr, change := range hp.changeset {
		var sb strings.Builder
		fmt.Fprintf(&sb, "WITH %s:shacl\n", hp.project.ShortName())
		if change.Action != dtypes.ActionCreate {
			fmt.Fprintf(&sb, "DELETE {\n    ?prop %s %s .\n}\n", attr, hp.oldRDF(attr, change))
		}
		if newVal := hp.currentRDF(attr); newVal != "" {
			fmt.Fprintf(&sb, "INSERT {\n    ?prop %s %s .\n}\n", attr, newVal)
		}
		sb.WriteString("WHERE {\n")
		fmt.Fprintf(&sb, "    %sShape sh:property ?prop .\n", resclassIRI.ToRDF())
		if hp.kind == PropInternal {
			fmt.Fprintf(&sb, "    ?prop sh:path %s .\n", hp.propIRI.ToRDF())
		} else {
			fmt.Fprintf(&sb, "    ?prop sh:node %sShape .\n", hp.propIRI.ToRDF())
		}
		if change.Action != dtypes.ActionCreate {
			fmt.Fprintf(&sb, "    ?prop %s %s .\n", attr, hp.oldRDF(attr, change))
		}
		sb.WriteString("}")
		patches = append(patches, sb.String())
	}
	return patches
}

// UpdateOWL re-derives the qualified-cardinality triples on the owning
// class's restriction node when a count facet changed.
func (hp *HasProperty) UpdateOWL(resclassIRI xsd.IRI) string {
	_, minChanged := hp.changeset[HasPropMinCount]
	_, maxChanged := hp.changeset[HasPropMaxCount]
	if !minChanged && !maxChanged {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH %s:onto\n", hp.project.ShortName())
	sb.WriteString("DELETE {\n")
	sb.WriteString("    ?prop owl:qualifiedCardinality ?val_qualified .\n")
	sb.WriteString("    ?prop owl:minQualifiedCardinality ?val_min .\n")
	sb.WriteString("    ?prop owl:maxQualifiedCardinality ?val_max .\n}\n")
	if hp.minCount != nil || hp.maxCount != nil {
		sb.WriteString("INSERT {\n")
		if hp.minCount != nil && hp.maxCount != nil && *hp.minCount == *hp.maxCount {
			n, _ := xsd.NewNonNegativeInteger(hp.minCount.String())
			fmt.Fprintf(&sb, "    ?prop owl:qualifiedCardinality %s .\n", n.ToRDF())
		} else {
			if hp.minCount != nil {
				n, _ := xsd.NewNonNegativeInteger(hp.minCount.String())
				fmt.Fprintf(&sb, "    ?prop owl:minQualifiedCardinality %s .\n", n.ToRDF())
			}
			if hp.maxCount != nil {
				n, _ := xsd.NewNonNegativeInteger(hp.maxCount.String())
				fmt.Fprintf(&sb, "    ?prop owl:maxQualifiedCardinality %s .\n", n.ToRDF())
			}
		}
		sb.WriteString("}\n")
	}
	sb.WriteString("WHERE {\n")
	fmt.Fprintf(&sb, "    %s rdfs:subClassOf ?prop .\n", resclassIRI.ToRDF())
	fmt.Fprintf(&sb, "    ?prop owl:onProperty %s .\n", hp.propIRI.ToRDF())
	sb.WriteString("    OPTIONAL { ?prop owl:qualifiedCardinality ?val_qualified . }\n")
	sb.WriteString("    OPTIONAL { ?prop owl:minQualifiedCardinality ?val_min . }\n")
	sb.WriteString("    OPTIONAL { ?prop owl:maxQualifiedCardinality ?val_max . }\n}")
	return sb.String()
}

func (hp *HasProperty) oldRDF(attr HasPropAttr, change AttributeChange) string {
	switch v := change.Old.(type) {
	case *xsd.Integer:
		if v != nil {
			return v.ToRDF()
		}
	case *xsd.Decimal:
		if v != nil {
			return v.ToRDF()
		}
	case xsd.QName:
		if v != "" {
			return v.ToRDF()
		}
	}
	return "?val"
}

func (hp *HasProperty) currentRDF(attr HasPropAttr) string {
	switch attr {
	case HasPropMinCount:
		if hp.minCount != nil {
			return hp.minCount.ToRDF()
		}
	case HasPropMaxCount:
		if hp.maxCount != nil {
			return hp.maxCount.ToRDF()
		}
	case HasPropOrder:
		if hp.order != nil {
			return hp.order.ToRDF()
		}
	case HasPropGroup:
		if hp.group != "" {
			return hp.group.ToRDF()
		}
	}
	return ""
}
