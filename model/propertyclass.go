package model

import (
	"fmt"
	"strings"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// OwlPropertyType distinguishes the OWL property kinds and characteristics.
type OwlPropertyType string

const (
	OwlDataProperty              OwlPropertyType = "owl:DatatypeProperty"
	OwlObjectProperty            OwlPropertyType = "owl:ObjectProperty"
	OwlFunctionalProperty        OwlPropertyType = "owl:FunctionalProperty"
	OwlInverseFunctionalProperty OwlPropertyType = "owl:InverseFunctionalProperty"
	OwlTransitiveProperty        OwlPropertyType = "owl:TransitiveProperty"
	OwlSymmetricProperty         OwlPropertyType = "owl:SymmetricProperty"
)

// ToRDF emits the bare QName.
func (t OwlPropertyType) ToRDF() string { return string(t) }

// Target routes an attribute's emission to the SHACL or the OWL graph.
type Target int

const (
	TargetSHACL Target = iota
	TargetOWL
)

// PropClassAttr enumerates the attributes of a property class. The string
// value is the predicate the attribute materializes as.
type PropClassAttr string

const (
	PropSubPropertyOf      PropClassAttr = "rdfs:subPropertyOf"
	PropType               PropClassAttr = "rdf:type"
	PropClass              PropClassAttr = "sh:class"
	PropNodeKind           PropClassAttr = "sh:nodeKind"
	PropDatatype           PropClassAttr = "sh:datatype"
	PropName               PropClassAttr = "sh:name"
	PropDescription        PropClassAttr = "sh:description"
	PropLanguageIn         PropClassAttr = "sh:languageIn"
	PropUniqueLang         PropClassAttr = "sh:uniqueLang"
	PropIn                 PropClassAttr = "sh:in"
	PropMinLength          PropClassAttr = "sh:minLength"
	PropMaxLength          PropClassAttr = "sh:maxLength"
	PropPattern            PropClassAttr = "sh:pattern"
	PropMinExclusive       PropClassAttr = "sh:minExclusive"
	PropMinInclusive       PropClassAttr = "sh:minInclusive"
	PropMaxExclusive       PropClassAttr = "sh:maxExclusive"
	PropMaxInclusive       PropClassAttr = "sh:maxInclusive"
	PropLessThan           PropClassAttr = "sh:lessThan"
	PropLessThanOrEquals   PropClassAttr = "sh:lessThanOrEquals"
	PropInverseOf          PropClassAttr = "owl:inverseOf"
	PropEquivalentProperty PropClassAttr = "owl:equivalentProperty"
)

// propAttrTargets routes each attribute to its graph. Attributes not listed
// here target SHACL.
var propAttrTargets = map[PropClassAttr]Target{
	PropSubPropertyOf:      TargetOWL,
	PropType:               TargetOWL,
	PropInverseOf:          TargetOWL,
	PropEquivalentProperty: TargetOWL,
}

// Target returns the graph the attribute materializes into.
func (a PropClassAttr) Target() Target {
	if t, ok := propAttrTargets[a]; ok {
		return t
	}
	return TargetSHACL
}

// ToRDF emits the attribute's predicate QName.
func (a PropClassAttr) ToRDF() string { return string(a) }

// propClassAttrs is the closed attribute set, for membership checks.
var propClassAttrs = map[PropClassAttr]bool{
	PropSubPropertyOf: true, PropType: true, PropClass: true,
	PropNodeKind: true, PropDatatype: true, PropName: true,
	PropDescription: true, PropLanguageIn: true, PropUniqueLang: true,
	PropIn: true, PropMinLength: true, PropMaxLength: true,
	PropPattern: true, PropMinExclusive: true, PropMinInclusive: true,
	PropMaxExclusive: true, PropMaxInclusive: true, PropLessThan: true,
	PropLessThanOrEquals: true, PropInverseOf: true, PropEquivalentProperty: true,
}

// HasPropertyData carries the cardinality facets a resource class wraps
// around a property: they belong to the binding, not the property itself.
type HasPropertyData struct {
	RefProp  xsd.IRI
	MinCount *xsd.Integer
	MaxCount *xsd.Integer
	Order    *xsd.Decimal
	Group    xsd.QName
}

// CreateSHACL emits the four optional facets onto the owning inline
// property node.
func (h *HasPropertyData) CreateSHACL(indent int) string {
	pad := strings.Repeat(" ", indent*4)
	var sb strings.Builder
	if h.MinCount != nil {
		fmt.Fprintf(&sb, " ;\n%ssh:minCount %s", pad, h.MinCount.ToRDF())
	}
	if h.MaxCount != nil {
		fmt.Fprintf(&sb, " ;\n%ssh:maxCount %s", pad, h.MaxCount.ToRDF())
	}
	if h.Order != nil {
		fmt.Fprintf(&sb, " ;\n%ssh:order %s", pad, h.Order.ToRDF())
	}
	if h.Group != "" {
		fmt.Fprintf(&sb, " ;\n%ssh:group %s", pad, h.Group.ToRDF())
	}
	return sb.String()
}

// CreateOWL emits the qualified-cardinality triples of the binding:
// min == max collapses to owl:qualifiedCardinality.
func (h *HasPropertyData) CreateOWL(indent int) string {
	pad := strings.Repeat(" ", indent*4)
	var sb strings.Builder
	if h.MinCount != nil && h.MaxCount != nil && *h.MinCount == *h.MaxCount {
		n, _ := xsd.NewNonNegativeInteger(h.MinCount.String())
		fmt.Fprintf(&sb, " ;\n%sowl:qualifiedCardinality %s", pad, n.ToRDF())
		return sb.String()
	}
	if h.MinCount != nil {
		n, _ := xsd.NewNonNegativeInteger(h.MinCount.String())
		fmt.Fprintf(&sb, " ;\n%sowl:minQualifiedCardinality %s", pad, n.ToRDF())
	}
	if h.MaxCount != nil {
		n, _ := xsd.NewNonNegativeInteger(h.MaxCount.String())
		fmt.Fprintf(&sb, " ;\n%sowl:maxQualifiedCardinality %s", pad, n.ToRDF())
	}
	return sb.String()
}

// PropertyClass is a SHACL PropertyShape paired with an OWL property
// declaration. A property is either standalone (an addressable
// sh:PropertyShape, shareable across resource classes) or internal (a blank
// node inside one resource class's NodeShape, its lifetime bound to it).
type PropertyClass struct {
	Model
	project   *Project
	graph     xsd.NCName
	propIRI   xsd.IRI
	internal  xsd.IRI
	owlTypes  []OwlPropertyType
	version   SemanticVersion
	fromStore bool

	attributes map[PropClassAttr]any
	changeset  map[PropClassAttr]AttributeChange
	notifier   func()
}

// NewPropertyClass builds a property class in memory. The attrs map seeds
// the attribute bag; the constructor enforces the kernel invariants:
// LANGUAGE_IN implies DATATYPE langString, and DATATYPE and CLASS are
// mutually exclusive. The OWL property kind is derived, never set.
func NewPropertyClass(con connection.IConnection, project *Project, propertyIRI xsd.IRI, attrs map[PropClassAttr]any) (*PropertyClass, error) {
	p := &PropertyClass{
		Model:      Model{con: con},
		project:    project,
		graph:      project.ShortName(),
		propIRI:    propertyIRI,
		version:    InitialVersion,
		attributes: map[PropClassAttr]any{},
		changeset:  map[PropClassAttr]AttributeChange{},
	}
	for attr, value := range attrs {
		if !propClassAttrs[attr] {
			return nil, oldaperror.New(oldaperror.Key, "unknown property attribute %q", attr)
		}
		checked, err := checkPropAttrValue(attr, value)
		if err != nil {
			return nil, err
		}
		p.attributes[attr] = checked
	}
	if err := p.deriveKind(); err != nil {
		return nil, err
	}
	p.hookNested()
	return p, nil
}

// deriveKind enforces the LANGUAGE_IN/DATATYPE/CLASS invariants and derives
// the OWL property kind.
func (p *PropertyClass) deriveKind() error {
	if _, ok := p.attributes[PropLanguageIn]; ok {
		dt, has := p.attributes[PropDatatype]
		if !has {
			p.attributes[PropDatatype] = xsd.DatatypeLangString
		} else if dt != xsd.DatatypeLangString {
			return oldaperror.New(oldaperror.Value,
				`restriction LANGUAGE_IN requires DATATYPE "rdf:langString", not %q`, dt)
		}
	}
	_, hasDT := p.attributes[PropDatatype]
	_, hasClass := p.attributes[PropClass]
	if hasDT && hasClass {
		return oldaperror.New(oldaperror.Inconsistency,
			"DATATYPE and CLASS restrictions cannot be combined on %q", p.propIRI)
	}
	kind := OwlDataProperty
	if hasClass {
		kind = OwlObjectProperty
	}
	if len(p.owlTypes) == 0 {
		p.owlTypes = []OwlPropertyType{kind}
	} else {
		p.owlTypes[0] = kind
	}
	return nil
}

// checkPropAttrValue verifies the declared value type of an attribute.
func checkPropAttrValue(attr PropClassAttr, value any) (any, error) {
	wrong := func() (any, error) {
		return nil, oldaperror.New(oldaperror.Type, "invalid value type %T for attribute %q", value, attr)
	}
	switch attr {
	case PropSubPropertyOf, PropClass, PropNodeKind, PropLessThan, PropLessThanOrEquals:
		if v, ok := value.(xsd.IRI); ok {
			return v, nil
		}
		if v, ok := value.(xsd.QName); ok {
			return xsd.IRI(v), nil
		}
		return wrong()
	case PropInverseOf, PropEquivalentProperty:
		if v, ok := value.(xsd.QName); ok {
			return v, nil
		}
		return wrong()
	case PropDatatype:
		if v, ok := value.(xsd.Datatype); ok {
			return v, nil
		}
		return wrong()
	case PropName, PropDescription:
		if v, ok := value.(*dtypes.LangString); ok {
			return v, nil
		}
		return wrong()
	case PropLanguageIn:
		if v, ok := value.(*dtypes.LanguageIn); ok {
			return v, nil
		}
		return wrong()
	case PropIn:
		if v, ok := value.(*dtypes.XsdSet); ok {
			return v, nil
		}
		return wrong()
	case PropUniqueLang:
		if v, ok := value.(xsd.Boolean); ok {
			return v, nil
		}
		return wrong()
	case PropMinLength, PropMaxLength:
		if v, ok := value.(xsd.Integer); ok {
			return v, nil
		}
		return wrong()
	case PropPattern:
		if v, ok := value.(xsd.String); ok {
			return v, nil
		}
		return wrong()
	case PropMinExclusive, PropMinInclusive, PropMaxExclusive, PropMaxInclusive:
		if v, ok := value.(xsd.Numeric); ok {
			return v, nil
		}
		return wrong()
	case PropType:
		return nil, oldaperror.New(oldaperror.Immutable, "the OWL property kind is derived, not set")
	}
	return wrong()
}

// hookNested wires the nested containers to the property's change-set.
func (p *PropertyClass) hookNested() {
	for attr, value := range p.attributes {
		attr := attr
		switch v := value.(type) {
		case *dtypes.LangString:
			v.SetNotifier(func() { p.recordNestedChange(attr) })
		case *dtypes.LanguageIn:
			v.SetNotifier(func() { p.recordSetChange(attr) })
		case *dtypes.XsdSet:
			v.SetNotifier(func() { p.recordSetChange(attr) })
		}
	}
}

// recordNestedChange registers a MODIFY entry for an in-place container
// mutation.
func (p *PropertyClass) recordNestedChange(attr PropClassAttr) {
	if _, ok := p.changeset[attr]; !ok {
		p.changeset[attr] = AttributeChange{Action: dtypes.ActionModify}
	}
	if p.notifier != nil {
		p.notifier()
	}
}

// recordSetChange registers a REPLACE entry for a set mutation: RDF lists
// cannot be patched in place, the whole list is re-emitted.
func (p *PropertyClass) recordSetChange(attr PropClassAttr) {
	if _, ok := p.changeset[attr]; !ok {
		var old any
		switch v := p.attributes[attr].(type) {
		case *dtypes.LanguageIn:
			old = dtypes.LanguageInFromRDF(oldLanguageCodes(v)...)
		case *dtypes.XsdSet:
			old = dtypes.NewXsdSet(v.OldValues()...)
		}
		p.changeset[attr] = AttributeChange{Old: old, Action: dtypes.ActionReplace}
	}
	if p.notifier != nil {
		p.notifier()
	}
}

func oldLanguageCodes(li *dtypes.LanguageIn) []string {
	langs := li.OldValues()
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = string(l)
	}
	return out
}

// SetNotifier registers the owning entity's callback.
func (p *PropertyClass) SetNotifier(n func()) {
	p.notifier = n
}

// PropertyClassIRI returns the property's IRI (sh:path).
func (p *PropertyClass) PropertyClassIRI() xsd.IRI { return p.propIRI }

// Project returns the owning project.
func (p *PropertyClass) Project() *Project { return p.project }

// Version returns the property's semantic version.
func (p *PropertyClass) Version() SemanticVersion { return p.version }

// Internal returns the owning resource class IRI for an internal property,
// or "" for a standalone one.
func (p *PropertyClass) Internal() xsd.IRI { return p.internal }

// SetInternal binds the property to its owning resource class.
func (p *PropertyClass) SetInternal(owner xsd.IRI) { p.internal = owner }

// ForceExternal marks a property read from the store as standalone.
func (p *PropertyClass) ForceExternal() { p.internal = "" }

// FromStore reports whether the property was read from the triple store.
func (p *PropertyClass) FromStore() bool { return p.fromStore }

// OwlTypes returns the OWL kinds and characteristics of the property; the
// first entry is always the derived Data/Object kind.
func (p *PropertyClass) OwlTypes() []OwlPropertyType { return p.owlTypes }

// AddOwlType attaches an OWL characteristic (functional, transitive, …).
func (p *PropertyClass) AddOwlType(t OwlPropertyType) {
	for _, existing := range p.owlTypes {
		if existing == t {
			return
		}
	}
	p.owlTypes = append(p.owlTypes, t)
}

// HasOwlType reports whether the property carries the characteristic.
func (p *PropertyClass) HasOwlType(t OwlPropertyType) bool {
	for _, existing := range p.owlTypes {
		if existing == t {
			return true
		}
	}
	return false
}

// Datatype returns the sh:datatype, or "" for an object property.
func (p *PropertyClass) Datatype() xsd.Datatype {
	if dt, ok := p.attributes[PropDatatype].(xsd.Datatype); ok {
		return dt
	}
	return ""
}

// Get returns the attribute's value, or nil.
func (p *PropertyClass) Get(attr PropClassAttr) any {
	return p.attributes[attr]
}

// Set assigns an attribute with change tracking. Setting CLASS drops
// DATATYPE and vice versa, flipping the derived OWL kind.
func (p *PropertyClass) Set(attr PropClassAttr, value any) error {
	if !propClassAttrs[attr] {
		return oldaperror.New(oldaperror.Key, "unknown property attribute %q", attr)
	}
	checked, err := checkPropAttrValue(attr, value)
	if err != nil {
		return err
	}
	if old, ok := p.attributes[attr]; ok && old == checked {
		return nil
	}
	switch attr {
	case PropClass:
		if dt, ok := p.attributes[PropDatatype]; ok {
			if _, recorded := p.changeset[PropDatatype]; !recorded {
				p.changeset[PropDatatype] = AttributeChange{Old: dt, Action: dtypes.ActionDelete}
			}
			delete(p.attributes, PropDatatype)
		}
	case PropDatatype:
		if cls, ok := p.attributes[PropClass]; ok {
			if _, recorded := p.changeset[PropClass]; !recorded {
				p.changeset[PropClass] = AttributeChange{Old: cls, Action: dtypes.ActionDelete}
			}
			delete(p.attributes, PropClass)
		}
	}
	// only the first change per attribute is recorded, so undo and the
	// guarded patches always work against the last stored state
	if _, recorded := p.changeset[attr]; !recorded {
		if old, ok := p.attributes[attr]; ok {
			p.changeset[attr] = AttributeChange{Old: old, Action: dtypes.ActionReplace}
		} else {
			p.changeset[attr] = AttributeChange{Action: dtypes.ActionCreate}
		}
	}
	p.attributes[attr] = checked
	if err := p.deriveKind(); err != nil {
		return err
	}
	p.hookNested()
	if p.notifier != nil {
		p.notifier()
	}
	return nil
}

// Unset removes an attribute with change tracking.
func (p *PropertyClass) Unset(attr PropClassAttr) error {
	old, ok := p.attributes[attr]
	if !ok {
		return oldaperror.New(oldaperror.Key, "attribute %q not set", attr)
	}
	if _, recorded := p.changeset[attr]; !recorded {
		p.changeset[attr] = AttributeChange{Old: old, Action: dtypes.ActionDelete}
	}
	delete(p.attributes, attr)
	if err := p.deriveKind(); err != nil {
		return err
	}
	if p.notifier != nil {
		p.notifier()
	}
	return nil
}

// Changeset returns the recorded attribute changes.
func (p *PropertyClass) Changeset() map[PropClassAttr]AttributeChange {
	return p.changeset
}

// ClearChangeset forgets the recorded changes, recursing into the nested
// containers.
func (p *PropertyClass) ClearChangeset() {
	for _, value := range p.attributes {
		switch v := value.(type) {
		case *dtypes.LangString:
			v.ClearChangeset()
		case *dtypes.LanguageIn:
			v.ClearChangeset()
		case *dtypes.XsdSet:
			v.ClearChangeset()
		}
	}
	p.changeset = map[PropClassAttr]AttributeChange{}
}

// Undo rolls every un-cleared change back.
func (p *PropertyClass) Undo() {
	for attr, change := range p.changeset {
		switch change.Action {
		case dtypes.ActionModify:
			switch v := p.attributes[attr].(type) {
			case *dtypes.LangString:
				v.Undo()
			case *dtypes.LanguageIn:
				v.Undo()
			case *dtypes.XsdSet:
				v.Undo()
			}
		case dtypes.ActionCreate:
			delete(p.attributes, attr)
		default:
			p.attributes[attr] = change.Old
		}
	}
	p.changeset = map[PropClassAttr]AttributeChange{}
}

// rdfOf renders any attribute value in its RDF term form.
func rdfOf(value any) string {
	switch v := value.(type) {
	case RDFer:
		return v.ToRDF()
	case xsd.Datatype:
		return string(v)
	case SemanticVersion:
		return v.ToRDF()
	}
	return fmt.Sprintf("%v", value)
}
