package model

import (
	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// ResClassAttr enumerates the attributes of a resource class.
type ResClassAttr string

const (
	// ResSuperclass is virtual: SHACL materializes it as sh:node, OWL as
	// rdfs:subClassOf.
	ResSuperclass ResClassAttr = "oldap:superclass"
	ResLabel      ResClassAttr = "rdfs:label"
	ResComment    ResClassAttr = "rdfs:comment"
	ResClosed     ResClassAttr = "sh:closed"
)

// SuperclassMap is the ordered mapping from superclass IRI to its
// read-through resource class. A nil entry is a superclass known by IRI
// only (external or OWL-only); entries with a class were resolved through
// their SHACL definition and take part in inheritance.
type SuperclassMap struct {
	order   []xsd.IRI
	classes map[xsd.IRI]*ResourceClass
}

// NewSuperclassMap builds an empty map.
func NewSuperclassMap() *SuperclassMap {
	return &SuperclassMap{classes: map[xsd.IRI]*ResourceClass{}}
}

// Set adds or replaces a superclass entry, preserving insertion order.
func (m *SuperclassMap) Set(iri xsd.IRI, rc *ResourceClass) {
	if _, ok := m.classes[iri]; !ok {
		m.order = append(m.order, iri)
	}
	m.classes[iri] = rc
}

// Get returns the resolved class of a superclass entry.
func (m *SuperclassMap) Get(iri xsd.IRI) (*ResourceClass, bool) {
	rc, ok := m.classes[iri]
	return rc, ok
}

// Delete removes a superclass entry.
func (m *SuperclassMap) Delete(iri xsd.IRI) {
	if _, ok := m.classes[iri]; !ok {
		return
	}
	delete(m.classes, iri)
	for i, o := range m.order {
		if o == iri {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// IRIs returns the superclass IRIs in insertion order.
func (m *SuperclassMap) IRIs() []xsd.IRI {
	return append([]xsd.IRI(nil), m.order...)
}

// Len returns the number of entries.
func (m *SuperclassMap) Len() int { return len(m.order) }

// Copy returns a shallow copy sharing the resolved classes.
func (m *SuperclassMap) Copy() *SuperclassMap {
	c := NewSuperclassMap()
	for _, iri := range m.order {
		c.Set(iri, m.classes[iri])
	}
	return c
}

// PropertyChange is one entry in a resource class's property change-set.
type PropertyChange struct {
	Old    *HasProperty
	Action dtypes.Action
}

// ResourceClass is a SHACL NodeShape paired with an OWL class. It carries a
// superclass chain, a label/comment pair, the closed-world flag and the
// mapping from property IRI to its HasProperty binding.
type ResourceClass struct {
	Model
	project   *Project
	graph     xsd.NCName
	owlClass  xsd.IRI
	version   SemanticVersion
	fromStore bool

	label        *dtypes.LangString
	comment      *dtypes.LangString
	closed       *xsd.Boolean
	superclasses *SuperclassMap

	properties map[xsd.IRI]*HasProperty
	propOrder  []xsd.IRI

	attrChangeset map[ResClassAttr]AttributeChange
	propChangeset map[xsd.IRI]PropertyChange
	notifier      func()
}

// ResourceClassOptions seeds a new resource class.
type ResourceClassOptions struct {
	Label        *dtypes.LangString
	Comment      *dtypes.LangString
	Closed       *xsd.Boolean
	Superclasses *SuperclassMap
	Properties   []*HasProperty
}

// NewResourceClass builds a resource class in memory.
func NewResourceClass(con connection.IConnection, project *Project, owlClassIRI xsd.IRI, opts ResourceClassOptions) (*ResourceClass, error) {
	rc := &ResourceClass{
		Model:         Model{con: con},
		project:       project,
		graph:         project.ShortName(),
		owlClass:      owlClassIRI,
		version:       InitialVersion,
		label:         opts.Label,
		comment:       opts.Comment,
		closed:        opts.Closed,
		superclasses:  opts.Superclasses,
		properties:    map[xsd.IRI]*HasProperty{},
		attrChangeset: map[ResClassAttr]AttributeChange{},
		propChangeset: map[xsd.IRI]PropertyChange{},
	}
	if rc.superclasses == nil {
		rc.superclasses = NewSuperclassMap()
	}
	for _, hp := range opts.Properties {
		if err := rc.attachProperty(hp); err != nil {
			return nil, err
		}
	}
	rc.hookNested()
	return rc, nil
}

func (rc *ResourceClass) attachProperty(hp *HasProperty) error {
	iri := hp.PropertyIRI()
	if _, exists := rc.properties[iri]; exists {
		return oldaperror.New(oldaperror.AlreadyExists,
			"property %q already bound to %q", iri, rc.owlClass)
	}
	if hp.Kind() == PropInternal && hp.Prop() != nil {
		hp.Prop().SetInternal(rc.owlClass)
	}
	rc.properties[iri] = hp
	rc.propOrder = append(rc.propOrder, iri)
	hp.SetNotifier(func() { rc.recordPropModify(iri) })
	return nil
}

func (rc *ResourceClass) hookNested() {
	if rc.label != nil {
		rc.label.SetNotifier(func() { rc.recordAttrModify(ResLabel) })
	}
	if rc.comment != nil {
		rc.comment.SetNotifier(func() { rc.recordAttrModify(ResComment) })
	}
}

func (rc *ResourceClass) recordAttrModify(attr ResClassAttr) {
	if _, ok := rc.attrChangeset[attr]; !ok {
		rc.attrChangeset[attr] = AttributeChange{Action: dtypes.ActionModify}
	}
	if rc.notifier != nil {
		rc.notifier()
	}
}

func (rc *ResourceClass) recordPropModify(iri xsd.IRI) {
	if _, ok := rc.propChangeset[iri]; !ok {
		rc.propChangeset[iri] = PropertyChange{Action: dtypes.ActionModify}
	}
	if rc.notifier != nil {
		rc.notifier()
	}
}

// SetNotifier registers the owning data model's callback.
func (rc *ResourceClass) SetNotifier(n func()) {
	rc.notifier = n
}

// OwlClassIRI returns the class IRI.
func (rc *ResourceClass) OwlClassIRI() xsd.IRI { return rc.owlClass }

// Project returns the owning project.
func (rc *ResourceClass) Project() *Project { return rc.project }

// Version returns the class's semantic version.
func (rc *ResourceClass) Version() SemanticVersion { return rc.version }

// FromStore reports whether the class was read from the triple store.
func (rc *ResourceClass) FromStore() bool { return rc.fromStore }

// Label returns the rdfs:label langString.
func (rc *ResourceClass) Label() *dtypes.LangString { return rc.label }

// Comment returns the rdfs:comment langString.
func (rc *ResourceClass) Comment() *dtypes.LangString { return rc.comment }

// Closed reports the closed-world flag; unset counts as open.
func (rc *ResourceClass) Closed() bool {
	return rc.closed != nil && rc.closed.Bool()
}

// Superclasses returns the superclass map.
func (rc *ResourceClass) Superclasses() *SuperclassMap { return rc.superclasses }

// SetLabel assigns rdfs:label with change tracking.
func (rc *ResourceClass) SetLabel(ls *dtypes.LangString) {
	action := dtypes.ActionReplace
	if rc.label == nil {
		action = dtypes.ActionCreate
	}
	rc.attrChangeset[ResLabel] = AttributeChange{Old: rc.label, Action: action}
	rc.label = ls
	rc.hookNested()
	if rc.notifier != nil {
		rc.notifier()
	}
}

// SetComment assigns rdfs:comment with change tracking.
func (rc *ResourceClass) SetComment(ls *dtypes.LangString) {
	action := dtypes.ActionReplace
	if rc.comment == nil {
		action = dtypes.ActionCreate
	}
	rc.attrChangeset[ResComment] = AttributeChange{Old: rc.comment, Action: action}
	rc.comment = ls
	rc.hookNested()
	if rc.notifier != nil {
		rc.notifier()
	}
}

// SetClosed assigns sh:closed with change tracking.
func (rc *ResourceClass) SetClosed(b xsd.Boolean) {
	action := dtypes.ActionReplace
	if rc.closed == nil {
		action = dtypes.ActionCreate
	}
	old := rc.closed
	rc.attrChangeset[ResClosed] = AttributeChange{Old: old, Action: action}
	rc.closed = &b
	if rc.notifier != nil {
		rc.notifier()
	}
}

// AddSuperclass records a new superclass.
func (rc *ResourceClass) AddSuperclass(iri xsd.IRI, super *ResourceClass) {
	if _, ok := rc.attrChangeset[ResSuperclass]; !ok {
		rc.attrChangeset[ResSuperclass] = AttributeChange{Old: rc.superclasses.Copy(), Action: dtypes.ActionReplace}
	}
	rc.superclasses.Set(iri, super)
	if rc.notifier != nil {
		rc.notifier()
	}
}

// RemoveSuperclass drops a superclass.
func (rc *ResourceClass) RemoveSuperclass(iri xsd.IRI) {
	if _, ok := rc.attrChangeset[ResSuperclass]; !ok {
		rc.attrChangeset[ResSuperclass] = AttributeChange{Old: rc.superclasses.Copy(), Action: dtypes.ActionReplace}
	}
	rc.superclasses.Delete(iri)
	if rc.notifier != nil {
		rc.notifier()
	}
}

// Properties returns the property bindings keyed by property IRI.
func (rc *ResourceClass) Properties() map[xsd.IRI]*HasProperty { return rc.properties }

// PropertyIRIs returns the bound property IRIs in declaration order.
func (rc *ResourceClass) PropertyIRIs() []xsd.IRI {
	return append([]xsd.IRI(nil), rc.propOrder...)
}

// GetProperty returns the binding for a property IRI.
func (rc *ResourceClass) GetProperty(iri xsd.IRI) (*HasProperty, bool) {
	hp, ok := rc.properties[iri]
	return hp, ok
}

// AddProperty binds a further property with change tracking. An internal
// addition is created in the store on the next Update.
func (rc *ResourceClass) AddProperty(hp *HasProperty) error {
	if err := rc.attachProperty(hp); err != nil {
		return err
	}
	rc.propChangeset[hp.PropertyIRI()] = PropertyChange{Action: dtypes.ActionCreate}
	if rc.notifier != nil {
		rc.notifier()
	}
	return nil
}

// RemoveProperty unbinds a property with change tracking. Internal
// properties are deleted from the store on the next Update; standalone
// properties merely lose their reference.
func (rc *ResourceClass) RemoveProperty(iri xsd.IRI) error {
	hp, ok := rc.properties[iri]
	if !ok {
		return oldaperror.New(oldaperror.NotFound, "property %q not bound to %q", iri, rc.owlClass)
	}
	rc.propChangeset[iri] = PropertyChange{Old: hp, Action: dtypes.ActionDelete}
	delete(rc.properties, iri)
	for i, o := range rc.propOrder {
		if o == iri {
			rc.propOrder = append(rc.propOrder[:i], rc.propOrder[i+1:]...)
			break
		}
	}
	if rc.notifier != nil {
		rc.notifier()
	}
	return nil
}

// AttrChangeset returns the recorded attribute changes.
func (rc *ResourceClass) AttrChangeset() map[ResClassAttr]AttributeChange {
	return rc.attrChangeset
}

// PropChangeset returns the recorded property-binding changes.
func (rc *ResourceClass) PropChangeset() map[xsd.IRI]PropertyChange {
	return rc.propChangeset
}

// ClearChangeset forgets all recorded changes, recursing into children.
func (rc *ResourceClass) ClearChangeset() {
	if rc.label != nil {
		rc.label.ClearChangeset()
	}
	if rc.comment != nil {
		rc.comment.ClearChangeset()
	}
	for _, hp := range rc.properties {
		hp.ClearChangeset()
	}
	rc.attrChangeset = map[ResClassAttr]AttributeChange{}
	rc.propChangeset = map[xsd.IRI]PropertyChange{}
}
