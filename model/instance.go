package model

import (
	"regexp"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// ThingIRI is the root resource class providing the system-owned audit
// fields every derived instance carries.
var ThingIRI = xsd.IRI("oldap:Thing")

// The system-owned instance fields. Their singleton values are unwrapped
// on access.
var systemFields = map[xsd.IRI]bool{
	"oldap:createdBy":            true,
	"oldap:creationDate":         true,
	"oldap:lastModifiedBy":       true,
	"oldap:lastModificationDate": true,
}

// GrantsPermissionIRI attaches permission sets to a resource instance.
var GrantsPermissionIRI = xsd.IRI("oldap:grantsPermission")

// ResourceInstance is a dynamically shaped record derived from a
// ResourceClass: an IRI, the project graph it lives in, and a mapping from
// property IRI to a value container (a LangString for langString
// properties, a value set otherwise). Every ingress value is validated
// against the class's SHACL facets; mutations are tracked field-wise so
// updates patch only what changed.
type ResourceInstance struct {
	con       connection.IConnection
	project   *Project
	name      xsd.NCName
	classIRI  xsd.IRI
	class     *ResourceClass
	iri       xsd.IRI
	graph     xsd.NCName
	derived   bool // derives (transitively) from oldap:Thing
	props     map[xsd.IRI]*HasProperty
	propOrder []xsd.IRI
	index     map[string]xsd.IRI
	values    map[xsd.IRI]any
	changeset map[xsd.IRI]AttributeChange
}

// collectProperties gathers the class's own and inherited bindings,
// superclass-first so inherited fields are visible before own ones.
func collectProperties(rc *ResourceClass, into *ResourceInstance, seen map[xsd.IRI]bool) {
	for _, scIRI := range rc.Superclasses().IRIs() {
		if scIRI == ThingIRI {
			into.derived = true
		}
		if seen[scIRI] {
			continue
		}
		seen[scIRI] = true
		if super, _ := rc.Superclasses().Get(scIRI); super != nil {
			collectProperties(super, into, seen)
		}
	}
	for _, iri := range rc.PropertyIRIs() {
		if _, ok := into.props[iri]; ok {
			continue
		}
		into.props[iri] = rc.Properties()[iri]
		into.propOrder = append(into.propOrder, iri)
		into.index[iri.Fragment()] = iri
	}
}

// newResourceInstance builds and validates an instance. Values are keyed
// by property fragment name; raw values are coerced to the declared
// datatype (single value to a singleton set, collections to a set or a
// LangString for langString properties). The IRI is minted as a URN UUID
// when empty.
func newResourceInstance(con connection.IConnection, project *Project, class *ResourceClass, name xsd.NCName, iri xsd.IRI, kwargs map[string]any) (*ResourceInstance, error) {
	inst := &ResourceInstance{
		con:       con,
		project:   project,
		name:      name,
		classIRI:  class.OwlClassIRI(),
		class:     class,
		iri:       iri,
		graph:     project.ShortName(),
		props:     map[xsd.IRI]*HasProperty{},
		index:     map[string]xsd.IRI{},
		values:    map[xsd.IRI]any{},
		changeset: map[xsd.IRI]AttributeChange{},
	}
	if inst.iri == "" {
		inst.iri = xsd.NewIRI()
	}
	collectProperties(class, inst, map[xsd.IRI]bool{})

	for field, raw := range kwargs {
		propIRI, ok := inst.index[field]
		if !ok {
			if class.Closed() {
				return nil, oldaperror.New(oldaperror.Value,
					"%s: field %q is not a property of the closed class", name, field)
			}
			continue
		}
		container, err := inst.buildContainer(propIRI, raw)
		if err != nil {
			return nil, err
		}
		inst.values[propIRI] = container
	}

	if inst.derived {
		timestamp := xsd.DateTimeStampNow()
		inst.ensureSystemField("oldap:createdBy", con.UserIRI())
		inst.ensureSystemField("oldap:creationDate", timestamp)
		inst.ensureSystemField("oldap:lastModifiedBy", con.UserIRI())
		inst.ensureSystemField("oldap:lastModificationDate", timestamp)
	}

	for _, propIRI := range inst.propOrder {
		if err := inst.validateProperty(propIRI); err != nil {
			return nil, err
		}
	}
	inst.hookContainers()
	inst.ClearChangeset()
	return inst, nil
}

func (r *ResourceInstance) ensureSystemField(field xsd.IRI, value xsd.Value) {
	if _, ok := r.values[field]; !ok {
		r.values[field] = dtypes.NewXsdSet(value)
	}
}

// buildContainer coerces a raw field value to the property's container
// type.
func (r *ResourceInstance) buildContainer(propIRI xsd.IRI, raw any) (any, error) {
	hp := r.props[propIRI]
	datatype := xsd.Datatype("")
	if hp.Prop() != nil {
		datatype = hp.Prop().Datatype()
	}
	if datatype == xsd.DatatypeLangString {
		switch v := raw.(type) {
		case *dtypes.LangString:
			return v, nil
		case xsd.String:
			return dtypes.NewLangString(v)
		case []xsd.String:
			return dtypes.NewLangString(v...)
		case []any:
			var values []xsd.String
			for _, item := range v {
				s, ok := item.(xsd.String)
				if !ok {
					return nil, oldaperror.New(oldaperror.Type,
						"%s: cannot build a langString for %q from %T", r.name, propIRI, item)
				}
				values = append(values, s)
			}
			return dtypes.NewLangString(values...)
		case string:
			s, err := xsd.NewString(v)
			if err != nil {
				return nil, err
			}
			return dtypes.NewLangString(s)
		}
		return nil, oldaperror.New(oldaperror.Type,
			"%s: cannot build a langString for %q from %T", r.name, propIRI, raw)
	}
	set := dtypes.NewXsdSet()
	add := func(item any) error {
		value, err := xsd.Convert(item, datatype)
		if err != nil {
			return err
		}
		set.Add(value)
		return nil
	}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if err := add(item); err != nil {
				return nil, err
			}
		}
	case []xsd.Value:
		for _, item := range v {
			if err := add(item); err != nil {
				return nil, err
			}
		}
	case *dtypes.XsdSet:
		for _, item := range v.Values() {
			if err := add(item); err != nil {
				return nil, err
			}
		}
	default:
		if err := add(raw); err != nil {
			return nil, err
		}
	}
	set.ClearChangeset()
	return set, nil
}

// hookContainers wires every container's notifier to the field change-set.
func (r *ResourceInstance) hookContainers() {
	for propIRI, container := range r.values {
		propIRI := propIRI
		switch v := container.(type) {
		case *dtypes.LangString:
			v.SetNotifier(func() { r.recordModify(propIRI) })
		case *dtypes.XsdSet:
			v.SetNotifier(func() { r.recordModify(propIRI) })
		}
	}
}

func (r *ResourceInstance) recordModify(propIRI xsd.IRI) {
	if _, ok := r.changeset[propIRI]; !ok {
		r.changeset[propIRI] = AttributeChange{Action: dtypes.ActionModify}
	}
}

// IRI returns the instance's IRI.
func (r *ResourceInstance) IRI() xsd.IRI { return r.iri }

// Name returns the class fragment name.
func (r *ResourceInstance) Name() xsd.NCName { return r.name }

// ClassIRI returns the IRI of the instance's class.
func (r *ResourceInstance) ClassIRI() xsd.IRI { return r.classIRI }

// Project returns the owning project.
func (r *ResourceInstance) Project() *Project { return r.project }

// Changeset returns the recorded field changes.
func (r *ResourceInstance) Changeset() map[xsd.IRI]AttributeChange { return r.changeset }

// ClearChangeset forgets the recorded changes, recursing into containers.
func (r *ResourceInstance) ClearChangeset() {
	for _, container := range r.values {
		switch v := container.(type) {
		case *dtypes.LangString:
			v.ClearChangeset()
		case *dtypes.XsdSet:
			v.ClearChangeset()
		}
	}
	r.changeset = map[xsd.IRI]AttributeChange{}
}

// Get returns a field's container by fragment name. Singletons of the
// system audit fields are unwrapped to their single value.
func (r *ResourceInstance) Get(field string) (any, error) {
	propIRI, ok := r.index[field]
	if !ok {
		if sys := xsd.IRI("oldap:" + field); systemFields[sys] {
			propIRI = sys
		} else {
			return nil, oldaperror.New(oldaperror.Key, "%s: unknown field %q", r.name, field)
		}
	}
	container, ok := r.values[propIRI]
	if !ok {
		return nil, nil
	}
	if systemFields[propIRI] {
		if set, isSet := container.(*dtypes.XsdSet); isSet && set.Len() == 1 {
			return set.Values()[0], nil
		}
	}
	return container, nil
}

// Set assigns a field with re-validation. On failure the instance is left
// unchanged. A nil value behaves like Del.
func (r *ResourceInstance) Set(field string, raw any) error {
	propIRI, ok := r.index[field]
	if !ok {
		return oldaperror.New(oldaperror.Key, "%s: unknown field %q", r.name, field)
	}
	if raw == nil {
		return r.Del(field)
	}
	container, err := r.buildContainer(propIRI, raw)
	if err != nil {
		return err
	}
	old, had := r.values[propIRI]
	r.values[propIRI] = container
	if err := r.validateProperty(propIRI); err != nil {
		if had {
			r.values[propIRI] = old
		} else {
			delete(r.values, propIRI)
		}
		return err
	}
	if _, recorded := r.changeset[propIRI]; !recorded {
		if had {
			r.changeset[propIRI] = AttributeChange{Old: old, Action: dtypes.ActionReplace}
		} else {
			r.changeset[propIRI] = AttributeChange{Action: dtypes.ActionCreate}
		}
	}
	r.hookContainers()
	return nil
}

// Del removes a field. Fields with a positive minCount refuse deletion.
func (r *ResourceInstance) Del(field string) error {
	propIRI, ok := r.index[field]
	if !ok {
		return oldaperror.New(oldaperror.Key, "%s: unknown field %q", r.name, field)
	}
	hp := r.props[propIRI]
	if hp.MinCount() != nil && *hp.MinCount() > 0 {
		return oldaperror.New(oldaperror.Value,
			"%s: field %q with minCount=%s cannot be deleted", r.name, field, hp.MinCount())
	}
	old, had := r.values[propIRI]
	if !had {
		return nil
	}
	r.changeset[propIRI] = AttributeChange{Old: old, Action: dtypes.ActionDelete}
	delete(r.values, propIRI)
	return nil
}

// AddValue inserts a further value into a set-valued field, re-validating
// the field and rolling the container back on violation.
func (r *ResourceInstance) AddValue(field string, raw any) error {
	propIRI, ok := r.index[field]
	if !ok {
		return oldaperror.New(oldaperror.Key, "%s: unknown field %q", r.name, field)
	}
	hp := r.props[propIRI]
	datatype := xsd.Datatype("")
	if hp.Prop() != nil {
		datatype = hp.Prop().Datatype()
	}
	value, err := xsd.Convert(raw, datatype)
	if err != nil {
		return err
	}
	set, isSet := r.values[propIRI].(*dtypes.XsdSet)
	if !isSet {
		return r.Set(field, raw)
	}
	set.Add(value)
	if err := r.validateProperty(propIRI); err != nil {
		set.Undo()
		delete(r.changeset, propIRI)
		return err
	}
	return nil
}

// DiscardValue removes one value from a set-valued field with the same
// rollback discipline.
func (r *ResourceInstance) DiscardValue(field string, raw any) error {
	propIRI, ok := r.index[field]
	if !ok {
		return oldaperror.New(oldaperror.Key, "%s: unknown field %q", r.name, field)
	}
	hp := r.props[propIRI]
	datatype := xsd.Datatype("")
	if hp.Prop() != nil {
		datatype = hp.Prop().Datatype()
	}
	value, err := xsd.Convert(raw, datatype)
	if err != nil {
		return err
	}
	set, isSet := r.values[propIRI].(*dtypes.XsdSet)
	if !isSet {
		return oldaperror.New(oldaperror.Type, "%s: field %q is not set-valued", r.name, field)
	}
	set.Discard(value)
	if err := r.validateProperty(propIRI); err != nil {
		set.Undo()
		delete(r.changeset, propIRI)
		return err
	}
	return nil
}

// validateProperty enforces the binding's cardinality and every SHACL
// facet of the property on the field's current value.
func (r *ResourceInstance) validateProperty(propIRI xsd.IRI) error {
	hp := r.props[propIRI]
	container := r.values[propIRI]

	count := 0
	switch v := container.(type) {
	case *dtypes.LangString:
		count = v.Len()
	case *dtypes.XsdSet:
		count = v.Len()
	}
	if hp.MinCount() != nil && int64(count) < hp.MinCount().Int64() {
		return oldaperror.New(oldaperror.Value,
			"%s: property %s with minCount=%s has %d values", r.name, propIRI, hp.MinCount(), count)
	}
	if hp.MaxCount() != nil && int64(count) > hp.MaxCount().Int64() {
		return oldaperror.New(oldaperror.Value,
			"%s: property %s with maxCount=%s has %d values", r.name, propIRI, hp.MaxCount(), count)
	}
	if container == nil || hp.Prop() == nil {
		return nil
	}
	return r.validateFacets(container, hp.Prop())
}

// validateFacets checks a value container against the property's facet
// restrictions.
func (r *ResourceInstance) validateFacets(container any, prop *PropertyClass) error {
	if li, ok := prop.Get(PropLanguageIn).(*dtypes.LanguageIn); ok {
		ls, isLS := container.(*dtypes.LangString)
		if !isLS {
			return oldaperror.New(oldaperror.Inconsistency,
				"property %s with languageIn requires rdf:langString values", prop.PropertyClassIRI())
		}
		for _, lang := range ls.Langs() {
			if !li.Contains(lang) {
				return oldaperror.New(oldaperror.Value,
					"property %s with languageIn=%s has invalid language %q",
					prop.PropertyClassIRI(), li.String(), lang)
			}
		}
	}
	values := containerValues(container)
	if in, ok := prop.Get(PropIn).(*dtypes.XsdSet); ok {
		for _, val := range values {
			if !in.Contains(val) {
				return oldaperror.New(oldaperror.Value,
					"property %s with in=%s has invalid value %q",
					prop.PropertyClassIRI(), in.String(), val.String())
			}
		}
	}
	if minLen, ok := prop.Get(PropMinLength).(xsd.Integer); ok {
		for _, val := range values {
			if int64(lengthOf(val)) < minLen.Int64() {
				return oldaperror.New(oldaperror.Value,
					"property %s with minLength=%s violated by %q", prop.PropertyClassIRI(), minLen, val.String())
			}
		}
	}
	if maxLen, ok := prop.Get(PropMaxLength).(xsd.Integer); ok {
		for _, val := range values {
			if int64(lengthOf(val)) > maxLen.Int64() {
				return oldaperror.New(oldaperror.Value,
					"property %s with maxLength=%s violated by %q", prop.PropertyClassIRI(), maxLen, val.String())
			}
		}
	}
	if pattern, ok := prop.Get(PropPattern).(xsd.String); ok {
		re, err := regexp.Compile(pattern.Value())
		if err != nil {
			return oldaperror.Wrap(oldaperror.Inconsistency, err,
				"property %s has an invalid pattern", prop.PropertyClassIRI())
		}
		for _, val := range values {
			if !re.MatchString(stringValueOf(val)) {
				return oldaperror.New(oldaperror.Value,
					"property %s with pattern=%q violated by %q",
					prop.PropertyClassIRI(), pattern.Value(), val.String())
			}
		}
	}
	type rangeFacet struct {
		attr PropClassAttr
		ok   func(cmp int) bool
	}
	for _, facet := range []rangeFacet{
		{PropMinExclusive, func(cmp int) bool { return cmp > 0 }},
		{PropMinInclusive, func(cmp int) bool { return cmp >= 0 }},
		{PropMaxExclusive, func(cmp int) bool { return cmp < 0 }},
		{PropMaxInclusive, func(cmp int) bool { return cmp <= 0 }},
	} {
		bound, ok := prop.Get(facet.attr).(xsd.Numeric)
		if !ok {
			continue
		}
		for _, val := range values {
			cmp, err := xsd.Compare(val, bound)
			if err != nil {
				return oldaperror.Wrap(oldaperror.Inconsistency, err,
					"property %s facet %s cannot be compared to %q",
					prop.PropertyClassIRI(), facet.attr, val.String())
			}
			if !facet.ok(cmp) {
				return oldaperror.New(oldaperror.Value,
					"property %s with %s=%s violated by %q",
					prop.PropertyClassIRI(), facet.attr, bound.String(), val.String())
			}
		}
	}
	if err := r.validateLessThan(values, prop, PropLessThan, func(cmp int) bool { return cmp < 0 }); err != nil {
		return err
	}
	return r.validateLessThan(values, prop, PropLessThanOrEquals, func(cmp int) bool { return cmp <= 0 })
}

// validateLessThan compares this property's maximum against the minimum of
// the property the facet names. Each facet reads its own comparand key.
func (r *ResourceInstance) validateLessThan(values []xsd.Value, prop *PropertyClass, attr PropClassAttr, ok func(cmp int) bool) error {
	other, has := prop.Get(attr).(xsd.IRI)
	if !has {
		return nil
	}
	otherValues := containerValues(r.values[other])
	if len(otherValues) == 0 || len(values) == 0 {
		return nil
	}
	maxVal := values[0]
	for _, v := range values[1:] {
		if cmp, err := xsd.Compare(v, maxVal); err == nil && cmp > 0 {
			maxVal = v
		}
	}
	minOther := otherValues[0]
	for _, v := range otherValues[1:] {
		if cmp, err := xsd.Compare(v, minOther); err == nil && cmp < 0 {
			minOther = v
		}
	}
	cmp, err := xsd.Compare(maxVal, minOther)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Inconsistency, err,
			"property %s with %s=%s cannot be compared", prop.PropertyClassIRI(), attr, other)
	}
	if !ok(cmp) {
		return oldaperror.New(oldaperror.Inconsistency,
			"property %s with %s=%s violated: %q not below %q",
			prop.PropertyClassIRI(), attr, other, maxVal.String(), minOther.String())
	}
	return nil
}

func containerValues(container any) []xsd.Value {
	switch v := container.(type) {
	case *dtypes.XsdSet:
		return v.Values()
	case *dtypes.LangString:
		values := v.Values()
		out := make([]xsd.Value, len(values))
		for i, s := range values {
			out[i] = s
		}
		return out
	}
	return nil
}

func lengthOf(v xsd.Value) int {
	if s, ok := v.(xsd.String); ok {
		return s.Len()
	}
	return len([]rune(v.String()))
}

func stringValueOf(v xsd.Value) string {
	if s, ok := v.(xsd.String); ok {
		return s.Value()
	}
	return v.String()
}
