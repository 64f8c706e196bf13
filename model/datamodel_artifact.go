package model

import (
	"encoding/json"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// The artifact codec flattens a data model into a JSON document for the
// artifact cache. Decoding rebuilds a fully wired model marked as read
// from the store; since every decode constructs fresh objects, cached
// models behave like deep copies.

type auditArtifact struct {
	Creator     string `json:"creator,omitempty"`
	Created     string `json:"created,omitempty"`
	Contributor string `json:"contributor,omitempty"`
	Modified    string `json:"modified,omitempty"`
}

type propArtifact struct {
	IRI        string            `json:"iri"`
	Internal   string            `json:"internal,omitempty"`
	Version    string            `json:"version"`
	OwlTypes   []string          `json:"owlTypes"`
	Scalars    map[string]string `json:"scalars,omitempty"`
	Name       map[string]string `json:"name,omitempty"`
	Descr      map[string]string `json:"description,omitempty"`
	LanguageIn []string          `json:"languageIn,omitempty"`
	InSet      []string          `json:"inSet,omitempty"`
	InSetType  string            `json:"inSetType,omitempty"`
	Audit      auditArtifact     `json:"audit"`
}

type hasPropArtifact struct {
	Kind     int           `json:"kind"`
	PropIRI  string        `json:"propIri"`
	Prop     *propArtifact `json:"prop,omitempty"`
	MinCount *int64        `json:"minCount,omitempty"`
	MaxCount *int64        `json:"maxCount,omitempty"`
	Order    *float64      `json:"order,omitempty"`
	Group    string        `json:"group,omitempty"`
}

type superclassArtifact struct {
	IRI   string       `json:"iri"`
	Class *resArtifact `json:"class,omitempty"`
}

type resArtifact struct {
	IRI          string               `json:"iri"`
	Version      string               `json:"version"`
	Label        map[string]string    `json:"label,omitempty"`
	Comment      map[string]string    `json:"comment,omitempty"`
	Closed       *bool                `json:"closed,omitempty"`
	Superclasses []superclassArtifact `json:"superclasses,omitempty"`
	Properties   []hasPropArtifact    `json:"properties,omitempty"`
	Audit        auditArtifact        `json:"audit"`
}

type dmArtifact struct {
	Version   string `json:"version"`
	ExtOntos  []struct {
		Prefix string `json:"prefix"`
		NS     string `json:"ns"`
	} `json:"extOntos,omitempty"`
	Properties []propArtifact `json:"properties,omitempty"`
	Resources  []resArtifact  `json:"resources,omitempty"`
}

func auditOf(m *Model) auditArtifact {
	a := auditArtifact{}
	if m.creator != "" {
		a.Creator = string(m.creator)
	}
	if !m.created.IsZero() {
		a.Created = m.created.String()
	}
	if m.contributor != "" {
		a.Contributor = string(m.contributor)
	}
	if !m.modified.IsZero() {
		a.Modified = m.modified.String()
	}
	return a
}

func (m *Model) applyAudit(a auditArtifact) {
	m.creator = xsd.IRIFromRDF(a.Creator)
	m.contributor = xsd.IRIFromRDF(a.Contributor)
	if a.Created != "" {
		if dt, err := xsd.DateTimeFromRDF(a.Created); err == nil {
			m.created = dt
		}
	}
	if a.Modified != "" {
		if dt, err := xsd.DateTimeFromRDF(a.Modified); err == nil {
			m.modified = dt
		}
	}
}

func encodeProp(p *PropertyClass) propArtifact {
	a := propArtifact{
		IRI:      string(p.propIRI),
		Internal: string(p.internal),
		Version:  p.version.String(),
		Scalars:  map[string]string{},
		Audit:    auditOf(&p.Model),
	}
	for _, t := range p.owlTypes {
		a.OwlTypes = append(a.OwlTypes, string(t))
	}
	for attr, value := range p.attributes {
		switch v := value.(type) {
		case *dtypes.LangString:
			entries := map[string]string{}
			for _, lang := range v.Langs() {
				text, _ := v.Get(lang)
				entries[string(lang)] = text
			}
			if attr == PropName {
				a.Name = entries
			} else {
				a.Descr = entries
			}
		case *dtypes.LanguageIn:
			for _, lang := range v.Values() {
				a.LanguageIn = append(a.LanguageIn, string(lang))
			}
		case *dtypes.XsdSet:
			for _, elem := range v.Values() {
				a.InSet = append(a.InSet, elem.String())
			}
			if v.Len() > 0 {
				a.InSetType = string(xsd.DatatypeOf(v.Values()[0]))
			}
		case xsd.Datatype:
			a.Scalars[string(attr)] = string(v)
		case xsd.Value:
			a.Scalars[string(attr)] = v.String()
		}
	}
	return a
}

func decodeProp(con connection.IConnection, project *Project, a propArtifact) (*PropertyClass, error) {
	p, err := NewPropertyClass(con, project, xsd.IRI(a.IRI), nil)
	if err != nil {
		return nil, err
	}
	p.internal = xsd.IRI(a.Internal)
	if a.Version != "" {
		if v, err := ParseSemanticVersion(a.Version); err == nil {
			p.version = v
		}
	}
	p.owlTypes = nil
	for _, t := range a.OwlTypes {
		p.owlTypes = append(p.owlTypes, OwlPropertyType(t))
	}
	for attr, lexical := range a.Scalars {
		value, err := decodePropScalar(PropClassAttr(attr), lexical)
		if err != nil {
			return nil, err
		}
		p.attributes[PropClassAttr(attr)] = value
	}
	if len(a.Name) > 0 {
		p.attributes[PropName] = langStringFromMap(a.Name)
	}
	if len(a.Descr) > 0 {
		p.attributes[PropDescription] = langStringFromMap(a.Descr)
	}
	if len(a.LanguageIn) > 0 {
		p.attributes[PropLanguageIn] = dtypes.LanguageInFromRDF(a.LanguageIn...)
	}
	if len(a.InSet) > 0 {
		set := dtypes.NewXsdSet()
		for _, lex := range a.InSet {
			elem, err := xsd.FromRDF(lex, xsd.Datatype(a.InSetType))
			if err != nil {
				return nil, err
			}
			set.Add(elem)
		}
		set.ClearChangeset()
		p.attributes[PropIn] = set
	}
	if len(p.owlTypes) == 0 {
		if err := p.deriveKind(); err != nil {
			return nil, err
		}
	}
	p.applyAudit(a.Audit)
	p.hookNested()
	p.fromStore = true
	return p, nil
}

func decodePropScalar(attr PropClassAttr, lexical string) (any, error) {
	switch attr {
	case PropDatatype:
		return xsd.Datatype(lexical), nil
	case PropUniqueLang:
		return xsd.NewBoolean(lexical)
	case PropMinLength, PropMaxLength:
		return xsd.NewInteger(lexical)
	case PropPattern:
		return xsd.StringFromRDF(lexical, ""), nil
	case PropMinExclusive, PropMinInclusive, PropMaxExclusive, PropMaxInclusive:
		return xsd.NewNumeric(lexical)
	case PropInverseOf, PropEquivalentProperty:
		return xsd.QNameFromRDF(lexical), nil
	default:
		return xsd.IRIFromRDF(lexical), nil
	}
}

func langStringFromMap(entries map[string]string) *dtypes.LangString {
	var values []xsd.String
	for lang, text := range entries {
		values = append(values, xsd.StringFromRDF(text, lang))
	}
	return dtypes.LangStringFromRDF(values...)
}

func langStringToMap(ls *dtypes.LangString) map[string]string {
	if ls == nil || ls.Len() == 0 {
		return nil
	}
	out := map[string]string{}
	for _, lang := range ls.Langs() {
		text, _ := ls.Get(lang)
		out[string(lang)] = text
	}
	return out
}

func encodeHasProp(hp *HasProperty) hasPropArtifact {
	a := hasPropArtifact{
		Kind:    int(hp.kind),
		PropIRI: string(hp.propIRI),
		Group:   string(hp.group),
	}
	if hp.prop != nil {
		pa := encodeProp(hp.prop)
		a.Prop = &pa
	}
	if hp.minCount != nil {
		n := hp.minCount.Int64()
		a.MinCount = &n
	}
	if hp.maxCount != nil {
		n := hp.maxCount.Int64()
		a.MaxCount = &n
	}
	if hp.order != nil {
		f := hp.order.Float64()
		a.Order = &f
	}
	return a
}

func decodeHasProp(con connection.IConnection, project *Project, a hasPropArtifact) (*HasProperty, error) {
	hpd := &HasPropertyData{Group: xsd.QName(a.Group)}
	if a.MinCount != nil {
		n := xsd.Integer(*a.MinCount)
		hpd.MinCount = &n
	}
	if a.MaxCount != nil {
		n := xsd.Integer(*a.MaxCount)
		hpd.MaxCount = &n
	}
	if a.Order != nil {
		d := xsd.Decimal(*a.Order)
		hpd.Order = &d
	}
	if a.Prop == nil {
		return NewHasPropertyRef(con, project, xsd.IRI(a.PropIRI), hpd), nil
	}
	prop, err := decodeProp(con, project, *a.Prop)
	if err != nil {
		return nil, err
	}
	return NewHasProperty(con, project, PropKind(a.Kind), prop, hpd)
}

func encodeRes(rc *ResourceClass) resArtifact {
	a := resArtifact{
		IRI:     string(rc.owlClass),
		Version: rc.version.String(),
		Label:   langStringToMap(rc.label),
		Comment: langStringToMap(rc.comment),
		Audit:   auditOf(&rc.Model),
	}
	if rc.closed != nil {
		b := rc.closed.Bool()
		a.Closed = &b
	}
	for _, iri := range rc.superclasses.IRIs() {
		sc := superclassArtifact{IRI: string(iri)}
		if resolved, _ := rc.superclasses.Get(iri); resolved != nil {
			ra := encodeRes(resolved)
			sc.Class = &ra
		}
		a.Superclasses = append(a.Superclasses, sc)
	}
	for _, iri := range rc.propOrder {
		a.Properties = append(a.Properties, encodeHasProp(rc.properties[iri]))
	}
	return a
}

func decodeRes(con connection.IConnection, project *Project, a resArtifact) (*ResourceClass, error) {
	rc := &ResourceClass{
		Model:         Model{con: con},
		project:       project,
		graph:         project.ShortName(),
		owlClass:      xsd.IRI(a.IRI),
		version:       InitialVersion,
		superclasses:  NewSuperclassMap(),
		properties:    map[xsd.IRI]*HasProperty{},
		attrChangeset: map[ResClassAttr]AttributeChange{},
		propChangeset: map[xsd.IRI]PropertyChange{},
	}
	if a.Version != "" {
		if v, err := ParseSemanticVersion(a.Version); err == nil {
			rc.version = v
		}
	}
	if len(a.Label) > 0 {
		rc.label = langStringFromMap(a.Label)
	}
	if len(a.Comment) > 0 {
		rc.comment = langStringFromMap(a.Comment)
	}
	if a.Closed != nil {
		b := xsd.Boolean(*a.Closed)
		rc.closed = &b
	}
	for _, sc := range a.Superclasses {
		if sc.Class != nil {
			super, err := decodeRes(con, project, *sc.Class)
			if err != nil {
				return nil, err
			}
			rc.superclasses.Set(xsd.IRI(sc.IRI), super)
		} else {
			rc.superclasses.Set(xsd.IRI(sc.IRI), nil)
		}
	}
	for _, hpa := range a.Properties {
		hp, err := decodeHasProp(con, project, hpa)
		if err != nil {
			return nil, err
		}
		if err := rc.attachProperty(hp); err != nil {
			return nil, err
		}
	}
	rc.applyAudit(a.Audit)
	rc.hookNested()
	rc.fromStore = true
	return rc, nil
}

// encodeArtifact flattens the model for the artifact cache.
func (dm *DataModel) encodeArtifact() ([]byte, error) {
	a := dmArtifact{Version: dm.version.String()}
	for _, key := range dm.extOrder {
		onto := dm.extOntos[key]
		a.ExtOntos = append(a.ExtOntos, struct {
			Prefix string `json:"prefix"`
			NS     string `json:"ns"`
		}{Prefix: string(onto.Prefix()), NS: string(onto.Namespace())})
	}
	for _, key := range dm.propOrder {
		a.Properties = append(a.Properties, encodeProp(dm.propClasses[key]))
	}
	for _, key := range dm.resOrder {
		a.Resources = append(a.Resources, encodeRes(dm.resClasses[key]))
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "cannot encode datamodel artifact")
	}
	return payload, nil
}

// decodeDataModelArtifact rebuilds a model from a cached artifact.
func decodeDataModelArtifact(con connection.IConnection, project *Project, payload []byte) (*DataModel, error) {
	var a dmArtifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "malformed datamodel artifact")
	}
	dm := NewDataModel(con, project)
	if a.Version != "" {
		if v, err := ParseSemanticVersion(a.Version); err == nil {
			dm.version = v
		}
	}
	for _, e := range a.ExtOntos {
		ns, err := dtypes.NewNamespaceIRI(e.NS)
		if err != nil {
			return nil, err
		}
		onto := NewExternalOntology(con, project, xsd.NCName(e.Prefix), ns)
		dm.extOntos[onto.QName()] = onto
		dm.extOrder = append(dm.extOrder, onto.QName())
	}
	for _, pa := range a.Properties {
		prop, err := decodeProp(con, project, pa)
		if err != nil {
			return nil, err
		}
		if key, ok := prop.PropertyClassIRI().AsQName(); ok {
			dm.propClasses[key] = prop
			dm.propOrder = append(dm.propOrder, key)
			key := key
			prop.SetNotifier(func() { dm.recordModify(key) })
		}
	}
	for _, ra := range a.Resources {
		rc, err := decodeRes(con, project, ra)
		if err != nil {
			return nil, err
		}
		if key, ok := rc.OwlClassIRI().AsQName(); ok {
			dm.resClasses[key] = rc
			dm.resOrder = append(dm.resOrder, key)
			key := key
			rc.SetNotifier(func() { dm.recordModify(key) })
		}
	}
	return dm, nil
}
