package model

import (
	"fmt"
	"strings"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// propAttributes collects the raw triples of one property node during a
// read, keyed by predicate QName. List-valued facets accumulate across
// rows; langString facets accumulate per language.
type propAttributes map[string]any

// processPropertyTriple folds one result row into the attribute
// collection. Rows carry the predicate in "attriri", the object in "value"
// and, for RDF lists, the list member in "oo".
func processPropertyTriple(row context.Row, attrs propAttributes) error {
	attrVal, ok := row["attriri"]
	if !ok {
		return nil
	}
	attriri := xsd.IRIFromRDF(attrVal.String())
	key := attriri.String()
	switch attriri.Fragment() {
	case "languageIn":
		li, ok := attrs[key].(*dtypes.LanguageIn)
		if !ok {
			li = dtypes.LanguageInFromRDF()
			attrs[key] = li
		}
		if oo, ok := row["oo"]; ok {
			li.Add(dtypes.Language(strings.ToLower(lexical(oo))))
		}
		return nil
	case "in":
		set, ok := attrs[key].(*dtypes.XsdSet)
		if !ok {
			set = dtypes.NewXsdSet()
			attrs[key] = set
		}
		if oo, ok := row["oo"]; ok {
			set.Add(oo)
		}
		return nil
	}
	value, ok := row["value"]
	if !ok {
		return nil
	}
	if s, isStr := value.(xsd.String); isStr && s.Lang() != "" {
		ls, ok := attrs[key].(*dtypes.LangString)
		if !ok {
			ls = dtypes.LangStringFromRDF()
			attrs[key] = ls
		}
		ls.Set(dtypes.Language(s.Lang()), s.Value())
		ls.ClearChangeset()
		return nil
	}
	if _, exists := attrs[key]; exists {
		return oldaperror.New(oldaperror.Inconsistency,
			"property attribute %q defined twice", key)
	}
	attrs[key] = value
	return nil
}

// queryPropertySHACL fetches every triple of a standalone property's shape,
// including the members of any attached RDF list.
func queryPropertySHACL(con connection.IConnection, graph xsd.NCName, propIRI xsd.IRI) (propAttributes, error) {
	ctx := con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?attriri ?value ?oo
FROM %s:shacl
WHERE {
    BIND(%sShape AS ?shape)
    ?shape ?attriri ?value .
    OPTIONAL {
        ?value rdf:rest*/rdf:first ?oo
    }
}`, graph, propIRI.ToRDF())
	qp, err := con.QuerySelect(sparql)
	if err != nil {
		return nil, err
	}
	if qp.Len() == 0 {
		return nil, oldaperror.New(oldaperror.NotFound, "property %q not found", propIRI)
	}
	attrs := propAttributes{}
	for _, row := range qp.Rows() {
		if err := processPropertyTriple(row, attrs); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// parseSHACL populates the property from collected shape triples and
// returns the cardinality facets when the node references a standalone
// property via sh:node.
func (p *PropertyClass) parseSHACL(attrs propAttributes) (*HasPropertyData, error) {
	hpd := &HasPropertyData{}
	sawRef := false
	for key, val := range attrs {
		switch key {
		case "rdf:type":
			if v, ok := val.(xsd.Value); ok && v.String() != "sh:PropertyShape" {
				return nil, oldaperror.New(oldaperror.Inconsistency,
					`expected "sh:PropertyShape", got %q`, v.String())
			}
		case "sh:path":
			if v, ok := val.(xsd.IRI); ok {
				p.propIRI = v
			} else {
				return nil, oldaperror.New(oldaperror.Inconsistency,
					`inconsistent "sh:path" on %q`, p.propIRI)
			}
		case "dcterms:hasVersion":
			sv, ok := val.(xsd.Value)
			if !ok {
				return nil, oldaperror.New(oldaperror.Inconsistency,
					`inconsistent "dcterms:hasVersion" on %q`, p.propIRI)
			}
			v, err := ParseSemanticVersion(lexical(sv))
			if err != nil {
				return nil, err
			}
			p.version = v
		case "dcterms:creator":
			if v, ok := val.(xsd.Value); ok {
				p.creator = xsd.IRIFromRDF(v.String())
			}
		case "dcterms:created":
			if dt, ok := val.(xsd.DateTime); ok {
				p.created = dt
			}
		case "dcterms:contributor":
			if v, ok := val.(xsd.Value); ok {
				p.contributor = xsd.IRIFromRDF(v.String())
			}
		case "dcterms:modified":
			if dt, ok := val.(xsd.DateTime); ok {
				p.modified = dt
			}
		case "sh:node":
			if v, ok := val.(xsd.Value); ok {
				hpd.RefProp = xsd.IRIFromRDF(strings.TrimSuffix(v.String(), "Shape"))
				sawRef = true
			}
		case "sh:minCount":
			if n, ok := asInteger(val); ok {
				hpd.MinCount = &n
			}
		case "sh:maxCount":
			if n, ok := asInteger(val); ok {
				hpd.MaxCount = &n
			}
		case "sh:order":
			if d, ok := asDecimal(val); ok {
				hpd.Order = &d
			}
		case "sh:group":
			if v, ok := val.(xsd.IRI); ok {
				if q, isQ := v.AsQName(); isQ {
					hpd.Group = q
				}
			}
		default:
			attr := PropClassAttr(key)
			if !propClassAttrs[attr] {
				continue
			}
			converted, err := convertReadAttr(attr, val)
			if err != nil {
				return nil, err
			}
			p.attributes[attr] = converted
		}
	}
	if err := p.deriveKind(); err != nil {
		return nil, err
	}
	p.hookNested()
	p.fromStore = true
	if sawRef || hpd.MinCount != nil || hpd.MaxCount != nil || hpd.Order != nil || hpd.Group != "" {
		return hpd, nil
	}
	return nil, nil
}

// convertReadAttr coerces a value read from the store to the attribute's
// declared type.
func convertReadAttr(attr PropClassAttr, val any) (any, error) {
	switch attr {
	case PropDatatype:
		if v, ok := val.(xsd.Value); ok {
			return xsd.ParseDatatype(v.String())
		}
	case PropName, PropDescription:
		if ls, ok := val.(*dtypes.LangString); ok {
			return ls, nil
		}
		// a single untagged literal still forms a langString facet
		if v, ok := val.(xsd.String); ok {
			return dtypes.LangStringFromRDF(v), nil
		}
	case PropLanguageIn:
		if li, ok := val.(*dtypes.LanguageIn); ok {
			return li, nil
		}
	case PropIn:
		if set, ok := val.(*dtypes.XsdSet); ok {
			return set, nil
		}
	case PropUniqueLang:
		if b, ok := val.(xsd.Boolean); ok {
			return b, nil
		}
	case PropMinLength, PropMaxLength:
		if n, ok := asInteger(val); ok {
			return n, nil
		}
	case PropPattern:
		if v, ok := val.(xsd.String); ok {
			return v, nil
		}
	case PropMinExclusive, PropMinInclusive, PropMaxExclusive, PropMaxInclusive:
		if n, ok := val.(xsd.Numeric); ok {
			return n, nil
		}
		return nil, oldaperror.New(oldaperror.Inconsistency,
			"facet %q expects a numeric value, got %T", attr, val)
	default:
		if v, ok := val.(xsd.IRI); ok {
			return v, nil
		}
		if v, ok := val.(xsd.QName); ok {
			return xsd.IRI(v), nil
		}
	}
	return nil, oldaperror.New(oldaperror.Inconsistency,
		"unexpected value %T for attribute %q", val, attr)
}

func asInteger(val any) (xsd.Integer, bool) {
	switch v := val.(type) {
	case xsd.Integer:
		return v, true
	case xsd.Int:
		return xsd.Integer(v.Int64()), true
	case xsd.NonNegativeInteger:
		return xsd.Integer(v.Int64()), true
	case xsd.Long:
		return xsd.Integer(v.Int64()), true
	}
	return 0, false
}

func asDecimal(val any) (xsd.Decimal, bool) {
	switch v := val.(type) {
	case xsd.Decimal:
		return v, true
	case xsd.Integer:
		return xsd.Decimal(v.Float64()), true
	case xsd.Float:
		return xsd.Decimal(v.Float64()), true
	case xsd.Double:
		return xsd.Decimal(v.Float64()), true
	}
	return 0, false
}

// readOWL loads the OWL side of the property and verifies it agrees with
// the SHACL side on kind, range and audit fields.
func (p *PropertyClass) readOWL() error {
	ctx := p.con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?p ?o
FROM %s:onto
WHERE {
    %s ?p ?o
}`, p.graph, p.propIRI.ToRDF())
	qp, err := p.con.QuerySelect(sparql)
	if err != nil {
		return err
	}
	var datatype, toNode string
	for _, row := range qp.Rows() {
		pred, obj := row["p"], row["o"]
		if pred == nil || obj == nil {
			continue
		}
		switch pred.String() {
		case "rdf:type":
			switch OwlPropertyType(obj.String()) {
			case OwlDataProperty:
				p.owlTypes[0] = OwlDataProperty
			case OwlObjectProperty:
				p.owlTypes[0] = OwlObjectProperty
			case OwlFunctionalProperty, OwlInverseFunctionalProperty,
				OwlTransitiveProperty, OwlSymmetricProperty:
				p.AddOwlType(OwlPropertyType(obj.String()))
			}
		case "rdfs:subPropertyOf":
			p.attributes[PropSubPropertyOf] = xsd.IRIFromRDF(obj.String())
		case "rdfs:range":
			o := xsd.IRIFromRDF(obj.String())
			if o.Prefix() == "xsd" || o.Prefix() == "rdf" {
				datatype = o.String()
			} else {
				toNode = o.String()
			}
		case "rdfs:domain":
			p.internal = xsd.IRIFromRDF(obj.String())
		case "dcterms:creator":
			if p.creator != "" && p.creator.String() != obj.String() {
				return oldaperror.New(oldaperror.Inconsistency,
					"SHACL/OWL creator mismatch on %q: %q vs %q", p.propIRI, p.creator, obj.String())
			}
		case "dcterms:modified":
			if dt, ok := obj.(xsd.DateTime); ok && !p.modified.IsZero() && !p.modified.Equal(dt) {
				return oldaperror.New(oldaperror.Inconsistency,
					"SHACL/OWL modified mismatch on %q", p.propIRI)
			}
		}
	}
	if p.owlTypes[0] == OwlDataProperty {
		if datatype == "" {
			return oldaperror.New(oldaperror.Inconsistency,
				"data property %q has no rdfs:range datatype", p.propIRI)
		}
		if dt := p.Datatype(); dt != "" && datatype != string(dt) {
			return oldaperror.New(oldaperror.Inconsistency,
				"property %q datatype mismatch: OWL %q vs SHACL %q", p.propIRI, datatype, dt)
		}
	} else {
		if toNode == "" {
			return oldaperror.New(oldaperror.Inconsistency,
				"object property %q has no rdfs:range class", p.propIRI)
		}
		if cls, ok := p.attributes[PropClass].(xsd.IRI); ok && toNode != cls.String() {
			return oldaperror.New(oldaperror.Inconsistency,
				"property %q range mismatch: OWL %q vs SHACL %q", p.propIRI, toNode, cls)
		}
	}
	return nil
}

// ReadPropertyClass loads a standalone property from the store: the SHACL
// shape first, then the OWL declaration with its consistency checks. The
// change-set of the returned property is empty.
func ReadPropertyClass(con connection.IConnection, project *Project, propIRI xsd.IRI) (*PropertyClass, error) {
	p, err := NewPropertyClass(con, project, propIRI, nil)
	if err != nil {
		return nil, err
	}
	attrs, err := queryPropertySHACL(con, project.ShortName(), propIRI)
	if err != nil {
		return nil, err
	}
	if _, err := p.parseSHACL(attrs); err != nil {
		return nil, err
	}
	if err := p.readOWL(); err != nil {
		return nil, err
	}
	p.ClearChangeset()
	return p, nil
}
