package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

func TestLanguageInImpliesLangString(t *testing.T) {
	con := newStubConn("pc-langin", testUser())
	project := testProject(con)

	li, err := dtypes.NewLanguageIn("en", "de", "fr", "it")
	require.NoError(t, err)

	p, err := NewPropertyClass(con, project, "test:comment", map[PropClassAttr]any{
		PropLanguageIn: li,
		PropUniqueLang: xsd.Boolean(true),
	})
	require.NoError(t, err)
	assert.Equal(t, xsd.DatatypeLangString, p.Datatype())

	_, err = NewPropertyClass(con, project, "test:comment", map[PropClassAttr]any{
		PropLanguageIn: li,
		PropDatatype:   xsd.DatatypeString,
	})
	assert.True(t, oldaperror.IsValue(err))
}

func TestDatatypeClassExclusive(t *testing.T) {
	con := newStubConn("pc-excl", testUser())
	project := testProject(con)

	_, err := NewPropertyClass(con, project, "test:broken", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
		PropClass:    xsd.IRI("oldap:Person"),
	})
	assert.True(t, oldaperror.IsInconsistency(err))

	obj, err := NewPropertyClass(con, project, "test:authors", map[PropClassAttr]any{
		PropClass: xsd.IRI("oldap:Person"),
	})
	require.NoError(t, err)
	assert.Equal(t, OwlObjectProperty, obj.OwlTypes()[0])

	data, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	assert.Equal(t, OwlDataProperty, data.OwlTypes()[0])
}

func TestSetTracksChanges(t *testing.T) {
	con := newStubConn("pc-changes", testUser())
	project := testProject(con)
	p, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	p.ClearChangeset()

	pattern := xsd.StringFromRDF("^[A-Z].*", "")
	require.NoError(t, p.Set(PropPattern, pattern))
	require.Contains(t, p.Changeset(), PropPattern)
	assert.Equal(t, dtypes.ActionCreate, p.Changeset()[PropPattern].Action)

	pattern2 := xsd.StringFromRDF("^[a-z].*", "")
	require.NoError(t, p.Set(PropPattern, pattern2))
	assert.Equal(t, pattern2, p.Get(PropPattern))

	require.NoError(t, p.Unset(PropPattern))
	assert.Nil(t, p.Get(PropPattern))
	// the first change per attribute wins, so the CREATE entry is retained
	// and undo restores the pre-change state
	assert.Equal(t, dtypes.ActionCreate, p.Changeset()[PropPattern].Action)

	p.Undo()
	assert.Empty(t, p.Changeset())
	assert.Nil(t, p.Get(PropPattern))
}

func TestSwitchingKindDropsCounterpart(t *testing.T) {
	con := newStubConn("pc-switch", testUser())
	project := testProject(con)
	p, err := NewPropertyClass(con, project, "test:rel", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	p.ClearChangeset()

	require.NoError(t, p.Set(PropClass, xsd.IRI("oldap:Person")))
	assert.Nil(t, p.Get(PropDatatype))
	assert.Equal(t, OwlObjectProperty, p.OwlTypes()[0])
	assert.Equal(t, dtypes.ActionDelete, p.Changeset()[PropDatatype].Action)
}

func TestNestedLangStringRecordsModify(t *testing.T) {
	con := newStubConn("pc-nested", testUser())
	project := testProject(con)
	en, _ := xsd.NewStringWithLang("Title", "en")
	name, err := dtypes.NewLangString(en)
	require.NoError(t, err)

	p, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
		PropName:     name,
	})
	require.NoError(t, err)
	p.ClearChangeset()

	name.Set(dtypes.LangDE, "Titel")
	require.Contains(t, p.Changeset(), PropName)
	assert.Equal(t, dtypes.ActionModify, p.Changeset()[PropName].Action)
}

func TestSetMutationRecordsReplace(t *testing.T) {
	con := newStubConn("pc-set", testUser())
	project := testProject(con)
	in := dtypes.NewXsdSet(xsd.StringFromRDF("a", ""), xsd.StringFromRDF("b", ""))

	p, err := NewPropertyClass(con, project, "test:category", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
		PropIn:       in,
	})
	require.NoError(t, err)
	p.ClearChangeset()

	in.Add(xsd.StringFromRDF("c", ""))
	require.Contains(t, p.Changeset(), PropIn)
	// sets cannot be patched in place, the list is replaced wholesale
	assert.Equal(t, dtypes.ActionReplace, p.Changeset()[PropIn].Action)
	old := p.Changeset()[PropIn].Old.(*dtypes.XsdSet)
	assert.Equal(t, 2, old.Len())
}

func TestCreateSHACLStandalone(t *testing.T) {
	con := newStubConn("pc-shacl", testUser())
	project := testProject(con)
	li, _ := dtypes.NewLanguageIn("en", "de")
	p, err := NewPropertyClass(con, project, "test:comment", map[PropClassAttr]any{
		PropLanguageIn: li,
		PropUniqueLang: xsd.Boolean(true),
	})
	require.NoError(t, err)

	shacl := p.CreateSHACL(xsd.DateTimeNow(), nil, 0)
	assert.Contains(t, shacl, "test:commentShape a sh:PropertyShape")
	assert.Contains(t, shacl, "sh:path test:comment")
	assert.Contains(t, shacl, `sh:languageIn ("de" "en")`)
	assert.Contains(t, shacl, `sh:uniqueLang "true"^^xsd:boolean`)
	assert.Contains(t, shacl, "dcterms:modified")
}

func TestCreateSHACLInternal(t *testing.T) {
	con := newStubConn("pc-shacl-int", testUser())
	project := testProject(con)
	minLen, _ := xsd.NewInteger("1")
	p, err := NewPropertyClass(con, project, "test:pagenum", map[PropClassAttr]any{
		PropDatatype:  xsd.DatatypeInt,
		PropMinLength: minLen,
	})
	require.NoError(t, err)
	p.SetInternal("test:Page")

	one := xsd.Integer(1)
	shacl := p.CreateSHACL(xsd.DateTimeNow(), &HasPropertyData{MinCount: &one, MaxCount: &one}, 0)
	assert.Contains(t, shacl, "test:PageShape sh:property _:propnode")
	assert.Contains(t, shacl, "sh:datatype xsd:int")
	assert.Contains(t, shacl, `sh:minCount "1"^^xsd:integer`)
	assert.Contains(t, shacl, `sh:maxCount "1"^^xsd:integer`)
}

func TestCreateOWLEmission(t *testing.T) {
	con := newStubConn("pc-owl", testUser())
	project := testProject(con)

	data, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	data.SetInternal("test:Book")
	owl := data.CreateOWLPart1(xsd.DateTimeNow(), 0)
	assert.Contains(t, owl, "test:title rdf:type owl:DatatypeProperty")
	assert.Contains(t, owl, "rdfs:domain test:Book")
	assert.Contains(t, owl, "rdfs:range xsd:string")

	obj, err := NewPropertyClass(con, project, "test:authors", map[PropClassAttr]any{
		PropClass: xsd.IRI("oldap:Person"),
	})
	require.NoError(t, err)
	owl = obj.CreateOWLPart1(xsd.DateTimeNow(), 0)
	assert.Contains(t, owl, "rdf:type owl:ObjectProperty")
	assert.Contains(t, owl, "rdfs:range oldap:Person")

	one := xsd.Integer(1)
	restriction := obj.CreateOWLPart2(&HasPropertyData{MinCount: &one}, 0)
	assert.Contains(t, restriction, "rdf:type owl:Restriction")
	assert.Contains(t, restriction, "owl:onProperty test:authors")
	assert.Contains(t, restriction, `owl:minQualifiedCardinality "1"^^xsd:nonNegativeInteger`)
	assert.Contains(t, restriction, "owl:onClass oldap:Person")
}

// A replaced list facet must be removed cell by cell and re-emitted in the
// same patch, leaving no orphaned tails behind.
func TestUpdateReplacesWholeList(t *testing.T) {
	con := newStubConn("pc-list", testUser())
	project := testProject(con)
	in := dtypes.NewXsdSet(
		xsd.StringFromRDF("a", ""), xsd.StringFromRDF("b", ""), xsd.StringFromRDF("c", ""))
	p, err := NewPropertyClass(con, project, "test:category", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
		PropIn:       in,
	})
	require.NoError(t, err)
	p.modified = xsd.DateTimeNow()
	p.contributor = con.UserIRI()
	p.ClearChangeset()

	in.Discard(xsd.StringFromRDF("a", ""))
	in.Discard(xsd.StringFromRDF("b", ""))
	in.Discard(xsd.StringFromRDF("c", ""))
	in.Add(xsd.StringFromRDF("x", ""))
	in.Add(xsd.StringFromRDF("y", ""))

	patches, err := p.updateSHACL(xsd.DateTimeNow())
	require.NoError(t, err)

	var listPatches []string
	for _, patch := range patches {
		if strings.Contains(patch, "sh:in") {
			listPatches = append(listPatches, patch)
		}
	}
	require.Len(t, listPatches, 1)
	patch := listPatches[0]
	assert.Contains(t, patch, "?z rdf:first ?head")
	assert.Contains(t, patch, "rdf:rest ?tail")
	assert.Contains(t, patch, `sh:in ("x" "y")`)
	assert.Contains(t, patch, "FILTER(?modified =")
}

func TestUpdateScalarGuardedByTimestamp(t *testing.T) {
	con := newStubConn("pc-guard", testUser())
	project := testProject(con)
	p, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	p.modified = xsd.DateTimeNow()
	p.contributor = con.UserIRI()
	p.ClearChangeset()

	require.NoError(t, p.Set(PropMaxLength, xsd.Integer(80)))
	patches, err := p.updateSHACL(xsd.DateTimeNow())
	require.NoError(t, err)

	joined := strings.Join(patches, "\n")
	assert.Contains(t, joined, `sh:maxLength "80"^^xsd:integer`)
	assert.Contains(t, joined, "FILTER(?modified = "+p.Modified().ToRDF()+")")
	assert.Contains(t, joined, "dcterms:contributor")
}

func TestCreateRefusedOnStoredProperty(t *testing.T) {
	con := newStubConn("pc-created", testUser())
	project := testProject(con)
	p, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	p.fromStore = true

	err = p.Create(nil)
	assert.True(t, oldaperror.IsAlreadyExists(err))
}

func TestUnknownAttributeRejected(t *testing.T) {
	con := newStubConn("pc-unknown", testUser())
	project := testProject(con)
	_, err := NewPropertyClass(con, project, "test:x", map[PropClassAttr]any{
		PropClassAttr("sh:nonsense"): xsd.Boolean(true),
	})
	assert.True(t, oldaperror.IsKey(err))
}
