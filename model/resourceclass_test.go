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

// bookClass builds the canonical test:Book class: an internal langString
// title, an object property to oldap:Person and a standalone comment
// reference, below oldap:Thing.
func bookClass(t *testing.T, con *stubConn, project *Project) *ResourceClass {
	t.Helper()
	li, err := dtypes.NewLanguageIn("en", "de", "fr", "it")
	require.NoError(t, err)

	title, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropLanguageIn: li,
		PropUniqueLang: xsd.Boolean(true),
	})
	require.NoError(t, err)
	titleHP, err := NewHasProperty(con, project, PropInternal, title, &HasPropertyData{MinCount: intPtr(1)})
	require.NoError(t, err)

	authors, err := NewPropertyClass(con, project, "test:authors", map[PropClassAttr]any{
		PropClass: xsd.IRI("oldap:Person"),
	})
	require.NoError(t, err)
	authorsHP, err := NewHasProperty(con, project, PropInternal, authors, &HasPropertyData{MinCount: intPtr(1)})
	require.NoError(t, err)

	commentHP := NewHasPropertyRef(con, project, "test:comment", nil)

	supers := NewSuperclassMap()
	supers.Set(ThingIRI, nil)

	en, _ := xsd.NewStringWithLang("Book", "en")
	label, err := dtypes.NewLangString(en)
	require.NoError(t, err)

	closed := xsd.Boolean(true)
	rc, err := NewResourceClass(con, project, "test:Book", ResourceClassOptions{
		Label:        label,
		Closed:       &closed,
		Superclasses: supers,
		Properties:   []*HasProperty{titleHP, authorsHP, commentHP},
	})
	require.NoError(t, err)
	return rc
}

func TestResourceClassSHACLEmission(t *testing.T) {
	con := newStubConn("rc-shacl", testUser())
	project := testProject(con)
	rc := bookClass(t, con, project)

	shacl := rc.CreateSHACL(xsd.DateTimeNow(), 0)
	assert.Contains(t, shacl, "test:BookShape a sh:NodeShape, test:Book")
	assert.Contains(t, shacl, "sh:targetClass test:Book")
	assert.Contains(t, shacl, `sh:closed "true"^^xsd:boolean`)
	assert.Contains(t, shacl, `rdfs:label "Book"@en`)
	assert.Contains(t, shacl, "sh:path rdf:type")
	assert.Contains(t, shacl, "sh:path test:title")
	assert.Contains(t, shacl, "sh:path test:authors")
	// the standalone property is referenced, not inlined
	assert.Contains(t, shacl, "sh:property test:commentShape")
	// oldap:Thing has no project-local SHACL definition, so no sh:node
	assert.NotContains(t, shacl, "sh:node oldap:ThingShape")
}

func TestResourceClassOWLEmission(t *testing.T) {
	con := newStubConn("rc-owl", testUser())
	project := testProject(con)
	rc := bookClass(t, con, project)

	owl := rc.CreateOWL(xsd.DateTimeNow(), 0)
	assert.Contains(t, owl, "test:Book rdf:type owl:Class")
	assert.Contains(t, owl, "rdfs:subClassOf oldap:Thing")
	assert.Contains(t, owl, "rdf:type owl:Restriction")
	assert.Contains(t, owl, "owl:onProperty test:title")
	assert.Contains(t, owl, "owl:onProperty test:authors")
	assert.Contains(t, owl, "owl:onProperty test:comment")
	assert.Contains(t, owl, "owl:onClass oldap:Person")
}

func TestResourceClassChangeTracking(t *testing.T) {
	con := newStubConn("rc-changes", testUser())
	project := testProject(con)
	rc := bookClass(t, con, project)
	rc.ClearChangeset()

	rc.SetClosed(false)
	require.Contains(t, rc.AttrChangeset(), ResClosed)

	de, _ := xsd.NewStringWithLang("Buch", "de")
	comment, err := dtypes.NewLangString(de)
	require.NoError(t, err)
	rc.SetComment(comment)
	assert.Equal(t, dtypes.ActionCreate, rc.AttrChangeset()[ResComment].Action)

	// a nested label mutation is recorded as MODIFY through the notifier
	rc.Label().Set(dtypes.LangFR, "Livre")
	assert.Equal(t, dtypes.ActionModify, rc.AttrChangeset()[ResLabel].Action)
}

func TestResourceClassPropertyLifecycle(t *testing.T) {
	con := newStubConn("rc-props", testUser())
	project := testProject(con)
	rc := bookClass(t, con, project)
	rc.modified = xsd.DateTimeNow()
	rc.contributor = con.UserIRI()
	rc.ClearChangeset()

	// adding an internal property
	pagenum, err := NewPropertyClass(con, project, "test:pagenum", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeInt,
	})
	require.NoError(t, err)
	hp, err := NewHasProperty(con, project, PropInternal, pagenum, &HasPropertyData{MinCount: intPtr(1), MaxCount: intPtr(1)})
	require.NoError(t, err)
	require.NoError(t, rc.AddProperty(hp))
	assert.Equal(t, dtypes.ActionCreate, rc.PropChangeset()["test:pagenum"].Action)

	// duplicate binding is refused
	err = rc.AddProperty(hp)
	assert.True(t, oldaperror.IsAlreadyExists(err))

	// removing an internal property schedules its full deletion
	require.NoError(t, rc.RemoveProperty("test:title"))
	change := rc.PropChangeset()["test:title"]
	assert.Equal(t, dtypes.ActionDelete, change.Action)
	require.NotNil(t, change.Old)

	patches, err := rc.updatePatches(xsd.DateTimeNow())
	require.NoError(t, err)
	joined := strings.Join(patches, "\n---\n")
	// the new internal property is inserted inline
	assert.Contains(t, joined, "sh:property [")
	assert.Contains(t, joined, "sh:path test:pagenum")
	assert.Contains(t, joined, `owl:qualifiedCardinality "1"^^xsd:nonNegativeInteger`)
	// the removed internal property loses its SHACL node and OWL axioms
	assert.Contains(t, joined, "sh:path test:title")
	assert.Contains(t, joined, "owl:onProperty test:title")
}

func TestRemoveStandaloneReferenceKeepsProperty(t *testing.T) {
	con := newStubConn("rc-ref", testUser())
	project := testProject(con)
	rc := bookClass(t, con, project)
	rc.modified = xsd.DateTimeNow()
	rc.contributor = con.UserIRI()
	rc.ClearChangeset()

	require.NoError(t, rc.RemoveProperty("test:comment"))
	patches, err := rc.updatePatches(xsd.DateTimeNow())
	require.NoError(t, err)
	joined := strings.Join(patches, "\n---\n")
	// only the reference and the restriction node go away, never the
	// standalone property's own shape
	assert.Contains(t, joined, "sh:property test:commentShape")
	assert.NotContains(t, joined, "BIND(test:commentShape as ?propnode)")
}

func TestSuperclassSetDifference(t *testing.T) {
	con := newStubConn("rc-super", testUser())
	project := testProject(con)
	rc := bookClass(t, con, project)
	rc.modified = xsd.DateTimeNow()
	rc.contributor = con.UserIRI()
	rc.ClearChangeset()

	rc.AddSuperclass("shared:Publication", nil)
	rc.RemoveSuperclass(ThingIRI)

	patches, err := rc.updatePatches(xsd.DateTimeNow())
	require.NoError(t, err)
	joined := strings.Join(patches, "\n---\n")
	assert.Contains(t, joined, "INSERT {\n    test:Book rdfs:subClassOf shared:Publication .")
	assert.Contains(t, joined, "DELETE {\n    test:Book rdfs:subClassOf oldap:Thing .")
}

func TestResourceClassInUseQuery(t *testing.T) {
	con := newStubConn("rc-inuse", testUser())
	project := testProject(con)
	rc := bookClass(t, con, project)

	con.queryFn = func(sparql string) (string, error) {
		if strings.Contains(sparql, "COUNT(DISTINCT ?instance)") {
			return countJSON("n", 3), nil
		}
		return emptyResult, nil
	}
	used, err := rc.InUse()
	require.NoError(t, err)
	assert.True(t, used)

	con.queryFn = func(sparql string) (string, error) {
		return countJSON("n", 0), nil
	}
	used, err = rc.InUse()
	require.NoError(t, err)
	assert.False(t, used)
}
