package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/cache"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// dmFixture builds the dmtest-style model: a standalone langString comment
// property and the Book resource class.
func dmFixture(t *testing.T, con *stubConn) (*Project, *DataModel) {
	t.Helper()
	cache.SetDefault(cache.NewMemCache())
	project := testProject(con)
	dm := NewDataModel(con, project)

	li, err := dtypes.NewLanguageIn("en", "de", "fr", "it")
	require.NoError(t, err)
	comment, err := NewPropertyClass(con, project, "test:comment", map[PropClassAttr]any{
		PropLanguageIn: li,
		PropUniqueLang: xsd.Boolean(true),
	})
	require.NoError(t, err)
	require.NoError(t, dm.AddPropertyClass(comment))

	rc := bookClass(t, con, project)
	require.NoError(t, dm.AddResourceClass(rc))
	return project, dm
}

func TestDataModelIndexing(t *testing.T) {
	con := newStubConn("dm-index", rootUser())
	_, dm := dmFixture(t, con)

	assert.NotNil(t, dm.Get("test:comment"))
	assert.NotNil(t, dm.Get("test:Book"))
	assert.Nil(t, dm.Get("test:Nothing"))

	_, ok := dm.GetResourceClass("test:Book")
	assert.True(t, ok)
	_, ok = dm.GetPropertyClass("test:comment")
	assert.True(t, ok)

	assert.Equal(t, []xsd.QName{"test:comment"}, dm.PropertyClasses())
	assert.Equal(t, []xsd.QName{"test:Book"}, dm.ResourceClasses())
}

func TestDataModelRefusesDuplicates(t *testing.T) {
	con := newStubConn("dm-dup", rootUser())
	project, dm := dmFixture(t, con)

	again, err := NewPropertyClass(con, project, "test:comment", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	err = dm.AddPropertyClass(again)
	assert.True(t, oldaperror.IsAlreadyExists(err))
}

func TestDataModelRefusesInternalStandalone(t *testing.T) {
	con := newStubConn("dm-internal", rootUser())
	project, dm := dmFixture(t, con)

	internal, err := NewPropertyClass(con, project, "test:hidden", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	internal.SetInternal("test:Book")
	err = dm.AddPropertyClass(internal)
	assert.True(t, oldaperror.IsInconsistency(err))
}

func TestDataModelCreatePermissionGate(t *testing.T) {
	con := newStubConn("dm-noperm", testUser())
	_, dm := dmFixture(t, con)
	err := dm.Create()
	assert.True(t, oldaperror.IsNoPermission(err))
}

func TestDataModelCreateRefusedOnExistingGraph(t *testing.T) {
	con := newStubConn("dm-exists", rootUser())
	_, dm := dmFixture(t, con)
	con.queryFn = func(sparql string) (string, error) {
		if strings.Contains(sparql, "ASK") {
			return `{"head":{},"boolean":true}`, nil
		}
		return emptyResult, nil
	}
	err := dm.Create()
	assert.True(t, oldaperror.IsAlreadyExists(err))
}

func TestDataModelCreateEmitsBothGraphs(t *testing.T) {
	con := newStubConn("dm-create", rootUser())
	_, dm := dmFixture(t, con)

	require.NoError(t, dm.Create())
	require.Len(t, con.txnUpdates, 1)
	sparql := con.txnUpdates[0]
	assert.Contains(t, sparql, "GRAPH test:shacl")
	assert.Contains(t, sparql, `test:shapes schema:version "1.0.0"`)
	assert.Contains(t, sparql, "test:commentShape a sh:PropertyShape")
	assert.Contains(t, sparql, "test:BookShape a sh:NodeShape")
	assert.Contains(t, sparql, "GRAPH test:onto")
	assert.Contains(t, sparql, `owl:versionInfo "1.0.0"`)
	assert.Contains(t, sparql, "test:Book rdf:type owl:Class")
	assert.Equal(t, 1, con.commits)
	assert.Empty(t, dm.Changeset())

	// the artifact lands in the cache under (project, shacl)
	_, hit, err := cache.Default().Get("test:shacl")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestDataModelDeleteDropsGraphsAndCache(t *testing.T) {
	con := newStubConn("dm-delete", rootUser())
	_, dm := dmFixture(t, con)
	require.NoError(t, dm.Create())
	require.NoError(t, dm.Delete())

	joined := strings.Join(con.txnUpdates, "\n")
	assert.Contains(t, joined, "DELETE WHERE { GRAPH test:shacl { ?s ?p ?o } }")
	assert.Contains(t, joined, "DELETE WHERE { GRAPH test:onto { ?s ?p ?o } }")

	_, hit, _ := cache.Default().Get("test:shacl")
	assert.False(t, hit)
}

func TestDataModelUpdateSurfacesChildFailure(t *testing.T) {
	con := newStubConn("dm-update", rootUser())
	_, dm := dmFixture(t, con)
	require.NoError(t, dm.Create())

	_, hit, _ := cache.Default().Get("test:shacl")
	require.True(t, hit)

	comment, _ := dm.GetPropertyClass("test:comment")
	require.NoError(t, comment.Set(PropUniqueLang, xsd.Boolean(false)))
	require.Contains(t, dm.Changeset(), xsd.QName("test:comment"))

	// the stub's timestamp read-back never matches, so the child update
	// aborts optimistically and surfaces the failure
	err := dm.Update()
	assert.True(t, oldaperror.IsUpdateFailed(err))
}

// The artifact codec must reproduce the model: a decode of an encode
// behaves like a deep copy of the original.
func TestDataModelArtifactRoundTrip(t *testing.T) {
	con := newStubConn("dm-artifact", rootUser())
	project, dm := dmFixture(t, con)

	payload, err := dm.encodeArtifact()
	require.NoError(t, err)

	copied, err := decodeDataModelArtifact(con, project, payload)
	require.NoError(t, err)

	assert.Equal(t, dm.Version(), copied.Version())
	assert.Equal(t, dm.PropertyClasses(), copied.PropertyClasses())
	assert.Equal(t, dm.ResourceClasses(), copied.ResourceClasses())

	comment, ok := copied.GetPropertyClass("test:comment")
	require.True(t, ok)
	assert.Equal(t, xsd.DatatypeLangString, comment.Datatype())
	assert.Equal(t, xsd.Boolean(true), comment.Get(PropUniqueLang))
	li, ok := comment.Get(PropLanguageIn).(*dtypes.LanguageIn)
	require.True(t, ok)
	assert.True(t, li.ContainsCode("fr"))
	assert.True(t, comment.FromStore())

	book, ok := copied.GetResourceClass("test:Book")
	require.True(t, ok)
	assert.True(t, book.Closed())
	assert.Equal(t, []xsd.IRI{ThingIRI}, book.Superclasses().IRIs())

	titleHP, ok := book.GetProperty("test:title")
	require.True(t, ok)
	require.NotNil(t, titleHP.MinCount())
	assert.Equal(t, xsd.Integer(1), *titleHP.MinCount())
	require.NotNil(t, titleHP.Prop())
	assert.Equal(t, xsd.DatatypeLangString, titleHP.Prop().Datatype())

	// mutating the copy leaves the original untouched
	book.SetClosed(false)
	original, _ := dm.GetResourceClass("test:Book")
	assert.True(t, original.Closed())
}

func TestSemanticVersion(t *testing.T) {
	v, err := ParseSemanticVersion("2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "2.3.4", v.String())
	assert.Equal(t, `"2.3.4"`, v.ToRDF())

	for _, bad := range []string{"1.2", "a.b.c", "1.2.-3", ""} {
		_, err := ParseSemanticVersion(bad)
		assert.Error(t, err, bad)
	}
}
