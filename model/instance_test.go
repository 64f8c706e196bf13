package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// bookType builds an instance type for the canonical test:Book class.
func bookType(t *testing.T, con *stubConn) *InstanceType {
	t.Helper()
	project := testProject(con)
	rc := bookClass(t, con, project)
	dm := NewDataModel(con, project)
	rc.fromStore = true
	require.NoError(t, dm.AddResourceClass(rc))
	factory := NewResourceInstanceFactoryFromModel(con, project, dm)
	it, err := factory.InstanceType("Book")
	require.NoError(t, err)
	return it
}

func bookValues() map[string]any {
	return map[string]any{
		"title":   xsd.StringFromRDF("Hitchhiker's Guide", "en"),
		"authors": xsd.IRI("urn:uuid:1a2b3c4d-0000-0000-0000-000000000042"),
	}
}

func TestInstanceConstruction(t *testing.T) {
	con := newStubConn("inst-new", testUser(auth.AdminCreate))
	book := bookType(t, con)

	inst, err := book.New(bookValues())
	require.NoError(t, err)
	assert.Contains(t, string(inst.IRI()), "urn:uuid:")
	assert.Empty(t, inst.Changeset())

	title, err := inst.Get("title")
	require.NoError(t, err)
	ls, ok := title.(*dtypes.LangString)
	require.True(t, ok)
	text, _ := ls.Get(dtypes.LangEN)
	assert.Equal(t, "Hitchhiker's Guide", text)
}

func TestClosedClassRejectsUnknownField(t *testing.T) {
	con := newStubConn("inst-closed", testUser())
	book := bookType(t, con)

	values := bookValues()
	values["publisher"] = xsd.StringFromRDF("Megadodo", "")
	_, err := book.New(values)
	assert.True(t, oldaperror.IsValue(err))
}

func TestMinCountEnforcedAtConstruction(t *testing.T) {
	con := newStubConn("inst-mincount", testUser())
	book := bookType(t, con)

	values := bookValues()
	delete(values, "authors")
	_, err := book.New(values)
	assert.True(t, oldaperror.IsValue(err))
}

func TestLanguageInEnforced(t *testing.T) {
	con := newStubConn("inst-langin", testUser())
	book := bookType(t, con)

	values := bookValues()
	values["title"] = xsd.StringFromRDF("Guía", "es")
	_, err := book.New(values)
	assert.True(t, oldaperror.IsValue(err))
}

func TestSystemFieldsPopulated(t *testing.T) {
	con := newStubConn("inst-sysfields", testUser())
	book := bookType(t, con)

	inst, err := book.New(bookValues())
	require.NoError(t, err)

	createdBy, err := inst.Get("createdBy")
	require.NoError(t, err)
	assert.Equal(t, con.UserIRI(), createdBy)

	creationDate, err := inst.Get("creationDate")
	require.NoError(t, err)
	_, isTS := creationDate.(xsd.DateTimeStamp)
	assert.True(t, isTS)
}

func TestDelRefusedOnMandatoryField(t *testing.T) {
	con := newStubConn("inst-del", testUser())
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	err = inst.Del("title")
	assert.True(t, oldaperror.IsValue(err))
	title, _ := inst.Get("title")
	assert.NotNil(t, title)
}

func TestSetLeavesStateUnchangedOnViolation(t *testing.T) {
	con := newStubConn("inst-rollback", testUser())
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	err = inst.Set("title", xsd.StringFromRDF("Guía", "es"))
	assert.True(t, oldaperror.IsValue(err))

	title, err := inst.Get("title")
	require.NoError(t, err)
	text, _ := title.(*dtypes.LangString).Get(dtypes.LangEN)
	assert.Equal(t, "Hitchhiker's Guide", text)
	assert.Empty(t, inst.Changeset())
}

func TestSetRecordsChange(t *testing.T) {
	con := newStubConn("inst-set", testUser())
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	require.NoError(t, inst.Set("title", xsd.StringFromRDF("Per Anhalter", "de")))
	require.Contains(t, inst.Changeset(), xsd.IRI("test:title"))
	assert.Equal(t, dtypes.ActionReplace, inst.Changeset()["test:title"].Action)
}

// pageType builds test:Page with numeric facets for range validation.
func pageType(t *testing.T, con *stubConn) *InstanceType {
	t.Helper()
	project := testProject(con)
	min, _ := xsd.NewInteger("1")
	max, _ := xsd.NewInteger("9999")
	pagenum, err := NewPropertyClass(con, project, "test:pagenum", map[PropClassAttr]any{
		PropDatatype:     xsd.DatatypeInt,
		PropMinInclusive: min,
		PropMaxInclusive: max,
	})
	require.NoError(t, err)
	pagenumHP, err := NewHasProperty(con, project, PropInternal, pagenum,
		&HasPropertyData{MinCount: intPtr(1), MaxCount: intPtr(1)})
	require.NoError(t, err)

	rc, err := NewResourceClass(con, project, "test:Page", ResourceClassOptions{
		Properties: []*HasProperty{pagenumHP},
	})
	require.NoError(t, err)
	rc.fromStore = true

	dm := NewDataModel(con, project)
	require.NoError(t, dm.AddResourceClass(rc))
	factory := NewResourceInstanceFactoryFromModel(con, project, dm)
	it, err := factory.InstanceType("Page")
	require.NoError(t, err)
	return it
}

func TestRangeFacets(t *testing.T) {
	con := newStubConn("inst-range", testUser())
	page := pageType(t, con)

	_, err := page.New(map[string]any{"pagenum": 42})
	assert.NoError(t, err)

	_, err = page.New(map[string]any{"pagenum": 0})
	assert.True(t, oldaperror.IsValue(err))

	_, err = page.New(map[string]any{"pagenum": 10000})
	assert.True(t, oldaperror.IsValue(err))
}

func TestMaxCountOnAdd(t *testing.T) {
	con := newStubConn("inst-maxcount", testUser())
	page := pageType(t, con)
	inst, err := page.New(map[string]any{"pagenum": 42})
	require.NoError(t, err)

	err = inst.AddValue("pagenum", 43)
	assert.True(t, oldaperror.IsValue(err))
	// the rollback leaves the original single value behind
	set, _ := inst.Get("pagenum")
	assert.Equal(t, 1, set.(*dtypes.XsdSet).Len())
}

func TestInstanceCreatePermissionGate(t *testing.T) {
	con := newStubConn("inst-create-deny", testUser(auth.AdminResources))
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	err = inst.Create()
	assert.True(t, oldaperror.IsNoPermission(err))
	assert.Empty(t, con.txnUpdates)
}

func TestInstanceCreateEmitsInsertData(t *testing.T) {
	con := newStubConn("inst-create", testUser(auth.AdminCreate))
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	require.NoError(t, inst.Create())
	require.Len(t, con.txnUpdates, 1)
	sparql := con.txnUpdates[0]
	assert.Contains(t, sparql, "INSERT DATA")
	assert.Contains(t, sparql, "GRAPH test:data")
	assert.Contains(t, sparql, "a test:Book")
	assert.Contains(t, sparql, `test:title "Hitchhiker's Guide"@en`)
	assert.Contains(t, sparql, "test:authors <urn:uuid:1a2b3c4d-0000-0000-0000-000000000042>")
	assert.Contains(t, sparql, "oldap:createdBy")
	assert.Contains(t, sparql, "oldap:lastModificationDate")
	assert.Equal(t, 1, con.commits)
}

func TestInstanceUpdateDataPermissionGate(t *testing.T) {
	con := newStubConn("inst-update-deny", testUser())
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	// the actor's permission sets yield no grant at the required level
	con.queryFn = func(sparql string) (string, error) {
		if strings.Contains(sparql, "COUNT(?permset)") {
			return countJSON("n", 0), nil
		}
		return emptyResult, nil
	}
	require.NoError(t, inst.Set("title", xsd.StringFromRDF("Neu", "de")))
	err = inst.Update()
	assert.True(t, oldaperror.IsNoPermission(err))
	assert.Equal(t, 1, con.aborts)
	assert.Empty(t, con.txnUpdates)
}

func TestInstanceUpdateTimestampMismatchAborts(t *testing.T) {
	con := newStubConn("inst-update-cas", testUser(auth.AdminResources))
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	// the read-back returns a stale timestamp: a concurrent session won
	con.queryFn = func(sparql string) (string, error) {
		if strings.Contains(sparql, "oldap:lastModificationDate ?modified") {
			return `{"head":{"vars":["modified"]},"results":{"bindings":[
                {"modified":{"type":"literal","value":"2020-01-01T00:00:00Z",
                 "datatype":"http://www.w3.org/2001/XMLSchema#dateTimeStamp"}}]}}`, nil
		}
		return emptyResult, nil
	}
	require.NoError(t, inst.Set("title", xsd.StringFromRDF("Neu", "de")))
	err = inst.Update()
	assert.True(t, oldaperror.IsUpdateFailed(err))
	assert.Equal(t, 1, con.aborts)
	assert.Equal(t, 0, con.commits)
}

func TestInstanceDeleteRefusedWhenReferenced(t *testing.T) {
	con := newStubConn("inst-del-inuse", testUser(auth.AdminResources))
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	con.queryFn = func(sparql string) (string, error) {
		if strings.Contains(sparql, "COUNT(?res)") {
			return countJSON("n", 2), nil
		}
		return emptyResult, nil
	}
	err = inst.Delete()
	assert.True(t, oldaperror.IsInUse(err))
	assert.Equal(t, 1, con.aborts)
}

func TestInstanceDelete(t *testing.T) {
	con := newStubConn("inst-delete", testUser(auth.AdminResources))
	book := bookType(t, con)
	inst, err := book.New(bookValues())
	require.NoError(t, err)

	con.queryFn = func(sparql string) (string, error) {
		if strings.Contains(sparql, "COUNT(?res)") {
			return countJSON("n", 0), nil
		}
		return emptyResult, nil
	}
	require.NoError(t, inst.Delete())
	require.Len(t, con.txnUpdates, 1)
	assert.Contains(t, con.txnUpdates[0], "DELETE WHERE")
	assert.Contains(t, con.txnUpdates[0], "GRAPH test:data")
	assert.Equal(t, 1, con.commits)
}

func TestInstanceReadChecksType(t *testing.T) {
	con := newStubConn("inst-read", testUser())
	book := bookType(t, con)

	con.queryFn = func(sparql string) (string, error) {
		if strings.Contains(sparql, "?predicate ?value") {
			return `{"head":{"vars":["predicate","value"]},"results":{"bindings":[
                {"predicate":{"type":"uri","value":"http://www.w3.org/1999/02/22-rdf-syntax-ns#type"},
                 "value":{"type":"uri","value":"http://oldap.org/test#Page"}}]}}`, nil
		}
		return emptyResult, nil
	}
	_, err := book.Read("urn:uuid:0c64f2c6-9d7a-4d17-9b2e-91b7c2a1e1ab")
	assert.True(t, oldaperror.IsInconsistency(err))
}

func TestInstanceReadNotFound(t *testing.T) {
	con := newStubConn("inst-read-404", testUser())
	book := bookType(t, con)

	_, err := book.Read("urn:uuid:0c64f2c6-9d7a-4d17-9b2e-91b7c2a1e1ab")
	assert.True(t, oldaperror.IsNotFound(err))
}
