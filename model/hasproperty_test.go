package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

func intPtr(n int64) *xsd.Integer {
	v := xsd.Integer(n)
	return &v
}

func TestFunctionalPropertyNeedsMaxCountOne(t *testing.T) {
	con := newStubConn("hp-functional", testUser())
	project := testProject(con)
	prop, err := NewPropertyClass(con, project, "test:isbn", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	prop.AddOwlType(OwlFunctionalProperty)

	_, err = NewHasProperty(con, project, PropInternal, prop, nil)
	assert.True(t, oldaperror.IsInconsistency(err))

	_, err = NewHasProperty(con, project, PropInternal, prop, &HasPropertyData{MaxCount: intPtr(2)})
	assert.True(t, oldaperror.IsInconsistency(err))

	hp, err := NewHasProperty(con, project, PropInternal, prop, &HasPropertyData{MaxCount: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, xsd.Integer(1), *hp.MaxCount())
}

func TestInverseFunctionalPropertyNeedsExactCardinality(t *testing.T) {
	con := newStubConn("hp-invfunc", testUser())
	project := testProject(con)
	prop, err := NewPropertyClass(con, project, "test:inbook", map[PropClassAttr]any{
		PropClass: xsd.IRI("test:Book"),
	})
	require.NoError(t, err)
	prop.AddOwlType(OwlInverseFunctionalProperty)

	_, err = NewHasProperty(con, project, PropInternal, prop, &HasPropertyData{MaxCount: intPtr(1)})
	assert.True(t, oldaperror.IsInconsistency(err))

	_, err = NewHasProperty(con, project, PropInternal, prop,
		&HasPropertyData{MinCount: intPtr(1), MaxCount: intPtr(1)})
	assert.NoError(t, err)
}

func TestHasPropertySHACLFacets(t *testing.T) {
	con := newStubConn("hp-shacl", testUser())
	project := testProject(con)
	prop, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)

	order := xsd.Decimal(2)
	hp, err := NewHasProperty(con, project, PropInternal, prop, &HasPropertyData{
		MinCount: intPtr(1),
		MaxCount: intPtr(3),
		Order:    &order,
		Group:    "test:mainGroup",
	})
	require.NoError(t, err)

	shacl := hp.CreateSHACL(0)
	assert.Contains(t, shacl, `sh:minCount "1"^^xsd:integer`)
	assert.Contains(t, shacl, `sh:maxCount "3"^^xsd:integer`)
	assert.Contains(t, shacl, "sh:order")
	assert.Contains(t, shacl, "sh:group test:mainGroup")
}

func TestHasPropertyOWLCardinality(t *testing.T) {
	con := newStubConn("hp-owl", testUser())
	project := testProject(con)
	prop, err := NewPropertyClass(con, project, "test:pagenum", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeInt,
	})
	require.NoError(t, err)

	// min == max collapses to owl:qualifiedCardinality
	exact, err := NewHasProperty(con, project, PropInternal, prop,
		&HasPropertyData{MinCount: intPtr(1), MaxCount: intPtr(1)})
	require.NoError(t, err)
	owl := exact.CreateOWL(0)
	assert.Contains(t, owl, `owl:qualifiedCardinality "1"^^xsd:nonNegativeInteger`)
	assert.NotContains(t, owl, "owl:minQualifiedCardinality")

	ranged, err := NewHasProperty(con, project, PropInternal, prop,
		&HasPropertyData{MinCount: intPtr(1), MaxCount: intPtr(5)})
	require.NoError(t, err)
	owl = ranged.CreateOWL(0)
	assert.Contains(t, owl, `owl:minQualifiedCardinality "1"^^xsd:nonNegativeInteger`)
	assert.Contains(t, owl, `owl:maxQualifiedCardinality "5"^^xsd:nonNegativeInteger`)
}

func TestHasPropertyChangeTracking(t *testing.T) {
	con := newStubConn("hp-changes", testUser())
	project := testProject(con)
	prop, err := NewPropertyClass(con, project, "test:title", map[PropClassAttr]any{
		PropDatatype: xsd.DatatypeString,
	})
	require.NoError(t, err)
	hp, err := NewHasProperty(con, project, PropInternal, prop, &HasPropertyData{MinCount: intPtr(1)})
	require.NoError(t, err)

	notified := 0
	hp.SetNotifier(func() { notified++ })

	hp.SetOrder(xsd.Decimal(11))
	assert.Equal(t, 1, notified)
	assert.Equal(t, dtypes.ActionCreate, hp.Changeset()[HasPropOrder].Action)

	hp.SetMinCount(2)
	assert.Equal(t, dtypes.ActionReplace, hp.Changeset()[HasPropMinCount].Action)
	assert.True(t, hp.Dirty())

	patches := hp.UpdateSHACL("test:Book")
	joined := ""
	for _, patch := range patches {
		joined += patch + "\n"
	}
	assert.Contains(t, joined, "test:BookShape sh:property ?prop")
	assert.Contains(t, joined, "sh:order")
	assert.Contains(t, joined, `sh:minCount "2"^^xsd:integer`)

	owl := hp.UpdateOWL("test:Book")
	assert.Contains(t, owl, "owl:onProperty test:title")
	assert.Contains(t, owl, `owl:minQualifiedCardinality "2"^^xsd:nonNegativeInteger`)

	hp.ClearChangeset()
	assert.False(t, hp.Dirty())
}
