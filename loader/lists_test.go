package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/xsd"
)

const sampleYAML = `
genres:
  label:
    - "Genres@en"
    - "Gattungen@de"
  nodes:
    fiction:
      label:
        - "Fiction@en"
      nodes:
        scifi:
          label:
            - "Science Fiction@en"
        fantasy:
          label:
            - "Fantasy@en"
    nonfiction:
      label:
        - "Non-Fiction@en"
`

func TestParseLists(t *testing.T) {
	lists, err := ParseLists([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, lists, 1)

	list := lists[0]
	assert.Equal(t, xsd.NCName("genres"), list.ID)
	label, ok := list.PrefLabel.Get("de")
	assert.True(t, ok)
	assert.Equal(t, "Gattungen", label)
	require.Len(t, list.Nodes, 2)

	fiction := list.Nodes[0]
	assert.Equal(t, xsd.NCName("fiction"), fiction.ID)
	require.Len(t, fiction.Nodes, 2)
}

// The nested-set indexes must bracket every subtree: a parent's left index
// is below and its right index above all of its children's.
func TestNestedSetIndexes(t *testing.T) {
	lists, err := ParseLists([]byte(sampleYAML))
	require.NoError(t, err)
	list := lists[0]

	fiction := list.Nodes[0]
	nonfiction := list.Nodes[1]
	assert.Equal(t, 1, fiction.LeftIndex)
	assert.Equal(t, 6, fiction.RightIndex)
	for _, child := range fiction.Nodes {
		assert.Greater(t, child.LeftIndex, fiction.LeftIndex)
		assert.Less(t, child.RightIndex, fiction.RightIndex)
	}
	assert.Equal(t, 7, nonfiction.LeftIndex)
	assert.Equal(t, 8, nonfiction.RightIndex)
}

func TestParseRejectsBadIDs(t *testing.T) {
	_, err := ParseLists([]byte("1bad id:\n  label:\n    - \"x@en\"\n"))
	assert.Error(t, err)
}

// listStubConn is the minimal session the emitter needs.
type listStubConn struct {
	connection.IConnection
	ctxName string
	updates []string
}

func (s *listStubConn) Context() *context.Context { return context.Get(s.ctxName) }
func (s *listStubConn) UserIRI() xsd.IRI          { return "https://orcid.org/0000-0003-1681-4036" }
func (s *listStubConn) Update(sparql string) error {
	s.updates = append(s.updates, sparql)
	return nil
}

func TestInsertDataEmission(t *testing.T) {
	context.Reset("lists-test")
	con := &listStubConn{ctxName: "lists-test"}
	con.Context().Set("test", "http://oldap.org/test#")

	lists, err := ParseLists([]byte(sampleYAML))
	require.NoError(t, err)
	require.NoError(t, lists[0].Store(con, "test"))

	require.Len(t, con.updates, 1)
	sparql := con.updates[0]
	assert.Contains(t, sparql, "GRAPH test:lists")
	assert.Contains(t, sparql, "test:genres a skos:ConceptScheme")
	assert.Contains(t, sparql, "test:fiction a skos:Concept")
	assert.Contains(t, sparql, "skos:inScheme test:genres")
	assert.Contains(t, sparql, "skos:broaderTransitive test:fiction")
	assert.Contains(t, sparql, "oldap:leftIndex 1")
	assert.Contains(t, sparql, `skos:prefLabel "Science Fiction"@en`)
}
