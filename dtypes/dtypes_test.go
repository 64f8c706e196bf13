package dtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

func TestRdfSetBasics(t *testing.T) {
	set := NewRdfSet[xsd.Value](xsd.Int(1), xsd.Int(2))
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(xsd.Int(1)))

	set.Add(xsd.Int(3))
	assert.Equal(t, 3, set.Len())

	set.Discard(xsd.Int(1))
	assert.False(t, set.Contains(xsd.Int(1)))

	assert.Equal(t, `("1"^^xsd:int "2"^^xsd:int "3"^^xsd:int)`,
		NewRdfSet[xsd.Value](xsd.Int(2), xsd.Int(3), xsd.Int(1)).ToRDF())
}

func TestRdfSetNotifierAndUndo(t *testing.T) {
	set := NewRdfSet[xsd.Value](xsd.Int(1))
	notified := 0
	set.SetNotifier(func() { notified++ })

	set.Add(xsd.Int(2))
	assert.Equal(t, 1, notified)
	assert.True(t, set.Dirty())
	assert.Len(t, set.OldValues(), 1)

	set.Undo()
	assert.False(t, set.Dirty())
	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Contains(xsd.Int(1)))
}

func TestXsdSetCoercion(t *testing.T) {
	set := NewXsdSet(xsd.Int(1))
	str, _ := xsd.NewString("2")
	require.NoError(t, set.AddCoerced(str))
	assert.True(t, set.Contains(xsd.Int(2)))

	empty := NewXsdSet()
	err := empty.AddCoerced(str)
	assert.True(t, oldaperror.IsInconsistency(err))
}

func TestLanguageIn(t *testing.T) {
	li, err := NewLanguageIn("en", "DE", "fr", "it")
	require.NoError(t, err)
	assert.Equal(t, 4, li.Len())
	assert.True(t, li.ContainsCode("de"))
	assert.True(t, li.ContainsCode("EN"))
	assert.False(t, li.ContainsCode("es"))
	assert.Equal(t, `("de" "en" "fr" "it")`, li.ToRDF())

	_, err = NewLanguageIn("deutsch")
	assert.True(t, oldaperror.IsKey(err))
}

func TestLangStringChangeset(t *testing.T) {
	en, _ := xsd.NewStringWithLang("Book", "en")
	de, _ := xsd.NewStringWithLang("Buch", "de")
	ls, err := NewLangString(en, de)
	require.NoError(t, err)
	assert.Equal(t, 2, ls.Len())
	assert.False(t, ls.Dirty())

	notified := 0
	ls.SetNotifier(func() { notified++ })

	ls.Set(LangFR, "Livre")
	assert.Equal(t, 1, notified)
	require.Contains(t, ls.Changeset(), LangFR)
	assert.Equal(t, ActionCreate, ls.Changeset()[LangFR].Action)

	ls.Set(LangEN, "The Book")
	assert.Equal(t, ActionReplace, ls.Changeset()[LangEN].Action)
	assert.Equal(t, "Book", ls.Changeset()[LangEN].Old)

	require.NoError(t, ls.Delete(LangDE))
	assert.Equal(t, ActionDelete, ls.Changeset()[LangDE].Action)

	ls.Undo()
	assert.False(t, ls.Dirty())
	v, ok := ls.Get(LangEN)
	assert.True(t, ok)
	assert.Equal(t, "Book", v)
	_, ok = ls.Get(LangFR)
	assert.False(t, ok)
	v, ok = ls.Get(LangDE)
	assert.True(t, ok)
	assert.Equal(t, "Buch", v)
}

func TestLangStringRequiresTag(t *testing.T) {
	plain, _ := xsd.NewString("untagged")
	_, err := NewLangString(plain)
	assert.True(t, oldaperror.IsValue(err))
}

func TestLangStringToRDF(t *testing.T) {
	en, _ := xsd.NewStringWithLang("Book", "en")
	de, _ := xsd.NewStringWithLang("Buch", "de")
	ls, err := NewLangString(en, de)
	require.NoError(t, err)
	assert.Equal(t, `"Buch"@de, "Book"@en`, ls.ToRDF())
}

func TestNamespaceIRI(t *testing.T) {
	ns, err := NewNamespaceIRI("http://example.com/ns#")
	require.NoError(t, err)
	assert.Equal(t, "<http://example.com/ns#>", ns.ToRDF())
	assert.Equal(t, xsd.IRI("http://example.com/ns#Thing"), ns.Append("Thing"))

	local, ok := ns.Matches("http://example.com/ns#Thing")
	assert.True(t, ok)
	assert.Equal(t, "Thing", local)

	_, err = NewNamespaceIRI("http://example.com/ns")
	assert.True(t, oldaperror.IsValue(err))

	expanded := ns.Expand("sub")
	assert.Equal(t, NamespaceIRI("http://example.com/ns/sub#"), expanded)
}

func TestBNode(t *testing.T) {
	b, err := NewBNode("_:n1")
	require.NoError(t, err)
	assert.Equal(t, "_:n1", b.ToRDF())

	_, err = NewBNode("n1")
	assert.True(t, oldaperror.IsValue(err))
}
