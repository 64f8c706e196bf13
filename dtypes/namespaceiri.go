package dtypes

import (
	"strings"

	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// NamespaceIRI is an absolute IRI usable as a namespace base: it must end
// in a fragment separator, "/" or "#".
type NamespaceIRI string

// NewNamespaceIRI validates the IRI form and the trailing separator.
func NewNamespaceIRI(s string) (NamespaceIRI, error) {
	uri, err := xsd.NewAnyURI(s)
	if err != nil {
		return "", err
	}
	if !uri.AppendAllowed() {
		return "", oldaperror.New(oldaperror.Value, "namespace IRI %q must end with '/' or '#'", s)
	}
	return NamespaceIRI(s), nil
}

// NamespaceIRIFromRDF builds the value without validation.
func NamespaceIRIFromRDF(s string) NamespaceIRI { return NamespaceIRI(s) }

func (n NamespaceIRI) String() string { return string(n) }

// ToRDF returns the IRI in angle brackets.
func (n NamespaceIRI) ToRDF() string { return "<" + string(n) + ">" }

// Append attaches a local name to the namespace.
func (n NamespaceIRI) Append(local string) xsd.IRI {
	return xsd.IRI(string(n) + local)
}

// Expand derives a sub-namespace: the trailing separator is replaced by
// "/name#".
func (n NamespaceIRI) Expand(name xsd.NCName) NamespaceIRI {
	return NamespaceIRI(string(n)[:len(n)-1] + "/" + string(name) + "#")
}

// Matches reports whether iri starts with the namespace, returning the
// remaining local part.
func (n NamespaceIRI) Matches(iri string) (string, bool) {
	if strings.HasPrefix(iri, string(n)) && len(iri) > len(n) {
		return iri[len(n):], true
	}
	return "", false
}

// BNode is a blank node identifier in "_:id" form.
type BNode string

// NewBNode validates the "_:" prefix.
func NewBNode(s string) (BNode, error) {
	if !strings.HasPrefix(s, "_:") || len(s) == 2 {
		return "", oldaperror.New(oldaperror.Value, `blank node %q must have prefix "_"`, s)
	}
	return BNode(s), nil
}

// BNodeFromRDF builds the value without validation.
func BNodeFromRDF(s string) BNode { return BNode(s) }

func (b BNode) String() string { return string(b) }

// ToRDF returns the bare blank-node form.
func (b BNode) ToRDF() string { return string(b) }

var _ xsd.Value = NamespaceIRI("")
var _ xsd.Value = BNode("")
