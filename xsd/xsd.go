// Package xsd implements the typed value algebra underlying the OLDAP
// metadata layer: validated wrappers for the XML Schema primitive datatypes,
// IRIs and QNames, with round-trip serialization between Go values, RDF
// lexical terms and SPARQL result bindings.
//
// Every datatype is a distinct Go type satisfying Value. Constructors named
// New<T> validate against the XSD 1.1 lexical space and return a value error
// on violation. The <T>FromRDF constructors of the string, duration, partial
// Gregorian and binary types trust the triple store and skip validation. The
// numeric, boolean and date/time ones call New<T> and so apply the same
// lexical and range checks again (DecimalFromRDF parses with strconv only,
// without the decimal lexical pattern check).
package xsd

import (
	"strings"

	"oldap.evalgo.org/oldaperror"
)

// Value is the common interface of all XSD datatypes, IRIs and blank nodes.
type Value interface {
	// String returns the canonical lexical form of the value.
	String() string
	// ToRDF returns the RDF term form, e.g. `"42"^^xsd:int`, `"x"@en`,
	// `<http://…>` or a bare QName.
	ToRDF() string
}

var rdfEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// EscapeRDF backslash-escapes the characters that must not appear raw inside
// a double-quoted RDF string literal.
func EscapeRDF(s string) string {
	return rdfEscaper.Replace(s)
}

var rdfUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
)

// UnescapeRDF is the inverse of EscapeRDF.
func UnescapeRDF(s string) string {
	return rdfUnescaper.Replace(s)
}

func valueErr(format string, args ...any) error {
	return oldaperror.New(oldaperror.Value, format, args...)
}

func typeErr(format string, args ...any) error {
	return oldaperror.New(oldaperror.Type, format, args...)
}
