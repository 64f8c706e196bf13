package xsd

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var absoluteIRIRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
var qnameRe = regexp.MustCompile(`^[A-Za-z_][-A-Za-z0-9._]*:[A-Za-z_][-A-Za-z0-9._]*$`)

// AnyURI wraps xsd:anyURI, an absolute IRI.
type AnyURI string

// NewAnyURI validates that the value looks like an absolute IRI and carries
// no whitespace.
func NewAnyURI(s string) (AnyURI, error) {
	if s == "" || strings.ContainsAny(s, " \t\n\r<>\"{}|\\^`") || !absoluteIRIRe.MatchString(s) {
		return "", valueErr("invalid xsd:anyURI %q", s)
	}
	return AnyURI(s), nil
}

// AnyURIFromRDF builds the value without validation.
func AnyURIFromRDF(s string) AnyURI { return AnyURI(s) }

func (a AnyURI) String() string { return string(a) }

// ToRDF returns the typed literal form.
func (a AnyURI) ToRDF() string { return `"` + string(a) + `"^^xsd:anyURI` }

// Append returns the URI with the given suffix attached.
func (a AnyURI) Append(suffix string) AnyURI { return AnyURI(string(a) + suffix) }

// AppendAllowed reports whether the URI ends in a fragment separator, which
// makes it suitable as a namespace base.
func (a AnyURI) AppendAllowed() bool {
	return strings.HasSuffix(string(a), "/") || strings.HasSuffix(string(a), "#")
}

// QName wraps xsd:QName, the prefix:localname shorthand for an IRI. The
// prefix is resolved through a Context.
type QName string

// NewQName validates the prefix:localname form.
func NewQName(s string) (QName, error) {
	if !qnameRe.MatchString(s) {
		return "", valueErr("invalid xsd:QName %q", s)
	}
	return QName(s), nil
}

// MakeQName joins a prefix and a local fragment without validation.
func MakeQName(prefix NCName, fragment string) QName {
	return QName(string(prefix) + ":" + fragment)
}

// QNameFromRDF builds the value without validation.
func QNameFromRDF(s string) QName { return QName(s) }

func (q QName) String() string { return string(q) }

// ToRDF returns the bare QName; SPARQL resolves it through the prologue.
func (q QName) ToRDF() string { return string(q) }

// Prefix returns the namespace prefix part.
func (q QName) Prefix() string {
	if idx := strings.Index(string(q), ":"); idx >= 0 {
		return string(q)[:idx]
	}
	return ""
}

// Fragment returns the local-name part.
func (q QName) Fragment() string {
	if idx := strings.Index(string(q), ":"); idx >= 0 {
		return string(q)[idx+1:]
	}
	return string(q)
}

// IRI is a resource identifier, held either as a full absolute IRI or as a
// QName. Both forms round-trip losslessly; a QName-held IRI serializes bare
// while a full IRI serializes in angle brackets.
type IRI string

// NewIRI mints a fresh urn:uuid IRI for a new resource instance.
func NewIRI() IRI {
	return IRI("urn:uuid:" + uuid.NewString())
}

// ParseIRI accepts a QName or an absolute IRI.
func ParseIRI(s string) (IRI, error) {
	if qnameRe.MatchString(s) {
		return IRI(s), nil
	}
	if _, err := NewAnyURI(s); err == nil {
		return IRI(s), nil
	}
	return "", valueErr("invalid IRI %q", s)
}

// IRIFromRDF builds the value without validation.
func IRIFromRDF(s string) IRI { return IRI(s) }

func (i IRI) String() string { return string(i) }

// ToRDF returns `<iri>` for a full IRI and the bare form for a QName.
func (i IRI) ToRDF() string {
	if i.IsQName() {
		return string(i)
	}
	return "<" + string(i) + ">"
}

// IsQName reports whether the IRI is held in prefix:localname form.
func (i IRI) IsQName() bool {
	return qnameRe.MatchString(string(i))
}

// AsQName returns the QName form; the second result is false for full IRIs.
func (i IRI) AsQName() (QName, bool) {
	if i.IsQName() {
		return QName(i), true
	}
	return "", false
}

// Prefix returns the namespace prefix of a QName-form IRI, else "".
func (i IRI) Prefix() string {
	if q, ok := i.AsQName(); ok {
		return q.Prefix()
	}
	return ""
}

// Fragment returns the local name of a QName-form IRI or the fragment/last
// path segment of a full IRI.
func (i IRI) Fragment() string {
	if q, ok := i.AsQName(); ok {
		return q.Fragment()
	}
	s := string(i)
	if idx := strings.LastIndexAny(s, "#/"); idx >= 0 && idx < len(s)-1 {
		return s[idx+1:]
	}
	return s
}
