package xsd

import (
	"regexp"
	"strings"
)

// String wraps xsd:string and rdf:langString: a string with an optional
// language tag. Two strings are equal iff both value and tag are equal;
// comparison is case-sensitive and locale-independent.
type String struct {
	value string
	lang  string
}

var languageTagRe = regexp.MustCompile(`^[a-zA-Z]{2}(-[a-zA-Z]{2})?$`)

// NewString creates a string value. The "text@en" shorthand is split into
// value and language tag when the tail after the last @ is a valid tag.
func NewString(s string) (String, error) {
	if idx := strings.LastIndex(s, "@"); idx >= 0 {
		if tag := s[idx+1:]; languageTagRe.MatchString(tag) {
			return NewStringWithLang(s[:idx], tag)
		}
	}
	return String{value: s}, nil
}

// NewStringWithLang creates a language-tagged string. The tag must be a
// two-letter primary with an optional two-letter subtag.
func NewStringWithLang(s, lang string) (String, error) {
	if lang != "" && !languageTagRe.MatchString(lang) {
		return String{}, valueErr("invalid language tag %q", lang)
	}
	return String{value: s, lang: strings.ToLower(lang)}, nil
}

// StringFromRDF builds a string value from a store binding without
// validation. lang may be empty.
func StringFromRDF(s, lang string) String {
	return String{value: s, lang: strings.ToLower(lang)}
}

func (s String) String() string {
	if s.lang != "" {
		return s.value + "@" + s.lang
	}
	return s.value
}

// ToRDF returns `"value"@lang` for tagged strings, else a plain literal.
func (s String) ToRDF() string {
	if s.lang != "" {
		return `"` + EscapeRDF(s.value) + `"@` + s.lang
	}
	return `"` + EscapeRDF(s.value) + `"`
}

// Value returns the bare string without the language tag.
func (s String) Value() string { return s.value }

// Lang returns the language tag, or "" for a plain string.
func (s String) Lang() string { return s.lang }

// Len returns the length in runes, the length SHACL string facets apply to.
func (s String) Len() int { return len([]rune(s.value)) }

// The token family shares one whitespace discipline: normalizedString
// forbids tab/newline/carriage return, token additionally forbids leading,
// trailing and doubled spaces.

func hasForbiddenWhitespace(s string) bool {
	return strings.ContainsAny(s, "\t\n\r")
}

// NormalizedString wraps xsd:normalizedString.
type NormalizedString string

// NewNormalizedString rejects strings containing tab, newline or CR.
func NewNormalizedString(s string) (NormalizedString, error) {
	if hasForbiddenWhitespace(s) {
		return "", valueErr("invalid xsd:normalizedString %q", s)
	}
	return NormalizedString(s), nil
}

// NormalizedStringFromRDF builds the value without validation.
func NormalizedStringFromRDF(s string) NormalizedString { return NormalizedString(s) }

func (n NormalizedString) String() string { return string(n) }

// ToRDF returns the typed literal form.
func (n NormalizedString) ToRDF() string {
	return `"` + EscapeRDF(string(n)) + `"^^xsd:normalizedString`
}

// Token wraps xsd:token.
type Token string

// NewToken rejects strings with forbidden whitespace, leading/trailing
// spaces or internal double spaces.
func NewToken(s string) (Token, error) {
	if hasForbiddenWhitespace(s) ||
		strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") ||
		strings.Contains(s, "  ") {
		return "", valueErr("invalid xsd:token %q", s)
	}
	return Token(s), nil
}

// TokenFromRDF builds the value without validation.
func TokenFromRDF(s string) Token { return Token(s) }

func (t Token) String() string { return string(t) }

// ToRDF returns the typed literal form.
func (t Token) ToRDF() string { return `"` + EscapeRDF(string(t)) + `"^^xsd:token` }

// LanguageVal wraps xsd:language, a language-code literal. The permitted
// form is a two-letter primary tag with an optional two-letter subtag.
type LanguageVal string

// NewLanguageVal validates the language-code form.
func NewLanguageVal(s string) (LanguageVal, error) {
	if !languageTagRe.MatchString(s) {
		return "", valueErr("invalid xsd:language %q", s)
	}
	return LanguageVal(strings.ToLower(s)), nil
}

// LanguageValFromRDF builds the value without validation.
func LanguageValFromRDF(s string) LanguageVal { return LanguageVal(strings.ToLower(s)) }

func (l LanguageVal) String() string { return string(l) }

// ToRDF returns the typed literal form.
func (l LanguageVal) ToRDF() string { return `"` + string(l) + `"^^xsd:language` }

var nameRe = regexp.MustCompile(`^[A-Za-z_:][-A-Za-z0-9._:]*$`)
var ncNameRe = regexp.MustCompile(`^[A-Za-z_][-A-Za-z0-9._]*$`)
var nmtokenRe = regexp.MustCompile(`^[-A-Za-z0-9._:]+$`)

// Name wraps xsd:Name.
type Name string

// NewName validates the XML Name production.
func NewName(s string) (Name, error) {
	if !nameRe.MatchString(s) {
		return "", valueErr("invalid xsd:Name %q", s)
	}
	return Name(s), nil
}

// NameFromRDF builds the value without validation.
func NameFromRDF(s string) Name { return Name(s) }

func (n Name) String() string { return string(n) }

// ToRDF returns the typed literal form.
func (n Name) ToRDF() string { return `"` + string(n) + `"^^xsd:Name` }

// NCName wraps xsd:NCName, an XML name without a colon. NCNames are the
// local names used for prefixes, fragments and project short names.
type NCName string

// NewNCName validates the NCName production.
func NewNCName(s string) (NCName, error) {
	if !ncNameRe.MatchString(s) {
		return "", valueErr("invalid xsd:NCName %q", s)
	}
	return NCName(s), nil
}

// NCNameFromRDF builds the value without validation.
func NCNameFromRDF(s string) NCName { return NCName(s) }

func (n NCName) String() string { return string(n) }

// ToRDF returns the typed literal form.
func (n NCName) ToRDF() string { return `"` + string(n) + `"^^xsd:NCName` }

// NMTOKEN wraps xsd:NMTOKEN.
type NMTOKEN string

// NewNMTOKEN validates the NMTOKEN production.
func NewNMTOKEN(s string) (NMTOKEN, error) {
	if !nmtokenRe.MatchString(s) {
		return "", valueErr("invalid xsd:NMTOKEN %q", s)
	}
	return NMTOKEN(s), nil
}

// NMTOKENFromRDF builds the value without validation.
func NMTOKENFromRDF(s string) NMTOKEN { return NMTOKEN(s) }

func (n NMTOKEN) String() string { return string(n) }

// ToRDF returns the typed literal form.
func (n NMTOKEN) ToRDF() string { return `"` + string(n) + `"^^xsd:NMTOKEN` }

// ID wraps xsd:ID (lexically an NCName).
type ID string

// NewID validates the NCName production.
func NewID(s string) (ID, error) {
	if !ncNameRe.MatchString(s) {
		return "", valueErr("invalid xsd:ID %q", s)
	}
	return ID(s), nil
}

// IDFromRDF builds the value without validation.
func IDFromRDF(s string) ID { return ID(s) }

func (i ID) String() string { return string(i) }

// ToRDF returns the typed literal form.
func (i ID) ToRDF() string { return `"` + string(i) + `"^^xsd:ID` }

// IDREF wraps xsd:IDREF (lexically an NCName).
type IDREF string

// NewIDREF validates the NCName production.
func NewIDREF(s string) (IDREF, error) {
	if !ncNameRe.MatchString(s) {
		return "", valueErr("invalid xsd:IDREF %q", s)
	}
	return IDREF(s), nil
}

// IDREFFromRDF builds the value without validation.
func IDREFFromRDF(s string) IDREF { return IDREF(s) }

func (i IDREF) String() string { return string(i) }

// ToRDF returns the typed literal form.
func (i IDREF) ToRDF() string { return `"` + string(i) + `"^^xsd:IDREF` }
