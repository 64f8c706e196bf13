package dtypes

import (
	"strings"

	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// Language is an ISO 639-1 language code as used in language tags and in
// sh:languageIn restrictions.
type Language string

// The languages the packaged ontologies declare.
const (
	LangEN Language = "en"
	LangDE Language = "de"
	LangFR Language = "fr"
	LangIT Language = "it"
	LangES Language = "es"
	LangPT Language = "pt"
	LangNL Language = "nl"
	LangRM Language = "rm"
)

// ParseLanguage validates and normalizes a language code.
func ParseLanguage(s string) (Language, error) {
	code := strings.ToLower(s)
	if len(code) != 2 || strings.Trim(code, "abcdefghijklmnopqrstuvwxyz") != "" {
		return "", oldaperror.New(oldaperror.Key, "unknown language %q", s)
	}
	return Language(code), nil
}

func (l Language) String() string { return string(l) }

// ToRDF emits the code as a plain string literal, the form sh:languageIn
// lists carry.
func (l Language) ToRDF() string { return `"` + string(l) + `"` }

// LanguageIn is the sh:languageIn restriction: a set of language codes.
type LanguageIn struct {
	RdfSet[Language]
}

// NewLanguageIn builds the restriction from codes, validating each.
func NewLanguageIn(codes ...string) (*LanguageIn, error) {
	li := &LanguageIn{RdfSet[Language]{data: make(map[string]Language, len(codes))}}
	for _, c := range codes {
		lang, err := ParseLanguage(c)
		if err != nil {
			return nil, err
		}
		li.data[lang.ToRDF()] = lang
	}
	return li, nil
}

// LanguageInFromRDF builds the restriction from store values without
// validation.
func LanguageInFromRDF(codes ...string) *LanguageIn {
	li := &LanguageIn{RdfSet[Language]{data: make(map[string]Language, len(codes))}}
	for _, c := range codes {
		lang := Language(strings.ToLower(c))
		li.data[lang.ToRDF()] = lang
	}
	return li
}

// ContainsCode reports membership of a raw code string.
func (li *LanguageIn) ContainsCode(code string) bool {
	return li.Contains(Language(strings.ToLower(code)))
}

// Copy returns an independent restriction with the same codes.
func (li *LanguageIn) Copy() *LanguageIn {
	c := &LanguageIn{RdfSet[Language]{data: make(map[string]Language, len(li.data))}}
	for k, v := range li.data {
		c.data[k] = v
	}
	return c
}

var _ xsd.Value = Language("")
