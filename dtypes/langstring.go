package dtypes

import (
	"sort"
	"strings"

	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// LangChange is one entry in a LangString's per-language change-set.
type LangChange struct {
	Old    string
	HadOld bool
	Action Action
}

// LangString maps language codes to strings for a single subject/predicate.
// Mutations are tracked per language so updates can be patched into the
// store one language at a time.
type LangString struct {
	data      map[Language]string
	changeset map[Language]LangChange
	notifier  Notifier
}

// NewLangString builds a LangString from language-tagged xsd strings. A
// string without a language tag is rejected.
func NewLangString(values ...xsd.String) (*LangString, error) {
	ls := &LangString{
		data:      make(map[Language]string, len(values)),
		changeset: map[Language]LangChange{},
	}
	for _, v := range values {
		if v.Lang() == "" {
			return nil, oldaperror.New(oldaperror.Value, "langString entry %q has no language tag", v.Value())
		}
		lang, err := ParseLanguage(v.Lang())
		if err != nil {
			return nil, err
		}
		ls.data[lang] = v.Value()
	}
	return ls, nil
}

// LangStringFromRDF builds a LangString from store values without
// validation.
func LangStringFromRDF(values ...xsd.String) *LangString {
	ls := &LangString{
		data:      make(map[Language]string, len(values)),
		changeset: map[Language]LangChange{},
	}
	for _, v := range values {
		ls.data[Language(strings.ToLower(v.Lang()))] = v.Value()
	}
	return ls
}

// SetNotifier registers the mutation callback.
func (ls *LangString) SetNotifier(n Notifier) {
	ls.notifier = n
}

func (ls *LangString) notify() {
	if ls.notifier != nil {
		ls.notifier()
	}
}

// Get returns the text for a language.
func (ls *LangString) Get(lang Language) (string, bool) {
	v, ok := ls.data[lang]
	return v, ok
}

// Set adds or replaces the text for a language and notifies the owner.
func (ls *LangString) Set(lang Language, value string) {
	old, had := ls.data[lang]
	if _, recorded := ls.changeset[lang]; !recorded {
		action := ActionCreate
		if had {
			action = ActionReplace
		}
		ls.changeset[lang] = LangChange{Old: old, HadOld: had, Action: action}
	}
	ls.data[lang] = value
	ls.notify()
}

// Delete removes the text for a language and notifies the owner.
func (ls *LangString) Delete(lang Language) error {
	old, had := ls.data[lang]
	if !had {
		return oldaperror.New(oldaperror.Key, "no entry for language %q", lang)
	}
	if _, recorded := ls.changeset[lang]; !recorded {
		ls.changeset[lang] = LangChange{Old: old, HadOld: true, Action: ActionDelete}
	}
	delete(ls.data, lang)
	ls.notify()
	return nil
}

// Len returns the number of languages.
func (ls *LangString) Len() int {
	return len(ls.data)
}

// Langs returns the languages in sorted order.
func (ls *LangString) Langs() []Language {
	langs := make([]Language, 0, len(ls.data))
	for l := range ls.data {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Values returns the entries as language-tagged xsd strings in language
// order.
func (ls *LangString) Values() []xsd.String {
	out := make([]xsd.String, 0, len(ls.data))
	for _, l := range ls.Langs() {
		out = append(out, xsd.StringFromRDF(ls.data[l], string(l)))
	}
	return out
}

// Changeset returns the per-language change entries.
func (ls *LangString) Changeset() map[Language]LangChange {
	return ls.changeset
}

// Dirty reports whether the LangString has un-cleared mutations.
func (ls *LangString) Dirty() bool {
	return len(ls.changeset) > 0
}

// Undo rolls the LangString back to its state before the first un-cleared
// mutation.
func (ls *LangString) Undo() {
	for lang, change := range ls.changeset {
		if change.HadOld {
			ls.data[lang] = change.Old
		} else {
			delete(ls.data, lang)
		}
	}
	ls.changeset = map[Language]LangChange{}
}

// ClearChangeset forgets the recorded mutations.
func (ls *LangString) ClearChangeset() {
	ls.changeset = map[Language]LangChange{}
}

// Equal compares two LangStrings entry-wise.
func (ls *LangString) Equal(other *LangString) bool {
	if other == nil || len(ls.data) != len(other.data) {
		return false
	}
	for lang, v := range ls.data {
		if ov, ok := other.data[lang]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Copy returns an independent LangString with the same entries and an empty
// change-set.
func (ls *LangString) Copy() *LangString {
	c := &LangString{
		data:      make(map[Language]string, len(ls.data)),
		changeset: map[Language]LangChange{},
	}
	for lang, v := range ls.data {
		c.data[lang] = v
	}
	return c
}

func (ls *LangString) String() string {
	parts := make([]string, 0, len(ls.data))
	for _, l := range ls.Langs() {
		parts = append(parts, ls.data[l]+"@"+string(l))
	}
	return strings.Join(parts, ", ")
}

// ToRDF emits the entries as a comma-separated object list of tagged
// literals.
func (ls *LangString) ToRDF() string {
	parts := make([]string, 0, len(ls.data))
	for _, l := range ls.Langs() {
		parts = append(parts, `"`+xsd.EscapeRDF(ls.data[l])+`"@`+string(l))
	}
	return strings.Join(parts, ", ")
}
