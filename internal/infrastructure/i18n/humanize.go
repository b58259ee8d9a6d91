package i18n

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Humanize turns a slug or snake_case key into a title-cased English label,
// used when a label has no translation in any locale
func Humanize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// Label translates key, falling back to the humanized form of fallback when no
// locale has the key
func (t *Table) Label(locale, key, fallback string) string {
	if v, ok := t.Resolve(locale, key); ok {
		return v
	}
	return Humanize(fallback)
}
