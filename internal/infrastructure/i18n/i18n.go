// Package i18n provides the panel's localization table: a read-only map from
// locale and dotted key path to translated text.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// DefaultLocale is used when nothing better matches
const DefaultLocale = "en"

// Table holds flattened translations per locale. It is immutable after
// construction and safe for concurrent use.
type Table struct {
	defaultLocale string
	entries       map[string]map[string]string
	locales       []string
	tags          []language.Tag
	matcher       language.Matcher
}

// Option configures a Table
type Option func(*Table)

// WithDefaultLocale sets the locale used as last resort before the key itself
func WithDefaultLocale(locale string) Option {
	return func(t *Table) {
		t.defaultLocale = normalize(locale)
	}
}

// Default loads the locale files shipped with the binary
func Default(opts ...Option) (*Table, error) {
	return Load(embedded, "locales", opts...)
}

// MustDefault is like Default but panics on a broken locale file
func MustDefault(opts ...Option) *Table {
	t, err := Default(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads every .yaml, .yml and .toml file in dir. The file name (without
// extension) is the locale. Nested maps are flattened to dotted key paths.
func Load(fsys fs.FS, dir string, opts ...Option) (*Table, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale directory %s: %w", dir, err)
	}

	entries := make(map[string]map[string]string)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := path.Ext(f.Name())
		if ext != ".yaml" && ext != ".yml" && ext != ".toml" {
			continue
		}
		locale := normalize(strings.TrimSuffix(f.Name(), ext))

		content, err := fs.ReadFile(fsys, path.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", f.Name(), err)
		}

		data := make(map[string]any)
		if ext == ".toml" {
			if err := toml.Unmarshal(content, &data); err != nil {
				return nil, fmt.Errorf("failed to parse TOML file %s: %w", f.Name(), err)
			}
		} else {
			if err := yaml.Unmarshal(content, &data); err != nil {
				return nil, fmt.Errorf("failed to parse YAML file %s: %w", f.Name(), err)
			}
		}

		flat, ok := entries[locale]
		if !ok {
			flat = make(map[string]string)
			entries[locale] = flat
		}
		flatten("", data, flat)
	}

	return New(entries, opts...)
}

// New builds a table from already flattened entries
func New(entries map[string]map[string]string, opts ...Option) (*Table, error) {
	t := &Table{
		defaultLocale: DefaultLocale,
		entries:       make(map[string]map[string]string, len(entries)),
	}
	for _, opt := range opts {
		opt(t)
	}

	for locale, kv := range entries {
		locale = normalize(locale)
		copied := make(map[string]string, len(kv))
		for k, v := range kv {
			copied[k] = v
		}
		t.entries[locale] = copied
		t.locales = append(t.locales, locale)
	}
	if len(t.locales) == 0 {
		return nil, fmt.Errorf("no locales loaded")
	}
	if _, ok := t.entries[t.defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no translations", t.defaultLocale)
	}
	sort.Strings(t.locales)

	// The default locale goes first so the matcher falls back to it.
	t.tags = make([]language.Tag, 0, len(t.locales))
	t.tags = append(t.tags, language.Make(t.defaultLocale))
	for _, l := range t.locales {
		if l != t.defaultLocale {
			t.tags = append(t.tags, language.Make(l))
		}
	}
	t.matcher = language.NewMatcher(t.tags)
	return t, nil
}

// Translate returns the text for key in locale. Missing entries fall back to the
// base language (ar-SA → ar), then the default locale, then the key path itself.
func (t *Table) Translate(locale, key string) string {
	if v, ok := t.Resolve(locale, key); ok {
		return v
	}
	return key
}

// Resolve is like Translate but reports whether any locale had the key
func (t *Table) Resolve(locale, key string) (string, bool) {
	for _, l := range t.chain(locale) {
		if v, ok := t.entries[l][key]; ok {
			return v, true
		}
	}
	return "", false
}

// Locales returns the loaded locales, sorted
func (t *Table) Locales() []string {
	out := make([]string, len(t.locales))
	copy(out, t.locales)
	return out
}

// DefaultLocale returns the table's default locale
func (t *Table) DefaultLocale() string {
	return t.defaultLocale
}

// Has reports whether the locale is loaded
func (t *Table) Has(locale string) bool {
	_, ok := t.entries[normalize(locale)]
	return ok
}

// Keys returns every key of a locale, sorted
func (t *Table) Keys(locale string) []string {
	kv := t.entries[normalize(locale)]
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Match picks the best loaded locale for an Accept-Language header value.
// An empty or unparsable header yields the default locale.
func (t *Table) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLocale
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.defaultLocale
	}
	return t.tags[idx].String()
}

func (t *Table) chain(locale string) []string {
	locale = normalize(locale)
	out := []string{locale}
	if base, _, found := strings.Cut(locale, "-"); found {
		out = append(out, base)
	}
	if locale != t.defaultLocale {
		out = append(out, t.defaultLocale)
	}
	return out
}

func flatten(prefix string, data map[string]any, out map[string]string) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}

// normalize maps "ar_SA" and "AR-sa" to "ar-SA"
func normalize(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return strings.ToLower(locale)
	}
	return tag.String()
}
