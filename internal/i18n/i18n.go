// Package i18n provides the synchronous translation lookup used by the
// calendar: flat "calendar.*" keys resolved against the active locale, with
// {name} placeholders filled from key/value params.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	LocaleRU = "ru"
	LocaleEN = "en"
)

// Translator resolves keys for one locale. Missing keys resolve to the key itself.
type Translator interface {
	Locale() string
	T(key string, kv ...any) string
}

// Bundle holds all catalogs and negotiates locales.
type Bundle struct {
	catalogs map[string]map[string]string
	fallback string
	tags     []language.Tag
	locales  []string
	matcher  language.Matcher
}

// NewBundle returns a bundle with the built-in ru and en catalogs. fallback is
// used when negotiation finds nothing better; unknown values become "ru".
func NewBundle(fallback string) *Bundle {
	b := &Bundle{
		catalogs: map[string]map[string]string{
			LocaleRU: catalogRU,
			LocaleEN: catalogEN,
		},
		fallback: LocaleRU,
	}
	if _, ok := b.catalogs[fallback]; ok {
		b.fallback = fallback
	}

	// The fallback goes first so the matcher prefers it on ties.
	b.locales = []string{b.fallback}
	for _, l := range []string{LocaleRU, LocaleEN} {
		if l != b.fallback {
			b.locales = append(b.locales, l)
		}
	}
	for _, l := range b.locales {
		b.tags = append(b.tags, language.Make(l))
	}
	b.matcher = language.NewMatcher(b.tags)
	return b
}

// For returns a Translator for locale, or for the fallback when locale is unknown.
func (b *Bundle) For(locale string) Translator {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if base, _, ok := strings.Cut(locale, "-"); ok {
		locale = base
	}
	cat, ok := b.catalogs[locale]
	if !ok {
		locale = b.fallback
		cat = b.catalogs[locale]
	}
	return catalogTranslator{locale: locale, catalog: cat, fallback: b.catalogs[b.fallback]}
}

// Negotiate picks a supported locale from an Accept-Language header value.
func (b *Bundle) Negotiate(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return b.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(b.locales) {
		return b.fallback
	}
	return b.locales[idx]
}

type catalogTranslator struct {
	locale   string
	catalog  map[string]string
	fallback map[string]string
}

func (c catalogTranslator) Locale() string {
	return c.locale
}

func (c catalogTranslator) T(key string, kv ...any) string {
	msg, ok := c.catalog[key]
	if !ok {
		if msg, ok = c.fallback[key]; !ok {
			return key
		}
	}
	if len(kv) == 0 {
		return msg
	}
	for i := 0; i+1 < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			continue
		}
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(kv[i+1]))
	}
	return msg
}
