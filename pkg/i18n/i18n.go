package i18n

import (
	"fmt"
	"maps"
	"strings"
)

// DefaultLang is the fallback language of a catalog built without
// WithDefaultLanguage.
const DefaultLang = "en"

// M holds placeholder values.
type M = map[string]any

// I18n is a translation catalog. It is immutable once New returns and is
// safe for concurrent use.
type I18n struct {
	// Key format: "lang:namespace:dotted.key".
	messages map[string]string
	plurals  map[string]PluralRule
	missing  func(lang, namespace, key string)
	fallback string
}

// Option configures a catalog.
type Option func(*I18n) error

// New builds a catalog from opts, applied in order. Later options
// overwrite keys loaded by earlier ones.
func New(opts ...Option) (*I18n, error) {
	i := &I18n{
		messages: make(map[string]string),
		plurals:  make(map[string]PluralRule),
		fallback: DefaultLang,
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("i18n: apply option: %w", err)
		}
	}
	return i, nil
}

// WithDefaultLanguage sets the language consulted when a key is missing
// in the requested one.
func WithDefaultLanguage(lang string) Option {
	return func(i *I18n) error {
		lang = normalize(lang)
		if lang == "" {
			return ErrEmptyLanguage
		}
		i.fallback = lang
		return nil
	}
}

// WithTranslations merges a nested message tree for lang and namespace.
func WithTranslations(lang, namespace string, tree map[string]any) Option {
	return func(i *I18n) error {
		return i.add(lang, namespace, tree)
	}
}

// WithPluralRule overrides the plural rule of lang.
func WithPluralRule(lang string, rule PluralRule) Option {
	return func(i *I18n) error {
		lang = normalize(lang)
		if lang == "" {
			return ErrEmptyLanguage
		}
		if rule == nil {
			return ErrNilPluralRule
		}
		i.plurals[lang] = rule
		return nil
	}
}

// WithMissingKeyHandler registers fn to be told about keys found in
// neither the requested nor the default language.
func WithMissingKeyHandler(fn func(lang, namespace, key string)) Option {
	return func(i *I18n) error {
		i.missing = fn
		return nil
	}
}

func (i *I18n) add(lang, namespace string, tree map[string]any) error {
	lang = normalize(lang)
	if lang == "" {
		return ErrEmptyLanguage
	}
	if namespace == "" {
		return ErrEmptyNamespace
	}
	for key, msg := range flatten(tree, "") {
		i.messages[lang+":"+namespace+":"+key] = msg
	}
	if _, ok := i.plurals[lang]; !ok {
		i.plurals[lang] = PluralRuleFor(lang)
	}
	return nil
}

// DefaultLanguage returns the fallback language.
func (i *I18n) DefaultLanguage() string { return i.fallback }

// T returns the message for key in lang, falling back to the base
// language ("fr" for "fr-ca") and then to the default language.
// Placeholders are filled from values. A key found nowhere is returned
// unchanged.
func (i *I18n) T(lang, namespace, key string, values ...M) string {
	msg, ok := i.lookup(lang, namespace, key)
	if !ok {
		i.reportMissing(lang, namespace, key)
		return key
	}
	return ReplacePlaceholders(msg, merge(values))
}

// Tn returns the plural form of key for n. Forms live under the key
// ("movies.one", "movies.other"); a missing form falls back to "other".
// The count placeholder is set to n.
func (i *I18n) Tn(lang, namespace, key string, n int, values ...M) string {
	form := i.rule(lang)(n)
	var msg string
	ok := false
	for _, l := range i.chain(lang) {
		prefix := l + ":" + namespace + ":" + key + "."
		if msg, ok = i.messages[prefix+form]; ok {
			break
		}
		if msg, ok = i.messages[prefix+PluralOther]; ok {
			break
		}
	}
	if !ok {
		i.reportMissing(lang, namespace, key)
		return key
	}
	vals := merge(values)
	vals["count"] = n
	return ReplacePlaceholders(msg, vals)
}

func (i *I18n) lookup(lang, namespace, key string) (string, bool) {
	for _, l := range i.chain(lang) {
		if msg, ok := i.messages[l+":"+namespace+":"+key]; ok {
			return msg, true
		}
	}
	return "", false
}

// chain lists the languages consulted for lang, most specific first.
func (i *I18n) chain(lang string) []string {
	lang = normalize(lang)
	out := make([]string, 0, 3)
	if lang != "" {
		out = append(out, lang)
		if base := baseOf(lang); base != lang {
			out = append(out, base)
		}
	}
	if lang != i.fallback && baseOf(lang) != i.fallback {
		out = append(out, i.fallback)
	}
	return out
}

func (i *I18n) rule(lang string) PluralRule {
	for _, l := range i.chain(lang) {
		if r, ok := i.plurals[l]; ok {
			return r
		}
	}
	return PluralRuleFor(lang)
}

func (i *I18n) reportMissing(lang, namespace, key string) {
	if i.missing != nil {
		i.missing(lang, namespace, key)
	}
}

func merge(values []M) M {
	out := make(M)
	for _, v := range values {
		maps.Copy(out, v)
	}
	return out
}

// flatten turns a nested tree into dotted keys. Non-string leaves are
// rendered with %v so YAML numbers and booleans survive.
func flatten(tree map[string]any, prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case string:
			out[key] = v
		case map[string]any:
			maps.Copy(out, flatten(v, key))
		case map[string]string:
			for sk, sv := range v {
				out[key+"."+sk] = sv
			}
		case nil:
		default:
			out[key] = strings.TrimSpace(fmt.Sprintf("%v", v))
		}
	}
	return out
}
