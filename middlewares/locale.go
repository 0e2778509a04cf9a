package middlewares

import (
	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/i18n"
)

// Language sources.
const (
	SessionLanguageKey = "language"
	LanguageCookie     = "lang"
)

// Locale resolves the request language and stores it under
// internal.LanguageKey, where Context.Language reads it. Sources, in
// order: the session language, the lang cookie, the lang query parameter
// and Accept-Language. Unsupported values are skipped; the default
// language is the last resort. The choice is echoed as Content-Language.
// With a non-nil catalog a translator for the language is stored under
// internal.TranslatorKey, where Context.T and the error handler use it.
func Locale(langs *i18n.Languages, catalog *i18n.I18n) internal.Middleware {
	explicit := []internal.ExtractorSource{
		sessionLanguage,
		internal.FromCookie(LanguageCookie),
		internal.FromQuery(LanguageCookie),
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			lang := ""
			for _, src := range explicit {
				if v, ok := src(c); ok && langs.Supports(v) {
					lang = langs.Resolve(v)
					break
				}
			}
			if lang == "" {
				lang = langs.Negotiate(c.Header("Accept-Language"))
			}

			c.Set(internal.LanguageKey{}, lang)
			if catalog != nil {
				c.Set(internal.TranslatorKey{}, i18n.NewTranslator(catalog, lang, i18n.Namespace))
			}
			c.SetHeader("Content-Language", lang)
			return next(c)
		}
	}
}

// sessionLanguage reads the language without creating a session.
func sessionLanguage(c internal.Context) (string, bool) {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return "", false
	}
	v, ok := sess.GetValue(SessionLanguageKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
