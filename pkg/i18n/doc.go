// Package i18n negotiates the request language and translates messages.
//
// Languages decides which supported language a request should use:
//
//	langs, err := i18n.NewLanguages([]string{"en", "rw", "fr"}, "en")
//	if err != nil {
//		return err
//	}
//	lang := langs.Negotiate("fr-FR,fr;q=0.9,en;q=0.5") // "fr"
//
// Matching is case-insensitive. A regional tag matches its base language
// ("en-GB" selects "en") and a base tag matches a supported regional one.
//
// I18n is an immutable message catalog keyed by language, namespace and a
// dotted key. The bundled en, fr and rw messages are loaded with
// WithDefaults; WithDir layers YAML or JSON files from any fs.FS on top.
//
//	catalog, err := i18n.New(i18n.WithDefaults())
//	if err != nil {
//		return err
//	}
//	tr := i18n.NewTranslator(catalog, "fr", i18n.Namespace)
//	tr.T("flash.settings_saved")            // "Paramètres enregistrés."
//	tr.T("validation.required", i18n.M{"field": "email"})
//
// A missing key falls back to the base language, then to the default
// language, and finally to the key itself. Plural forms live under the
// key ("movies.one", "movies.other") and are picked by Tn with the CLDR
// rule of the language.
package i18n
