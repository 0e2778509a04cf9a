package i18n

// Translator binds a catalog to one language and namespace, typically
// for the lifetime of a request.
type Translator struct {
	i18n      *I18n
	language  string
	namespace string
}

// NewTranslator returns a Translator for lang. An empty lang means the
// catalog default and an empty namespace means Namespace.
func NewTranslator(i18n *I18n, lang, namespace string) *Translator {
	if i18n == nil {
		panic("i18n: catalog is not provided")
	}
	if lang == "" {
		lang = i18n.DefaultLanguage()
	}
	if namespace == "" {
		namespace = Namespace
	}
	return &Translator{i18n: i18n, language: normalize(lang), namespace: namespace}
}

// T translates key.
func (t *Translator) T(key string, values ...M) string {
	return t.i18n.T(t.language, t.namespace, key, values...)
}

// Tn translates the plural form of key for n.
func (t *Translator) Tn(key string, n int, values ...M) string {
	return t.i18n.Tn(t.language, t.namespace, key, n, values...)
}

// TranslateMessage has the shape ValidationErrors.Translate expects:
//
//	verrs.Translate(tr.TranslateMessage)
func (t *Translator) TranslateMessage(key string, values map[string]any) string {
	return t.i18n.T(t.language, t.namespace, key, values)
}

// Language returns the bound language.
func (t *Translator) Language() string { return t.language }
