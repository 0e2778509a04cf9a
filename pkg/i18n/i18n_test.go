package i18n_test

import (
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/i18n"
)

func newCatalog(t *testing.T, opts ...i18n.Option) *i18n.I18n {
	t.Helper()
	base := []i18n.Option{
		i18n.WithTranslations("en", "messages", map[string]any{
			"greeting": "Hello, {{name}}!",
			"movies": map[string]any{
				"one":   "{{count}} movie",
				"other": "{{count}} movies",
			},
			"only_en": "English only",
		}),
		i18n.WithTranslations("fr", "messages", map[string]any{
			"greeting": "Bonjour, {{name}} !",
			"movies": map[string]any{
				"one":   "{{count}} film",
				"other": "{{count}} films",
			},
		}),
		i18n.WithTranslations("rw", "messages", map[string]any{
			"movies": map[string]string{"other": "filime {{count}}"},
		}),
	}
	c, err := i18n.New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestT(t *testing.T) {
	t.Parallel()
	c := newCatalog(t)

	tests := []struct {
		name, lang, key, want string
	}{
		{"exact", "fr", "greeting", "Bonjour, Aline !"},
		{"regional falls back to base", "fr-CA", "greeting", "Bonjour, Aline !"},
		{"missing falls back to default", "fr", "only_en", "English only"},
		{"unknown language uses default", "de", "greeting", "Hello, Aline!"},
		{"unknown key is returned", "fr", "nope.key", "nope.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.T(tt.lang, "messages", tt.key, i18n.M{"name": "Aline"}))
		})
	}

	t.Run("other namespace is separate", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "greeting", c.T("en", "mail", "greeting"))
	})
}

func TestTn(t *testing.T) {
	t.Parallel()
	c := newCatalog(t)

	assert.Equal(t, "1 movie", c.Tn("en", "messages", "movies", 1))
	assert.Equal(t, "0 movies", c.Tn("en", "messages", "movies", 0))
	assert.Equal(t, "3 movies", c.Tn("en", "messages", "movies", 3))

	// French treats zero as singular.
	assert.Equal(t, "0 film", c.Tn("fr", "messages", "movies", 0))
	assert.Equal(t, "2 films", c.Tn("fr", "messages", "movies", 2))

	// Only "other" exists in rw; "one" falls back to it.
	assert.Equal(t, "filime 1", c.Tn("rw", "messages", "movies", 1))

	assert.Equal(t, "unknown", c.Tn("en", "messages", "unknown", 2))
}

func TestOptions(t *testing.T) {
	t.Parallel()

	t.Run("default language", func(t *testing.T) {
		t.Parallel()
		c := newCatalog(t, i18n.WithDefaultLanguage("FR"))
		assert.Equal(t, "fr", c.DefaultLanguage())
		assert.Equal(t, "Bonjour, Aline !", c.T("de", "messages", "greeting", i18n.M{"name": "Aline"}))
	})

	t.Run("custom plural rule", func(t *testing.T) {
		t.Parallel()
		c := newCatalog(t, i18n.WithPluralRule("en", func(int) string { return i18n.PluralOne }))
		assert.Equal(t, "5 movie", c.Tn("en", "messages", "movies", 5))
	})

	t.Run("missing key handler", func(t *testing.T) {
		t.Parallel()
		var (
			mu   sync.Mutex
			seen []string
		)
		c := newCatalog(t, i18n.WithMissingKeyHandler(func(lang, ns, key string) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, lang+":"+ns+":"+key)
		}))
		c.T("fr", "messages", "greeting")
		c.T("fr", "messages", "absent")
		assert.Equal(t, []string{"fr:messages:absent"}, seen)
	})

	t.Run("invalid options", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.New(i18n.WithDefaultLanguage(""))
		require.ErrorIs(t, err, i18n.ErrEmptyLanguage)
		_, err = i18n.New(i18n.WithTranslations("en", "", map[string]any{"a": "b"}))
		require.ErrorIs(t, err, i18n.ErrEmptyNamespace)
		_, err = i18n.New(i18n.WithPluralRule("en", nil))
		require.ErrorIs(t, err, i18n.ErrNilPluralRule)
	})
}

func TestWithDir(t *testing.T) {
	t.Parallel()

	t.Run("yaml and json files", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"en/messages.yaml": {Data: []byte("flash:\n  saved: Saved\nyear: 2024\n")},
			"fr/messages.json": {Data: []byte(`{"flash": {"saved": "Enregistré"}}`)},
			"README.md":        {Data: []byte("ignored")},
		}
		c, err := i18n.New(i18n.WithDir(fsys))
		require.NoError(t, err)
		assert.Equal(t, "Saved", c.T("en", "messages", "flash.saved"))
		assert.Equal(t, "Enregistré", c.T("fr", "messages", "flash.saved"))
		assert.Equal(t, "2024", c.T("en", "messages", "year"))
	})

	t.Run("overrides earlier messages", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"fr/messages.yml": {Data: []byte("flash:\n  settings_saved: C'est noté.\n")},
		}
		c, err := i18n.New(i18n.WithDefaults(), i18n.WithDir(fsys))
		require.NoError(t, err)
		assert.Equal(t, "C'est noté.", c.T("fr", i18n.Namespace, "flash.settings_saved"))
		assert.Equal(t, "Profil mis à jour.", c.T("fr", i18n.Namespace, "flash.profile_updated"))
	})

	t.Run("file outside a language directory", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.New(i18n.WithDir(fstest.MapFS{"messages.yaml": {Data: []byte("a: b\n")}}))
		require.ErrorIs(t, err, i18n.ErrInvalidFile)
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.New(i18n.WithDir(fstest.MapFS{"en/messages.json": {Data: []byte("{")}}))
		require.ErrorIs(t, err, i18n.ErrInvalidFile)
	})
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	c, err := i18n.New(i18n.WithDefaults())
	require.NoError(t, err)

	for _, lang := range []string{"en", "fr", "rw"} {
		msg := c.T(lang, i18n.Namespace, "flash.registered")
		assert.NotEqual(t, "flash.registered", msg, lang)
	}
	vals := i18n.M{"field": "password", "param": "8"}
	assert.Equal(t, "Le champ password doit contenir au moins 8 caractères.",
		c.T("fr", i18n.Namespace, "validation.min.string", vals))
	assert.Equal(t, "password igomba kugira nibura inyuguti 8.",
		c.T("rw", i18n.Namespace, "validation.min.string", vals))
	// English validation text is produced by the validator itself.
	assert.Equal(t, "validation.required", c.T("en", i18n.Namespace, "validation.required", vals))
}

func TestTranslator(t *testing.T) {
	t.Parallel()
	c := newCatalog(t)

	tr := i18n.NewTranslator(c, "FR", "messages")
	assert.Equal(t, "fr", tr.Language())
	assert.Equal(t, "Bonjour, Aline !", tr.T("greeting", i18n.M{"name": "Aline"}))
	assert.Equal(t, "2 films", tr.Tn("movies", 2))
	assert.Equal(t, "Bonjour, Aline !", tr.TranslateMessage("greeting", map[string]any{"name": "Aline"}))

	def := i18n.NewTranslator(c, "", "messages")
	assert.Equal(t, "en", def.Language())

	assert.Panics(t, func() { i18n.NewTranslator(nil, "en", "") })
}

func TestReplacePlaceholders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hi Aline, 3 new", i18n.ReplacePlaceholders("Hi {{name}}, {{n}} new", i18n.M{"name": "Aline", "n": 3}))
	assert.Equal(t, "Hi {{name}}", i18n.ReplacePlaceholders("Hi {{name}}", i18n.M{"other": 1}))
	assert.Equal(t, "Hi {{name}}", i18n.ReplacePlaceholders("Hi {{name}}", nil))
}
