package slug_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		opts  []slug.Option
	}{
		{name: "simple title", input: "The Godfather", want: "the-godfather"},
		{name: "punctuation collapses", input: "Crouching Tiger, Hidden Dragon!", want: "crouching-tiger-hidden-dragon"},
		{name: "numbers kept", input: "2001: A Space Odyssey", want: "2001-a-space-odyssey"},
		{name: "trims edges", input: "  --Heat--  ", want: "heat"},
		{name: "french diacritics", input: "Le Fabuleux Destin d'Amélie Poulain", want: "le-fabuleux-destin-d-amelie-poulain"},
		{name: "german letters", input: "Das Wunder von Bern: Größe", want: "das-wunder-von-bern-grosse"},
		{name: "polish letters", input: "Zażółć gęślą jaźń", want: "zazolc-gesla-jazn"},
		{name: "nordic letters", input: "Ørnen Æblegrød", want: "ornen-aeblegrod"},
		{name: "non latin scripts become separators", input: "Spirited 千と千尋 Away", want: "spirited-away"},
		{name: "only symbols", input: "!@#$%", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "custom separator", input: "Das Boot", opts: []slug.Option{slug.Separator("_")}, want: "das_boot"},
		{name: "keep case", input: "Das Boot", opts: []slug.Option{slug.Lowercase(false)}, want: "Das-Boot"},
		{name: "max length on word boundary", input: "This is a very long title that should be truncated", opts: []slug.Option{slug.MaxLength(20)}, want: "this-is-a-very-long"},
		{name: "max length backs off a split word", input: "Cut off cleanly", opts: []slug.Option{slug.MaxLength(9)}, want: "cut-off"},
		{name: "max length on a single long word", input: "Supercalifragilistic", opts: []slug.Option{slug.MaxLength(5)}, want: "super"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, slug.Make(tt.input, tt.opts...))
		})
	}
}

func TestMakeWithSuffix(t *testing.T) {
	t.Parallel()

	t.Run("appends a random suffix", func(t *testing.T) {
		t.Parallel()
		a := slug.Make("Heat", slug.WithSuffix(6))
		b := slug.Make("Heat", slug.WithSuffix(6))
		require.Regexp(t, regexp.MustCompile(`^heat-[a-z0-9]{6}$`), a)
		require.NotEqual(t, a, b)
	})

	t.Run("suffix counts toward max length", func(t *testing.T) {
		t.Parallel()
		s := slug.Make("The Lord of the Rings", slug.MaxLength(16), slug.WithSuffix(4))
		require.LessOrEqual(t, len(s), 16)
		require.True(t, strings.HasPrefix(s, "the-lord-"), s)
	})

	t.Run("empty base yields suffix only", func(t *testing.T) {
		t.Parallel()
		require.Regexp(t, regexp.MustCompile(`^[a-z0-9]{5}$`), slug.Make("???", slug.WithSuffix(5)))
	})
}

func TestFold(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Cafe Creme", slug.Fold("Café Crème"))
	require.Equal(t, "Strasse", slug.Fold("Straße"))
	require.Equal(t, "千", slug.Fold("千"))
}
