package i18n

// PluralRule picks the CLDR plural category for a count.
type PluralRule func(n int) string

// CLDR plural categories used by the supported languages.
const (
	PluralZero  = "zero"
	PluralOne   = "one"
	PluralOther = "other"
)

// EnglishPluralRule: one for 1 and -1, other otherwise. Kinyarwanda
// follows the same split.
func EnglishPluralRule(n int) string {
	if n == 1 || n == -1 {
		return PluralOne
	}
	return PluralOther
}

// FrenchPluralRule treats 0 and 1 as singular.
func FrenchPluralRule(n int) string {
	if n >= -1 && n <= 1 {
		return PluralOne
	}
	return PluralOther
}

// PluralRuleFor returns the built-in rule for lang.
func PluralRuleFor(lang string) PluralRule {
	switch baseOf(normalize(lang)) {
	case "fr":
		return FrenchPluralRule
	default:
		return EnglishPluralRule
	}
}
