package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var transliterate = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
	"þ", "th", "Þ", "TH",
	"ð", "d", "Ð", "D",
	"ı", "i",
)

type options struct {
	separator string
	maxLength int
	suffix    int
	lowercase bool
}

// Option configures Make.
type Option func(*options)

// Separator sets the string placed between words. Default "-".
func Separator(sep string) Option {
	return func(o *options) { o.separator = sep }
}

// MaxLength caps the slug length in bytes, suffix included.
func MaxLength(n int) Option {
	return func(o *options) { o.maxLength = n }
}

// Lowercase controls case folding. Default true.
func Lowercase(v bool) Option {
	return func(o *options) { o.lowercase = v }
}

// WithSuffix appends n random lowercase letters and digits.
func WithSuffix(n int) Option {
	return func(o *options) { o.suffix = n }
}

// Make builds a slug from s. The result contains only ASCII letters, digits
// and the separator, never starts or ends with the separator, and may be
// empty when s has nothing to keep.
func Make(s string, opts ...Option) string {
	o := options{separator: "-", lowercase: true}
	for _, opt := range opts {
		opt(&o)
	}

	s = Fold(s)
	if o.lowercase {
		s = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	gap := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if gap && b.Len() > 0 {
				b.WriteString(o.separator)
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	out := b.String()

	limit := o.maxLength
	if limit > 0 && o.suffix > 0 {
		limit -= o.suffix + len(o.separator)
	}
	if o.maxLength > 0 {
		out = truncate(out, max(limit, 0), o.separator)
	}

	if o.suffix > 0 {
		if out != "" {
			out += o.separator
		}
		out += Suffix(o.suffix)
	}
	return out
}

// Fold removes diacritics and transliterates letters without an ASCII
// decomposition. Other characters are kept as they are.
func Fold(s string) string {
	s = transliterate.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Suffix returns n random characters from [a-z0-9].
func Suffix(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}

func truncate(s string, n int, sep string) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if sep != "" && !strings.HasPrefix(s[n:], sep) {
		if i := strings.LastIndex(cut, sep); i > 0 {
			cut = cut[:i]
		}
	}
	if sep != "" {
		cut = strings.TrimSuffix(cut, sep)
	}
	return cut
}
