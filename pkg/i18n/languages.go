package i18n

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// maxHeaderLength bounds the Accept-Language header we are willing to parse.
const maxHeaderLength = 4096

// Languages is an immutable set of supported language codes with a default.
// It is safe for concurrent use.
type Languages struct {
	fallback  string
	supported []string
}

// NewLanguages builds a Languages set. Codes are lower-cased and de-duplicated.
// An empty fallback means the first supported language; a fallback that is
// not in the list is rejected.
func NewLanguages(supported []string, fallback string) (*Languages, error) {
	var codes []string
	for _, s := range supported {
		s = normalize(s)
		if s != "" && !slices.Contains(codes, s) {
			codes = append(codes, s)
		}
	}
	if len(codes) == 0 {
		return nil, ErrNoLanguages
	}

	fallback = normalize(fallback)
	if fallback == "" {
		fallback = codes[0]
	}
	if !slices.Contains(codes, fallback) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, fallback)
	}
	return &Languages{supported: codes, fallback: fallback}, nil
}

// Default returns the fallback language.
func (l *Languages) Default() string { return l.fallback }

// Supported returns a copy of the supported codes in configuration order.
func (l *Languages) Supported() []string { return slices.Clone(l.supported) }

// Supports reports whether lang is one of the supported codes.
func (l *Languages) Supports(lang string) bool {
	return slices.Contains(l.supported, normalize(lang))
}

// Resolve returns the first candidate that is supported, or the default.
func (l *Languages) Resolve(candidates ...string) string {
	for _, c := range candidates {
		if c = normalize(c); c != "" && slices.Contains(l.supported, c) {
			return c
		}
	}
	return l.fallback
}

// Negotiate picks the best supported language for an Accept-Language header.
// Higher quality wins; on equal quality an exact tag beats a base-language
// match and earlier header entries beat later ones. With no usable entry
// the default is returned.
func (l *Languages) Negotiate(header string) string {
	best, bestQ, bestExact := "", -1.0, false
	for _, tag := range parseHeader(header) {
		if tag.quality <= 0 {
			continue
		}
		code, exact := l.match(tag.code)
		if code == "" {
			continue
		}
		if tag.quality > bestQ || (tag.quality == bestQ && exact && !bestExact) {
			best, bestQ, bestExact = code, tag.quality, exact
		}
	}
	if best == "" {
		return l.fallback
	}
	return best
}

// match finds the supported code for a requested tag.
func (l *Languages) match(requested string) (string, bool) {
	if slices.Contains(l.supported, requested) {
		return requested, true
	}
	base := baseOf(requested)
	for _, s := range l.supported {
		if baseOf(s) == base {
			return s, false
		}
	}
	return "", false
}

type weightedTag struct {
	code    string
	quality float64
}

// parseHeader splits the header into tags sorted by descending quality.
// The sort is stable, so header order breaks ties.
func parseHeader(header string) []weightedTag {
	if len(header) > maxHeaderLength {
		header = header[:maxHeaderLength]
	}
	var tags []weightedTag
	for part := range strings.SplitSeq(header, ",") {
		code, params, _ := strings.Cut(part, ";")
		code = normalize(code)
		if code == "" || code == "*" {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil || parsed < 0 || parsed > 1 {
				continue
			}
			q = parsed
		}
		tags = append(tags, weightedTag{code: code, quality: q})
	}
	slices.SortStableFunc(tags, func(a, b weightedTag) int {
		return cmp.Compare(b.quality, a.quality)
	})
	return tags
}

func normalize(tag string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), "_", "-")
}

func baseOf(tag string) string {
	base, _, _ := strings.Cut(tag, "-")
	return base
}
