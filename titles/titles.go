// Package titles generates the normalization variants used for fallback show
// matching. Display titles are not reliable identifiers: providers disagree on
// year suffixes ("The Rookie (2018)"), subtitles ("Star Wars: Andor"),
// ampersands and punctuation. Matching happens on the case-insensitive
// intersection of each side's variant set, so precedence between the
// individual rewrites is an explicit, testable contract rather than control
// flow.
package titles

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

var (
	yearSuffix = regexp.MustCompile(`\s*\((19|20)\d{2}\)\s*$`)
	andWord    = regexp.MustCompile(`(?i)\band\b`)
)

// transforms is the fixed, ordered rewrite list applied when generating
// variants. Each entry is pure; composition order is part of the contract.
var transforms = []func(string) string{
	stripYearSuffix,
	stripSubtitle,
	ampersandToAnd,
	andToAmpersand,
	romanize,
	stripPunctuation,
	collapseWhitespace,
}

// Normalize reduces a title to a single canonical comparison form. It is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = stripYearSuffix(s)
	s = ampersandToAnd(s)
	s = stripPunctuation(s)
	return collapseWhitespace(s)
}

// Variants returns every normalization variant of the title, de-duplicated
// case-insensitively while preserving generation order. The returned set is a
// fixpoint: running Variants over its own output yields the same set.
func Variants(s string) []string {
	s = collapseWhitespace(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	seen := map[string]struct{}{strings.ToLower(s): {}}
	variants := []string{s}

	// Closure over the transform list: keep rewriting until no transform
	// produces a new variant. Rewrites only shrink or swap tokens, so the
	// worklist converges quickly.
	for i := 0; i < len(variants); i++ {
		for _, transform := range transforms {
			out := collapseWhitespace(strings.TrimSpace(transform(variants[i])))
			if out == "" {
				continue
			}
			key := strings.ToLower(out)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			variants = append(variants, out)
		}
	}
	return variants
}

// Match reports whether the variant sets of a and b intersect,
// case-insensitively.
func Match(a, b string) bool {
	va := Variants(a)
	if len(va) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(va))
	for _, v := range va {
		set[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range Variants(b) {
		if _, ok := set[strings.ToLower(v)]; ok {
			return true
		}
	}
	return false
}

func stripYearSuffix(s string) string {
	return yearSuffix.ReplaceAllString(s, "")
}

// stripSubtitle drops a colon-introduced subtitle ("Star Wars: Andor" ->
// "Star Wars").
func stripSubtitle(s string) string {
	if i := strings.Index(s, ":"); i > 0 {
		return s[:i]
	}
	return s
}

func ampersandToAnd(s string) string {
	return strings.ReplaceAll(s, "&", " and ")
}

func andToAmpersand(s string) string {
	return andWord.ReplaceAllString(s, "&")
}

// romanize transliterates non-ASCII titles (accents, CJK) to their closest
// ASCII form so localized titles can still intersect.
func romanize(s string) string {
	return unidecode.Unidecode(s)
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
