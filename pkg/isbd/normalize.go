// Package isbd cleans ISBD-punctuated citations and splits them into areas.
package isbd

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	// AreaDelimiter separates ISBD areas.
	AreaDelimiter = ". - "

	// SourceDelimiter separates an analytic description from its host item.
	SourceDelimiter = " // "
)

var (
	// spaceRunPattern matches runs of two or more spaces.
	spaceRunPattern = regexp.MustCompile(` {2,}`)

	// foldRunes unifies dash-like characters and folds Ё/ё.
	foldRunes = runes.Map(func(r rune) rune {
		switch r {
		case '‒', '–', '—', '―', '−':
			return '-'
		case 'Ё':
			return 'Е'
		case 'ё':
			return 'е'
		}
		return r
	})
)

// Normalize cleans a raw citation: trims it, collapses space runs, unifies
// dashes, repairs "X.- Y" to "X. - Y" and folds Ё to Е.
func Normalize(raw string) string {
	s := strings.Trim(raw, " \r\n\t")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = fold(s)
	s = strings.ReplaceAll(s, ".- ", AreaDelimiter)
	return s
}

// LooksLikeReference reports whether text carries the ISBD area delimiter
// once dashes are unified.
func LooksLikeReference(text string) bool {
	return strings.Contains(fold(text), AreaDelimiter)
}

func fold(s string) string {
	out, _, err := transform.String(foldRunes, s)
	if err != nil {
		return s
	}
	return out
}
