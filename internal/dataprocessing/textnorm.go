package dataprocessing

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	spanishTitle   = cases.Title(language.Spanish)
)

// foldString lowercases and strips diacritics so "Región de Los Ríos"
// compares equal to "region de los rios".
func foldString(s string) string {
	stripped, _, err := transform.String(accentStripper, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}

// collapseWhitespace trims the value and squeezes internal runs of
// whitespace to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// properCase normalizes names and titles to Spanish title case.
func properCase(s string) string {
	return spanishTitle.String(s)
}

// nullWords are literal markers that count as missing values.
var nullWords = map[string]struct{}{
	"nan": {}, "none": {}, "null": {}, "n/a": {}, "na": {}, "-": {}, "": {},
}

// isNullWord reports whether a cell value is a missing-value marker.
func isNullWord(s string) bool {
	_, ok := nullWords[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
