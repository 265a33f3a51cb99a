package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// CollapseWhitespace trims the string and folds any run of unicode whitespace
// into a single ASCII space. OCR output frequently contains stray tabs and
// non-breaking spaces between tokens.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeName title-cases an OCR'd name field. Recognizers commonly return
// license names in all caps.
func NormalizeName(s string) string {
	collapsed := CollapseWhitespace(s)
	if collapsed == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(collapsed))
}

// NormalizeField collapses whitespace and uppercases a coded field value
// (document numbers, state codes).
func NormalizeField(s string) string {
	return strings.ToUpper(CollapseWhitespace(s))
}
