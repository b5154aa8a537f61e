package utils

import (
	"strings"
	"unicode"
)

// arabicFolds maps letter variants that readers treat as the same letter.
var arabicFolds = map[rune]rune{
	'أ': 'ا',
	'إ': 'ا',
	'آ': 'ا',
	'ٱ': 'ا',
	'ى': 'ي',
	'ئ': 'ي',
	'ؤ': 'و',
	'ة': 'ه',
}

// NormalizeLabel folds a label for comparison: lower case, Arabic
// diacritics and tatweel removed, alef/ya/ta marbuta variants unified and
// runs of whitespace collapsed to a single space.
func NormalizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case isArabicMark(r):
			continue
		case unicode.IsSpace(r):
			if !space {
				b.WriteRune(' ')
			}
			space = true
			continue
		}
		space = false
		if folded, ok := arabicFolds[r]; ok {
			r = folded
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Slug turns a free-text tag into an identifier fragment.
func Slug(s string) string {
	normalized := NormalizeLabel(s)
	var b strings.Builder
	dash := false
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteRune('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// isArabicMark reports harakat, superscript alef and tatweel.
func isArabicMark(r rune) bool {
	return (r >= 0x064B && r <= 0x065F) || r == 0x0670 || r == 0x0640
}
