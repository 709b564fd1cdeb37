package analysis

import (
	"strings"
	"unicode"
)

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest, where a word is any run of letters ("e-waste" -> "E-Waste").
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
