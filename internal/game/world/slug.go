package world

import (
	"strings"
	"unicode"
)

// Slugify normalizes free text for name matching: case folded, with all
// whitespace and apostrophes removed. Matching is exact after normalization.
// This is a deliberate placeholder for real similarity matching (e.g.
// trigram similarity); callers must not rely on anything looser than
// exact-after-normalization.
//
// Postcondition: Slugify(Slugify(s)) == Slugify(s).
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) || r == '\'' || r == '’' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
