package scoring

import "strings"

// normalize implements spec §4.2's comparison normalization: lowercase,
// replace separator characters with spaces, collapse whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', '/', '\\':
			return ' '
		default:
			return r
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
