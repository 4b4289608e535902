package playlist

import (
	"strings"
	"unicode"
)

// Normalize turns a playlist name into a file name stem.
//
// Everything but letters and numbers is dropped, then the result is converted
// to snake case: the first rune is lower-cased and every later ASCII capital
// becomes an underscore followed by its lower-case form. Other runes are kept
// as they are, so "CaféÑandú" becomes "caféÑandú" and existing log names stay
// stable. "Road Trip!" becomes "road_trip". A name without letters or numbers
// normalizes to "".
func Normalize(name string) string {
	var alnum []rune
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			alnum = append(alnum, r)
		}
	}
	if len(alnum) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteRune(unicode.ToLower(alnum[0]))
	for _, r := range alnum[1:] {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
