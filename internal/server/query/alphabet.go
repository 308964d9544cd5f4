package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Alphabet is the letter list shown in the filter bar. "kp" is a single
// letter of the alphabet and is matched as a unit.
var Alphabet = []string{
	"a", "b", "c", "d", "ɖ", "e", "ɛ", "f", "g", "h", "i", "ɩ", "j", "k", "kp",
	"l", "m", "n", "ñ", "ŋ", "o", "ɔ", "p", "s", "t", "u", "w", "y",
}

// LookupLetter returns the alphabet letter matching s, ignoring case.
func LookupLetter(s string) (string, bool) {
	s = Key(s)
	for _, l := range Alphabet {
		if l == s {
			return l, true
		}
	}
	return "", false
}

// startsWithLetter reports whether the folded headword begins with letter
// and not with a longer letter that shares its prefix.
func startsWithLetter(folded, letter string) bool {
	if !strings.HasPrefix(folded, letter) {
		return false
	}
	for _, l := range Alphabet {
		if len(l) > len(letter) && strings.HasPrefix(l, letter) && strings.HasPrefix(folded, l) {
			return false
		}
	}
	return true
}

// Key is the comparison form of s: trimmed, case folded with Unicode rules
// and NFC composed, so "Ɛsɔ" and "ɛsɔ" share a key whatever the database
// collation.
func Key(s string) string {
	return norm.NFC.String(cases.Fold().String(strings.TrimSpace(s)))
}
