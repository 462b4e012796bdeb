// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dictionary

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// decorative runes dropped from the start of a term before classification
var decorative = map[rune]bool{
	'⁰': true, '¹': true, '²': true, '³': true, '⁴': true,
	'⁵': true, '⁶': true, '⁷': true, '⁸': true, '⁹': true,
	'µ': true, // micro sign U+00B5
	'μ': true, // greek mu U+03BC
}

// letterFold maps accented and ligature capitals to their base letter
var letterFold = map[rune]rune{
	'Æ': 'A', 'Ä': 'A', 'Å': 'A', 'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A',
	'Ç': 'C',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I',
	'Ñ': 'N',
	'Ö': 'O', 'Ø': 'O', 'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Œ': 'O',
	'Ü': 'U', 'Ù': 'U', 'Ú': 'U', 'Û': 'U',
	'Ý': 'Y',
	'ß': 'S', 'ẞ': 'S',
}

// digitFold maps a leading digit to the first letter of its English name
var digitFold = map[rune]rune{
	'0': 'O', '1': 'O', '2': 'T', '3': 'T', '4': 'F',
	'5': 'F', '6': 'S', '7': 'S', '8': 'E', '9': 'N',
}

// ExpectedLetter returns the classification letter for a term: the first
// significant character, uppercased and folded to A-Z where a mapping
// exists. ok is false when the term has no significant character.
func ExpectedLetter(term string) (letter rune, ok bool) {
	for _, r := range term {
		if decorative[r] {
			continue
		}
		return foldRune(r), true
	}
	return 0, false
}

func foldRune(r rune) rune {
	if d, ok := digitFold[r]; ok {
		return d
	}
	if f, ok := letterFold[r]; ok {
		return f
	}
	up := unicode.ToUpper(r)
	if f, ok := letterFold[up]; ok {
		return f
	}
	if up >= 'A' && up <= 'Z' {
		return up
	}
	// Accented letters missing from the table fold to their base letter
	if base := []rune(norm.NFD.String(string(up))); len(base) > 0 && base[0] >= 'A' && base[0] <= 'Z' {
		return base[0]
	}
	return up
}

// LetterMatches reports whether letter is the classification of term
func LetterMatches(term, letter string) bool {
	expected, ok := ExpectedLetter(term)
	return ok && string(expected) == letter
}
