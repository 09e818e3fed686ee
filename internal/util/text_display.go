package util

import (
	"strings"
	"unicode"
)

// DisplaySnippet cleans s for display and cuts it to maxRunes, adding an
// ellipsis when it was cut.
func DisplaySnippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = strings.Join(strings.Fields(splitGluedWords(SanitizeText(s))), " ")

	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsPrint(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) || unicode.IsPunct(r) {
			out = append(out, r)
		}
	}
	if len(out) > maxRunes {
		return strings.TrimSpace(string(out[:maxRunes])) + "..."
	}
	return strings.TrimSpace(string(out))
}

// splitGluedWords inserts a space where PDF extraction tends to drop one:
// lower to upper case and letter/digit transitions.
func splitGluedWords(s string) string {
	in := []rune(s)
	if len(in) == 0 {
		return s
	}
	out := make([]rune, 0, len(in)+len(in)/8)
	out = append(out, in[0])
	for i := 1; i < len(in); i++ {
		a, b := in[i-1], in[i]
		glued := (unicode.IsLower(a) && unicode.IsUpper(b)) ||
			(unicode.IsLetter(a) && unicode.IsDigit(b)) ||
			(unicode.IsDigit(a) && unicode.IsLetter(b))
		if glued && !unicode.IsSpace(out[len(out)-1]) {
			out = append(out, ' ')
		}
		out = append(out, b)
	}
	return string(out)
}
