package util

import "strings"

// SanitizeText removes NUL, other control characters and byte order marks
// that extractors and legacy encodings leave behind. Newlines and tabs stay.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch {
		case ch == '\n' || ch == '\r' || ch == '\t':
			b.WriteRune(ch)
		case ch < 0x20 || ch == 0x7f || ch == '\ufeff':
		default:
			b.WriteRune(ch)
		}
	}
	return strings.TrimSpace(b.String())
}
