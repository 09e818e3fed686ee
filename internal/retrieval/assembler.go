package retrieval

import (
	"strings"
	"unicode/utf8"
)

// AssembleContext joins chunks with single spaces and bounds the result to
// maxLen characters. When a chunk does not fit, a prefix filling the
// remaining budget is kept only if that budget exceeds minPartial.
func AssembleContext(chunks []string, maxLen, minPartial int) string {
	if len(chunks) == 0 || maxLen <= 0 {
		return ""
	}
	joined := strings.Join(chunks, " ")
	if utf8.RuneCountInString(joined) <= maxLen {
		return joined
	}

	var b strings.Builder
	used := 0
	for _, c := range chunks {
		sep := 0
		if used > 0 {
			sep = 1
		}
		n := utf8.RuneCountInString(c)
		if used+sep+n <= maxLen {
			if sep > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(c)
			used += sep + n
			continue
		}
		remaining := maxLen - used - sep
		if remaining > minPartial {
			if sep > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(string([]rune(c)[:remaining]))
		}
		break
	}
	return b.String()
}
