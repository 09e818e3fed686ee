package retrieval

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeText turns line breaks into spaces and collapses whitespace runs.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// SplitSentences splits normalized text after '.', '!' or '?' when the next
// character is whitespace. Abbreviations and decimals can split wrongly; the
// heuristic is accepted as is.
func SplitSentences(text string) []string {
	out := make([]string, 0, 16)
	start := 0
	prev := rune(0)
	for i, r := range text {
		if unicode.IsSpace(r) && (prev == '.' || prev == '!' || prev == '?') {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + utf8.RuneLen(r)
		}
		prev = r
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// SplitChunks normalizes text and packs whole sentences into chunks. A chunk
// is closed when appending the next sentence would bring it to targetSize
// characters or more; a single sentence longer than targetSize stays whole.
func SplitChunks(text string, targetSize int) []string {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	sentences := SplitSentences(NormalizeText(text))
	if len(sentences) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(sentences)/4+1)
	var buf strings.Builder
	bufLen := 0
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if bufLen > 0 && bufLen+1+n >= targetSize {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufLen = 0
		}
		if bufLen > 0 {
			buf.WriteByte(' ')
			bufLen++
		}
		buf.WriteString(s)
		bufLen += n
	}
	if bufLen > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
