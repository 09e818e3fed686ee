package retrieval

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}

// ExtractKeywords lower-cases the alphanumeric runs of a question and drops
// stop words and repeats, keeping first-seen order.
func ExtractKeywords(question string, stopWords []string) []string {
	stop := toSet(stopWords)
	tokens := wordRe.FindAllString(strings.ToLower(question), -1)
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := stop[t]; ok {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IsMetadataQuery reports whether any keyword asks about document metadata
// such as its title or author.
func IsMetadataQuery(keywords, metadataKeywords []string) bool {
	meta := toSet(metadataKeywords)
	for _, k := range keywords {
		if _, ok := meta[k]; ok {
			return true
		}
	}
	return false
}
