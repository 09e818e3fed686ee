package cache

import (
	"strings"

	"docqa/internal/util"
)

// NormalizeQuestion trims, lower-cases and drops trailing terminal
// punctuation so "What IS the title?" and "what is the title" share a key.
// It is used for key derivation only.
func NormalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.TrimSpace(strings.TrimRight(q, "?!. \t\r\n"))
}

// AnswerKey derives the answer cache key for a (document, question) pair.
func AnswerKey(documentID, question string) string {
	return util.SHA256Hex([]byte(documentID + ":" + NormalizeQuestion(question)))
}
