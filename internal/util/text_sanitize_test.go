package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"\ufeffab\x00cd\x01\x02\x7f\n\txy ", "abcd\n\txy"},
		{"", ""},
		{"  \x00  ", ""},
		{"line one\r\nline two", "line one\r\nline two"},
		{"café", "café"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SanitizeText(c.in), "input %q", c.in)
	}
}
