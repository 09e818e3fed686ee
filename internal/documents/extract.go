package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docqa/internal/util"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

// ExtractText reads a stored file as text. PDFs are extracted page by page;
// when that fails or yields nothing the raw bytes are used instead.
func ExtractText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if text, err := ExtractPDFText(path); err == nil && text != "" {
			return text, nil
		}
	}
	return util.SanitizeText(DecodeText(raw)), nil
}

// ExtractPDFText joins the plain text of every page with blank lines.
func ExtractPDFText(path string) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract pdf text: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		t = strings.TrimSpace(util.SanitizeText(t))
		if t != "" {
			pages = append(pages, t)
		}
	}
	if len(pages) == 0 {
		return "", util.ErrNoExtractableText
	}
	return strings.Join(pages, "\n\n"), nil
}

// DecodeText returns b as a string, decoding it as Windows-1252 when it is
// not valid UTF-8. It never fails.
func DecodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		out, _ = charmap.ISO8859_1.NewDecoder().Bytes(b)
	}
	return string(out)
}
