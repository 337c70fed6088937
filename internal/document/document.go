// Package document turns uploaded files into plain text for extraction
// prompts.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF yields no extractable text.
var ErrNoText = errors.New("no text extracted from document")

var pdfMagic = []byte("%PDF-")

// Text extracts the text of an upload. PDFs (by extension or content) are
// parsed page by page; anything else is decoded as UTF-8 with invalid
// sequences dropped.
func Text(filename string, data []byte) (string, error) {
	if IsPDF(filename, data) {
		return pdfText(data)
	}
	return DecodeUTF8(data), nil
}

// IsPDF reports whether the upload looks like a PDF.
func IsPDF(filename string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// DecodeUTF8 returns data as a string with invalid UTF-8 removed and NUL
// bytes replaced by spaces.
func DecodeUTF8(data []byte) string {
	s := strings.ReplaceAll(string(data), "\x00", " ")
	return strings.ToValidUTF8(s, "")
}

func pdfText(data []byte) (out string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// skip unreadable pages
			continue
		}
		text = strings.TrimSpace(DecodeUTF8([]byte(text)))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	if b.Len() == 0 {
		return "", ErrNoText
	}
	return b.String(), nil
}
