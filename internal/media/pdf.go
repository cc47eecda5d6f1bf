package media

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// openPDF wraps the reader because malformed input can panic deep inside the parser.
func openPDF(content []byte, fn func(r *pdf.Reader) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return fmt.Errorf("failed to open pdf: %w", err)
	}
	return fn(r)
}

func PageCount(content []byte) (int, error) {
	var n int
	err := openPDF(content, func(r *pdf.Reader) error {
		n = r.NumPage()
		return nil
	})
	return n, err
}

// PDFText returns the embedded text layer, empty for scanned documents.
func PDFText(content []byte) (string, error) {
	var buf strings.Builder
	err := openPDF(content, func(r *pdf.Reader) error {
		numPages := r.NumPage()
		for i := 1; i <= numPages; i++ {
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("failed to read page %d: %w", i, err)
			}
			buf.WriteString(text)
			if i < numPages {
				buf.WriteByte('\n')
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
