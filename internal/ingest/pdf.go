package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFMIMEType is the only document type accepted for import.
const PDFMIMEType = "application/pdf"

// ErrNotPDF is returned for files that are not PDF documents.
var ErrNotPDF = errors.New("only PDF files are allowed")

// IsPDFName reports whether filename has a .pdf extension.
func IsPDFName(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// extractText returns the plain text of a PDF. The parser panics on some
// malformed inputs, so panics are turned into errors.
func extractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
