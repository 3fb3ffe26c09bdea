package ingest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF returns the plain text content of a PDF file, for importing
// exported diary documents.
func ExtractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading text from %s: %w", path, err)
	}
	return buf.String(), nil
}
