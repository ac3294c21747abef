// Package extract adapts uploaded payloads into the plain UTF-8 text the
// analysis pipeline consumes.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
)

var ErrUnsupportedType = errors.New("unsupported document type")

// Text extracts plain text from an in-memory payload. Supported inputs are
// UTF-8 text and PDF (github.com/ledongthuc/pdf); the mime type is
// normalized from the declared type, the file extension, and a content
// sniff, in that order of trust.
func Text(data []byte, mimeType, fileName string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	switch normalizeMimeType(mimeType, fileName, data) {
	case mimePDF:
		return extractPDF(data)
	case mimeText:
		if !utf8.Valid(data) {
			return "", errors.New("text payload is not valid UTF-8")
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%s (%s): %w", mimeType, fileName, ErrUnsupportedType)
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func normalizeMimeType(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimePDF, mimeText:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".txt", ".md", ".text":
		return mimeText
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return mimePDF
	}
	if utf8.Valid(data) && clean == "" {
		return mimeText
	}
	return clean
}
