package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestTextPlain(t *testing.T) {
	got, err := Text([]byte("hello world"), "text/plain; charset=utf-8", "doc.txt")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestTextByExtension(t *testing.T) {
	got, err := Text([]byte("notes"), "", "readme.md")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "notes" {
		t.Fatalf("got %q", got)
	}
}

func TestTextSniffsMissingMime(t *testing.T) {
	got, err := Text([]byte("plain content"), "", "upload.bin")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "plain content" {
		t.Fatalf("got %q", got)
	}
}

func TestTextRejectsInvalidUTF8(t *testing.T) {
	if _, err := Text([]byte{0xff, 0xfe, 0x00}, "text/plain", "doc.txt"); err == nil {
		t.Fatalf("expected error for invalid UTF-8")
	}
}

func TestTextUnsupportedType(t *testing.T) {
	_, err := Text([]byte{0x50, 0x4b, 0x03, 0x04, 0xff}, "application/zip", "archive.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestTextEmptyPayload(t *testing.T) {
	if _, err := Text(nil, "text/plain", "doc.txt"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestTextBrokenPDF(t *testing.T) {
	if _, err := Text([]byte("%PDF-1.4 garbage"), "", "doc.pdf"); err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
	if !strings.HasPrefix("%PDF-1.4", "%PDF-") {
		t.Fatalf("sniff prefix mismatch")
	}
}
