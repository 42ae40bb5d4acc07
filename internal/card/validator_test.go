package card

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit
	tempDir := t.TempDir()

	pngPath := writeFile(t, tempDir, "front.png", pngBytes(t, 64, 40))
	mislabeled := writeFile(t, tempDir, "front.pdf", pngBytes(t, 10, 10))
	pdfPath := writeFile(t, tempDir, "card.pdf", textPDF([]string{"So / No.: 079201012345"}))
	brokenPDF := writeFile(t, tempDir, "broken.pdf", []byte("%PDF-1.4\nnot really"))
	textPath := writeFile(t, tempDir, "notes.txt", []byte("not an image"))
	emptyPath := writeFile(t, tempDir, "empty.png", nil)
	largePath := writeFile(t, tempDir, "large.png", make([]byte, 2*1024*1024))

	tests := []struct {
		name        string
		path        string
		expectValid bool
		kind        Kind
		errorMsg    string
	}{
		{name: "png image", path: pngPath, expectValid: true, kind: KindImage},
		{name: "extension is not trusted", path: mislabeled, expectValid: true, kind: KindImage},
		{name: "pdf", path: pdfPath, expectValid: true, kind: KindPDF},
		{name: "broken pdf", path: brokenPDF, errorMsg: "invalid PDF file"},
		{name: "text file", path: textPath, errorMsg: "unsupported card image format"},
		{name: "empty file", path: emptyPath, errorMsg: "file is empty"},
		{name: "large file", path: largePath, errorMsg: "file too large"},
		{name: "empty path", path: "", errorMsg: "path cannot be empty"},
		{name: "non-existent file", path: "/non/existent/file.png", errorMsg: "file does not exist"},
		{name: "directory", path: tempDir, errorMsg: "path is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.Validate(ValidateRequest{Path: tt.path})

			if result == nil {
				t.Fatalf("result should not be nil")
			}
			if result.Path != tt.path {
				t.Errorf("expected Path=%s but got %s", tt.path, result.Path)
			}
			if result.Valid != tt.expectValid {
				t.Fatalf("expected Valid=%v but got %v (%s)", tt.expectValid, result.Valid, result.Message)
			}
			if tt.expectValid && result.Kind != tt.kind {
				t.Errorf("expected Kind=%s but got %s", tt.kind, result.Kind)
			}
			if !tt.expectValid && !strings.Contains(result.Message, tt.errorMsg) {
				t.Errorf("expected message containing %q, got %q", tt.errorMsg, result.Message)
			}
		})
	}
}

func TestValidator_ValidateReportsDimensions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "front.png", pngBytes(t, 64, 40))

	result := NewValidator(1 << 20).Validate(ValidateRequest{Path: path})
	if !result.Valid {
		t.Fatalf("expected valid image: %s", result.Message)
	}
	if result.Format != "png" || result.Width != 64 || result.Height != 40 {
		t.Errorf("unexpected image info: %+v", result)
	}
}

func TestValidator_IsValid(t *testing.T) {
	validator := NewValidator(1 << 20)
	tempDir := t.TempDir()

	if !validator.IsValid(writeFile(t, tempDir, "a.png", pngBytes(t, 8, 8))) {
		t.Error("expected png to be valid")
	}
	if validator.IsValid(writeFile(t, tempDir, "b.txt", []byte("hello"))) {
		t.Error("expected text file to be invalid")
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		kind    Kind
		format  string
		wantErr bool
	}{
		{name: "pdf", data: []byte("%PDF-1.7\n..."), kind: KindPDF, format: "pdf"},
		{name: "png", data: pngBytes(t, 3, 2), kind: KindImage, format: "png"},
		{name: "garbage", data: []byte("GIF87"), wantErr: true},
		{name: "empty", data: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sniff(bytes.NewReader(tt.data))
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.kind || got.Format != tt.format {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestValidator_UnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	path := writeFile(t, t.TempDir(), "locked.png", pngBytes(t, 4, 4))
	if err := os.Chmod(path, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	result := NewValidator(1 << 20).Validate(ValidateRequest{Path: path})
	if result.Valid {
		t.Error("expected unreadable file to be invalid")
	}
}
