package card

import (
	"errors"

	"github.com/a3tai/mcp-idcard-reader/internal/idcard"
)

// Kind is the container format of a card source file.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

var (
	// ErrNoSource is returned when neither side of the card was given.
	ErrNoSource = errors.New("at least one card side is required")
	// ErrUnsupportedFormat is returned for files that are neither a PDF nor
	// a decodable image.
	ErrUnsupportedFormat = errors.New("unsupported card image format")
	// ErrNoCardImages is returned for a PDF with no embedded images.
	ErrNoCardImages = errors.New("PDF contains no card images")
	// ErrFileTooLarge is returned for files and uploads above the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// ValidateRequest names a file to check.
type ValidateRequest struct {
	Path string `json:"path"`
}

// ValidateResult reports whether a file can be used as a card side.
type ValidateResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Kind    Kind   `json:"kind,omitempty"`
	Format  string `json:"format,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Message string `json:"message,omitempty"`
}

// Sides is what a pair of source files resolves to. Sides present in Text
// came from a PDF text layer and need no OCR; Front and Back still do.
type Sides struct {
	Front *idcard.Image
	Back  *idcard.Image
	Text  idcard.RawText
}

// NeedsOCR reports whether any side still has to be recognized.
func (c *Sides) NeedsOCR() bool {
	return c.Front != nil || c.Back != nil
}
