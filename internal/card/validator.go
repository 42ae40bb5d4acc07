package card

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

var pdfMagic = []byte("%PDF-")

// Validator checks card source files against size and format constraints.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new validator with the specified size limit.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Validate reports whether path is a usable card source. Problems are
// reported in the result, not as an error.
func (v *Validator) Validate(req ValidateRequest) *ValidateResult {
	result := &ValidateResult{Path: req.Path}

	if _, err := v.checkFile(req.Path); err != nil {
		result.Message = err.Error()
		return result
	}

	f, err := os.Open(req.Path)
	if err != nil {
		result.Message = fmt.Sprintf("cannot open file: %v", err)
		return result
	}
	defer f.Close()

	sniff, err := Sniff(f)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	if sniff.Kind == KindPDF {
		if err := v.openPDF(req.Path); err != nil {
			result.Message = err.Error()
			return result
		}
	}

	result.Valid = true
	result.Kind = sniff.Kind
	result.Format = sniff.Format
	result.Width = sniff.Width
	result.Height = sniff.Height
	return result
}

// IsValid performs a quick check that path is a usable card source.
func (v *Validator) IsValid(path string) bool {
	return v.Validate(ValidateRequest{Path: path}).Valid
}

// checkFile validates existence, type and size of a file.
func (v *Validator) checkFile(filePath string) (os.FileInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if err := v.checkSize(fileInfo.Size()); err != nil {
		return nil, fmt.Errorf("%w: %s", err, filePath)
	}

	return fileInfo, nil
}

func (v *Validator) checkSize(size int64) error {
	if size == 0 {
		return fmt.Errorf("file is empty")
	}
	if size > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, size, v.maxFileSize)
	}
	return nil
}

// openPDF makes sure the PDF parses.
func (v *Validator) openPDF(filePath string) error {
	f, _, err := pdf.Open(filePath)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()
	return nil
}

// SniffResult describes content detected from the leading bytes of a file.
type SniffResult struct {
	Kind   Kind
	Format string
	Width  int
	Height int
}

// Sniff detects the format of r by content. Extensions are not trusted.
func Sniff(r io.Reader) (SniffResult, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(pdfMagic))
	if bytes.Equal(head, pdfMagic) {
		return SniffResult{Kind: KindPDF, Format: "pdf"}, nil
	}

	cfg, format, err := image.DecodeConfig(br)
	if err != nil {
		return SniffResult{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return SniffResult{}, fmt.Errorf("%w: image has no pixels", ErrUnsupportedFormat)
	}
	return SniffResult{Kind: KindImage, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
