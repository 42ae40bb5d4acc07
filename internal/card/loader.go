package card

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/a3tai/mcp-idcard-reader/internal/idcard"
)

// Loader reads card sides from image files and PDFs.
type Loader struct {
	validator *Validator
}

// NewLoader creates a loader that rejects files larger than maxFileSize.
func NewLoader(maxFileSize int64) *Loader {
	return &Loader{validator: NewValidator(maxFileSize)}
}

// Validator returns the validator the loader checks files with.
func (l *Loader) Validator() *Validator {
	return l.validator
}

// Load reads an image file. PDFs are rejected; use LoadPDF or Resolve.
func (l *Loader) Load(path string) (*idcard.Image, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}
	return l.LoadBytes(filepath.Base(path), data)
}

// LoadBytes checks that data is a decodable image, as received from an
// upload.
func (l *Loader) LoadBytes(name string, data []byte) (*idcard.Image, error) {
	if err := l.validator.checkSize(int64(len(data))); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	sniff, err := Sniff(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if sniff.Kind != KindImage {
		return nil, fmt.Errorf("%s: %w: expected an image, got %s", name, ErrUnsupportedFormat, sniff.Kind)
	}
	return &idcard.Image{Name: name, Data: data}, nil
}

// LoadPDF extracts the card images of a scanned PDF. The first embedded
// image is the front and the second, if any, the back.
func (l *Loader) LoadPDF(path string) (front, back *idcard.Image, err error) {
	if err := l.checkPDF(path); err != nil {
		return nil, nil, err
	}

	images, err := extractImages(path)
	if err != nil {
		return nil, nil, err
	}
	if len(images) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoCardImages, path)
	}

	source := filepath.Base(path)
	front = images[0].toCardImage(source)
	if len(images) > 1 {
		back = images[1].toCardImage(source)
	}
	return front, back, nil
}

// TextLayer returns the text of a digital card PDF. ok is false when the
// PDF carries too little text to skip OCR.
func (l *Loader) TextLayer(path string) (raw idcard.RawText, ok bool, err error) {
	if err := l.checkPDF(path); err != nil {
		return idcard.RawText{}, false, err
	}
	raw, err = readTextLayer(path)
	if err != nil {
		return idcard.RawText{}, false, err
	}
	if !hasTextLayer(raw) {
		return idcard.RawText{}, false, nil
	}
	return raw, true, nil
}

type side int

const (
	sideFront side = iota
	sideBack
)

// Resolve loads the given card sides. Either path may be empty, but not
// both. A PDF given as the front may supply both sides, from its pages or
// its embedded images; a separate back path then only fills what is still
// missing.
func (l *Loader) Resolve(frontPath, backPath string) (*Sides, error) {
	if frontPath == "" && backPath == "" {
		return nil, ErrNoSource
	}

	sides := &Sides{}
	if frontPath != "" {
		if err := l.resolveSide(sides, frontPath, sideFront); err != nil {
			return nil, fmt.Errorf("front: %w", err)
		}
	}
	if backPath != "" && sides.Back == nil && sides.Text.Back == "" {
		if err := l.resolveSide(sides, backPath, sideBack); err != nil {
			return nil, fmt.Errorf("back: %w", err)
		}
	}
	return sides, nil
}

func (l *Loader) resolveSide(sides *Sides, path string, s side) error {
	kind, err := l.kind(path)
	if err != nil {
		return err
	}

	if kind == KindImage {
		img, err := l.Load(path)
		if err != nil {
			return err
		}
		sides.setImage(s, img)
		return nil
	}

	raw, ok, err := l.TextLayer(path)
	if err != nil {
		return err
	}
	if ok {
		if s == sideFront {
			sides.Text = raw
		} else {
			sides.Text.Back = raw.Front
		}
		return nil
	}

	front, back, err := l.LoadPDF(path)
	if err != nil {
		return err
	}
	sides.setImage(s, front)
	if s == sideFront && back != nil {
		sides.Back = back
	}
	return nil
}

func (c *Sides) setImage(s side, img *idcard.Image) {
	if s == sideFront {
		c.Front = img
		return
	}
	c.Back = img
}

// Extract recognizes the image sides with ex and merges them with any text
// layer sides before extracting fields.
func (c *Sides) Extract(ctx context.Context, ex *idcard.Extractor) (idcard.Fields, idcard.RawText, error) {
	raw := c.Text
	if c.NeedsOCR() {
		recognized, err := ex.Recognize(ctx, c.Front, c.Back)
		if err != nil {
			return idcard.Fields{}, idcard.RawText{}, err
		}
		if c.Front != nil {
			raw.Front = recognized.Front
		}
		if c.Back != nil {
			raw.Back = recognized.Back
		}
	}
	return idcard.ExtractFields(raw), raw, nil
}

func (l *Loader) readFile(path string) ([]byte, error) {
	if _, err := l.validator.checkFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (l *Loader) kind(path string) (Kind, error) {
	if _, err := l.validator.checkFile(path); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	sniff, err := Sniff(f)
	if err != nil {
		return "", err
	}
	return sniff.Kind, nil
}

func (l *Loader) checkPDF(path string) error {
	kind, err := l.kind(path)
	if err != nil {
		return err
	}
	if kind != KindPDF {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	return nil
}
