package idcard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Extractor runs OCR on the supplied card sides and extracts the identity
// fields from the recognized text.
type Extractor struct {
	ocr OCR
}

// NewExtractor creates an extractor backed by the given OCR engine.
func NewExtractor(ocr OCR) (*Extractor, error) {
	if ocr == nil {
		return nil, fmt.Errorf("ocr engine cannot be nil")
	}
	return &Extractor{ocr: ocr}, nil
}

// Extract recognizes both sides concurrently and extracts the fields. A nil
// side is skipped without calling OCR. Only OCR failures are returned as
// errors; fields that cannot be found are left empty.
func (e *Extractor) Extract(ctx context.Context, front, back *Image) (Fields, error) {
	raw, err := e.Recognize(ctx, front, back)
	if err != nil {
		return Fields{}, err
	}
	return ExtractFields(raw), nil
}

// Recognize runs OCR for each supplied side and waits for both.
func (e *Extractor) Recognize(ctx context.Context, front, back *Image) (RawText, error) {
	var raw RawText
	g, gctx := errgroup.WithContext(ctx)

	if front.present() {
		g.Go(func() error {
			text, err := e.ocr.Text(gctx, front.Data)
			if err != nil {
				return fmt.Errorf("recognize front side: %w", err)
			}
			raw.Front = text
			return nil
		})
	}
	if back.present() {
		g.Go(func() error {
			text, err := e.ocr.Text(gctx, back.Data)
			if err != nil {
				return fmt.Errorf("recognize back side: %w", err)
			}
			raw.Back = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return RawText{}, err
	}
	return raw, nil
}

// ExtractFields runs the extraction pipeline on OCR text that is already
// available. It never fails; missing fields are empty.
func ExtractFields(raw RawText) Fields {
	d := newDocument(NormalizeText(raw))

	id, _ := idNumberChain(d)
	name, _ := fullNameChain(d)
	d.dobRaw, _ = dobChain(d)
	issue, _ := issueChain(d)
	address, _ := addressChain(d)

	return Fields{
		FullName:  name,
		IDNumber:  id,
		IDType:    InferDocType(id),
		DOB:       ToISO(d.dobRaw),
		IssueDate: ToISO(issue),
		Address:   address,
	}
}
