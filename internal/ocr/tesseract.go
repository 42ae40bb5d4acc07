package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// pageSegSingleBlock is Tesseract PSM 6: assume a single uniform block of
// text. Card captions and values then come back on shared lines.
const pageSegSingleBlock = 6

// tessClient is the subset of *gosseract.Client the engine uses.
type tessClient interface {
	SetImageFromBytes(data []byte) error
	SetLanguage(langs ...string) error
	SetVariable(key gosseract.SettableVariable, value string) error
	Text() (string, error)
	Close() error
}

// TesseractEngine recognizes text with a local Tesseract install. A fresh
// client is created per image; clients are not safe for concurrent use.
type TesseractEngine struct {
	clientFactory func() tessClient
}

// NewTesseractEngine constructs a Tesseract-backed engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: func() tessClient { return gosseract.NewClient() }}
}

func (e *TesseractEngine) Name() string { return EngineTesseract }

// Recognize runs Tesseract on in.Image. Tesseract itself cannot be
// interrupted, so a cancelled context returns early and the client is closed
// once the running call finishes.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (string, error) {
	if len(in.Image) == 0 {
		return "", ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		c := e.clientFactory()
		defer c.Close()
		text, err := recognizeWithClient(c, in)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil && in.ID != "" {
			return "", fmt.Errorf("recognize %s: %w", in.ID, r.err)
		}
		return r.text, r.err
	}
}

func recognizeWithClient(c tessClient, in Input) (string, error) {
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	vars := in.tesseractVariables()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.SetVariable(gosseract.SettableVariable(k), vars[k]); err != nil {
			return "", fmt.Errorf("set variable %s: %w", k, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
