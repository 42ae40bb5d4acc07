package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strconv"
	"time"
)

// Engine names accepted by the ocr.engine setting.
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
)

// cardWhitelist restricts Tesseract to the glyphs printed on Vietnamese ID
// cards. '<' is kept so the MRZ filler survives recognition.
const cardWhitelist = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"ÀÁÂÃÈÉÊÌÍÒÓÔÕÙÚÝĂĐĨŨƠƯẠẢẤẦẨẪẬẮẰẲẴẶẸẺẼẾỀỂỄỆỈỊỌỎỐỒỔỖỘỚỜỞỠỢỤỦỨỪỬỮỰỲỴỶỸ" +
	"àáâãèéêìíòóôõùúýăđĩũơưạảấầẩẫậắằẳẵặẹẻẽếềểễệỉịọỏốồổỗộớờởỡợụủứừửữựỳỵỷỹ" +
	" /-.,:<"

// ErrEmptyImage is returned when an input carries no image bytes.
var ErrEmptyImage = errors.New("ocr: empty image")

// Input is a single image submitted for recognition.
type Input struct {
	// ID is echoed in errors so callers can tell card sides apart.
	ID    string
	Image []byte
	// Languages are Tesseract language codes (e.g. "vie", "eng").
	Languages []string
	// DPI is the scan resolution; zero means unknown.
	DPI int
	// Whitelist limits the characters Tesseract may emit. Empty disables it.
	Whitelist string
	// Variables pass engine-specific knobs through without widening the API.
	Variables map[string]string
}

// InputOption mutates an Input.
type InputOption func(*Input)

// WithLanguages sets the recognition languages.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI sets the scan resolution hint.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithWhitelist restricts recognition to the given characters.
func WithWhitelist(chars string) InputOption {
	return func(in *Input) { in.Whitelist = chars }
}

// WithVariable sets a single engine variable.
func WithVariable(key, value string) InputOption {
	return func(in *Input) {
		if in.Variables == nil {
			in.Variables = make(map[string]string)
		}
		in.Variables[key] = value
	}
}

// NewInput builds an Input for image with the given options applied.
func NewInput(id string, image []byte, opts ...InputOption) Input {
	in := Input{ID: id, Image: image}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// tesseractVariables returns the variables a Tesseract client should be
// configured with for in.
func (in Input) tesseractVariables() map[string]string {
	vars := map[string]string{
		"tessedit_pageseg_mode":     strconv.Itoa(pageSegSingleBlock),
		"preserve_interword_spaces": "1",
	}
	if in.DPI > 0 {
		vars["user_defined_dpi"] = strconv.Itoa(in.DPI)
	}
	if in.Whitelist != "" {
		vars["tessedit_char_whitelist"] = in.Whitelist
	}
	maps.Copy(vars, in.Variables)
	return vars
}

// Engine turns one image into plain text.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (string, error)
}

// Options configures New.
type Options struct {
	Engine      string
	Languages   []string
	DPI         int
	Timeout     time.Duration
	Credentials string
	RedisURL    string
	CacheTTL    time.Duration
}

// New builds the configured engine, wrapped in a Redis cache when a URL is
// set. The returned engine may hold connections; release them with Close.
func New(ctx context.Context, opts Options) (Engine, error) {
	var (
		engine Engine
		err    error
	)
	switch opts.Engine {
	case EngineTesseract, "":
		engine = NewTesseractEngine()
	case EngineVision:
		engine, err = NewVisionEngine(ctx, opts.Credentials)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", opts.Engine)
	}

	if opts.RedisURL == "" {
		return engine, nil
	}
	store, err := NewRedisStore(opts.RedisURL)
	if err != nil {
		_ = Close(engine)
		return nil, err
	}
	return NewCachedEngine(engine, store, opts.CacheTTL), nil
}

// Close releases resources held by engine, if any.
func Close(engine Engine) error {
	if c, ok := engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Recognizer adapts an Engine to the single-method OCR contract the
// extractor consumes, applying the same options to every image.
type Recognizer struct {
	engine  Engine
	timeout time.Duration
	opts    []InputOption
}

// NewRecognizer creates a Recognizer. A zero timeout means no per-image
// deadline beyond the caller's context.
func NewRecognizer(engine Engine, timeout time.Duration, opts ...InputOption) *Recognizer {
	return &Recognizer{engine: engine, timeout: timeout, opts: opts}
}

// DefaultOptions are the input options used for card images.
func DefaultOptions(languages []string, dpi int) []InputOption {
	return []InputOption{
		WithLanguages(languages...),
		WithDPI(dpi),
		WithWhitelist(cardWhitelist),
	}
}

// Text recognizes image.
func (r *Recognizer) Text(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	in := NewInput("", image, r.opts...)
	text, err := r.engine.Recognize(ctx, in)
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.engine.Name(), err)
	}
	return text, nil
}
