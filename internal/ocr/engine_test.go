package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records the inputs it sees and returns canned text.
type fakeEngine struct {
	name   string
	text   string
	err    error
	delay  time.Duration
	inputs []Input
	closed bool
}

func (f *fakeEngine) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeEngine) Recognize(ctx context.Context, in Input) (string, error) {
	f.inputs = append(f.inputs, in)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func TestNewInput(t *testing.T) {
	in := NewInput("front", []byte{1},
		WithLanguages("vie", "eng"),
		WithDPI(300),
		WithWhitelist("0123"),
		WithVariable("tessedit_ocr_engine_mode", "1"))

	assert.Equal(t, "front", in.ID)
	assert.Equal(t, []string{"vie", "eng"}, in.Languages)
	assert.Equal(t, 300, in.DPI)
	assert.Equal(t, "0123", in.Whitelist)
	assert.Equal(t, map[string]string{"tessedit_ocr_engine_mode": "1"}, in.Variables)
}

func TestWithLanguages_CopiesSlice(t *testing.T) {
	langs := []string{"vie"}
	in := NewInput("", nil, WithLanguages(langs...))
	langs[0] = "eng"
	assert.Equal(t, []string{"vie"}, in.Languages)
}

func TestTesseractVariables(t *testing.T) {
	vars := NewInput("", nil, WithDPI(300), WithWhitelist("AB<")).tesseractVariables()
	assert.Equal(t, map[string]string{
		"tessedit_pageseg_mode":     "6",
		"preserve_interword_spaces": "1",
		"user_defined_dpi":          "300",
		"tessedit_char_whitelist":   "AB<",
	}, vars)

	vars = NewInput("", nil, WithVariable("tessedit_pageseg_mode", "4")).tesseractVariables()
	assert.Equal(t, "4", vars["tessedit_pageseg_mode"])
	assert.NotContains(t, vars, "user_defined_dpi")
	assert.NotContains(t, vars, "tessedit_char_whitelist")
}

func TestCardWhitelist_KeepsMRZFiller(t *testing.T) {
	assert.Contains(t, cardWhitelist, "<")
	assert.Contains(t, cardWhitelist, "Đ")
	assert.Contains(t, cardWhitelist, "ữ")
}

func TestRecognizer_Text(t *testing.T) {
	engine := &fakeEngine{text: "CĂN CƯỚC CÔNG DÂN"}
	r := NewRecognizer(engine, time.Second, DefaultOptions([]string{"vie", "eng"}, 300)...)

	text, err := r.Text(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "CĂN CƯỚC CÔNG DÂN", text)

	require.Len(t, engine.inputs, 1)
	in := engine.inputs[0]
	assert.Equal(t, []byte("img"), in.Image)
	assert.Equal(t, []string{"vie", "eng"}, in.Languages)
	assert.Equal(t, 300, in.DPI)
	assert.Equal(t, cardWhitelist, in.Whitelist)
}

func TestRecognizer_EmptyImage(t *testing.T) {
	engine := &fakeEngine{}
	_, err := NewRecognizer(engine, 0).Text(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
	assert.Empty(t, engine.inputs)
}

func TestRecognizer_WrapsEngineError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewRecognizer(&fakeEngine{name: "tesseract", err: boom}, 0).Text(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestRecognizer_Timeout(t *testing.T) {
	engine := &fakeEngine{delay: time.Second}
	_, err := NewRecognizer(engine, 10*time.Millisecond).Text(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	engine, err := New(ctx, Options{Engine: EngineTesseract})
	require.NoError(t, err)
	assert.Equal(t, EngineTesseract, engine.Name())
	assert.IsType(t, &TesseractEngine{}, engine)
	assert.NoError(t, Close(engine))

	engine, err = New(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, EngineTesseract, engine.Name())

	_, err = New(ctx, Options{Engine: "abbyy"})
	assert.Error(t, err)

	_, err = New(ctx, Options{Engine: EngineTesseract, RedisURL: "not a url"})
	assert.Error(t, err)

	engine, err = New(ctx, Options{Engine: EngineTesseract, RedisURL: "redis://127.0.0.1:6379/0"})
	require.NoError(t, err)
	assert.IsType(t, &CachedEngine{}, engine)
	assert.NoError(t, Close(engine))
}

func TestClose(t *testing.T) {
	engine := &fakeEngine{}
	assert.NoError(t, Close(engine))
	assert.True(t, engine.closed)

	assert.NoError(t, Close(NewTesseractEngine()))
}
