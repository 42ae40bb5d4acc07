package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// annotator is the part of the Vision client the engine calls.
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionEngine recognizes text with Google Cloud Vision document text
// detection.
type VisionEngine struct {
	client annotator
}

// NewVisionEngine creates a Vision client. credentialsFile may be empty, in
// which case application default credentials are used.
func NewVisionEngine(ctx context.Context, credentialsFile string) (*VisionEngine, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init vision client: %w", err)
	}
	return &VisionEngine{client: client}, nil
}

func (e *VisionEngine) Name() string { return EngineVision }

// Recognize sends in.Image for DOCUMENT_TEXT_DETECTION. Tesseract language
// codes are mapped to BCP-47 hints.
func (e *VisionEngine) Recognize(ctx context.Context, in Input) (string, error) {
	if len(in.Image) == 0 {
		return "", ErrEmptyImage
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: in.Image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			ImageContext: &visionpb.ImageContext{
				LanguageHints: languageHints(in.Languages),
			},
		}},
	}
	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", errors.New("annotate image: empty response")
	}
	r := resp.GetResponses()[0]
	if status := r.GetError(); status != nil && status.GetCode() != 0 {
		return "", fmt.Errorf("annotate image: %s", status.GetMessage())
	}
	return strings.TrimSpace(r.GetFullTextAnnotation().GetText()), nil
}

// Close releases the Vision client connection.
func (e *VisionEngine) Close() error {
	return e.client.Close()
}

var bcp47 = map[string]string{
	"vie": "vi",
	"eng": "en",
}

func languageHints(langs []string) []string {
	hints := make([]string, 0, len(langs))
	for _, l := range langs {
		if h, ok := bcp47[l]; ok {
			hints = append(hints, h)
			continue
		}
		hints = append(hints, l)
	}
	return hints
}
