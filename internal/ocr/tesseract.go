package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractExtractor implements TextExtractor using a local Tesseract engine
// through gosseract. It needs no network and is treated as always available.
type TesseractExtractor struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractExtractor creates the local backend. Languages are Tesseract
// trained-data codes (e.g. "eng"); empty means the engine default.
func NewTesseractExtractor(languages ...string) *TesseractExtractor {
	return &TesseractExtractor{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Service returns the backend's service name.
func (t *TesseractExtractor) Service() string {
	return ServiceTesseract
}

// Available reports the backend's static availability. The local engine is
// in-process, so this is constant; it exists for the status report.
func (t *TesseractExtractor) Available() bool {
	return true
}

// ExtractText runs Tesseract on a single page image. A fresh client is used
// per call so the extractor is safe for concurrent use.
func (t *TesseractExtractor) ExtractText(ctx context.Context, imagePath string) (*ExtractionResult, error) {
	const op = "ExtractText"
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, WrapOCRError(op, ctx.Err(), imagePath)
	default:
	}

	client := t.clientFactory()
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return nil, WrapOCRError(op, ErrExtractionFailed, fmt.Sprintf("failed to set image %s: %v", imagePath, err))
	}
	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return nil, WrapOCRError(op, ErrExtractionFailed, fmt.Sprintf("failed to set languages: %v", err))
		}
	}

	text, err := client.Text()
	if err != nil {
		return nil, WrapOCRError(op, ErrExtractionFailed, fmt.Sprintf("tesseract failed on %s: %v", imagePath, err))
	}
	if strings.TrimSpace(text) == "" {
		return nil, WrapOCRError(op, ErrEmptyResult, imagePath)
	}

	return &ExtractionResult{
		Text:           text,
		Confidence:     wordConfidence(client),
		ProcessingTime: time.Since(startTime),
		Service:        ServiceTesseract,
		Metadata: map[string]string{
			"languages": strings.Join(t.languages, ","),
		},
	}, nil
}

// wordConfidence averages Tesseract's per-word confidences into 0..1.
func wordConfidence(client *gosseract.Client) float32 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence / 100.0
	}
	return float32(sum / float64(len(boxes)))
}
