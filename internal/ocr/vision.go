package ocr

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"google.golang.org/api/option"
)

// visionHealthEndpoint is probed before every use of the Vision backend.
// Any HTTP response below 500 proves the service is reachable.
const visionHealthEndpoint = "https://vision.googleapis.com/$discovery/rest?version=v1"

// healthCheckTimeout bounds the reachability probe of remote backends.
const healthCheckTimeout = 5 * time.Second

// VisionExtractor implements TextExtractor using Google Cloud Vision
// document text detection on single page images.
type VisionExtractor struct {
	client         *vision.ImageAnnotatorClient
	httpClient     *http.Client
	healthEndpoint string
}

// NewVisionExtractor creates the Vision backend with credentials from the
// environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path or
// GOOGLE_CREDENTIALS JSON in env.
func NewVisionExtractor(ctx context.Context) (*VisionExtractor, error) {
	const op = "NewVisionExtractor"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		// Use credentials file
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return NewVisionExtractorWithClient(client), nil
}

// NewVisionExtractorWithClient creates the backend with an explicit client (for testing).
func NewVisionExtractorWithClient(client *vision.ImageAnnotatorClient) *VisionExtractor {
	return &VisionExtractor{
		client:         client,
		httpClient:     &http.Client{Timeout: healthCheckTimeout},
		healthEndpoint: visionHealthEndpoint,
	}
}

// Service returns the backend's service name.
func (v *VisionExtractor) Service() string {
	return ServiceVision
}

// CheckHealth probes the Vision API endpoint. Backend health can change
// between calls, so the gateway invokes this before every use.
func (v *VisionExtractor) CheckHealth(ctx context.Context) error {
	const op = "CheckHealth"

	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, v.healthEndpoint, nil)
	if err != nil {
		return WrapOCRError(op, err, "failed to build health probe")
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return NewOCRError(op, ErrBackendUnhealthy, fmt.Sprintf("vision endpoint unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return NewOCRError(op, ErrBackendUnhealthy, fmt.Sprintf("vision endpoint returned status %d", resp.StatusCode))
	}
	return nil
}

// ExtractText runs document text detection on a single page image.
func (v *VisionExtractor) ExtractText(ctx context.Context, imagePath string) (*ExtractionResult, error) {
	const op = "ExtractText"
	startTime := time.Now()

	file, err := os.Open(imagePath)
	if err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to open image: %s", imagePath))
	}
	defer file.Close()

	img, err := vision.NewImageFromReader(file)
	if err != nil {
		return nil, WrapOCRError(op, ErrUnsupportedImage, fmt.Sprintf("failed to read image: %v", err))
	}

	annotation, err := v.client.DetectDocumentText(ctx, img, nil)
	if err != nil {
		return nil, WrapOCRError(op, ErrExtractionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if annotation == nil || strings.TrimSpace(annotation.Text) == "" {
		return nil, WrapOCRError(op, ErrEmptyResult, fmt.Sprintf("no text detected in %s", imagePath))
	}

	// Average the per-page confidence scores reported by the API.
	var confidenceSum float32
	var confidenceCount int
	for _, page := range annotation.Pages {
		if page.Confidence > 0 {
			confidenceSum += page.Confidence
			confidenceCount++
		}
		for _, block := range page.Blocks {
			if block.Confidence > 0 {
				confidenceSum += block.Confidence
				confidenceCount++
			}
		}
	}
	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	return &ExtractionResult{
		Text:           annotation.Text,
		Confidence:     avgConfidence,
		ProcessingTime: time.Since(startTime),
		Service:        ServiceVision,
		Metadata: map[string]string{
			"pages": fmt.Sprintf("%d", len(annotation.Pages)),
		},
	}, nil
}

// Close closes the underlying Vision client.
func (v *VisionExtractor) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
