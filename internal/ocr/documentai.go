package ocr

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// MaxImageSizeBytes is the maximum image size for synchronous Document AI
// processing (20MB).
const MaxImageSizeBytes = 20 * 1024 * 1024

// DocumentAIConfig holds configuration for the Document AI OCR backend.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the Document AI OCR processor ID.
	ProcessorID string
}

// DocumentAIExtractor implements TextExtractor using a Google Document AI
// OCR processor. It is the alternate remote engine, selected with
// OCR_REMOTE_ENGINE=documentai.
type DocumentAIExtractor struct {
	client         *documentai.DocumentProcessorClient
	config         DocumentAIConfig
	httpClient     *http.Client
	healthEndpoint string
}

// NewDocumentAIExtractor creates the backend with credentials from environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
// Requires: GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID
// Optional: GOOGLE_CLOUD_LOCATION (defaults to "us")
func NewDocumentAIExtractor(ctx context.Context) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	config := DocumentAIConfig{
		ProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:    os.Getenv("GOOGLE_CLOUD_LOCATION"),
		ProcessorID: os.Getenv("DOCUMENT_AI_PROCESSOR_ID"),
	}
	if config.ProjectID == "" {
		return nil, NewOCRError(op, ErrMissingCredentials, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, NewOCRError(op, ErrMissingCredentials, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption

	// Regional endpoint for non-US locations.
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewDocumentAIExtractorWithClient(config, client), nil
}

// NewDocumentAIExtractorWithClient creates the backend with an explicit
// config and client (for testing).
func NewDocumentAIExtractorWithClient(config DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIExtractor {
	endpoint := "https://documentai.googleapis.com/$discovery/rest?version=v1"
	return &DocumentAIExtractor{
		client:         client,
		config:         config,
		httpClient:     &http.Client{Timeout: healthCheckTimeout},
		healthEndpoint: endpoint,
	}
}

// Service returns the backend's service name.
func (d *DocumentAIExtractor) Service() string {
	return ServiceDocumentAI
}

// CheckHealth probes the Document AI endpoint with the fixed 5s timeout.
func (d *DocumentAIExtractor) CheckHealth(ctx context.Context) error {
	const op = "CheckHealth"

	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, d.healthEndpoint, nil)
	if err != nil {
		return WrapOCRError(op, err, "failed to build health probe")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return NewOCRError(op, ErrBackendUnhealthy, fmt.Sprintf("documentai endpoint unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return NewOCRError(op, ErrBackendUnhealthy, fmt.Sprintf("documentai endpoint returned status %d", resp.StatusCode))
	}
	return nil
}

// ExtractText runs the OCR processor against a single page image.
func (d *DocumentAIExtractor) ExtractText(ctx context.Context, imagePath string) (*ExtractionResult, error) {
	const op = "ExtractText"
	startTime := time.Now()

	imgBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to read image: %s", imagePath))
	}
	if len(imgBytes) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrUnsupportedImage, fmt.Sprintf("image size: %d bytes", len(imgBytes)))
	}

	mimeType, err := imageMimeType(imagePath)
	if err != nil {
		return nil, WrapOCRError(op, err, imagePath)
	}

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  imgBytes,
				MimeType: mimeType,
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrExtractionFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}
	if resp.Document == nil || strings.TrimSpace(resp.Document.Text) == "" {
		return nil, WrapOCRError(op, ErrEmptyResult, fmt.Sprintf("no text detected in %s", imagePath))
	}

	// Average layout confidences across pages.
	var confidenceSum float32
	var confidenceCount int
	for _, page := range resp.Document.Pages {
		if page.Layout != nil && page.Layout.Confidence > 0 {
			confidenceSum += page.Layout.Confidence
			confidenceCount++
		}
	}
	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	return &ExtractionResult{
		Text:           resp.Document.Text,
		Confidence:     avgConfidence,
		ProcessingTime: time.Since(startTime),
		Service:        ServiceDocumentAI,
		Metadata: map[string]string{
			"processor": d.config.ProcessorID,
			"pages":     fmt.Sprintf("%d", len(resp.Document.Pages)),
		},
	}, nil
}

// processorName builds the fully qualified processor resource name.
func (d *DocumentAIExtractor) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
}

// Close closes the underlying Document AI client.
func (d *DocumentAIExtractor) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// imageMimeType maps the file extension to the MIME type Document AI expects.
func imageMimeType(imagePath string) (string, error) {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".tif", ".tiff":
		return "image/tiff", nil
	default:
		return "", ErrUnsupportedImage
	}
}
