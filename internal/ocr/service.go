// Package ocr provides text extraction from scanned exam-paper page images
// with a health-checked fallback between a local and a remote backend.
//
// Two interchangeable backends share the TextExtractor contract: a local
// Tesseract engine (always available, no network) and a remote Google Cloud
// backend (Vision document text detection, or a Document AI OCR processor
// selected via OCR_REMOTE_ENGINE=documentai).
//
// The Gateway applies the retry and fallback policy: the configured primary
// backend is health-checked before every use, retried a bounded number of
// times with a fixed delay, and the other backend is tried once before the
// request is failed with ErrOCRUnavailable.
//
// Required Environment Variables (remote backend only):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package ocr

import (
	"context"
	"time"
)

// Backend service names reported in ExtractionResult.Service.
const (
	ServiceTesseract  = "tesseract"
	ServiceVision     = "google-vision"
	ServiceDocumentAI = "document-ai"
)

// Backend roles used in GatewayConfig.Primary.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// TextExtractor is the capability contract every OCR backend implements.
type TextExtractor interface {
	// ExtractText runs OCR on a single page image and returns the text
	// with confidence and timing metadata.
	ExtractText(ctx context.Context, imagePath string) (*ExtractionResult, error)

	// Service returns the backend's service name.
	Service() string
}

// HealthChecker is implemented by backends whose availability can change
// between calls. The gateway probes them before every use.
type HealthChecker interface {
	// CheckHealth reports whether the backend is currently reachable.
	CheckHealth(ctx context.Context) error
}

// ExtractionResult contains the output of a single OCR call.
type ExtractionResult struct {
	// Text is the extracted text content of the page.
	Text string `json:"text"`

	// Confidence is the backend's confidence in the extraction (0.0 to 1.0).
	Confidence float32 `json:"confidence"`

	// ProcessingTime is how long the extraction took.
	ProcessingTime time.Duration `json:"processingTime"`

	// Service names the backend that produced the result.
	Service string `json:"service"`

	// Metadata carries backend-specific details (languages, page counts).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ServiceStatus describes the gateway's view of its backends. It feeds
// operational health dashboards and has no effect on correctness.
type ServiceStatus struct {
	// Primary is the configured primary backend role.
	Primary string `json:"primary"`

	// Fallback is the configured fallback backend role, empty if none.
	Fallback string `json:"fallback"`

	// RemoteService names the configured remote engine.
	RemoteService string `json:"remoteService"`

	// RemoteHealthy reports the remote backend's reachability right now.
	RemoteHealthy bool `json:"remoteHealthy"`

	// LocalAvailable reports the local backend's static availability.
	LocalAvailable bool `json:"localAvailable"`
}
