// Package exam orchestrates the full paper ingestion flow: rasterize the
// PDF, OCR each page, classify and persist the page images, run the
// language model extraction, then normalize the result through the
// post-processing pipeline.
package exam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"examtools/internal/imaging"
	"examtools/internal/logger"
	"examtools/internal/ocr"
	"examtools/internal/pipeline"
	"examtools/internal/storage"
	"examtools/internal/textutil"
	"examtools/pkg/models"
)

// Result is the response shape handed back to callers.
type Result struct {
	Success        bool                      `json:"success"`
	Structure      *models.ExamDocument      `json:"structure,omitempty"`
	UploadedImages []models.UploadedImage    `json:"uploadedImages"`
	Validation     pipeline.ValidationResult `json:"validation"`
	Error          string                    `json:"error,omitempty"`
}

// PageRasterizer renders a PDF into per-page images.
type PageRasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outputDir string) ([]string, error)
}

// TextRecognizer is the slice of the OCR gateway the service needs.
type TextRecognizer interface {
	ExtractText(ctx context.Context, imagePath string) (*ocr.ExtractionResult, error)
}

// StructureExtractor turns cleaned OCR text into the raw document structure.
type StructureExtractor interface {
	Extract(ctx context.Context, section, ocrText string) (map[string]any, error)
}

// MapCropper crops the assumed map region out of a page image. It returns
// the original path when cropping is not possible.
type MapCropper func(imagePath string) string

// ExtractionService runs the full ingestion flow for one exam paper.
type ExtractionService interface {
	// ProcessPDF ingests the paper at pdfPath for the given section. The
	// returned Result is always populated; a non-nil error means the flow
	// stopped before producing a structure.
	ProcessPDF(ctx context.Context, pdfPath, section string) (*Result, error)
}

// DefaultExtractionService implements ExtractionService.
type DefaultExtractionService struct {
	rasterizer PageRasterizer
	ocrGateway TextRecognizer
	extractor  StructureExtractor
	store      storage.ImageStore
	pipeline   *pipeline.Pipeline
	cropMap    MapCropper
	log        zerolog.Logger
}

// NewExtractionServiceWithDeps creates a service with explicit
// dependencies. section defaults per request, so the pipeline is built by
// the caller.
func NewExtractionServiceWithDeps(
	rasterizer PageRasterizer,
	ocrGateway TextRecognizer,
	extractor StructureExtractor,
	store storage.ImageStore,
	proc *pipeline.Pipeline,
) *DefaultExtractionService {
	return &DefaultExtractionService{
		rasterizer: rasterizer,
		ocrGateway: ocrGateway,
		extractor:  extractor,
		store:      store,
		pipeline:   proc,
		cropMap:    imaging.CropMapRegion,
		log:        logger.WithComponent("exam"),
	}
}

// ProcessPDF ingests an exam paper end to end.
func (s *DefaultExtractionService) ProcessPDF(ctx context.Context, pdfPath, section string) (*Result, error) {
	const op = "ProcessPDF"

	if section == "" {
		section = models.SectionListening
	}

	s.log.Info().
		Str("pdf", pdfPath).
		Str("section", section).
		Msg("Starting exam paper ingestion")

	tempDir, err := os.MkdirTemp("", "exam-pages-*")
	if err != nil {
		return failure(err), fmt.Errorf("%s: failed to create temp dir: %w", op, err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			s.log.Warn().Err(err).Str("dir", tempDir).Msg("Failed to remove temp dir")
		}
	}()

	pages, err := s.rasterizer.Rasterize(ctx, pdfPath, tempDir)
	if err != nil {
		return failure(err), fmt.Errorf("%s: rasterization failed: %w", op, err)
	}
	s.log.Info().Int("pages", len(pages)).Msg("PDF rasterized")

	ocrText, images, err := s.processPages(ctx, pages)
	if err != nil {
		return failure(err), fmt.Errorf("%s: %w", op, err)
	}
	if strings.TrimSpace(ocrText) == "" {
		err := fmt.Errorf("no text extracted from any page")
		return failure(err), fmt.Errorf("%s: %w", op, err)
	}

	raw, err := s.extractor.Extract(ctx, section, ocrText)
	if err != nil {
		result := failure(err)
		result.UploadedImages = images
		return result, fmt.Errorf("%s: %w", op, err)
	}

	doc := pipeline.DocumentFromRaw(raw)
	if doc.Section == "" {
		doc.Section = section
	}
	processed, validation := s.pipeline.Process(ctx, doc, images)

	s.log.Info().
		Int("parts", len(processed.Parts)).
		Int("images", len(images)).
		Bool("valid", validation.Valid).
		Msg("Exam paper ingestion completed")

	return &Result{
		Success:        true,
		Structure:      &processed,
		UploadedImages: images,
		Validation:     validation,
	}, nil
}

// processPages OCRs every page, concatenates the cleaned text, and
// persists each page image, cropping pages whose text reads like a map.
func (s *DefaultExtractionService) processPages(ctx context.Context, pages []string) (string, []models.UploadedImage, error) {
	var text strings.Builder
	images := []models.UploadedImage{}

	for i, page := range pages {
		result, err := s.ocrGateway.ExtractText(ctx, page)
		if err != nil {
			return "", nil, fmt.Errorf("OCR failed on page %d: %w", i+1, err)
		}

		cleaned := textutil.CleanOCRText(result.Text)
		if cleaned != "" {
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(cleaned)
		}

		isMap := imaging.ClassifyAsMap(cleaned)
		storePath := page
		if isMap {
			storePath = s.cropMap(page)
		}

		url, err := s.store.StoreFile(ctx, storePath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to store page %d image: %w", i+1, err)
		}
		images = append(images, models.UploadedImage{
			URL:      url,
			Filename: filepath.Base(storePath),
			IsMap:    isMap,
		})

		s.log.Debug().
			Int("page", i+1).
			Int("text_length", len(cleaned)).
			Bool("is_map", isMap).
			Str("service", result.Service).
			Msg("Page processed")
	}

	return text.String(), images, nil
}

func failure(err error) *Result {
	return &Result{
		Success:        false,
		UploadedImages: []models.UploadedImage{},
		Validation:     pipeline.ValidationResult{Valid: false, Errors: []string{err.Error()}},
		Error:          err.Error(),
	}
}
