package exam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"examtools/internal/ocr"
	"examtools/internal/pipeline"
	"examtools/pkg/models"
)

type fakeRasterizer struct {
	pages []string
	err   error
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, pdfPath, outputDir string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var created []string
	for _, name := range f.pages {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
			return nil, err
		}
		created = append(created, path)
	}
	return created, nil
}

type fakeRecognizer struct {
	texts map[string]string
	err   error
	calls int
}

func (f *fakeRecognizer) ExtractText(ctx context.Context, imagePath string) (*ocr.ExtractionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ocr.ExtractionResult{
		Text:    f.texts[filepath.Base(imagePath)],
		Service: ocr.ServiceTesseract,
	}, nil
}

type fakeExtractor struct {
	raw     map[string]any
	err     error
	gotText string
}

func (f *fakeExtractor) Extract(ctx context.Context, section, ocrText string) (map[string]any, error) {
	f.gotText = ocrText
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

type fakeStore struct {
	stored []string
	err    error
}

func (f *fakeStore) StoreFile(ctx context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, path)
	return "/uploads/" + filepath.Base(path), nil
}

func (f *fakeStore) StoreBytes(ctx context.Context, data []byte, ext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("/uploads/inline%s", ext), nil
}

func newTestService(r *fakeRasterizer, o *fakeRecognizer, e *fakeExtractor, st *fakeStore) *DefaultExtractionService {
	s := NewExtractionServiceWithDeps(r, o, e, st, pipeline.New(st, models.SectionListening))
	// Cropping needs a decodable image; the fakes write stub bytes.
	s.cropMap = func(path string) string { return path }
	return s
}

func TestProcessPDF_Success(t *testing.T) {
	rasterizer := &fakeRasterizer{pages: []string{"page-1.png", "page-2.png"}}
	recognizer := &fakeRecognizer{texts: map[string]string{
		"page-1.png": "Questions 1-10. Complete the notes. Name: __________",
		"page-2.png": "Label the map below. Reception __________ Entrance",
	}}
	extractor := &fakeExtractor{raw: map[string]any{
		"test":    "1",
		"section": "Listening",
		"parts": []any{
			map[string]any{
				"part":         float64(1),
				"instructions": "Complete the notes below.",
				"questions": []any{
					map[string]any{"text": "Name: ____"},
				},
			},
		},
	}}
	store := &fakeStore{}

	service := newTestService(rasterizer, recognizer, extractor, store)
	result, err := service.ProcessPDF(context.Background(), "paper.pdf", models.SectionListening)
	if err != nil {
		t.Fatalf("ProcessPDF error: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Structure == nil || len(result.Structure.Parts) != 1 {
		t.Fatalf("structure missing: %+v", result.Structure)
	}
	if len(result.UploadedImages) != 2 {
		t.Fatalf("expected 2 uploaded images, got %d", len(result.UploadedImages))
	}
	if result.UploadedImages[0].IsMap {
		t.Error("page 1 should not be classified as a map")
	}
	if !result.UploadedImages[1].IsMap {
		t.Error("page 2 should be classified as a map")
	}
	if !result.Validation.Valid {
		t.Errorf("expected valid document, errors: %v", result.Validation.Errors)
	}

	// Both pages' cleaned text reaches the extractor, in page order.
	if !strings.Contains(extractor.gotText, "Complete the notes") ||
		!strings.Contains(extractor.gotText, "Label the map") {
		t.Errorf("OCR text not concatenated: %q", extractor.gotText)
	}
	if strings.Index(extractor.gotText, "Complete") > strings.Index(extractor.gotText, "Label") {
		t.Error("pages out of order in OCR text")
	}
}

func TestProcessPDF_RasterizeFailure(t *testing.T) {
	rasterizer := &fakeRasterizer{err: errors.New("invalid PDF document")}
	service := newTestService(rasterizer, &fakeRecognizer{}, &fakeExtractor{}, &fakeStore{})

	result, err := service.ProcessPDF(context.Background(), "broken.pdf", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if result == nil || result.Success {
		t.Fatal("expected failure result")
	}
	if result.Error == "" || result.UploadedImages == nil {
		t.Errorf("failure result not populated: %+v", result)
	}
}

func TestProcessPDF_OCRFailure(t *testing.T) {
	rasterizer := &fakeRasterizer{pages: []string{"page-1.png"}}
	recognizer := &fakeRecognizer{err: ocr.ErrOCRUnavailable}
	service := newTestService(rasterizer, recognizer, &fakeExtractor{}, &fakeStore{})

	result, err := service.ProcessPDF(context.Background(), "paper.pdf", "")
	if err == nil || !errors.Is(err, ocr.ErrOCRUnavailable) {
		t.Fatalf("expected OCR error, got %v", err)
	}
	if result.Success {
		t.Error("expected failure result")
	}
}

func TestProcessPDF_EmptyText(t *testing.T) {
	rasterizer := &fakeRasterizer{pages: []string{"page-1.png"}}
	recognizer := &fakeRecognizer{texts: map[string]string{"page-1.png": "   "}}
	service := newTestService(rasterizer, recognizer, &fakeExtractor{}, &fakeStore{})

	if _, err := service.ProcessPDF(context.Background(), "paper.pdf", ""); err == nil {
		t.Fatal("expected error for empty OCR text")
	}
}

func TestProcessPDF_ExtractionFailureKeepsImages(t *testing.T) {
	rasterizer := &fakeRasterizer{pages: []string{"page-1.png"}}
	recognizer := &fakeRecognizer{texts: map[string]string{"page-1.png": "Questions 1-10"}}
	extractor := &fakeExtractor{err: errors.New("all attempts failed")}
	service := newTestService(rasterizer, recognizer, extractor, &fakeStore{})

	result, err := service.ProcessPDF(context.Background(), "paper.pdf", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if result.Success {
		t.Error("expected failure result")
	}
	if len(result.UploadedImages) != 1 {
		t.Errorf("uploaded images should survive extraction failure, got %d", len(result.UploadedImages))
	}
}

func TestProcessPDF_TempDirCleanedUp(t *testing.T) {
	var pageDir string
	rasterizer := &fakeRasterizer{pages: []string{"page-1.png"}}
	recognizer := &fakeRecognizer{texts: map[string]string{"page-1.png": "Questions 1-10"}}
	extractor := &fakeExtractor{raw: map[string]any{"test": "1", "parts": []any{}}}
	store := &fakeStore{}
	service := newTestService(rasterizer, recognizer, extractor, store)

	if _, err := service.ProcessPDF(context.Background(), "paper.pdf", ""); err != nil {
		t.Fatalf("ProcessPDF error: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("expected 1 stored page, got %d", len(store.stored))
	}
	pageDir = filepath.Dir(store.stored[0])
	if _, err := os.Stat(pageDir); !os.IsNotExist(err) {
		t.Errorf("temp dir %s not cleaned up", pageDir)
	}
}
