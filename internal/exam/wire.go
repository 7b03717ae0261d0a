package exam

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"examtools/internal/config"
	"examtools/internal/extract"
	"examtools/internal/logger"
	"examtools/internal/ocr"
	"examtools/internal/pdf"
	"examtools/internal/pipeline"
	"examtools/internal/storage"
	"examtools/pkg/models"
)

// NewExtractionService wires the full service from configuration. The
// remote OCR backend is chosen by cfg.OCRRemoteEngine; when it cannot be
// created and the local backend is primary, the gateway runs without a
// fallback.
func NewExtractionService(ctx context.Context, cfg *config.Config) (ExtractionService, error) {
	const op = "NewExtractionService"

	log := logger.WithComponent("exam")

	local := ocr.NewTesseractExtractor(strings.Split(cfg.OCRLanguages, ",")...)

	var remote ocr.TextExtractor
	var remoteErr error
	switch cfg.OCRRemoteEngine {
	case "documentai":
		remote, remoteErr = newDocumentAIBackend(ctx)
	default:
		remote, remoteErr = newVisionBackend(ctx)
	}
	if remoteErr != nil {
		if cfg.OCRPrimaryBackend == ocr.BackendRemote {
			return nil, fmt.Errorf("%s: failed to create remote OCR backend: %w", op, remoteErr)
		}
		log.Warn().
			Err(remoteErr).
			Str("engine", cfg.OCRRemoteEngine).
			Msg("Remote OCR backend unavailable, running local-only")
		remote = nil
	}

	gatewayConfig := ocr.DefaultGatewayConfig()
	gatewayConfig.Primary = cfg.OCRPrimaryBackend
	gatewayConfig.MaxRetries = cfg.OCRMaxRetries
	gateway := ocr.NewGateway(local, remote, gatewayConfig)

	orchestratorConfig := extract.DefaultOrchestratorConfig()
	orchestratorConfig.Model = cfg.OpenAIModel
	orchestrator := extract.NewOrchestratorWithDeps(
		openai.NewClient(cfg.OpenAIAPIKey),
		extract.NewPromptStore(cfg.PromptDir),
		orchestratorConfig,
	)

	store := storage.NewLocalImageStore(cfg.ImageDir, cfg.ImageBaseURL)
	proc := pipeline.New(store, models.SectionListening)

	return NewExtractionServiceWithDeps(
		pdf.NewRasterizer(),
		gateway,
		orchestrator,
		store,
		proc,
	), nil
}

func newVisionBackend(ctx context.Context) (ocr.TextExtractor, error) {
	return ocr.NewVisionExtractor(ctx)
}

func newDocumentAIBackend(ctx context.Context) (ocr.TextExtractor, error) {
	return ocr.NewDocumentAIExtractor(ctx)
}
