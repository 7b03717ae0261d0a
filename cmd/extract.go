package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"examtools/internal/config"
	"examtools/internal/exam"
	"examtools/internal/extract"
	"examtools/internal/logger"
	"examtools/internal/ocr"
	"examtools/internal/pdf"
	"examtools/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Convert an exam paper PDF into structured JSON",
	Long: `Process an exam paper PDF end to end: rasterize pages, OCR them with
the configured backend (falling back between remote and local engines),
extract the question structure with a language model, and normalize it
into the frontend schema.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key for structured extraction

Optional environment variables:
  OCR_PRIMARY_BACKEND - "remote" (default) or "local"
  OCR_REMOTE_ENGINE   - "vision" (default) or "documentai"
  GOOGLE_APPLICATION_CREDENTIALS / GOOGLE_CREDENTIALS - remote OCR auth
  IMAGE_DIR / IMAGE_BASE_URL - where page images are stored and served`,
	Example: `  # Extract a listening paper to stdout
  examtools extract listening-test-1.pdf

  # Extract a reading paper to a file
  examtools extract reading-test-2.pdf --section Reading -o structure.json

  # Local-only OCR with a longer timeout
  OCR_PRIMARY_BACKEND=local examtools extract paper.pdf --timeout 600`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("section", "s", models.SectionListening, "Exam section: Listening, Reading or Writing")
	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract-cmd")

	section, _ := cmd.Flags().GetString("section")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	log.Info().
		Str("file", pdfPath).
		Str("section", section).
		Str("output", outputPath).
		Int("timeout", timeoutSecs).
		Msg("Starting exam extraction")

	if err := validateExtractInput(pdfPath, section, log); err != nil {
		return err
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	service, err := exam.NewExtractionService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create extraction service: %w", err)
	}

	startTime := time.Now()
	result, err := service.ProcessPDF(ctx, pdfPath, canonicalSection(section))
	if err != nil {
		return handleExtractError(err, log)
	}

	log.Info().
		Bool("valid", result.Validation.Valid).
		Int("images", len(result.UploadedImages)).
		Dur("duration", time.Since(startTime)).
		Msg("Extraction completed")

	outputData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Result written to file")
		return nil
	}

	if _, err := os.Stdout.Write(outputData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}

// validateExtractInput checks the PDF path and section flag before any
// expensive work starts.
func validateExtractInput(pdfPath, section string, log zerolog.Logger) error {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", pdfPath).Msg("PDF file not found")
			return fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		return fmt.Errorf("error accessing PDF file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("path is not a regular file: %s", pdfPath)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("PDF file is empty: %s", pdfPath)
	}
	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().Str("file", pdfPath).Msg("File does not have .pdf extension")
	}

	if canonicalSection(section) == "" {
		return fmt.Errorf("invalid section %q, must be Listening, Reading or Writing", section)
	}

	if err := pdf.EnsureBinary(""); err != nil {
		return fmt.Errorf("rasterizer unavailable: %w", err)
	}
	return nil
}

func canonicalSection(section string) string {
	switch strings.ToLower(strings.TrimSpace(section)) {
	case "listening", "":
		return models.SectionListening
	case "reading":
		return models.SectionReading
	case "writing":
		return models.SectionWriting
	default:
		return ""
	}
}

// signalContext creates a context with timeout that is also canceled on
// SIGINT/SIGTERM.
func signalContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling extraction")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleExtractError maps common failures to actionable messages.
func handleExtractError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Extraction failed")

	var extractionFailed *extract.ExtractionFailedError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("extraction timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("extraction was canceled")
	case errors.Is(err, ocr.ErrOCRUnavailable):
		return fmt.Errorf("no OCR backend available. Check Google Cloud credentials for the remote "+
			"backend or install tesseract for local processing: %w", err)
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS "+
			"or GOOGLE_CREDENTIALS, or run with OCR_PRIMARY_BACKEND=local: %w", err)
	case errors.As(err, &extractionFailed):
		return fmt.Errorf("the language model could not produce a usable structure after %d attempts: %w",
			extractionFailed.Attempts, err)
	default:
		return fmt.Errorf("extraction failed: %w", err)
	}
}
