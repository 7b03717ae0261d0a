package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"examtools/internal/config"
	"examtools/internal/logger"
	"examtools/internal/ocr"
	"examtools/internal/pdf"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report OCR backend health",
	Long: `Check which OCR backends are configured and reachable: the remote
engine (Google Vision or Document AI) via its health endpoint, and the
local Tesseract engine. Also verifies the pdftoppm rasterizer binary.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("json", false, "Output as JSON")
	statusCmd.Flags().Int("timeout", 15, "Health check timeout in seconds")
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("status-cmd")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	local := ocr.NewTesseractExtractor(strings.Split(cfg.OCRLanguages, ",")...)

	var remote ocr.TextExtractor
	switch cfg.OCRRemoteEngine {
	case "documentai":
		remote, err = ocr.NewDocumentAIExtractor(ctx)
	default:
		remote, err = ocr.NewVisionExtractor(ctx)
	}
	if err != nil {
		log.Warn().
			Err(err).
			Str("engine", cfg.OCRRemoteEngine).
			Msg("Remote OCR backend could not be created")
		remote = nil
	}

	gatewayConfig := ocr.DefaultGatewayConfig()
	gatewayConfig.Primary = cfg.OCRPrimaryBackend
	gateway := ocr.NewGateway(local, remote, gatewayConfig)

	status := gateway.GetServiceStatus(ctx)
	rasterizerErr := pdf.EnsureBinary("")

	if jsonOutput {
		payload := struct {
			ocr.ServiceStatus
			RasterizerAvailable bool `json:"rasterizerAvailable"`
		}{status, rasterizerErr == nil}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Primary backend:  %s\n", status.Primary)
	fmt.Printf("Fallback backend: %s\n", status.Fallback)
	fmt.Printf("Remote engine:    %s (healthy: %v)\n", status.RemoteService, status.RemoteHealthy)
	fmt.Printf("Local engine:     available: %v\n", status.LocalAvailable)
	if rasterizerErr != nil {
		fmt.Printf("Rasterizer:       unavailable (%v)\n", rasterizerErr)
	} else {
		fmt.Println("Rasterizer:       available")
	}
	return nil
}
