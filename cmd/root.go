package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"examtools/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "examtools",
	Short: "Exam paper ingestion CLI",
	Long: `examtools converts scanned exam paper PDFs into structured JSON.

It rasterizes the PDF, runs OCR with a health-checked remote/local
fallback, extracts the question structure with a language model, and
normalizes the result for the exam player frontend.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("examtools CLI executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
