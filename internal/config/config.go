// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"examtools/internal/logger"
)

type Config struct {
	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Cloud Configuration (remote OCR backend)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// OCR Gateway Configuration
	OCRPrimaryBackend string // "remote" or "local"
	OCRRemoteEngine   string // "vision" or "documentai"
	OCRMaxRetries     int
	OCRLanguages      string // comma-separated Tesseract language codes

	// Extraction Configuration
	PromptDir    string
	ImageDir     string
	ImageBaseURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		OCRPrimaryBackend:     getEnv("OCR_PRIMARY_BACKEND", "remote"),
		OCRRemoteEngine:       getEnv("OCR_REMOTE_ENGINE", "vision"),
		OCRMaxRetries:         getIntEnv("OCR_MAX_RETRIES", 2),
		OCRLanguages:          getEnv("OCR_LANGUAGES", "eng"),
		PromptDir:             getEnv("PROMPT_DIR", ""),
		ImageDir:              getEnv("IMAGE_DIR", "uploads"),
		ImageBaseURL:          getEnv("IMAGE_BASE_URL", "/uploads"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.OCRPrimaryBackend != "remote" && c.OCRPrimaryBackend != "local" {
		return fmt.Errorf("OCR_PRIMARY_BACKEND must be \"remote\" or \"local\", got %q", c.OCRPrimaryBackend)
	}
	if c.OCRRemoteEngine != "vision" && c.OCRRemoteEngine != "documentai" {
		return fmt.Errorf("OCR_REMOTE_ENGINE must be \"vision\" or \"documentai\", got %q", c.OCRRemoteEngine)
	}
	if c.OCRRemoteEngine == "documentai" && c.DocumentAIProcessorID == "" {
		return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required when OCR_REMOTE_ENGINE=documentai")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
