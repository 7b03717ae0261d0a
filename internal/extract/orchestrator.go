// Package extract drives the language model that turns cleaned OCR text
// into a structured exam document. The model's output is parsed leniently
// (see internal/textutil) and the whole call is retried on transport and
// parse failures alike, with a short pause so a flaky model run gets a
// second chance.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"examtools/internal/logger"
	"examtools/internal/textutil"
)

// ChatCompleter is the slice of the OpenAI client the orchestrator needs.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OrchestratorConfig configures the extraction orchestrator.
type OrchestratorConfig struct {
	Model        string        // OpenAI model name
	Temperature  float32       // kept low for deterministic structure
	MaxTokens    int           // completion token cap
	MaxAttempts  int           // total attempts including the first
	ParseDelay   time.Duration // pause after a parse failure
	RequestDelay time.Duration // pause after a transport failure
}

// DefaultOrchestratorConfig returns the production defaults.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		Model:        "gpt-4o",
		Temperature:  0.1,
		MaxTokens:    8192,
		MaxAttempts:  3,
		ParseDelay:   1 * time.Second,
		RequestDelay: 2 * time.Second,
	}
}

// Orchestrator sends OCR text to the model and returns the parsed document
// structure.
type Orchestrator struct {
	client  ChatCompleter
	prompts *PromptStore
	config  OrchestratorConfig
	log     zerolog.Logger
	sleep   func(time.Duration)
}

// NewOrchestrator creates an orchestrator with dependencies from the
// environment.
func NewOrchestrator() (*Orchestrator, error) {
	const op = "NewOrchestrator"

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%s: OPENAI_API_KEY environment variable is required", op)
	}

	config := DefaultOrchestratorConfig()
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.Model = model
	}

	return NewOrchestratorWithDeps(openai.NewClient(apiKey), NewPromptStore(os.Getenv("PROMPT_DIR")), config), nil
}

// NewOrchestratorWithDeps creates an orchestrator with explicit
// dependencies.
func NewOrchestratorWithDeps(client ChatCompleter, prompts *PromptStore, config OrchestratorConfig) *Orchestrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &Orchestrator{
		client:  client,
		prompts: prompts,
		config:  config,
		log:     logger.WithComponent("extract"),
		sleep:   time.Sleep,
	}
}

// Extract sends the OCR text to the model and returns the parsed structure.
// The section-specific system prompt describes the target schema; the OCR
// text is the user content. Transport errors, empty responses and
// unparseable output all count as failed attempts; the last cause is
// wrapped in an ExtractionFailedError once attempts run out.
func (o *Orchestrator) Extract(ctx context.Context, section, ocrText string) (map[string]any, error) {
	const op = "Extract"

	systemPrompt, err := o.prompts.SystemPrompt(section)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o.log.Info().
		Str("section", section).
		Str("model", o.config.Model).
		Int("text_length", len(ocrText)).
		Msg("Starting structured extraction")

	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       o.config.Model,
			Temperature: o.config.Temperature,
			MaxTokens:   o.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: ocrText},
			},
		})
		if err != nil {
			lastErr = err
			o.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", o.config.MaxAttempts).
				Msg("Model request failed, retrying")
			o.pause(ctx, attempt, o.config.RequestDelay)
			continue
		}

		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			lastErr = ErrEmptyLLMResponse
			o.log.Warn().
				Int("attempt", attempt).
				Msg("Model returned an empty response, retrying")
			o.pause(ctx, attempt, o.config.ParseDelay)
			continue
		}

		content := resp.Choices[0].Message.Content
		parsed, err := textutil.ParseJSONSafely(content, fmt.Sprintf("%s extraction", section))
		if err != nil {
			lastErr = err
			o.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("response_length", len(content)).
				Msg("Failed to parse model response, retrying")
			o.pause(ctx, attempt, o.config.ParseDelay)
			continue
		}

		o.log.Info().
			Int("attempt", attempt).
			Int("response_length", len(content)).
			Msg("Structured extraction succeeded")
		return parsed, nil
	}

	return nil, fmt.Errorf("%s: %w", op, &ExtractionFailedError{
		Attempts: o.config.MaxAttempts,
		LastErr:  lastErr,
	})
}

// pause waits between attempts, skipping the wait after the final attempt
// and respecting context cancellation.
func (o *Orchestrator) pause(ctx context.Context, attempt int, delay time.Duration) {
	if attempt >= o.config.MaxAttempts || delay <= 0 {
		return
	}
	if ctx.Err() != nil {
		return
	}
	o.sleep(delay)
}
