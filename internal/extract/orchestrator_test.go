package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	idx := f.calls
	f.calls++
	for _, m := range req.Messages {
		if m.Role == openai.ChatMessageRoleUser {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	if idx < len(f.errs) && f.errs[idx] != nil {
		return openai.ChatCompletionResponse{}, f.errs[idx]
	}
	content := ""
	if idx < len(f.responses) {
		content = f.responses[idx]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func newTestOrchestrator(client ChatCompleter) *Orchestrator {
	config := DefaultOrchestratorConfig()
	o := NewOrchestratorWithDeps(client, NewPromptStore(""), config)
	o.sleep = func(time.Duration) {}
	return o
}

func TestExtract_Success(t *testing.T) {
	client := &fakeCompleter{responses: []string{`{"test": "1", "section": "Listening", "parts": []}`}}
	o := newTestOrchestrator(client)

	result, err := o.Extract(context.Background(), "Listening", "some ocr text")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if result["section"] != "Listening" {
		t.Errorf("section = %v", result["section"])
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
	if !strings.Contains(client.prompts[0], "some ocr text") {
		t.Error("OCR text not sent as the user message")
	}
}

func TestExtract_RepairsMalformedJSON(t *testing.T) {
	client := &fakeCompleter{responses: []string{
		"```json\n{test: \"1\", \"parts\": [],}\n```",
	}}
	o := newTestOrchestrator(client)

	result, err := o.Extract(context.Background(), "Listening", "text")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if result["test"] != "1" {
		t.Errorf("test = %v", result["test"])
	}
}

func TestExtract_RetriesOnParseFailure(t *testing.T) {
	client := &fakeCompleter{responses: []string{
		"I could not process this document.",
		`{"test": "1", "parts": []}`,
	}}
	o := newTestOrchestrator(client)

	result, err := o.Extract(context.Background(), "Listening", "text")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("calls = %d, want 2", client.calls)
	}
	if result["test"] != "1" {
		t.Errorf("test = %v", result["test"])
	}
}

func TestExtract_RetriesOnTransportFailure(t *testing.T) {
	client := &fakeCompleter{
		errs:      []error{errors.New("connection reset"), nil},
		responses: []string{"", `{"test": "1", "parts": []}`},
	}
	o := newTestOrchestrator(client)

	if _, err := o.Extract(context.Background(), "Listening", "text"); err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("calls = %d, want 2", client.calls)
	}
}

func TestExtract_EmptyResponse(t *testing.T) {
	client := &fakeCompleter{responses: []string{"", "  \n ", ""}}
	o := newTestOrchestrator(client)

	_, err := o.Extract(context.Background(), "Listening", "text")
	if err == nil {
		t.Fatal("expected error for persistently empty responses")
	}
	var failed *ExtractionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected ExtractionFailedError, got %T: %v", err, err)
	}
	if failed.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", failed.Attempts)
	}
	if !errors.Is(err, ErrEmptyLLMResponse) {
		t.Error("expected ErrEmptyLLMResponse in the chain")
	}
}

func TestExtract_AllAttemptsFail(t *testing.T) {
	transportErr := errors.New("rate limited")
	client := &fakeCompleter{errs: []error{transportErr, transportErr, transportErr}}
	o := newTestOrchestrator(client)

	_, err := o.Extract(context.Background(), "Listening", "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, transportErr) {
		t.Errorf("last cause not preserved: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestPromptStore_Sections(t *testing.T) {
	store := NewPromptStore("")
	for _, section := range []string{"Listening", "Reading", "Writing", "listening", ""} {
		prompt, err := store.SystemPrompt(section)
		if err != nil {
			t.Errorf("SystemPrompt(%q) error: %v", section, err)
			continue
		}
		if !strings.Contains(prompt, "JSON") {
			t.Errorf("SystemPrompt(%q) does not describe the JSON schema", section)
		}
	}
}

func TestPromptStore_DirOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "listening.txt"), []byte("custom JSON prompt"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewPromptStore(dir)
	prompt, err := store.SystemPrompt("Listening")
	if err != nil {
		t.Fatalf("SystemPrompt error: %v", err)
	}
	if prompt != "custom JSON prompt" {
		t.Errorf("override not used, got %q", prompt)
	}

	// Sections without an override fall back to the embedded default.
	if _, err := store.SystemPrompt("Reading"); err != nil {
		t.Errorf("embedded fallback failed: %v", err)
	}
}

func TestPromptStore_UnknownSection(t *testing.T) {
	store := NewPromptStore("")
	if _, err := store.SystemPrompt("Speaking"); !errors.Is(err, ErrNoPromptTemplate) {
		t.Errorf("expected ErrNoPromptTemplate, got %v", err)
	}
}
