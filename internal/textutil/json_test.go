package textutil

import (
	"errors"
	"strings"
	"testing"
)

func TestParseJSONSafely_RepairChain(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "valid JSON parses directly",
			input: `{"test": "1", "section": "Listening"}`,
		},
		{
			name:  "unquoted keys",
			input: `{test: "1", section: "Listening"}`,
		},
		{
			name:  "trailing comma",
			input: `{"test": "1", "parts": [],}`,
		},
		{
			name:  "markdown code fence",
			input: "```json\n{\"test\": \"1\"}\n```",
		},
		{
			name:  "raw newline inside string value",
			input: "{\"instructions\": \"Complete the notes\nbelow\"}",
		},
		{
			name:  "missing closing brace",
			input: `{"test": "1", "section": "Listening"`,
		},
		{
			name:  "object embedded in prose",
			input: `Here is the extracted structure: {"test": "1", "parts": []} Let me know if you need anything else.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONSafely(tt.input, "test")
			if err != nil {
				t.Fatalf("ParseJSONSafely(%q) error: %v", tt.input, err)
			}
			if got["test"] != "1" && got["instructions"] == nil {
				t.Errorf("unexpected result: %#v", got)
			}
		})
	}
}

func TestParseJSONSafely_NoJSONAnywhere(t *testing.T) {
	input := strings.Repeat("I could not find any questions in the provided text. ", 20)

	_, err := ParseJSONSafely(input, "llm completion")
	if err == nil {
		t.Fatal("expected error for text with no JSON")
	}

	var parseErr *JSONParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *JSONParseError, got %T: %v", err, err)
	}
	if parseErr.Context != "llm completion" {
		t.Errorf("unexpected context: %q", parseErr.Context)
	}
	if len(parseErr.Excerpt) > 200 {
		t.Errorf("excerpt exceeds 200 chars: %d", len(parseErr.Excerpt))
	}
	if !strings.Contains(err.Error(), "llm completion") {
		t.Errorf("error message should name the context: %v", err)
	}
}

func TestUnmarshalSafely_TypedTarget(t *testing.T) {
	var doc struct {
		Test    string `json:"test"`
		Section string `json:"section"`
	}

	input := "```json\n{test: \"2\", section: \"Reading\",}\n```"
	if err := UnmarshalSafely(input, "typed", &doc); err != nil {
		t.Fatalf("UnmarshalSafely error: %v", err)
	}
	if doc.Test != "2" || doc.Section != "Reading" {
		t.Errorf("unexpected decode: %+v", doc)
	}
}

func TestExtractBalancedObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`, true},
		{"nested braces", `text {"a": {"b": 2}} tail`, `{"a": {"b": 2}}`, true},
		{"brace inside string", `{"a": "}"}`, `{"a": "}"}`, true},
		{"unbalanced", `{"a": 1`, "", false},
		{"no object", "nothing here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractBalancedObject(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractBalancedObject(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}
