package textutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// excerptLimit bounds how much of the offending text a JSONParseError quotes.
const excerptLimit = 200

// JSONParseError is returned when every repair stage has been exhausted.
// It quotes a truncated excerpt of the offending text for diagnosability.
type JSONParseError struct {
	// Context names the call site (e.g. "llm completion attempt 2").
	Context string

	// Excerpt is the offending text, truncated to at most 200 characters.
	Excerpt string

	// Err is the error from the final repair stage.
	Err error
}

// Error implements the error interface.
func (e *JSONParseError) Error() string {
	return fmt.Sprintf("textutil: parsing JSON for %s failed: %v (excerpt: %q)", e.Context, e.Err, e.Excerpt)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *JSONParseError) Unwrap() error {
	return e.Err
}

// NewJSONParseError creates a JSONParseError, truncating the excerpt.
func NewJSONParseError(context, text string, err error) *JSONParseError {
	excerpt := strings.TrimSpace(text)
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}
	return &JSONParseError{Context: context, Excerpt: excerpt, Err: err}
}

// ParseJSONSafely parses rawText as a JSON object, repairing it if needed.
// Stages, in order:
//
//  1. direct parse
//  2. structural cleanup (code fences, unquoted keys, trailing commas,
//     control characters, raw newlines inside string values)
//  3. a general-purpose repair pass (jsonrepair)
//  4. extraction of the first balanced {...} span, then cleanup again
//
// A stage failing is non-fatal; only exhausting all four returns an error,
// and that error is always a *JSONParseError.
func ParseJSONSafely(rawText, context string) (map[string]any, error) {
	var result map[string]any
	if err := UnmarshalSafely(rawText, context, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UnmarshalSafely runs the same repair chain as ParseJSONSafely but decodes
// the first parseable candidate into v.
func UnmarshalSafely(rawText, context string, v any) error {
	candidates := repairCandidates(rawText)

	var lastErr error
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		// Probe first so a failing candidate cannot leave v half-populated.
		var probe any
		if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
			lastErr = err
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object found in text")
	}
	return NewJSONParseError(context, rawText, lastErr)
}

// repairCandidates produces the ordered list of texts to attempt parsing.
func repairCandidates(rawText string) []string {
	candidates := []string{rawText, cleanupJSONText(rawText)}

	if repaired, err := jsonrepair.JSONRepair(rawText); err == nil {
		candidates = append(candidates, repaired)
	}

	if span, ok := extractBalancedObject(rawText); ok {
		candidates = append(candidates, span, cleanupJSONText(span))
	}

	return candidates
}

var (
	reCodeFence     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	reUnquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_-]*)\s*:`)
	reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// cleanupJSONText applies structural fixes for the defects language models
// most commonly produce.
func cleanupJSONText(text string) string {
	if m := reCodeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = stripControlChars(text)
	text = reUnquotedKey.ReplaceAllString(text, `${1}"${2}":`)
	text = escapeNewlinesInStrings(text)
	text = reTrailingComma.ReplaceAllString(text, "${1}")
	return strings.TrimSpace(text)
}

// stripControlChars drops control characters that are illegal in JSON,
// keeping the whitespace characters the string-state pass handles.
func stripControlChars(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, text)
}

// escapeNewlinesInStrings walks the text tracking string state and escapes
// raw line breaks and tabs that appear inside string values.
func escapeNewlinesInStrings(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false
	for _, r := range text {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && inString:
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inString = !inString
			b.WriteRune(r)
		case inString && r == '\n':
			b.WriteString(`\n`)
		case inString && r == '\r':
			// dropped; the \n that follows carries the break
		case inString && r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// extractBalancedObject returns the first balanced {...} span in the text,
// respecting string literals and escapes.
func extractBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
