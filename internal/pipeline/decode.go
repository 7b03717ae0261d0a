package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"examtools/pkg/models"
)

// DocumentFromRaw converts the parsed LLM output into a typed document.
// The raw structure is untrusted: field types vary between runs (numbers as
// strings, strings as numbers), so every field is coerced individually and
// anything unusable is dropped rather than failing the request.
func DocumentFromRaw(raw map[string]any) models.ExamDocument {
	doc := models.ExamDocument{
		Test:    getString(raw, "test"),
		Section: getString(raw, "section"),
	}

	rawParts, ok := raw["parts"].([]any)
	if !ok {
		return doc
	}
	for _, rp := range rawParts {
		partMap, ok := rp.(map[string]any)
		if !ok {
			continue
		}
		doc.Parts = append(doc.Parts, partFromRaw(partMap))
	}
	return doc
}

func partFromRaw(raw map[string]any) models.Part {
	part := models.Part{
		Part:           getInt(raw, "part"),
		Instructions:   getString(raw, "instructions"),
		QuestionsRange: getString(raw, "questionsRange"),
	}

	rawQuestions, ok := raw["questions"].([]any)
	if !ok {
		return part
	}
	for _, rq := range rawQuestions {
		questionMap, ok := rq.(map[string]any)
		if !ok {
			continue
		}
		part.Questions = append(part.Questions, questionFromRaw(questionMap))
	}
	return part
}

func questionFromRaw(raw map[string]any) models.Question {
	q := models.Question{
		QuestionID:        getString(raw, "questionId"),
		Number:            getInt(raw, "number"),
		Type:              models.QuestionType(getString(raw, "type")),
		InputType:         models.InputType(getString(raw, "inputType")),
		AnswerConstraints: getString(raw, "answerConstraints"),
		Text:              getString(raw, "text"),
		QuestionText:      getString(raw, "questionText"),
		Options:           getStringSlice(raw, "options"),
		DraggableVariants: getStringSlice(raw, "draggableVariants"),
		URL:               getString(raw, "url"),
		Headline:          getString(raw, "headline"),
		ImageData:         getString(raw, "imageData"),
		NumberRange:       getString(raw, "numberRange"),
	}

	if v, exists := raw["isInteractive"]; exists {
		if b, ok := v.(bool); ok {
			q.IsInteractive = &b
		}
	}

	if answerMap, ok := raw["answer"].(map[string]any); ok {
		q.Answer = &models.Answer{
			Correct:  getString(answerMap, "correct"),
			Accepted: getStringSlice(answerMap, "accepted"),
		}
		if q.Answer.Accepted == nil {
			q.Answer.Accepted = []string{}
		}
	}

	return q
}

// getString extracts a string value, coercing numbers the model emitted in
// place of strings.
func getString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

// getInt extracts an integer value, coercing numeric strings.
func getInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// getStringSlice extracts a slice of strings, coercing element types and
// skipping anything that is not a scalar.
func getStringSlice(m map[string]any, key string) []string {
	rawSlice, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var result []string
	for _, item := range rawSlice {
		switch v := item.(type) {
		case string:
			result = append(result, v)
		case float64:
			result = append(result, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return result
}
