package extract

import (
	"errors"
	"fmt"
)

// Common extraction errors.
var (
	ErrEmptyLLMResponse = errors.New("language model returned an empty response")
	ErrNoPromptTemplate = errors.New("no prompt template for section")
)

// ExtractionFailedError reports that every extraction attempt failed,
// carrying the final cause.
type ExtractionFailedError struct {
	Attempts int
	LastErr  error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.LastErr
}
