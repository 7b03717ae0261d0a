package pipeline

import (
	"fmt"

	"examtools/pkg/models"
)

// ValidateDocument checks the finished document against the schema the
// frontend consumes. It reports every problem it finds rather than stopping
// at the first, and never rejects the document itself.
func ValidateDocument(doc models.ExamDocument) ValidationResult {
	errs := []string{}

	if doc.Test == "" {
		errs = append(errs, "document is missing a test identifier")
	}
	if doc.Section == "" {
		errs = append(errs, "document is missing a section")
	}
	if len(doc.Parts) == 0 {
		errs = append(errs, "document has no parts")
	}

	for i, part := range doc.Parts {
		label := fmt.Sprintf("part %d", part.Part)
		if part.Part <= 0 {
			label = fmt.Sprintf("part at index %d", i)
			errs = append(errs, label+" has no part number")
		}
		if part.Instructions == "" {
			errs = append(errs, label+" is missing instructions")
		}
		if part.QuestionsRange == "" {
			errs = append(errs, label+" is missing a questions range")
		}
		if len(part.Questions) == 0 {
			errs = append(errs, label+" has no questions")
		}

		for j, q := range part.Questions {
			if q.Type == models.TypeDivider || q.Type == models.TypeImage {
				continue
			}
			qLabel := fmt.Sprintf("%s question %d", label, j+1)
			if q.QuestionID == "" {
				errs = append(errs, qLabel+" is missing a question ID")
			}
			if q.Number <= 0 {
				errs = append(errs, qLabel+" is missing a number")
			}
			if q.Type == "" {
				errs = append(errs, qLabel+" is missing a type")
			}
			if q.InputType == "" {
				errs = append(errs, qLabel+" is missing an input type")
			}
			if q.IsInteractive == nil {
				errs = append(errs, qLabel+" is missing the interactive flag")
			}
			if q.Answer == nil {
				errs = append(errs, qLabel+" is missing an answer block")
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
