package pipeline

import (
	"strings"

	"examtools/pkg/models"
)

// dashReplacer folds the unicode dash variants the OCR and the model both
// emit into the plain hyphen the ID scheme expects.
var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
)

// NormalizeIDPunctuation rewrites identifier and range fields so that
// lookups by ID and range parsing see only ASCII hyphens.
func NormalizeIDPunctuation(doc models.ExamDocument) models.ExamDocument {
	out := cloneDocument(doc)
	for i := range out.Parts {
		part := &out.Parts[i]
		part.QuestionsRange = dashReplacer.Replace(part.QuestionsRange)
		for j := range part.Questions {
			q := &part.Questions[j]
			q.QuestionID = dashReplacer.Replace(q.QuestionID)
			q.NumberRange = dashReplacer.Replace(q.NumberRange)
		}
	}
	return out
}
