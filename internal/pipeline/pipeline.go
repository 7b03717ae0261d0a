// Package pipeline normalizes the raw structured output of the language
// model into a schema-valid, internally consistent exam document.
//
// The LLM output is untrusted and frequently malformed: parts get emitted
// twice when a part spans a page break, fields go missing, dash characters
// vary, and numbering is fabricated. Eight ordered stages each fix one
// narrow class of defect:
//
//  1. merge duplicate parts
//  2. structural defaulting (with heuristic type inference)
//  3. map image injection
//  4. inline base64 image materialization
//  5. divider-to-matching draggable linkage
//  6. ID punctuation normalization
//  7. numbering enforcement
//  8. final validation
//
// Every stage is total: malformed input gets defaults instead of errors.
// The final validator reports problems instead of raising them, so the
// caller always receives a best-effort document plus the error list for a
// human reviewer.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"examtools/internal/logger"
	"examtools/internal/storage"
	"examtools/pkg/models"
)

// ValidationResult is the final stage's report. Validation failures do not
// abort the response; the document is returned alongside the errors.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Pipeline holds the collaborators and per-endpoint defaults the stages
// need. Stages themselves are pure document transforms.
type Pipeline struct {
	store          storage.ImageStore
	defaultSection string
	defaultTest    string
	log            zerolog.Logger
}

// New creates a pipeline. defaultSection fills a missing section field
// (e.g. "Listening"); store persists inline images and may be nil, in which
// case stage 4 leaves base64 payloads in place.
func New(store storage.ImageStore, defaultSection string) *Pipeline {
	if defaultSection == "" {
		defaultSection = models.SectionListening
	}
	return &Pipeline{
		store:          store,
		defaultSection: defaultSection,
		defaultTest:    "1",
		log:            logger.WithComponent("pipeline"),
	}
}

// Process runs all eight stages over the document. images are the page
// images uploaded for this request; the first one flagged as a map feeds
// stage 3. The input document is not mutated.
func (p *Pipeline) Process(ctx context.Context, doc models.ExamDocument, images []models.UploadedImage) (models.ExamDocument, ValidationResult) {
	doc = MergeDuplicateParts(doc)
	doc = p.applyDefaults(doc)
	doc = InjectMapImages(doc, images)
	doc = p.materializeInlineImages(ctx, doc)
	doc = LinkDraggableVariants(doc)
	doc = NormalizeIDPunctuation(doc)
	doc = EnforceNumbering(doc)

	validation := ValidateDocument(doc)
	if !validation.Valid {
		p.log.Warn().
			Int("error_count", len(validation.Errors)).
			Strs("errors", validation.Errors).
			Msg("Document failed validation, returning for manual review")
	}
	return doc, validation
}

// cloneDocument copies a document deeply enough that mutating the clone's
// parts, questions and their slices never aliases the input.
func cloneDocument(doc models.ExamDocument) models.ExamDocument {
	out := doc
	out.Parts = make([]models.Part, len(doc.Parts))
	for i, part := range doc.Parts {
		out.Parts[i] = clonePart(part)
	}
	return out
}

func clonePart(part models.Part) models.Part {
	out := part
	out.Questions = make([]models.Question, len(part.Questions))
	for i, q := range part.Questions {
		out.Questions[i] = cloneQuestion(q)
	}
	return out
}

func cloneQuestion(q models.Question) models.Question {
	out := q
	out.Options = cloneStrings(q.Options)
	out.DraggableVariants = cloneStrings(q.DraggableVariants)
	if q.IsInteractive != nil {
		v := *q.IsInteractive
		out.IsInteractive = &v
	}
	if q.Answer != nil {
		answer := models.Answer{
			Correct:  q.Answer.Correct,
			Accepted: cloneStrings(q.Answer.Accepted),
		}
		out.Answer = &answer
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func boolPtr(v bool) *bool {
	return &v
}
