package pipeline

import (
	"fmt"
	"strings"

	"examtools/pkg/models"
)

// inputTypeTable is the fixed type-to-input-control lookup.
var inputTypeTable = map[models.QuestionType]models.InputType{
	models.TypeFormFill:           models.InputText,
	models.TypeMultipleChoice:     models.InputRadio,
	models.TypeMultiSelect:        models.InputCheckbox,
	models.TypeMatching:           models.InputDrag,
	models.TypeMapLabelling:       models.InputText,
	models.TypeShortAnswer:        models.InputText,
	models.TypeSentenceCompletion: models.InputText,
	models.TypeDivider:            models.InputText,
	models.TypeImage:              models.InputText,
}

// constraintsTable is the fixed type-to-instruction lookup used when the
// LLM omits answerConstraints.
var constraintsTable = map[models.QuestionType]string{
	models.TypeFormFill:           "Write NO MORE THAN TWO WORDS AND/OR A NUMBER for each answer.",
	models.TypeMultipleChoice:     "Choose the correct letter, A, B or C.",
	models.TypeMultiSelect:        "Choose TWO letters, A-E.",
	models.TypeMatching:           "Drag the correct answer next to each question.",
	models.TypeMapLabelling:       "Write the correct letter, A-H, next to each question.",
	models.TypeShortAnswer:        "Write NO MORE THAN THREE WORDS for each answer.",
	models.TypeSentenceCompletion: "Complete the sentences with NO MORE THAN TWO WORDS.",
}

const defaultInstructions = "Answer the questions below."

// applyDefaults guarantees every structural field the schema requires,
// filling generic values where the LLM left gaps.
func (p *Pipeline) applyDefaults(doc models.ExamDocument) models.ExamDocument {
	out := cloneDocument(doc)

	if out.Test == "" {
		out.Test = p.defaultTest
	}
	if out.Section == "" {
		out.Section = p.defaultSection
	}
	if out.Parts == nil {
		out.Parts = []models.Part{}
	}

	for i := range out.Parts {
		part := &out.Parts[i]
		if part.Part <= 0 {
			part.Part = i + 1
		}
		if part.Instructions == "" {
			part.Instructions = defaultInstructions
		}
		if part.QuestionsRange == "" {
			part.QuestionsRange = fmt.Sprintf("%d-%d", (part.Part-1)*10+1, part.Part*10)
		}
		if part.Questions == nil {
			part.Questions = []models.Question{}
		}

		for j := range part.Questions {
			p.applyQuestionDefaults(&part.Questions[j], out.Section, out.Test, part, j)
		}
	}
	return out
}

func (p *Pipeline) applyQuestionDefaults(q *models.Question, section, test string, part *models.Part, index int) {
	if q.Type == "" {
		q.Type = inferQuestionType(*q, part.Instructions)
	}
	structural := q.Type == models.TypeDivider || q.Type == models.TypeImage

	if q.QuestionID == "" {
		q.QuestionID = fmt.Sprintf("%s-%s-%d-%d", strings.ToLower(section), test, part.Part, index+1)
	}
	if q.Number == 0 && !structural {
		q.Number = (part.Part-1)*10 + index + 1
	}
	if q.InputType == "" {
		q.InputType = inputTypeTable[q.Type]
	}
	if q.AnswerConstraints == "" {
		q.AnswerConstraints = constraintsTable[q.Type]
	}
	if q.IsInteractive == nil {
		q.IsInteractive = boolPtr(!structural)
	}
	if q.Answer == nil {
		q.Answer = &models.Answer{Correct: "", Accepted: []string{}}
	}
}

// Blank markers left in question text by the cleaner or the model.
var blankMarkers = []string{"____", "..."}

// inferQuestionType guesses the question type from its content and the
// part's instructions. The rules are ordered and deliberately simple; the
// whole function is a replaceable strategy.
func inferQuestionType(q models.Question, instructions string) models.QuestionType {
	text := q.Text
	if text == "" {
		text = q.QuestionText
	}
	instr := strings.ToLower(instructions)

	if containsAny(text, blankMarkers...) {
		switch {
		case containsAny(instr, "map", "diagram", "label"):
			return models.TypeMapLabelling
		case containsAny(instr, "form", "notes", "table"):
			return models.TypeFormFill
		default:
			return models.TypeSentenceCompletion
		}
	}

	if len(q.Options) > 0 {
		if containsAny(instr, "choose two", "choose three") {
			return models.TypeMultiSelect
		}
		return models.TypeMultipleChoice
	}

	if len(q.DraggableVariants) > 0 || strings.Contains(instr, "match") {
		return models.TypeMatching
	}

	if containsAny(instr, "short answer", "no more than") {
		return models.TypeShortAnswer
	}

	return models.TypeFormFill
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
