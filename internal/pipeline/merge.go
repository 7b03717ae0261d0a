package pipeline

import (
	"sort"

	"examtools/pkg/models"
)

// MergeDuplicateParts groups parts sharing a part number and concatenates
// their question sequences in encounter order. The LLM emits a part twice
// when its questions span a page break; this folds the halves back
// together. Groups are re-sorted by ascending part number.
func MergeDuplicateParts(doc models.ExamDocument) models.ExamDocument {
	out := cloneDocument(doc)
	if len(out.Parts) == 0 {
		return out
	}

	var order []int
	merged := make(map[int]*models.Part)
	for i := range out.Parts {
		part := out.Parts[i]
		existing, seen := merged[part.Part]
		if !seen {
			p := part
			merged[part.Part] = &p
			order = append(order, part.Part)
			continue
		}
		existing.Questions = append(existing.Questions, part.Questions...)
		// Keep the first non-empty instructions and range.
		if existing.Instructions == "" {
			existing.Instructions = part.Instructions
		}
		if existing.QuestionsRange == "" {
			existing.QuestionsRange = part.QuestionsRange
		}
	}

	sort.Ints(order)
	out.Parts = make([]models.Part, 0, len(order))
	for _, number := range order {
		out.Parts = append(out.Parts, *merged[number])
	}
	return out
}
