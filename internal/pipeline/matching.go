package pipeline

import "examtools/pkg/models"

// LinkDraggableVariants copies each part's draggable option pool, carried on
// a divider question, onto every matching question in that part so the
// frontend can render drag targets without resolving the divider itself.
func LinkDraggableVariants(doc models.ExamDocument) models.ExamDocument {
	out := cloneDocument(doc)
	for i := range out.Parts {
		part := &out.Parts[i]

		var variants []string
		for _, q := range part.Questions {
			if q.Type == models.TypeDivider && len(q.DraggableVariants) > 0 {
				variants = q.DraggableVariants
				break
			}
		}
		if len(variants) == 0 {
			continue
		}

		for j := range part.Questions {
			q := &part.Questions[j]
			if q.Type == models.TypeMatching {
				q.DraggableVariants = cloneStrings(variants)
			}
		}
	}
	return out
}
