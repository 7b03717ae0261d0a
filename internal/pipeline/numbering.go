package pipeline

import (
	"strconv"
	"strings"

	"examtools/pkg/models"
)

// EnforceNumbering overwrites question numbers with the canonical scheme:
// part p (0-based) holds questions 10p+1 through 10p+n, counted over real
// questions only. Dividers and images occupy no number, so injected images
// never shift the sequence. Question IDs are rewritten to end in the new
// position within the part.
func EnforceNumbering(doc models.ExamDocument) models.ExamDocument {
	out := cloneDocument(doc)
	for p := range out.Parts {
		part := &out.Parts[p]
		i := 0
		for j := range part.Questions {
			q := &part.Questions[j]
			if q.Type == models.TypeDivider || q.Type == models.TypeImage {
				continue
			}
			q.Number = 10*p + i + 1
			q.QuestionID = rewriteIDIndex(q.QuestionID, i+1)
			i++
		}
	}
	return out
}

// rewriteIDIndex replaces the trailing segment of a section-test-part-index
// style ID with the given index. IDs that do not follow the scheme are left
// untouched.
func rewriteIDIndex(id string, index int) string {
	segments := strings.Split(id, "-")
	if len(segments) < 4 {
		return id
	}
	if _, err := strconv.Atoi(segments[len(segments)-1]); err != nil {
		return id
	}
	segments[len(segments)-1] = strconv.Itoa(index)
	return strings.Join(segments, "-")
}
