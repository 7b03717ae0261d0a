package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"examtools/pkg/models"
)

// InjectMapImages inserts an image question ahead of each part's first
// map-labelling question, pointing at the first uploaded image classified
// as a map. Parts that already carry an image question before their
// map-labelling block are left alone.
func InjectMapImages(doc models.ExamDocument, images []models.UploadedImage) models.ExamDocument {
	mapURL := ""
	for _, img := range images {
		if img.IsMap {
			mapURL = img.URL
			break
		}
	}
	if mapURL == "" {
		return doc
	}

	out := cloneDocument(doc)
	for i := range out.Parts {
		part := &out.Parts[i]
		target := -1
		for j, q := range part.Questions {
			if q.Type == models.TypeImage {
				// An image already precedes any map-labelling question.
				target = -1
				break
			}
			if q.Type == models.TypeMapLabelling {
				target = j
				break
			}
		}
		if target < 0 {
			continue
		}

		image := models.Question{
			QuestionID:    fmt.Sprintf("%s-%s-%d-map", strings.ToLower(out.Section), out.Test, part.Part),
			Type:          models.TypeImage,
			InputType:     models.InputText,
			URL:           mapURL,
			IsInteractive: boolPtr(false),
		}
		questions := make([]models.Question, 0, len(part.Questions)+1)
		questions = append(questions, part.Questions[:target]...)
		questions = append(questions, image)
		questions = append(questions, part.Questions[target:]...)
		part.Questions = questions
	}
	return out
}

// materializeInlineImages persists base64 image payloads the model embedded
// in image questions and swaps them for a served URL. Failures leave the
// payload in place so nothing is lost.
func (p *Pipeline) materializeInlineImages(ctx context.Context, doc models.ExamDocument) models.ExamDocument {
	out := cloneDocument(doc)
	for i := range out.Parts {
		for j := range out.Parts[i].Questions {
			q := &out.Parts[i].Questions[j]
			if q.Type != models.TypeImage || q.ImageData == "" {
				continue
			}
			if p.store == nil {
				p.log.Warn().
					Str("question_id", q.QuestionID).
					Msg("No image store configured, leaving inline image data in place")
				continue
			}

			payload := q.ImageData
			ext := ".png"
			if idx := strings.Index(payload, ";base64,"); idx >= 0 && strings.HasPrefix(payload, "data:") {
				if mediaType := payload[len("data:"):idx]; strings.HasPrefix(mediaType, "image/jpeg") {
					ext = ".jpg"
				}
				payload = payload[idx+len(";base64,"):]
			}

			data, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				p.log.Warn().
					Err(err).
					Str("question_id", q.QuestionID).
					Msg("Failed to decode inline image data")
				continue
			}
			url, err := p.store.StoreBytes(ctx, data, ext)
			if err != nil {
				p.log.Warn().
					Err(err).
					Str("question_id", q.QuestionID).
					Msg("Failed to store inline image")
				continue
			}
			q.URL = url
			q.ImageData = ""
		}
	}
	return out
}
