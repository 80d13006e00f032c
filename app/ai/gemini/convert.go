package gemini

import (
	"encoding/base64"
	"researchchat/m/v2/app/models"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Convert splits submitted turns into the role-normalized history and the
// newest turn's content parts. System turns are excluded from history and any
// non-user role folds into "model". Attachments are only ever read off the
// newest turn, text first, images after, both in submission order.
func Convert(messages []models.ChatMessage) ([]models.GeminiContent, []models.GeminiPart) {
	if len(messages) == 0 {
		return []models.GeminiContent{}, []models.GeminiPart{}
	}

	last := messages[len(messages)-1]

	history := []models.GeminiContent{}
	for _, message := range messages[:len(messages)-1] {
		if message.Role == "system" {
			continue
		}
		role := "model"
		if message.Role == "user" {
			role = "user"
		}
		history = append(history, models.GeminiContent{
			Role:  role,
			Parts: []models.GeminiPart{models.TextPart(message.Content)},
		})
	}

	parts := []models.GeminiPart{models.TextPart(last.Content)}
	for _, file := range last.Files {
		if !strings.HasPrefix(file.Type, "image/") {
			continue
		}
		data, ok := decodeImageDataURI(file.Data)
		if !ok {
			// a single bad attachment never aborts the turn
			log.Warnf("invalid or missing base64 data for file: %s", file.Name)
			continue
		}
		parts = append(parts, models.GeminiPart{
			InlineData: &models.GeminiInlineData{
				MimeType: file.Type,
				Data:     data,
			},
		})
	}

	return history, parts
}

func decodeImageDataURI(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "data:image") {
		return nil, false
	}
	comma := strings.Index(s, ",")
	if comma < 0 {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, false
	}
	return data, true
}
