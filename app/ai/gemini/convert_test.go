package gemini

import (
	"encoding/base64"
	"researchchat/m/v2/app/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataURI(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestConvert_History(t *testing.T) {
	messages := []models.ChatMessage{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "tool", Content: "tool output"},
		{Role: "user", Content: "second question"},
	}

	history, parts := Convert(messages)

	require.Len(t, history, 3, "system turn and newest turn are excluded")
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "first question", *history[0].Parts[0].Text)
	assert.Equal(t, "model", history[1].Role, "assistant folds into model")
	assert.Equal(t, "model", history[2].Role, "any non-user role folds into model")

	require.Len(t, parts, 1)
	assert.Equal(t, "second question", *parts[0].Text)
}

func TestConvert_EmptyMessages(t *testing.T) {
	history, parts := Convert(nil)
	assert.Empty(t, history)
	assert.Empty(t, parts)
}

func TestConvert_ImageAttachments(t *testing.T) {
	first := []byte("first image bytes")
	second := []byte("second image bytes")
	messages := []models.ChatMessage{
		{Role: "user", Content: "older turn", Files: []models.ChatFile{
			{Name: "old.png", Type: "image/png", Data: dataURI("image/png", []byte("old bytes"))},
		}},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "look at these", Files: []models.ChatFile{
			{Name: "a.png", Type: "image/png", Data: dataURI("image/png", first)},
			{Name: "b.jpeg", Type: "image/jpeg", Data: dataURI("image/jpeg", second)},
		}},
	}

	history, parts := Convert(messages)

	// attachments never leak out of the newest turn
	for _, content := range history {
		for _, part := range content.Parts {
			assert.Nil(t, part.InlineData)
		}
	}

	require.Len(t, parts, 3)
	assert.Equal(t, "look at these", *parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MimeType)
	assert.Equal(t, first, parts[1].InlineData.Data)
	require.NotNil(t, parts[2].InlineData)
	assert.Equal(t, "image/jpeg", parts[2].InlineData.MimeType)
	assert.Equal(t, second, parts[2].InlineData.Data)
}

func TestConvert_NonImageAttachmentDropped(t *testing.T) {
	payload := []byte("png bytes")
	messages := []models.ChatMessage{
		{Role: "user", Content: "files attached", Files: []models.ChatFile{
			{Name: "notes.txt", Type: "text/plain", Data: "data:text/plain;base64,aGVsbG8="},
			{Name: "fig.png", Type: "image/png", Data: dataURI("image/png", payload)},
		}},
	}

	_, parts := Convert(messages)

	require.Len(t, parts, 2)
	assert.Equal(t, "files attached", *parts[0].Text)
	assert.Equal(t, payload, parts[1].InlineData.Data)
}

func TestConvert_MalformedAttachmentSkipped(t *testing.T) {
	good := []byte("good bytes")
	messages := []models.ChatMessage{
		{Role: "user", Content: "mixed", Files: []models.ChatFile{
			{Name: "missing.png", Type: "image/png", Data: ""},
			{Name: "noprefix.png", Type: "image/png", Data: base64.StdEncoding.EncodeToString(good)},
			{Name: "nocomma.png", Type: "image/png", Data: "data:image/png;base64"},
			{Name: "badb64.png", Type: "image/png", Data: "data:image/png;base64,!!!not-base64!!!"},
			{Name: "ok.png", Type: "image/png", Data: dataURI("image/png", good)},
		}},
	}

	_, parts := Convert(messages)

	// a single bad attachment never aborts the turn
	require.Len(t, parts, 2)
	assert.Equal(t, good, parts[1].InlineData.Data)
}

func TestConvert_EmptyTextStillFirstPart(t *testing.T) {
	payload := []byte("only an image")
	messages := []models.ChatMessage{
		{Role: "user", Content: "", Files: []models.ChatFile{
			{Name: "only.png", Type: "image/png", Data: dataURI("image/png", payload)},
		}},
	}

	_, parts := Convert(messages)

	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].Text)
	assert.Equal(t, "", *parts[0].Text)
	assert.Equal(t, payload, parts[1].InlineData.Data)
}
