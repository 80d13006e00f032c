// https://ai.google.dev/api/generate-content
package models

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart carries exactly one of Text or InlineData. Text is a pointer so
// an empty text part still serializes as {"text": ""}.
type GeminiPart struct {
	Text       *string           `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inline_data,omitempty"`
}

// GeminiInlineData holds raw image bytes, base64-encoded on the wire by
// encoding/json.
type GeminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

func TextPart(text string) GeminiPart {
	return GeminiPart{Text: &text}
}

type GeminiRequest struct {
	SystemInstruction *GeminiContent  `json:"system_instruction,omitempty"`
	Contents          []GeminiContent `json:"contents"`
}

type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

type GeminiCandidate struct {
	Content GeminiContent `json:"content"`
}

type GeminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
