package models

// ChatMessage is one turn as submitted by the client.
type ChatMessage struct {
	Role    string     `json:"role"`
	Content string     `json:"content"`
	Files   []ChatFile `json:"files,omitempty"`
}

// ChatFile is an inline attachment on a turn. Name and Size are passthrough
// metadata, only Type and Data drive behavior.
type ChatFile struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
	Size int64  `json:"size,omitempty"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type ImageRequest struct {
	Prompt string `json:"prompt"`
}
