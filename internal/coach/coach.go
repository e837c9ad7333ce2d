package coach

// Turn is one prior exchange in the conversation. The client keeps the
// transcript and sends the recent turns back with each message.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

type ChatRequest struct {
	Message       string  `json:"message" validate:"required"`
	History       []Turn  `json:"history,omitempty"`
	ImageBase64   *string `json:"image_base64,omitempty"`
	ImageMimeType *string `json:"image_mime_type,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
