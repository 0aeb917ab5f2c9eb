package services

import "context"

// ChatMessage is one turn of a conversation sent to the AI collaborator
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatOptions tunes a single SendChat call. Zero values use configured defaults.
type ChatOptions struct {
	Model  string `json:"model,omitempty"`
	System string `json:"system,omitempty"`
}

// ImageDescription is the vision collaborator's answer
type ImageDescription struct {
	Description string `json:"description"`
	Model       string `json:"model"`
}

// ChatSender sends a conversation and returns the reply text.
// Fails with domain.TimeoutError, RateLimitedError, UpstreamError or
// MalformedResponseError.
type ChatSender interface {
	SendChat(ctx context.Context, clientKey string, messages []ChatMessage, opts ChatOptions) (string, error)
}

// ImageDescriber reads an image (data URL) and describes it.
// Adds domain.InvalidImageFormatError to the ChatSender failure kinds.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, clientKey, dataURL, prompt string) (*ImageDescription, error)
}
