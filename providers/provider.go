package providers

import "context"

// ChatMessage is one turn of a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient is the interface every model-serving backend (e.g. Ollama) must
// implement.
type ChatClient interface {
	// Chat sends one chat-completion request and returns the assistant
	// message content verbatim.
	Chat(ctx context.Context, model string, messages []ChatMessage) (string, error)

	// ListModels returns the model names available at the endpoint.
	ListModels(ctx context.Context) ([]string, error)
}
