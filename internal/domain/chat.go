package domain

// ChatMessage is the provider-agnostic chat message shape used by the
// smalltalk skill and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
