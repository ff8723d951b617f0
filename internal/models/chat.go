package models

// Conversation roles understood by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is a single message in a chat exchange.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
