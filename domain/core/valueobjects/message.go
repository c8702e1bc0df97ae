package valueobjects

import "errors"

// MessageRole identifies the author of a chat message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is a single entry in a node's chat transcript
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewChatMessage creates a chat message with role validation
func NewChatMessage(role MessageRole, content string) (ChatMessage, error) {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return ChatMessage{}, errors.New("invalid message role")
	}
	if content == "" {
		return ChatMessage{}, errors.New("message content cannot be empty")
	}
	return ChatMessage{Role: role, Content: content}, nil
}
