// File: internal/domain/message.go
package domain

import "time"

// MessageOwner says who authored a message.
type MessageOwner string

const (
	MessageOwnerUser  MessageOwner = "USER"
	MessageOwnerModel MessageOwner = "MODEL"
)

func (o MessageOwner) Valid() bool {
	return o == MessageOwnerUser || o == MessageOwnerModel
}

// Message represents a single message within a chat. Messages are never
// edited after creation.
type Message struct {
	ID        string
	ChatID    string
	UserID    string
	Body      string
	Owner     MessageOwner
	CreatedAt time.Time
}

// Role values used in chat history turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatTurn is one entry of conversation history handed to the agent.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn converts a stored message into a history entry.
func (m Message) Turn() ChatTurn {
	role := RoleModel
	if m.Owner == MessageOwnerUser {
		role = RoleUser
	}
	return ChatTurn{Role: role, Content: m.Body}
}
