// File: internal/domain/chat.go
package domain

import "time"

type ChatStatus string

const (
	ChatStatusActive   ChatStatus = "ACTIVE"
	ChatStatusArchived ChatStatus = "ARCHIVED"
)

func (s ChatStatus) Valid() bool {
	return s == ChatStatusActive || s == ChatStatusArchived
}

// Chat represents a single conversation thread.
type Chat struct {
	ID        string
	UserID    string
	Title     string
	Status    ChatStatus
	ReportID  *string // optional report the conversation is about
	CreatedAt time.Time
	UpdatedAt time.Time
}
