// File: internal/repository/message/interface.go
package message

import (
	"context"

	"github.com/iyunix/go-medreport/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	// FindByChatID returns the chat's messages oldest first.
	FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
	DeleteByChatID(ctx context.Context, chatID string) error
}
