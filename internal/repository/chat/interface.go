package chat

import (
	"context"

	"github.com/iyunix/go-medreport/internal/domain"
)

// ChatRepository handles chat data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id string) (*domain.Chat, error)
	FindActiveByUserID(ctx context.Context, userID string) ([]domain.Chat, error)
	TouchUpdatedAt(ctx context.Context, chatID string) error
	Delete(ctx context.Context, chatID, userID string) error
}
