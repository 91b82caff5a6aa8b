// File: internal/repository/message/message_repository.go
package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
	"gorm.io/gorm"
)

const MaxMessageLength = 50000

var ErrMessageNotFound = errors.New("message not found")

type gormMessageRepository struct {
	db  *gorm.DB
	seq atomic.Int64
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	r := &gormMessageRepository{db: db}
	r.seq.Store(time.Now().UnixNano())
	return r
}

// Create stamps CreatedAt and inserts the message. Messages are immutable
// afterwards.
func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if err := r.validateMessageInput(message); err != nil {
		log.Printf("[MessageRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	rec := &messageRecord{
		ID:        message.ID,
		ChatID:    message.ChatID,
		UserID:    message.UserID,
		Body:      message.Body,
		Owner:     ownerToColumn(message.Owner),
		CreatedAt: message.CreatedAt.UTC(),
		Seq:       r.seq.Add(1),
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		log.Printf("[MessageRepository] Database error during message creation for chat %s: %v", message.ChatID, err)
		return nil, fmt.Errorf("database error creating message: %w", err)
	}

	created := rec.toDomain()
	return &created, nil
}

func (r *gormMessageRepository) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	if strings.TrimSpace(chatID) == "" {
		return []domain.Message{}, nil
	}

	var recs []messageRecord
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc, seq asc").
		Find(&recs).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error finding messages for chat %s: %v", chatID, err)
		return nil, fmt.Errorf("database error fetching messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(recs))
	for i := range recs {
		messages = append(messages, recs[i].toDomain())
	}
	return messages, nil
}

func (r *gormMessageRepository) DeleteByChatID(ctx context.Context, chatID string) error {
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&messageRecord{}).Error; err != nil {
		log.Printf("[MessageRepository] Database error deleting messages for chat %s: %v", chatID, err)
		return fmt.Errorf("database error deleting messages: %w", err)
	}
	return nil
}

func (r *gormMessageRepository) validateMessageInput(message *domain.Message) error {
	if message == nil {
		return errors.New("message cannot be nil")
	}
	if strings.TrimSpace(message.ID) == "" {
		return errors.New("message ID is required")
	}
	if strings.TrimSpace(message.ChatID) == "" {
		return errors.New("chat ID is required")
	}
	if strings.TrimSpace(message.UserID) == "" {
		return errors.New("user ID is required")
	}
	if strings.TrimSpace(message.Body) == "" {
		return errors.New("message content cannot be empty")
	}
	if len(message.Body) > MaxMessageLength {
		return fmt.Errorf("message content too long: maximum %d characters", MaxMessageLength)
	}
	if !message.Owner.Valid() {
		return fmt.Errorf("invalid message owner %q", message.Owner)
	}
	return nil
}
