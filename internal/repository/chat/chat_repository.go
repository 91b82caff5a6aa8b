// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iyunix/go-medreport/internal/domain"
	"gorm.io/gorm"
)

var ErrChatNotFound = errors.New("chat not found")
var ErrUnauthorizedAccess = errors.New("unauthorized access to chat")

const MaxTitleLength = 200

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// Create validates and inserts a chat. An empty status becomes ACTIVE.
func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if chat != nil && chat.Status == "" {
		chat.Status = domain.ChatStatusActive
	}
	if err := r.validateChatInput(chat); err != nil {
		log.Printf("[ChatRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now

	rec := toRecord(chat)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		log.Printf("[ChatRepository] Database error during chat creation for user %s: %v", chat.UserID, err)
		return nil, fmt.Errorf("database error creating chat: %w", err)
	}

	log.Printf("[ChatRepository] Chat created successfully with ID: %s for user: %s", rec.ID, rec.UserID)
	created := rec.toDomain()
	return &created, nil
}

// FindByID returns (nil, nil) when the chat does not exist.
func (r *gormChatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, nil
	}
	var rec chatRecord
	err := r.db.WithContext(ctx).Where("id = ?", chatID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("[ChatRepository] Database error in FindByID: %v", err)
		return nil, fmt.Errorf("database error fetching chat: %w", err)
	}
	chat := rec.toDomain()
	return &chat, nil
}

// FindActiveByUserID lists ACTIVE chats, most recently used first.
func (r *gormChatRepository) FindActiveByUserID(ctx context.Context, userID string) ([]domain.Chat, error) {
	var recs []chatRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, statusToColumn(domain.ChatStatusActive)).
		Order("updated_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error finding chats for user %s: %v", userID, err)
		return nil, fmt.Errorf("database error fetching chats: %w", err)
	}

	chats := make([]domain.Chat, 0, len(recs))
	for i := range recs {
		chats = append(chats, recs[i].toDomain())
	}
	return chats, nil
}

func (r *gormChatRepository) TouchUpdatedAt(ctx context.Context, chatID string) error {
	result := r.db.WithContext(ctx).
		Model(&chatRecord{}).
		Where("id = ?", chatID).
		Update("updated_at", time.Now().UTC())
	if result.Error != nil {
		log.Printf("[ChatRepository] Database error updating timestamp for chat %s: %v", chatID, result.Error)
		return fmt.Errorf("database error updating chat timestamp: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *gormChatRepository) Delete(ctx context.Context, chatID, userID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		Delete(&chatRecord{})
	if result.Error != nil {
		log.Printf("[ChatRepository] Database error deleting chat %s for user %s: %v", chatID, userID, result.Error)
		return fmt.Errorf("database error deleting chat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUnauthorizedAccess
	}
	return nil
}

func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return errors.New("chat cannot be nil")
	}
	if strings.TrimSpace(chat.ID) == "" {
		return errors.New("chat ID is required")
	}
	if strings.TrimSpace(chat.UserID) == "" {
		return errors.New("user ID is required")
	}
	if strings.TrimSpace(chat.Title) == "" {
		return errors.New("chat title cannot be empty")
	}
	if utf8.RuneCountInString(chat.Title) > MaxTitleLength {
		return fmt.Errorf("chat title too long: maximum %d characters", MaxTitleLength)
	}
	if !chat.Status.Valid() {
		return fmt.Errorf("invalid chat status %q", chat.Status)
	}
	return nil
}
