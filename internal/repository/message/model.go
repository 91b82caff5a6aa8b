package message

import (
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
	"gorm.io/gorm"
)

type messageRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ChatID    string    `gorm:"size:36;not null;index:idx_messages_chat_created,priority:1"`
	UserID    string    `gorm:"size:128;not null"`
	Body      string    `gorm:"column:message;type:text;not null"`
	Owner     string    `gorm:"size:10;not null"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created,priority:2"`
	// Seq breaks ties between messages created within the same clock tick.
	Seq int64 `gorm:"not null;default:0"`
}

func (messageRecord) TableName() string { return "messages" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&messageRecord{})
}

func ownerToColumn(o domain.MessageOwner) string {
	return string(o)
}

func ownerFromColumn(v string) domain.MessageOwner {
	o := domain.MessageOwner(v)
	if !o.Valid() {
		return ""
	}
	return o
}

func (rec *messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:        rec.ID,
		ChatID:    rec.ChatID,
		UserID:    rec.UserID,
		Body:      rec.Body,
		Owner:     ownerFromColumn(rec.Owner),
		CreatedAt: rec.CreatedAt,
	}
}
