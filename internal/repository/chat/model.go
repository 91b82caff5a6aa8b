package chat

import (
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
	"gorm.io/gorm"
)

type chatRecord struct {
	ID        string  `gorm:"primaryKey;size:36"`
	UserID    string  `gorm:"size:128;not null;index"`
	Title     string  `gorm:"size:512;not null"`
	Status    string  `gorm:"size:20;not null;index"`
	ReportID  *string `gorm:"size:36;index"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (chatRecord) TableName() string { return "chats" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&chatRecord{})
}

func statusToColumn(s domain.ChatStatus) string {
	return string(s)
}

func statusFromColumn(v string) domain.ChatStatus {
	s := domain.ChatStatus(v)
	if !s.Valid() {
		return ""
	}
	return s
}

func toRecord(c *domain.Chat) *chatRecord {
	return &chatRecord{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Status:    statusToColumn(c.Status),
		ReportID:  c.ReportID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (rec *chatRecord) toDomain() domain.Chat {
	return domain.Chat{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Title:     rec.Title,
		Status:    statusFromColumn(rec.Status),
		ReportID:  rec.ReportID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
