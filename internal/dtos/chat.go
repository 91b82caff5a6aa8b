// File: internal/dtos/chat.go
package dtos

import (
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
)

// ChatRequestDTO is the body of POST /chat.
type ChatRequestDTO struct {
	UserID      string            `json:"user_id"`
	UserMessage string            `json:"user_message"`
	ChatID      *string           `json:"chat_id,omitempty"`
	ChatHistory []domain.ChatTurn `json:"chat_history,omitempty"`
}

// ChatReplyDTO is the data of a chat reply. ChatID is omitted for
// stateless replies.
type ChatReplyDTO struct {
	Data   string `json:"data"`
	ChatID string `json:"chat_id,omitempty"`
}

// CreateChatRequestDTO is the body of POST /chat/create.
type CreateChatRequestDTO struct {
	UserID   string  `json:"user_id"`
	Title    string  `json:"title"`
	ReportID *string `json:"report_id,omitempty"`
}

type ChatResponseDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Title     string  `json:"title"`
	Status    *string `json:"status"`
	ReportID  *string `json:"report_id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// MessageResponseDTO carries the raw body and, for model replies, the body
// rendered from markdown to HTML.
type MessageResponseDTO struct {
	ID        string  `json:"id"`
	ChatID    string  `json:"chat_id"`
	UserID    string  `json:"user_id"`
	Message   string  `json:"message"`
	Owner     *string `json:"owner"`
	HTML      string  `json:"html,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func FromChat(c domain.Chat) ChatResponseDTO {
	var status *string
	if c.Status.Valid() {
		s := string(c.Status)
		status = &s
	}
	return ChatResponseDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Status:    status,
		ReportID:  c.ReportID,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func FromChats(chats []domain.Chat) []ChatResponseDTO {
	out := make([]ChatResponseDTO, len(chats))
	for i, c := range chats {
		out[i] = FromChat(c)
	}
	return out
}

func FromMessage(m domain.Message) MessageResponseDTO {
	dto := MessageResponseDTO{
		ID:        m.ID,
		ChatID:    m.ChatID,
		UserID:    m.UserID,
		Message:   m.Body,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if m.Owner.Valid() {
		o := string(m.Owner)
		dto.Owner = &o
	}
	if m.Owner == domain.MessageOwnerModel {
		dto.HTML = RenderMarkdown(m.Body)
	}
	return dto
}

func FromMessages(msgs []domain.Message) []MessageResponseDTO {
	out := make([]MessageResponseDTO, len(msgs))
	for i, m := range msgs {
		out[i] = FromMessage(m)
	}
	return out
}
