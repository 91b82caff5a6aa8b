package chat

import "github.com/iyunix/go-medreport/internal/domain"

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ConverseRequest is one turn of POST /chat.
type ConverseRequest struct {
	UserID  string
	Message string
	ChatID  string
	// History is used only when ChatID is empty; an existing chat's stored
	// messages take precedence.
	History []domain.ChatTurn
}

// ConverseResult carries the model reply and the chat it was stored in.
type ConverseResult struct {
	Reply  string
	ChatID string
}
