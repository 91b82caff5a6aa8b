// Package chat stores conversations and produces assistant replies
// grounded in the user's own report analyses.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/iyunix/go-medreport/internal/domain"
	chatrepo "github.com/iyunix/go-medreport/internal/repository/chat"
	messagerepo "github.com/iyunix/go-medreport/internal/repository/message"
	reportrepo "github.com/iyunix/go-medreport/internal/repository/report"
)

const defaultChatTitle = "New chat"

type Service struct {
	chats    chatrepo.ChatRepository
	messages messagerepo.MessageRepository
	reports  reportrepo.ReportRepository
	agent    Agent
	logger   Logger
}

func NewService(
	chats chatrepo.ChatRepository,
	messages messagerepo.MessageRepository,
	reports reportrepo.ReportRepository,
	agent Agent,
	logger Logger,
) *Service {
	return &Service{chats: chats, messages: messages, reports: reports, agent: agent, logger: logger}
}

// CreateChat starts an ACTIVE chat. A blank title becomes "New chat" and
// long titles are cut to the column limit. reportID, when given, must name
// one of the user's reports.
func (s *Service) CreateChat(ctx context.Context, userID, title string, reportID *string) (*domain.Chat, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("create_chat", "user_id is required")
	}
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		title = defaultChatTitle
	}
	title = truncateText(title, chatrepo.MaxTitleLength)

	if reportID != nil {
		rep, err := s.reports.FindByID(ctx, *reportID)
		if err != nil {
			return nil, NewStorageError("create_chat", "failed to look up report", err)
		}
		if rep == nil || rep.UserID != userID {
			return nil, NewValidationError("create_chat", "report_id does not name one of your reports")
		}
	}

	created, err := s.chats.Create(ctx, &domain.Chat{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    title,
		Status:   domain.ChatStatusActive,
		ReportID: reportID,
	})
	if err != nil {
		return nil, NewStorageError("create_chat", "failed to create chat", err)
	}
	s.logger.Info("chat created", "chat_id", created.ID, "user_id", userID)
	return created, nil
}

// PostUserMessage appends a USER message. With an empty chatID a new chat
// titled after the message is created first.
func (s *Service) PostUserMessage(ctx context.Context, chatID, userID, text string) (*domain.Message, error) {
	if err := validateMessage(userID, text); err != nil {
		return nil, err
	}
	var chat *domain.Chat
	var err error
	if chatID == "" {
		chat, err = s.CreateChat(ctx, userID, text, nil)
	} else {
		chat, err = s.ownedChat(ctx, "post_user_message", chatID, userID)
	}
	if err != nil {
		return nil, err
	}
	return s.appendMessage(ctx, chat, domain.MessageOwnerUser, text)
}

// PostModelMessage appends a MODEL message to an existing chat.
func (s *Service) PostModelMessage(ctx context.Context, chatID, userID, text string) (*domain.Message, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("post_model_message", "user_id is required")
	}
	chat, err := s.ownedChat(ctx, "post_model_message", chatID, userID)
	if err != nil {
		return nil, err
	}
	return s.appendMessage(ctx, chat, domain.MessageOwnerModel, text)
}

// ListMessages returns the chat's messages oldest first. A non-empty
// userID restricts the lookup to that user's chats.
func (s *Service) ListMessages(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, NewStorageError("list_messages", "failed to load chat", err)
	}
	if chat == nil || (userID != "" && chat.UserID != userID) {
		return []domain.Message{}, nil
	}
	msgs, err := s.messages.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, NewStorageError("list_messages", "failed to load messages", err)
	}
	return msgs, nil
}

// ListChats returns the user's ACTIVE chats.
func (s *Service) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("list_chats", "user_id is required")
	}
	chats, err := s.chats.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, NewStorageError("list_chats", "failed to load chats", err)
	}
	return chats, nil
}

// Converse stores the user's message, asks the agent for a reply and
// stores that too. Agent failures become apology text, so once the user
// message is stored the call only fails on storage errors.
func (s *Service) Converse(ctx context.Context, req ConverseRequest) (*ConverseResult, error) {
	if err := validateMessage(req.UserID, req.Message); err != nil {
		return nil, err
	}

	var chat *domain.Chat
	history := req.History
	if req.ChatID != "" {
		var err error
		chat, err = s.ownedChat(ctx, "converse", req.ChatID, req.UserID)
		if err != nil {
			return nil, err
		}
		stored, err := s.messages.FindByChatID(ctx, chat.ID)
		if err != nil {
			return nil, NewStorageError("converse", "failed to load history", err)
		}
		history = make([]domain.ChatTurn, len(stored))
		for i, m := range stored {
			history[i] = m.Turn()
		}
	} else {
		created, err := s.CreateChat(ctx, req.UserID, req.Message, nil)
		if err != nil {
			return nil, err
		}
		chat = created
	}

	if _, err := s.appendMessage(ctx, chat, domain.MessageOwnerUser, req.Message); err != nil {
		return nil, err
	}

	reply := s.agent.Respond(ctx, req.UserID, req.Message, history, s.pinnedAnalyses(ctx, chat)...)

	// The reply is stored even if the client has gone away.
	if _, err := s.appendMessage(context.WithoutCancel(ctx), chat, domain.MessageOwnerModel, reply); err != nil {
		return nil, err
	}
	return &ConverseResult{Reply: reply, ChatID: chat.ID}, nil
}

// DeleteChat removes the chat and its messages. It reports false when the
// chat does not exist or belongs to someone else.
func (s *Service) DeleteChat(ctx context.Context, chatID, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, NewValidationError("delete_chat", "user_id is required")
	}
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return false, NewStorageError("delete_chat", "failed to load chat", err)
	}
	if chat == nil || chat.UserID != userID {
		return false, nil
	}
	if err := s.messages.DeleteByChatID(ctx, chatID); err != nil {
		return false, NewStorageError("delete_chat", "failed to delete messages", err)
	}
	if err := s.chats.Delete(ctx, chatID, userID); err != nil {
		if errors.Is(err, chatrepo.ErrUnauthorizedAccess) {
			return false, nil
		}
		return false, NewStorageError("delete_chat", "failed to delete chat", err)
	}
	s.logger.Info("chat deleted", "chat_id", chatID, "user_id", userID)
	return true, nil
}

func (s *Service) ownedChat(ctx context.Context, op, chatID, userID string) (*domain.Chat, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, NewStorageError(op, "failed to load chat", err)
	}
	if chat == nil || chat.UserID != userID {
		s.logger.Warn("chat not found or not owned", "chat_id", chatID, "user_id", userID)
		return nil, NewNotFoundError(op, chatID, userID)
	}
	return chat, nil
}

func (s *Service) appendMessage(ctx context.Context, chat *domain.Chat, owner domain.MessageOwner, text string) (*domain.Message, error) {
	created, err := s.messages.Create(ctx, &domain.Message{
		ID:     uuid.NewString(),
		ChatID: chat.ID,
		UserID: chat.UserID,
		Body:   truncateBytes(text, messagerepo.MaxMessageLength),
		Owner:  owner,
	})
	if err != nil {
		return nil, NewStorageError("append_message", "failed to save message", err)
	}
	if err := s.chats.TouchUpdatedAt(ctx, chat.ID); err != nil {
		s.logger.Warn("failed to touch chat", "chat_id", chat.ID, "error", err)
	}
	return created, nil
}

// pinnedAnalyses returns the linked report's analysis when the chat is
// about a COMPLETED report of the same user.
func (s *Service) pinnedAnalyses(ctx context.Context, chat *domain.Chat) []domain.MedicalReportAnalysis {
	if chat.ReportID == nil {
		return nil
	}
	rep, err := s.reports.FindByID(ctx, *chat.ReportID)
	if err != nil || rep == nil || rep.UserID != chat.UserID || rep.Status != domain.ReportStatusCompleted || len(rep.Analysis) == 0 {
		return nil
	}
	var analysis domain.MedicalReportAnalysis
	if err := json.Unmarshal(rep.Analysis, &analysis); err != nil {
		s.logger.Warn("stored analysis is unreadable", "report_id", rep.ID, "error", err)
		return nil
	}
	analysis.ReportID = rep.ID
	return []domain.MedicalReportAnalysis{analysis}
}

func validateMessage(userID, text string) error {
	if strings.TrimSpace(userID) == "" {
		return NewValidationError("validate_message", "user_id is required")
	}
	if strings.TrimSpace(text) == "" {
		return NewValidationError("validate_message", "user_message is required")
	}
	if len(text) > messagerepo.MaxMessageLength {
		return NewValidationError("validate_message", "user_message is too long")
	}
	return nil
}
