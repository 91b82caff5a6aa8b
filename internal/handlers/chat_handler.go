// File: internal/handlers/chat_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/dtos"
	"github.com/iyunix/go-medreport/internal/services/chat"
)

const maxChatBodyBytes = 1 << 20

type ChatService interface {
	Converse(ctx context.Context, req chat.ConverseRequest) (*chat.ConverseResult, error)
	ListMessages(ctx context.Context, chatID, userID string) ([]domain.Message, error)
	ListChats(ctx context.Context, userID string) ([]domain.Chat, error)
	CreateChat(ctx context.Context, userID, title string, reportID *string) (*domain.Chat, error)
	DeleteChat(ctx context.Context, chatID, userID string) (bool, error)
}

type ChatHandler struct {
	chats  ChatService
	agent  chat.Agent
	logger Logger
}

func NewChatHandler(chats ChatService, agent chat.Agent, logger Logger) *ChatHandler {
	return &ChatHandler{chats: chats, agent: agent, logger: logger}
}

// HandleChatMessage handles POST /chat.
func (h *ChatHandler) HandleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req dtos.ChatRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID, true)
	if !ok {
		return
	}
	chatID := ""
	if req.ChatID != nil {
		chatID = *req.ChatID
	}

	res, err := h.chats.Converse(r.Context(), chat.ConverseRequest{
		UserID:  userID,
		Message: req.UserMessage,
		ChatID:  chatID,
		History: req.ChatHistory,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos.ChatReplyDTO{Data: res.Reply, ChatID: res.ChatID})
}

// HandleStatelessChat handles POST /report/chat: the agent answers from
// the supplied history without storing anything.
func (h *ChatHandler) HandleStatelessChat(w http.ResponseWriter, r *http.Request) {
	var req dtos.ChatRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID, true)
	if !ok {
		return
	}
	if req.UserMessage == "" {
		writeError(w, "user_message is required", http.StatusBadRequest)
		return
	}
	reply := h.agent.Respond(r.Context(), userID, req.UserMessage, req.ChatHistory)
	writeData(w, http.StatusOK, dtos.ChatReplyDTO{Data: reply})
}

// GetChatMessages handles GET /chat/{chat_id}.
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), false)
	if !ok {
		return
	}
	msgs, err := h.chats.ListMessages(r.Context(), mux.Vars(r)["chat_id"], userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos.FromMessages(msgs))
}

// GetUserChats handles GET /chat?user_id=.
func (h *ChatHandler) GetUserChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), true)
	if !ok {
		return
	}
	chats, err := h.chats.ListChats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos.FromChats(chats))
}

// CreateChat handles POST /chat/create.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateChatRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID, true)
	if !ok {
		return
	}
	created, err := h.chats.CreateChat(r.Context(), userID, req.Title, req.ReportID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos.FromChat(*created))
}

// DeleteChat handles DELETE /chat/{chat_id}?user_id=.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), true)
	if !ok {
		return
	}
	deleted, err := h.chats.DeleteChat(r.Context(), mux.Vars(r)["chat_id"], userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, deleted)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, "Bad Request: invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
