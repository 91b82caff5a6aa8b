package chat

import (
	"context"
	"strings"

	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/prompts"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/retrieval"
)

const (
	// NoResponseReply is returned when the model answers without text.
	NoResponseReply = "I'm sorry, I couldn't generate a response to that. Please try rephrasing your question."
	// FailureReply is returned when generation fails.
	FailureReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
)

// RAGAgent answers with the user's most relevant report analyses in the
// prompt.
type RAGAgent struct {
	llm       ai.CompletionProvider
	retrieval retrieval.Searcher
	prompts   *prompts.Catalogue
	config    *Config
	logger    Logger
}

var _ Agent = (*RAGAgent)(nil)

func NewRAGAgent(llm ai.CompletionProvider, searcher retrieval.Searcher, catalogue *prompts.Catalogue, config *Config, logger Logger) *RAGAgent {
	return &RAGAgent{llm: llm, retrieval: searcher, prompts: catalogue, config: config, logger: logger}
}

func (a *RAGAgent) Respond(ctx context.Context, userID, message string, history []domain.ChatTurn, pinned ...domain.MedicalReportAnalysis) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("agent panicked", "user_id", userID, "panic", r)
			reply = FailureReply
		}
	}()

	retrieved := a.retrieval.Search(ctx, userID, message, a.config.RetrievalTopK)
	reports := mergeAnalyses(pinned, retrieved)
	a.logger.Info("building chat prompt", "user_id", userID, "history_turns", len(history), "pinned", len(pinned), "retrieved", len(retrieved))

	prompt, err := a.prompts.RenderChat(prompts.ChatData{
		History: renderHistory(history, a.config.HistoryMaxTurns, a.config.TurnMaxRunes),
		Context: renderReports(reports, a.prompts.NoReports),
		UserID:  userID,
		Message: sanitizeForPrompt(message),
	})
	if err != nil {
		a.logger.Error("failed to render chat prompt", "error", err)
		return FailureReply
	}

	genCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	text, err := a.llm.GetCompletion(genCtx, a.config.ChatModel, prompt)
	if err != nil {
		a.logger.Error("chat generation failed", "user_id", userID, "error", err)
		return FailureReply
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Warn("model returned no text", "user_id", userID)
		return NoResponseReply
	}
	return text
}
