//go:build wireinject
// +build wireinject

// File: cmd/server/wire.go
package main

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/iyunix/go-medreport/internal/config"
	"github.com/iyunix/go-medreport/internal/handlers"
	chatrepo "github.com/iyunix/go-medreport/internal/repository/chat"
	messagerepo "github.com/iyunix/go-medreport/internal/repository/message"
	reportrepo "github.com/iyunix/go-medreport/internal/repository/report"
	"github.com/iyunix/go-medreport/internal/services"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/chat"
	"github.com/iyunix/go-medreport/internal/services/report"
	"github.com/iyunix/go-medreport/internal/services/retrieval"
	"github.com/iyunix/go-medreport/internal/services/vector"
	"github.com/iyunix/go-medreport/internal/worker"
)

func InitializeApplication(cfg *config.Config, logger services.Logger, db *gorm.DB) (*Application, error) {
	wire.Build(
		// Logger adapters
		ProvideAILogger,
		ProvideVectorLogger,
		ProvideWorkerLogger,
		ProvideRetrievalLogger,
		ProvideReportLogger,
		ProvideChatLogger,
		ProvideHandlersLogger,

		// AI
		ProvideAIConfig,
		ProvideAIProvider,
		wire.Bind(new(ai.VisionProvider), new(*ai.OpenAIProvider)),
		wire.Bind(new(ai.EmbeddingProvider), new(*ai.OpenAIProvider)),
		wire.Bind(new(ai.CompletionProvider), new(*ai.OpenAIProvider)),

		// Vector index
		ProvideVectorConfig,
		vector.New,
		wire.Bind(new(vector.Store), new(*vector.Service)),

		// Workers and prompts
		ProvideWorkerPool,
		wire.Bind(new(report.JobSubmitter), new(*worker.Pool)),
		ProvidePrompts,

		// Repositories
		reportrepo.NewReportRepository,
		chatrepo.NewChatRepository,
		messagerepo.NewMessageRepository,

		// Services
		ProvideRetrievalConfig,
		retrieval.NewService,
		wire.Bind(new(retrieval.Searcher), new(*retrieval.Service)),
		ProvideReportConfig,
		report.NewPipeline,
		report.NewService,
		report.NewReconciler,
		ProvideChatConfig,
		chat.NewRAGAgent,
		wire.Bind(new(chat.Agent), new(*chat.RAGAgent)),
		chat.NewService,
		wire.Bind(new(handlers.ChatService), new(*chat.Service)),

		// HTTP
		ProvideRateLimiter,
		ProvideReportHandler,
		handlers.NewChatHandler,
		ProvideHealthHandler,
		ProvideRouter,

		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
