// File: cmd/server/providers.go
package main

import (
	"net/http"
	"time"

	"github.com/iyunix/go-medreport/internal/config"
	"github.com/iyunix/go-medreport/internal/handlers"
	"github.com/iyunix/go-medreport/internal/prompts"
	"github.com/iyunix/go-medreport/internal/ratelimit"
	"github.com/iyunix/go-medreport/internal/services"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/chat"
	"github.com/iyunix/go-medreport/internal/services/report"
	"github.com/iyunix/go-medreport/internal/services/retrieval"
	"github.com/iyunix/go-medreport/internal/services/vector"
	"github.com/iyunix/go-medreport/internal/worker"
	"gorm.io/gorm"
)

// Application aggregates everything main needs to run and stop the service.
type Application struct {
	Config     *config.Config
	Logger     services.Logger
	DB         *gorm.DB
	Router     http.Handler
	Pool       *worker.Pool
	Index      *vector.Service
	AI         *ai.OpenAIProvider
	Limiter    *ratelimit.MemoryRateLimiter
	Reconciler *report.Reconciler
}

// Logger adapters; every package declares its own Logger interface.
func ProvideAILogger(logger services.Logger) ai.Logger               { return logger }
func ProvideVectorLogger(logger services.Logger) vector.Logger       { return logger }
func ProvideWorkerLogger(logger services.Logger) worker.Logger       { return logger }
func ProvideRetrievalLogger(logger services.Logger) retrieval.Logger { return logger }
func ProvideReportLogger(logger services.Logger) report.Logger       { return logger }
func ProvideChatLogger(logger services.Logger) chat.Logger           { return logger }
func ProvideHandlersLogger(logger services.Logger) handlers.Logger   { return logger }

func ProvideAIConfig(cfg *config.Config) *ai.Config {
	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.GenAIAPIKey
	aiConfig.BaseURL = cfg.GenAIBaseURL
	aiConfig.TextModel = cfg.TextModelName
	aiConfig.EmbeddingModel = cfg.EmbeddingModelName
	aiConfig.EmbeddingDimensions = cfg.VectorSize
	return aiConfig
}

func ProvideAIProvider(aiConfig *ai.Config, logger ai.Logger) (*ai.OpenAIProvider, error) {
	return ai.NewOpenAIProvider(aiConfig, logger)
}

func ProvideVectorConfig(cfg *config.Config) *vector.Config {
	vc := vector.DefaultConfig()
	vc.Backend = cfg.VectorBackend
	vc.URL = cfg.VectorStorageURL
	vc.APIKey = cfg.VectorStorageAPIKey
	vc.Collection = cfg.CollectionName
	vc.VectorSize = cfg.VectorSize
	vc.PineconeAPIKey = cfg.PineconeAPIKey
	vc.PineconeIndexHost = cfg.PineconeIndexHost
	vc.PineconeNamespace = cfg.PineconeNamespace
	return vc
}

func ProvideWorkerPool(cfg *config.Config, logger worker.Logger) *worker.Pool {
	return worker.NewPool(worker.Options{
		Workers:       cfg.AnalysisWorkers,
		QueueSize:     cfg.AnalysisQueueSize,
		SubmitTimeout: 5 * time.Second,
	}, logger)
}

func ProvidePrompts(cfg *config.Config) (*prompts.Catalogue, error) {
	return prompts.Load(cfg.PromptsFile)
}

func ProvideRetrievalConfig(cfg *config.Config) retrieval.Config {
	rc := retrieval.DefaultConfig()
	rc.ScoreThreshold = cfg.ScoreThreshold
	rc.DefaultLimit = cfg.RetrievalTopK
	return rc
}

func ProvideReportConfig(cfg *config.Config) *report.Config {
	rc := report.DefaultConfig()
	rc.MaxImageBytes = cfg.MaxUploadBytes
	rc.ReconcileInterval = cfg.ReconcileInterval
	rc.StaleAfter = cfg.StaleProcessingAfter
	return rc
}

func ProvideChatConfig(cfg *config.Config) *chat.Config {
	cc := chat.DefaultConfig()
	cc.RetrievalTopK = cfg.RetrievalTopK
	return cc
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.MemoryRateLimiter {
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	return ratelimit.NewMemoryRateLimiter(ratelimit.PerMinuteConfig(cfg.RateLimitPerMinute))
}

func ProvideReportHandler(cfg *config.Config, pipeline *report.Pipeline, reports *report.Service, logger handlers.Logger) *handlers.ReportHandler {
	return handlers.NewReportHandler(pipeline, reports, cfg.MaxUploadBytes, logger)
}

func ProvideHealthHandler(index *vector.Service, logger handlers.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(index, logger)
}

func ProvideRouter(
	cfg *config.Config,
	reports *handlers.ReportHandler,
	chats *handlers.ChatHandler,
	health *handlers.HealthHandler,
	limiter *ratelimit.MemoryRateLimiter,
	logger handlers.Logger,
) http.Handler {
	return handlers.NewRouter(reports, chats, health, handlers.RouterOptions{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        limiter,
	}, logger)
}
