// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var errAttemptTimeout = errors.New("attempt timed out")

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// OpenAIProvider talks to any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	config *Config
	client *openai.Client
	logger Logger
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(config *Config, logger Logger) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{}

	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

func (p *OpenAIProvider) CreateEmbedding(ctx context.Context, req EmbeddingRequest) ([]float32, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, NewValidationError("embedding", "text cannot be empty")
	}

	request := openai.EmbeddingRequest{
		Input:      []string{FormatEmbeddingInput(req)},
		Model:      openai.EmbeddingModel(p.config.EmbeddingModel),
		Dimensions: p.config.EmbeddingDimensions,
	}

	var vector []float32
	err := p.retryWithTimeout(ctx, "embedding", p.config.EmbeddingModel, func(ctx context.Context) error {
		resp, err := p.client.CreateEmbeddings(ctx, request)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return &AIError{Type: ErrTypeProvider, Operation: "embedding", Model: p.config.EmbeddingModel, Message: "empty embedding response"}
		}
		vector = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.config.EmbeddingDimensions > 0 && len(vector) != p.config.EmbeddingDimensions {
		return nil, NewValidationError("embedding",
			fmt.Sprintf("expected %d dimensions, got %d", p.config.EmbeddingDimensions, len(vector)))
	}
	return vector, nil
}

func (p *OpenAIProvider) GetCompletion(ctx context.Context, model, prompt string) (string, error) {
	return p.chat(ctx, "completion", model, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

// AnalyzeImage sends the prompt and the image inline as a data URL.
func (p *OpenAIProvider) AnalyzeImage(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", NewValidationError("vision", "image cannot be empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	return p.chat(ctx, "vision", model, []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		},
	})
}

func (p *OpenAIProvider) chat(ctx context.Context, operation, model string, messages []openai.ChatCompletionMessage) (string, error) {
	if model == "" {
		model = p.config.TextModel
	}
	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: p.config.Temperature,
		TopP:        p.config.TopP,
	}

	var text string
	err := p.retryWithTimeout(ctx, operation, model, func(ctx context.Context) error {
		resp, err := p.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return err
		}
		text, _ = ResponseText(resp)
		return nil
	})
	return text, err
}

// HealthCheck embeds a short probe string.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	_, err := p.CreateEmbedding(ctx, EmbeddingRequest{Text: "health check"})
	return err
}

// retryWithTimeout runs call with a per-attempt timeout and retries
// transient failures with a fixed delay.
func (p *OpenAIProvider) retryWithTimeout(ctx context.Context, operation, model string, call func(ctx context.Context) error) error {
	var lastErr *AIError
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Debug("retrying AI request", "operation", operation, "attempt", attempt)
			select {
			case <-ctx.Done():
				return classify(operation, model, ctx.Err())
			case <-time.After(p.config.RetryDelay):
			}
		}

		attemptCtx, cancel := context.WithTimeoutCause(ctx, p.config.Timeout, errAttemptTimeout)
		err := call(attemptCtx)
		if err != nil && errors.Is(context.Cause(attemptCtx), errAttemptTimeout) {
			err = fmt.Errorf("%w: %w", errAttemptTimeout, err)
		}
		cancel()

		if err == nil {
			if attempt > 0 {
				p.logger.Info("AI request succeeded after retry", "operation", operation, "attempts", attempt+1)
			}
			return nil
		}

		lastErr = classify(operation, model, err)
		if ctx.Err() != nil || !lastErr.Retryable() {
			break
		}
		if attempt < p.config.MaxRetries {
			p.logger.Warn("AI request failed, retrying", "operation", operation, "attempt", attempt+1, "error", err)
		}
	}

	p.logger.Error("AI request failed", "operation", operation, "model", model, "error", lastErr)
	return lastErr
}
