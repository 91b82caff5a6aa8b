// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey  string
	BaseURL string

	TextModel           string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Timeout bounds a single attempt. Retries get a fresh timeout.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Temperature float32
	TopP        float32
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return NewConfigError("GENAI_API_KEY is required")
	}
	if c.TextModel == "" {
		return NewConfigError("text model is required")
	}
	if c.EmbeddingModel == "" {
		return NewConfigError("embedding model is required")
	}
	if c.EmbeddingDimensions < 0 {
		return NewConfigError("embedding dimensions cannot be negative")
	}
	if c.Timeout <= 0 {
		return NewConfigError("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return NewConfigError(fmt.Sprintf("max retries cannot be negative, got %d", c.MaxRetries))
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:     2 * time.Minute,
		MaxRetries:  2,
		RetryDelay:  2 * time.Second,
		Temperature: 0.2,
		TopP:        0.9,
	}
}
