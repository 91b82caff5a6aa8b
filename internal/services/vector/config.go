// File: internal/services/vector/config.go
package vector

import (
	"errors"
	"time"
)

type Config struct {
	Backend string // qdrant, pinecone or memory

	URL        string // qdrant endpoint, e.g. http://localhost:6334
	APIKey     string
	Collection string
	VectorSize int

	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string

	// Timeout bounds one call including retries.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Backend:    "qdrant",
		Collection: "medical_reports",
		VectorSize: 768,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.VectorSize <= 0 {
		return errors.New("vector size must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	switch c.Backend {
	case "qdrant":
		if c.URL == "" {
			return errors.New("qdrant URL is required")
		}
		if c.Collection == "" {
			return errors.New("qdrant collection name is required")
		}
	case "pinecone":
		if c.PineconeAPIKey == "" {
			return errors.New("pinecone API key is required")
		}
		if c.PineconeIndexHost == "" {
			return errors.New("pinecone index host is required")
		}
	case "memory":
	default:
		return errors.New("unknown vector backend " + c.Backend)
	}
	return nil
}
