package report

import (
	"fmt"
	"time"
)

type Config struct {
	// VisionModel is passed to the vision provider; empty selects the
	// provider's default text model.
	VisionModel   string
	MaxImageBytes int64

	ReconcileInterval time.Duration // 0 disables the reconciler
	StaleAfter        time.Duration // 0 disables the stale PROCESSING sweep
	ReconcileBatch    int

	SearchLimit int
}

func (c *Config) Validate() error {
	if c.MaxImageBytes < 0 {
		return fmt.Errorf("max_image_bytes cannot be negative")
	}
	if c.ReconcileBatch <= 0 {
		return fmt.Errorf("reconcile_batch must be positive")
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("search_limit must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		MaxImageBytes:     10 << 20,
		ReconcileInterval: 5 * time.Minute,
		StaleAfter:        30 * time.Minute,
		ReconcileBatch:    50,
		SearchLimit:       20,
	}
}
