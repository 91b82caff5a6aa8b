// File: internal/services/vector/service.go
package vector

import (
	"context"
	"fmt"
)

// Service wraps a backend with retries and is what the rest of the
// application depends on.
type Service struct {
	store  Store
	retry  *RetryService
	logger Logger
}

var _ Store = (*Service)(nil)

func NewService(store Store, retry *RetryService, logger Logger) *Service {
	return &Service{store: store, retry: retry, logger: logger}
}

// New builds the backend selected by config.Backend wrapped in a Service.
func New(config *Config, logger Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	var store Store
	var err error
	switch config.Backend {
	case "qdrant":
		store, err = NewQdrantStore(config, logger)
	case "pinecone":
		store, err = NewPineconeStore(config, logger)
	case "memory":
		store = NewMemoryStore(config.VectorSize)
	default:
		err = NewConfigError(fmt.Sprintf("unknown vector backend %q", config.Backend))
	}
	if err != nil {
		return nil, err
	}
	return NewService(store, NewRetryService(config, logger), logger), nil
}

func (v *Service) EnsureCollection(ctx context.Context) error {
	return v.retry.RetryWithTimeout(ctx, v.store.EnsureCollection)
}

func (v *Service) Upsert(ctx context.Context, points ...Point) error {
	v.logger.Debug("upserting vectors", "count", len(points))
	return v.retry.RetryWithTimeout(ctx, func(ctx context.Context) error {
		return v.store.Upsert(ctx, points...)
	})
}

func (v *Service) Search(ctx context.Context, q Query) ([]ScoredPoint, error) {
	if len(q.Filter) == 0 {
		return nil, NewValidationError("search", "a payload filter is required")
	}
	var result []ScoredPoint
	err := v.retry.RetryWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		result, err = v.store.Search(ctx, q)
		return err
	})
	if err != nil {
		v.logger.Error("similarity search failed", "error", err)
		return nil, err
	}
	v.logger.Debug("similarity search completed", "results_count", len(result))
	return result, nil
}

func (v *Service) DeleteByField(ctx context.Context, field, value string) error {
	return v.retry.RetryWithTimeout(ctx, func(ctx context.Context) error {
		return v.store.DeleteByField(ctx, field, value)
	})
}

func (v *Service) HealthCheck(ctx context.Context) error {
	return v.store.HealthCheck(ctx)
}

func (v *Service) Close() error {
	return v.store.Close()
}

// Backend returns the wrapped store.
func (v *Service) Backend() Store {
	return v.store
}
