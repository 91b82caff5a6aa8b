// Package retrieval finds a user's earlier report analyses that are
// semantically close to a piece of text.
package retrieval

import (
	"context"
	"strings"

	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/vector"
)

const ownerField = "user_id"

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Searcher is what callers depend on.
type Searcher interface {
	Search(ctx context.Context, userID, query string, limit int) []domain.MedicalReportAnalysis
}

type Config struct {
	ScoreThreshold float32
	DefaultLimit   int
}

func DefaultConfig() Config {
	return Config{ScoreThreshold: 0.5, DefaultLimit: 5}
}

type Service struct {
	embedder ai.EmbeddingProvider
	index    vector.Store
	config   Config
	logger   Logger
}

var _ Searcher = (*Service)(nil)

func NewService(embedder ai.EmbeddingProvider, index vector.Store, config Config, logger Logger) *Service {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 5
	}
	return &Service{embedder: embedder, index: index, config: config, logger: logger}
}

// Search never fails: a blank query, an embedding error or an index error
// all produce an empty result. Hits belonging to another user are dropped
// even if the backend returned them.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) []domain.MedicalReportAnalysis {
	if strings.TrimSpace(query) == "" || strings.TrimSpace(userID) == "" {
		return nil
	}
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}

	vec, err := s.embedder.CreateEmbedding(ctx, ai.EmbeddingRequest{Text: query, Task: ai.TaskRetrievalQuery})
	if err != nil {
		s.logger.Warn("query embedding failed, continuing without context", "user_id", userID, "error", err)
		return nil
	}

	hits, err := s.index.Search(ctx, vector.Query{
		Vector:         vec,
		Filter:         map[string]string{ownerField: userID},
		Limit:          limit,
		ScoreThreshold: s.config.ScoreThreshold,
	})
	if err != nil {
		s.logger.Warn("vector search failed, continuing without context", "user_id", userID, "error", err)
		return nil
	}

	results := make([]domain.MedicalReportAnalysis, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < s.config.ScoreThreshold {
			continue
		}
		analysis, err := domain.AnalysisFromPayload(hit.Payload)
		if err != nil {
			s.logger.Warn("skipping undecodable search hit", "point_id", hit.ID, "error", err)
			continue
		}
		if analysis.UserID != userID {
			s.logger.Error("vector index returned another user's point", "point_id", hit.ID)
			continue
		}
		results = append(results, *analysis)
		if len(results) == limit {
			break
		}
	}
	s.logger.Debug("retrieval completed", "user_id", userID, "hits", len(hits), "results", len(results))
	return results
}
