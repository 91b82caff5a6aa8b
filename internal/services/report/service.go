package report

import (
	"context"
	"strings"

	"github.com/iyunix/go-medreport/internal/domain"
	reportrepo "github.com/iyunix/go-medreport/internal/repository/report"
	"github.com/iyunix/go-medreport/internal/services/retrieval"
	"github.com/iyunix/go-medreport/internal/services/vector"
)

// Service is the read side of reports plus delete.
type Service struct {
	reports   reportrepo.ReportRepository
	index     vector.Store
	retrieval retrieval.Searcher
	config    *Config
	logger    Logger
}

func NewService(reports reportrepo.ReportRepository, index vector.Store, searcher retrieval.Searcher, config *Config, logger Logger) *Service {
	return &Service{reports: reports, index: index, retrieval: searcher, config: config, logger: logger}
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Report, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewInvalidInputError("list", "user_id is required")
	}
	return s.reports.FindByUserID(ctx, userID)
}

// Get returns nil without error when the report does not exist.
func (s *Service) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.reports.FindByID(ctx, id)
}

// Search returns title substring matches first, then reports whose indexed
// analysis is semantically close to the query. A blank query matches
// nothing.
func (s *Service) Search(ctx context.Context, userID, query string) ([]domain.Report, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewInvalidInputError("search", "user_id is required")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Report{}, nil
	}

	byTitle, err := s.reports.SearchByTitle(ctx, userID, query, s.config.SearchLimit)
	if err != nil {
		return nil, err
	}
	results := make([]domain.Report, 0, len(byTitle))
	seen := make(map[string]bool, len(byTitle))
	for _, r := range byTitle {
		seen[r.ID] = true
		results = append(results, r)
	}
	if len(results) >= s.config.SearchLimit || s.retrieval == nil {
		return results, nil
	}

	var ids []string
	for _, a := range s.retrieval.Search(ctx, userID, query, s.config.SearchLimit) {
		if a.ReportID == "" || seen[a.ReportID] {
			continue
		}
		seen[a.ReportID] = true
		ids = append(ids, a.ReportID)
	}
	if len(ids) == 0 {
		return results, nil
	}

	semantic, err := s.reports.FindByIDs(ctx, userID, ids)
	if err != nil {
		s.logger.Warn("semantic search lookup failed, returning title matches", "user_id", userID, "error", err)
		return results, nil
	}
	byID := make(map[string]domain.Report, len(semantic))
	for _, r := range semantic {
		byID[r.ID] = r
	}
	for _, id := range ids {
		if r, ok := byID[id]; ok && len(results) < s.config.SearchLimit {
			results = append(results, r)
		}
	}
	return results, nil
}

// Delete removes the report row and its vector points. When userID is
// non-empty the report must belong to that user; a mismatch looks like a
// missing report. Vector cleanup is best effort.
func (s *Service) Delete(ctx context.Context, id, userID string) (bool, error) {
	if userID != "" {
		existing, err := s.reports.FindByID(ctx, id)
		if err != nil {
			return false, err
		}
		if existing == nil || existing.UserID != userID {
			return false, nil
		}
	}

	deleted, err := s.reports.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	if err := s.index.DeleteByField(ctx, reportIDField, id); err != nil {
		s.logger.Warn("could not delete vector points for report", "report_id", id, "error", err)
	}
	return true, nil
}
