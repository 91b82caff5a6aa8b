// File: internal/repository/report/interface.go
package report

import (
	"context"
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
)

// ReportRepository persists report rows. Missing rows are reported as
// (nil, nil) by the Find methods.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) (*domain.Report, error)
	FindByID(ctx context.Context, id string) (*domain.Report, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.Report, error)
	FindByIDs(ctx context.Context, userID string, ids []string) ([]domain.Report, error)
	SearchByTitle(ctx context.Context, userID, query string, limit int) ([]domain.Report, error)

	// MarkCompleted and MarkFailed only touch rows that are still PROCESSING
	// and return ErrNotProcessing otherwise.
	MarkCompleted(ctx context.Context, id, title, description string, analysis []byte) error
	MarkFailed(ctx context.Context, id string) error
	MarkIndexed(ctx context.Context, id string) error

	FindUnindexedCompleted(ctx context.Context, limit int) ([]domain.Report, error)
	FindStaleProcessing(ctx context.Context, before time.Time, limit int) ([]domain.Report, error)

	Delete(ctx context.Context, id string) (bool, error)
}
