// File: internal/repository/report/report_repository.go
package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrNotProcessing  = errors.New("report is no longer processing")
)

const maxListLimit = 500

type gormReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &gormReportRepository{db: db}
}

// Create inserts a new report. The caller supplies ID and status.
func (r *gormReportRepository) Create(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	if err := validateReportInput(report); err != nil {
		log.Printf("[ReportRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.CreatedAt = report.CreatedAt.UTC()
	report.UpdatedAt = now

	rec := toRecord(report)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		log.Printf("[ReportRepository] Database error creating report for user %s: %v", report.UserID, err)
		return nil, fmt.Errorf("database error creating report: %w", err)
	}

	created := rec.toDomain()
	return &created, nil
}

func (r *gormReportRepository) FindByID(ctx context.Context, id string) (*domain.Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var rec reportRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("[ReportRepository] Database error finding report %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching report: %w", err)
	}
	report := rec.toDomain()
	return &report, nil
}

// FindByUserID returns the user's reports, newest first.
func (r *gormReportRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Report, error) {
	var recs []reportRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(maxListLimit).
		Find(&recs).Error
	if err != nil {
		log.Printf("[ReportRepository] Database error listing reports for user %s: %v", userID, err)
		return nil, fmt.Errorf("database error fetching reports: %w", err)
	}
	return toDomainList(recs), nil
}

// FindByIDs loads the given reports of one user, preserving the order of ids.
func (r *gormReportRepository) FindByIDs(ctx context.Context, userID string, ids []string) ([]domain.Report, error) {
	if len(ids) == 0 {
		return []domain.Report{}, nil
	}
	var recs []reportRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("database error fetching reports: %w", err)
	}

	byID := make(map[string]reportRecord, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
	}
	out := make([]domain.Report, 0, len(recs))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec.toDomain())
			delete(byID, id)
		}
	}
	return out, nil
}

// SearchByTitle matches a case-insensitive substring of the title.
func (r *gormReportRepository) SearchByTitle(ctx context.Context, userID, query string, limit int) ([]domain.Report, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Report{}, nil
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	var recs []reportRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(title) LIKE ? ESCAPE '\\'", userID, "%"+escapeLike(strings.ToLower(query))+"%").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		log.Printf("[ReportRepository] Database error searching reports for user %s: %v", userID, err)
		return nil, fmt.Errorf("database error searching reports: %w", err)
	}
	return toDomainList(recs), nil
}

func (r *gormReportRepository) MarkCompleted(ctx context.Context, id, title, description string, analysis []byte) error {
	updates := map[string]interface{}{
		"status":      statusToColumn(domain.ReportStatusCompleted),
		"title":       title,
		"description": description,
		"updated_at":  time.Now().UTC(),
	}
	if len(analysis) > 0 {
		updates["analysis"] = string(analysis)
	}
	return r.transition(ctx, id, updates)
}

func (r *gormReportRepository) MarkFailed(ctx context.Context, id string) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":     statusToColumn(domain.ReportStatusFailed),
		"updated_at": time.Now().UTC(),
	})
}

// transition applies updates only while the row is PROCESSING, which keeps
// the status change single-shot.
func (r *gormReportRepository) transition(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&reportRecord{}).
		Where("id = ? AND status = ?", id, statusToColumn(domain.ReportStatusProcessing)).
		Updates(updates)
	if result.Error != nil {
		log.Printf("[ReportRepository] Database error updating report %s: %v", id, result.Error)
		return fmt.Errorf("database error updating report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrReportNotFound
		}
		return ErrNotProcessing
	}
	return nil
}

func (r *gormReportRepository) MarkIndexed(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&reportRecord{}).
		Where("id = ?", id).
		Update("indexed", true)
	if result.Error != nil {
		return fmt.Errorf("database error updating report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *gormReportRepository) FindUnindexedCompleted(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var recs []reportRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND indexed = ? AND analysis IS NOT NULL", statusToColumn(domain.ReportStatusCompleted), false).
		Order("updated_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("database error fetching unindexed reports: %w", err)
	}
	return toDomainList(recs), nil
}

func (r *gormReportRepository) FindStaleProcessing(ctx context.Context, before time.Time, limit int) ([]domain.Report, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var recs []reportRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", statusToColumn(domain.ReportStatusProcessing), before.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("database error fetching stale reports: %w", err)
	}
	return toDomainList(recs), nil
}

// Delete hard-deletes the row and reports whether anything was removed.
func (r *gormReportRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&reportRecord{})
	if result.Error != nil {
		log.Printf("[ReportRepository] Database error deleting report %s: %v", id, result.Error)
		return false, fmt.Errorf("database error deleting report: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("[ReportRepository] Report deleted: %s", id)
	}
	return result.RowsAffected > 0, nil
}

func (r *gormReportRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&reportRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("database error checking report: %w", err)
	}
	return count > 0, nil
}

func validateReportInput(report *domain.Report) error {
	if report == nil {
		return errors.New("report cannot be nil")
	}
	if strings.TrimSpace(report.ID) == "" {
		return errors.New("report ID is required")
	}
	if strings.TrimSpace(report.UserID) == "" {
		return errors.New("user ID is required")
	}
	if !report.Status.Valid() {
		return fmt.Errorf("invalid report status %q", report.Status)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
