// File: internal/repository/report/model.go
package report

import (
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// reportRecord is the table layout. Status is stored as its string value
// and converted with statusToColumn / statusFromColumn.
type reportRecord struct {
	ID          string  `gorm:"primaryKey;size:36"`
	UserID      string  `gorm:"size:128;not null;index"`
	Status      string  `gorm:"size:20;not null;index"`
	Title       *string `gorm:"size:512"`
	Description *string `gorm:"type:text"`
	Analysis    datatypes.JSON
	Indexed     bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (reportRecord) TableName() string { return "reports" }

// Migrate creates or updates the reports table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&reportRecord{})
}

func statusToColumn(s domain.ReportStatus) string {
	return string(s)
}

// statusFromColumn returns the zero status for values this build does not know.
func statusFromColumn(v string) domain.ReportStatus {
	s := domain.ReportStatus(v)
	if !s.Valid() {
		return ""
	}
	return s
}

func toRecord(r *domain.Report) *reportRecord {
	rec := &reportRecord{
		ID:          r.ID,
		UserID:      r.UserID,
		Status:      statusToColumn(r.Status),
		Title:       r.Title,
		Description: r.Description,
		Indexed:     r.Indexed,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Analysis) > 0 {
		rec.Analysis = datatypes.JSON(r.Analysis)
	}
	return rec
}

func (rec *reportRecord) toDomain() domain.Report {
	r := domain.Report{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Status:      statusFromColumn(rec.Status),
		Title:       rec.Title,
		Description: rec.Description,
		Indexed:     rec.Indexed,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if len(rec.Analysis) > 0 {
		r.Analysis = []byte(rec.Analysis)
	}
	return r
}

func toDomainList(recs []reportRecord) []domain.Report {
	out := make([]domain.Report, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out
}
