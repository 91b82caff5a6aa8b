// File: internal/dtos/report.go
package dtos

import (
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
)

// ReportResponseDTO is the JSON shape of a report. Status is null when the
// stored value is not a known status.
type ReportResponseDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Status      *string `json:"status"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func FromReport(r domain.Report) ReportResponseDTO {
	var status *string
	if r.Status.Valid() {
		s := string(r.Status)
		status = &s
	}
	return ReportResponseDTO{
		ID:          r.ID,
		UserID:      r.UserID,
		Status:      status,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func FromReports(reports []domain.Report) []ReportResponseDTO {
	out := make([]ReportResponseDTO, len(reports))
	for i, r := range reports {
		out[i] = FromReport(r)
	}
	return out
}
