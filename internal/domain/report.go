// File: internal/domain/report.go
package domain

import "time"

// ReportStatus is the lifecycle state of an uploaded report.
type ReportStatus string

const (
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Valid reports whether s is one of the known statuses.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusProcessing, ReportStatusCompleted, ReportStatusFailed:
		return true
	}
	return false
}

// Report is one uploaded report image and the outcome of its analysis.
// Title and Description are only set once the report is COMPLETED.
type Report struct {
	ID          string
	UserID      string
	Status      ReportStatus // zero value when the stored status is unrecognised
	Title       *string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Analysis is the raw JSON of the parsed analysis, kept for re-indexing.
	Analysis []byte
	// Indexed is true once the analysis has been written to the vector index.
	Indexed bool
}

// IsTerminal reports whether the analysis has finished, successfully or not.
func (r *Report) IsTerminal() bool {
	return r.Status == ReportStatusCompleted || r.Status == ReportStatusFailed
}
