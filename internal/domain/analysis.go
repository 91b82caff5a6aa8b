// File: internal/domain/analysis.go
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MedicalReportAnalysis is the structured result the model returns for a
// report image. The full object is stored as the vector payload.
type MedicalReportAnalysis struct {
	Title            string `json:"title"`
	Summary          string `json:"summary"`
	Analysis         string `json:"analysis"`
	FurtherDiagnosis string `json:"further_diagnosis"`
	ImmediateActions string `json:"immediate_actions"`
	Conclusion       string `json:"conclusion"`
	VectorData       string `json:"vector_data"`
	ReportDate       string `json:"report_date,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	ReportID         string `json:"report_id,omitempty"`
}

var (
	ErrAnalysisMissingTitle   = errors.New("analysis is missing a title")
	ErrAnalysisMissingSummary = errors.New("analysis is missing a summary")
)

// Validate enforces the fields a COMPLETED report depends on.
func (a *MedicalReportAnalysis) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrAnalysisMissingTitle
	}
	if strings.TrimSpace(a.Summary) == "" {
		return ErrAnalysisMissingSummary
	}
	return nil
}

// EmbeddingText is the text indexed for similarity search. vector_data is
// preferred; older model outputs without it fall back to the summary.
func (a *MedicalReportAnalysis) EmbeddingText() string {
	if strings.TrimSpace(a.VectorData) != "" {
		return a.VectorData
	}
	return a.Title + "\n" + a.Summary + "\n" + a.Analysis
}

// Payload flattens the analysis into the map stored with its vector.
func (a *MedicalReportAnalysis) Payload() (map[string]any, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AnalysisFromPayload rebuilds an analysis from a vector payload.
func AnalysisFromPayload(payload map[string]any) (*MedicalReportAnalysis, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var a MedicalReportAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}
