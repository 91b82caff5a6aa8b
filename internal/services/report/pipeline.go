// Package report runs the upload → analyze → index pipeline and the
// read/search/delete operations on reports.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/prompts"
	reportrepo "github.com/iyunix/go-medreport/internal/repository/report"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/vector"
	"github.com/iyunix/go-medreport/internal/worker"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// JobSubmitter is the part of worker.Pool the pipeline needs.
type JobSubmitter interface {
	Submit(id string, fn worker.Func) (*worker.Job, error)
}

// pointNamespace seeds the per-report vector point ids.
var pointNamespace = uuid.MustParse("6f1c2b7e-3d4a-5e8f-9a0b-1c2d3e4f5a6b")

// PointID is the vector point id of a report. Every writer of a report's
// point uses it, so concurrent or repeated indexing overwrites one point.
func PointID(reportID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(reportID)).String()
}

const (
	reportIDField  = "report_id"
	jpegMimeType   = "image/jpeg"
	reportDateForm = "2006-01-02"
)

// Pipeline turns an uploaded image into a COMPLETED or FAILED report.
type Pipeline struct {
	reports  reportrepo.ReportRepository
	vision   ai.VisionProvider
	embedder ai.EmbeddingProvider
	index    vector.Store
	jobs     JobSubmitter
	prompts  *prompts.Catalogue
	config   *Config
	logger   Logger
}

func NewPipeline(
	reports reportrepo.ReportRepository,
	vision ai.VisionProvider,
	embedder ai.EmbeddingProvider,
	index vector.Store,
	jobs JobSubmitter,
	catalogue *prompts.Catalogue,
	config *Config,
	logger Logger,
) *Pipeline {
	return &Pipeline{
		reports:  reports,
		vision:   vision,
		embedder: embedder,
		index:    index,
		jobs:     jobs,
		prompts:  catalogue,
		config:   config,
		logger:   logger,
	}
}

// Submit validates the upload, stores a PROCESSING report and queues its
// analysis. The returned job finishes when the report reaches a terminal
// status. If the queue refuses the job the report is returned already
// FAILED with a nil job.
func (p *Pipeline) Submit(ctx context.Context, image []byte, contentType, userID string) (*domain.Report, *worker.Job, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, NewInvalidInputError("submit", "user_id is required")
	}
	if err := ValidateImage(image, contentType, p.config.MaxImageBytes); err != nil {
		p.logger.Info("rejected upload", "user_id", userID, "content_type", contentType, "error", err)
		return nil, nil, err
	}

	created, err := p.reports.Create(ctx, &domain.Report{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: domain.ReportStatusProcessing,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create report: %w", err)
	}
	p.logger.Info("report created", "report_id", created.ID, "user_id", userID, "bytes", len(image))

	img := bytes.Clone(image)
	target := *created
	job, err := p.jobs.Submit(created.ID, func(ctx context.Context) error {
		_, err := p.Analyze(ctx, &target, img)
		return err
	})
	if err != nil {
		p.logger.Error("could not queue analysis", "report_id", created.ID, "error", err)
		p.fail(ctx, created.ID)
		created.Status = domain.ReportStatusFailed
		return created, nil, nil
	}
	return created, job, nil
}

// Analyze runs the model on the image and records the outcome on the
// report. Any failure before the report is COMPLETED marks it FAILED.
// Indexing failures after that leave it COMPLETED and unindexed.
func (p *Pipeline) Analyze(ctx context.Context, report *domain.Report, image []byte) (result *domain.MedicalReportAnalysis, err error) {
	completed := false
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("analysis panicked", "report_id", report.ID, "panic", r)
			result = nil
			err = NewExternalServiceError("analyze", report.ID, fmt.Sprintf("panic: %v", r), nil)
			if !completed {
				p.fail(ctx, report.ID)
			}
		}
	}()

	text, err := p.vision.AnalyzeImage(ctx, p.config.VisionModel, p.prompts.Analysis, image, jpegMimeType)
	if err != nil {
		p.logger.Error("model call failed", "report_id", report.ID, "error", err)
		p.fail(ctx, report.ID)
		return nil, NewExternalServiceError("analyze", report.ID, "model call failed", err)
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Warn("model returned no text", "report_id", report.ID)
		p.fail(ctx, report.ID)
		return nil, NewExternalServiceError("analyze", report.ID, "model returned no usable text", nil)
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		p.logger.Error("could not parse model output", "report_id", report.ID, "error", err, "output", truncateForLog(text, 2000))
		p.fail(ctx, report.ID)
		return nil, err
	}
	analysis.UserID = report.UserID
	analysis.ReportID = report.ID
	if strings.TrimSpace(analysis.ReportDate) == "" {
		analysis.ReportDate = report.CreatedAt.UTC().Format(reportDateForm)
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		p.fail(ctx, report.ID)
		return nil, NewParseError("analyze", "could not encode analysis", err)
	}
	if err := p.reports.MarkCompleted(context.WithoutCancel(ctx), report.ID, analysis.Title, analysis.Summary, raw); err != nil {
		if errors.Is(err, reportrepo.ErrNotProcessing) || errors.Is(err, reportrepo.ErrReportNotFound) {
			p.logger.Warn("report left PROCESSING before analysis finished", "report_id", report.ID, "error", err)
		} else {
			p.logger.Error("failed to store analysis", "report_id", report.ID, "error", err)
			p.fail(ctx, report.ID)
		}
		return nil, fmt.Errorf("complete report %s: %w", report.ID, err)
	}
	completed = true
	p.logger.Info("report analyzed", "report_id", report.ID, "title", analysis.Title)

	if err := p.Index(ctx, report.ID, analysis); err != nil {
		p.logger.Warn("indexing failed, reconciler will retry", "report_id", report.ID, "error", err)
	}
	return analysis, nil
}

// Index embeds the analysis and upserts it under the report's point id,
// then flags the report as indexed.
func (p *Pipeline) Index(ctx context.Context, reportID string, analysis *domain.MedicalReportAnalysis) error {
	vec, err := p.embedder.CreateEmbedding(ctx, ai.EmbeddingRequest{
		Text:  analysis.EmbeddingText(),
		Title: analysis.Title,
		Task:  ai.TaskRetrievalDocument,
	})
	if err != nil {
		return NewExternalServiceError("index", reportID, "embedding failed", err)
	}
	payload, err := analysis.Payload()
	if err != nil {
		return NewParseError("index", "could not build payload", err)
	}
	point := vector.Point{ID: PointID(reportID), Vector: vec, Payload: payload}
	if err := p.index.Upsert(ctx, point); err != nil {
		return NewExternalServiceError("index", reportID, "vector upsert failed", err)
	}
	if err := p.reports.MarkIndexed(context.WithoutCancel(ctx), reportID); err != nil {
		return fmt.Errorf("mark report %s indexed: %w", reportID, err)
	}
	p.logger.Debug("report indexed", "report_id", reportID, "point_id", point.ID)
	return nil
}

// fail writes FAILED even if ctx is already cancelled.
func (p *Pipeline) fail(ctx context.Context, reportID string) {
	err := p.reports.MarkFailed(context.WithoutCancel(ctx), reportID)
	switch {
	case err == nil:
		p.logger.Info("report marked failed", "report_id", reportID)
	case errors.Is(err, reportrepo.ErrNotProcessing), errors.Is(err, reportrepo.ErrReportNotFound):
		p.logger.Debug("report already terminal or deleted", "report_id", reportID)
	default:
		p.logger.Error("failed to mark report failed", "report_id", reportID, "error", err)
	}
}
