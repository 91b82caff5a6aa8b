package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iyunix/go-medreport/internal/domain"
	reportrepo "github.com/iyunix/go-medreport/internal/repository/report"
	"github.com/iyunix/go-medreport/internal/services/vector"
)

// Reconciler repairs the two states the pipeline can leave behind: a
// COMPLETED report that never reached the vector index, and a PROCESSING
// report whose job was lost to a restart.
type Reconciler struct {
	pipeline *Pipeline
	reports  reportrepo.ReportRepository
	index    vector.Store
	config   *Config
	logger   Logger
	now      func() time.Time
}

type ReconcileResult struct {
	Reindexed    int
	ReindexFails int
	Expired      int
}

func NewReconciler(pipeline *Pipeline, reports reportrepo.ReportRepository, index vector.Store, config *Config, logger Logger) *Reconciler {
	return &Reconciler{pipeline: pipeline, reports: reports, index: index, config: config, logger: logger, now: time.Now}
}

// Run reconciles immediately and then every ReconcileInterval until ctx
// ends. A zero interval returns at once.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.config.ReconcileInterval <= 0 {
		r.logger.Info("reconciler disabled")
		return nil
	}
	ticker := time.NewTicker(r.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("reconcile pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	if r.config.StaleAfter > 0 {
		stale, err := r.reports.FindStaleProcessing(ctx, r.now().Add(-r.config.StaleAfter), r.config.ReconcileBatch)
		if err != nil {
			return res, err
		}
		for _, rep := range stale {
			err := r.reports.MarkFailed(ctx, rep.ID)
			if err != nil && !errors.Is(err, reportrepo.ErrNotProcessing) {
				r.logger.Warn("could not expire stale report", "report_id", rep.ID, "error", err)
				continue
			}
			if err == nil {
				res.Expired++
			}
		}
	}

	pending, err := r.reports.FindUnindexedCompleted(ctx, r.config.ReconcileBatch)
	if err != nil {
		return res, err
	}
	for i := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err := r.reindex(ctx, &pending[i]); err != nil {
			res.ReindexFails++
			r.logger.Warn("re-index failed", "report_id", pending[i].ID, "error", err)
			continue
		}
		res.Reindexed++
	}

	if res.Reindexed+res.ReindexFails+res.Expired > 0 {
		r.logger.Info("reconcile pass finished", "reindexed", res.Reindexed, "failed", res.ReindexFails, "expired", res.Expired)
	}
	return res, nil
}

// reindex clears points left under other ids and rewrites the report's
// point. The pipeline may still be indexing the same report; both write
// PointID(report), so the index ends with one point either way.
func (r *Reconciler) reindex(ctx context.Context, rep *domain.Report) error {
	var analysis domain.MedicalReportAnalysis
	if err := json.Unmarshal(rep.Analysis, &analysis); err != nil {
		return NewParseError("reindex", "stored analysis is not valid JSON", err)
	}
	if err := analysis.Validate(); err != nil {
		return NewParseError("reindex", "stored analysis failed validation", err)
	}
	analysis.UserID = rep.UserID
	analysis.ReportID = rep.ID

	if err := r.index.DeleteByField(ctx, reportIDField, rep.ID); err != nil {
		return NewExternalServiceError("reindex", rep.ID, "could not clear old points", err)
	}
	return r.pipeline.Index(ctx, rep.ID, &analysis)
}
