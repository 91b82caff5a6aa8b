package report

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iyunix/go-medreport/internal/database"
	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/prompts"
	reportrepo "github.com/iyunix/go-medreport/internal/repository/report"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/vector"
	"github.com/iyunix/go-medreport/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type MockVision struct {
	AnalyzeFunc func(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error)
}

var _ ai.VisionProvider = (*MockVision)(nil)

func (m *MockVision) AnalyzeImage(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	return m.AnalyzeFunc(ctx, model, prompt, image, mimeType)
}

type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error)
}

var _ ai.EmbeddingProvider = (*MockEmbedder)(nil)

func (m *MockEmbedder) CreateEmbedding(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
	return m.EmbedFunc(ctx, req)
}

type MockSubmitter struct {
	SubmitFunc func(id string, fn worker.Func) (*worker.Job, error)
}

func (m *MockSubmitter) Submit(id string, fn worker.Func) (*worker.Job, error) {
	return m.SubmitFunc(id, fn)
}

func replying(text string) *MockVision {
	return &MockVision{AnalyzeFunc: func(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
		return text, nil
	}}
}

func unitEmbedder() *MockEmbedder {
	return &MockEmbedder{EmbedFunc: func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}}
}

type harness struct {
	reports  reportrepo.ReportRepository
	store    *vector.MemoryStore
	pool     *worker.Pool
	pipeline *Pipeline
	config   *Config
}

func newHarness(t *testing.T, vision ai.VisionProvider, embedder ai.EmbeddingProvider) *harness {
	t.Helper()
	db, err := database.Open("sqlite://", false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	catalogue, err := prompts.Default()
	require.NoError(t, err)

	pool := worker.NewPool(worker.Options{Workers: 2, QueueSize: 8}, nopLogger{})
	pool.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pool.Shutdown(ctx)
	})

	h := &harness{
		reports: reportrepo.NewReportRepository(db),
		store:   vector.NewMemoryStore(3),
		pool:    pool,
		config:  DefaultConfig(),
	}
	h.pipeline = NewPipeline(h.reports, vision, embedder, h.store, pool, catalogue, h.config, nopLogger{})
	return h
}

func (h *harness) submit(t *testing.T, userID string) (*domain.Report, *domain.Report) {
	t.Helper()
	created, job, err := h.pipeline.Submit(context.Background(), jpegBytes, "image/jpeg", userID)
	require.NoError(t, err)
	require.NotNil(t, job)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = job.Wait(ctx)
	final, err := h.reports.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, final)
	return created, final
}

func TestSubmitCBCPanel(t *testing.T) {
	release := make(chan struct{})
	vision := &MockVision{AnalyzeFunc: func(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
		<-release
		assert.Equal(t, "image/jpeg", mimeType)
		assert.Contains(t, prompt, "vector_data")
		return "```json\n" + cbcJSON + "\n```", nil
	}}
	var embedded ai.EmbeddingRequest
	embedder := &MockEmbedder{EmbedFunc: func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
		embedded = req
		return []float32{0, 1, 0}, nil
	}}
	h := newHarness(t, vision, embedder)
	ctx := context.Background()

	created, job, err := h.pipeline.Submit(ctx, jpegBytes, "image/jpeg", "patient-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.ReportStatusProcessing, created.Status)
	assert.Nil(t, created.Title)

	stored, err := h.reports.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusProcessing, stored.Status)

	close(release)
	require.NoError(t, job.Wait(ctx))
	assert.Equal(t, worker.StatusSucceeded, job.Status())

	final, err := h.reports.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusCompleted, final.Status)
	require.NotNil(t, final.Title)
	assert.Equal(t, "CBC Panel", *final.Title)
	require.NotNil(t, final.Description)
	assert.Equal(t, "Blood counts are within normal limits.", *final.Description)
	assert.True(t, final.Indexed)

	assert.Equal(t, ai.TaskRetrievalDocument, embedded.Task)
	assert.Equal(t, "CBC Panel", embedded.Title)
	assert.Equal(t, "complete blood count normal hemoglobin", embedded.Text)

	require.Equal(t, 1, h.store.Len())
	payload := h.store.Payloads()[0]
	assert.Equal(t, "patient-1", payload["user_id"])
	assert.Equal(t, created.ID, payload["report_id"])
	assert.Equal(t, "CBC Panel", payload["title"])
	assert.NotEmpty(t, payload["report_date"])
}

func TestSubmitRejectsNonJPEG(t *testing.T) {
	called := atomic.Bool{}
	vision := &MockVision{AnalyzeFunc: func(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
		called.Store(true)
		return cbcJSON, nil
	}}
	h := newHarness(t, vision, unitEmbedder())
	ctx := context.Background()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	for _, ct := range []string{"image/png", "image/jpeg", "text/plain"} {
		report, job, err := h.pipeline.Submit(ctx, png, ct, "patient-1")
		assert.True(t, IsInvalidInput(err), ct)
		assert.Nil(t, report)
		assert.Nil(t, job)
	}

	_, _, err := h.pipeline.Submit(ctx, jpegBytes, "image/jpeg", " ")
	assert.True(t, IsInvalidInput(err))

	rows, err := h.reports.FindByUserID(ctx, "patient-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.False(t, called.Load())
}

func TestMalformedOutputFailsWithoutIndexing(t *testing.T) {
	for name, output := range map[string]string{
		"prose":          "Sorry, I can't read this.",
		"broken json":    "```json\n{\"title\": \"CBC\", \n```",
		"missing fields": `{"title":"CBC Panel"}`,
		"empty":          "   ",
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, replying(output), unitEmbedder())
			_, final := h.submit(t, "patient-1")

			assert.Equal(t, domain.ReportStatusFailed, final.Status)
			assert.Nil(t, final.Title)
			assert.Nil(t, final.Description)
			assert.Equal(t, 0, h.store.Len())
		})
	}
}

func TestModelErrorAndPanicFail(t *testing.T) {
	errVision := &MockVision{AnalyzeFunc: func(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
		return "", errors.New("connection reset")
	}}
	h := newHarness(t, errVision, unitEmbedder())
	_, final := h.submit(t, "patient-1")
	assert.Equal(t, domain.ReportStatusFailed, final.Status)

	panicVision := &MockVision{AnalyzeFunc: func(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
		panic("unexpected response shape")
	}}
	h = newHarness(t, panicVision, unitEmbedder())
	created, job, err := h.pipeline.Submit(context.Background(), jpegBytes, "image/jpeg", "patient-1")
	require.NoError(t, err)
	waitErr := job.Wait(context.Background())
	var re *ReportError
	require.ErrorAs(t, waitErr, &re)
	assert.Equal(t, ErrTypeExternalService, re.Type)

	final, err = h.reports.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFailed, final.Status)
}

func TestIndexFailureLeavesCompletedForReconciler(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	embedder := &MockEmbedder{EmbedFunc: func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
		if fail.Load() {
			return nil, errors.New("embedding quota exceeded")
		}
		return []float32{1, 0, 0}, nil
	}}
	h := newHarness(t, replying(cbcJSON), embedder)
	created, final := h.submit(t, "patient-1")

	assert.Equal(t, domain.ReportStatusCompleted, final.Status)
	assert.False(t, final.Indexed)
	assert.Equal(t, 0, h.store.Len())

	fail.Store(false)
	rec := NewReconciler(h.pipeline, h.reports, h.store, h.config, nopLogger{})
	res, err := rec.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reindexed)

	again, err := h.reports.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, again.Indexed)
	require.Equal(t, 1, h.store.Len())
	assert.Equal(t, "patient-1", h.store.Payloads()[0]["user_id"])

	res, err = rec.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Reindexed)
	assert.Equal(t, 1, h.store.Len())
}

func TestReconcileDuringPipelineIndexKeepsOnePoint(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	embedder := &MockEmbedder{EmbedFunc: func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return []float32{1, 0, 0}, nil
	}}
	h := newHarness(t, replying(cbcJSON), embedder)
	ctx := context.Background()

	created, job, err := h.pipeline.Submit(ctx, jpegBytes, "image/jpeg", "patient-1")
	require.NoError(t, err)
	require.NotNil(t, job)

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline never reached indexing")
	}

	// COMPLETED but not yet indexed: the reconciler picks it up.
	rec := NewReconciler(h.pipeline, h.reports, h.store, h.config, nopLogger{})
	res, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reindexed)

	close(release)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(waitCtx))

	assert.Equal(t, 1, h.store.Len())
	final, err := h.reports.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, final.Indexed)
}

func TestPointIDIsStablePerReport(t *testing.T) {
	assert.Equal(t, PointID("r-1"), PointID("r-1"))
	assert.NotEqual(t, PointID("r-1"), PointID("r-2"))
}

func TestQueueRejectionMarksFailed(t *testing.T) {
	h := newHarness(t, replying(cbcJSON), unitEmbedder())
	h.pipeline.jobs = &MockSubmitter{SubmitFunc: func(id string, fn worker.Func) (*worker.Job, error) {
		return nil, worker.ErrQueueFull
	}}

	report, job, err := h.pipeline.Submit(context.Background(), jpegBytes, "image/jpeg", "patient-1")
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Equal(t, domain.ReportStatusFailed, report.Status)

	stored, err := h.reports.FindByID(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFailed, stored.Status)
}

func TestReconcilerExpiresStaleProcessing(t *testing.T) {
	h := newHarness(t, replying(cbcJSON), unitEmbedder())
	ctx := context.Background()

	old, err := h.reports.Create(ctx, &domain.Report{
		ID: "stale-1", UserID: "patient-1", Status: domain.ReportStatusProcessing,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	fresh, err := h.reports.Create(ctx, &domain.Report{
		ID: "fresh-1", UserID: "patient-1", Status: domain.ReportStatusProcessing,
	})
	require.NoError(t, err)

	rec := NewReconciler(h.pipeline, h.reports, h.store, h.config, nopLogger{})
	res, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)

	got, err := h.reports.FindByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFailed, got.Status)
	got, err = h.reports.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusProcessing, got.Status)
}

func TestReconcilerRunDisabled(t *testing.T) {
	h := newHarness(t, replying(cbcJSON), unitEmbedder())
	cfg := *h.config
	cfg.ReconcileInterval = 0
	rec := NewReconciler(h.pipeline, h.reports, h.store, &cfg, nopLogger{})
	assert.NoError(t, rec.Run(context.Background()))
}

func TestReconcilerRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, replying(cbcJSON), unitEmbedder())
	cfg := *h.config
	cfg.ReconcileInterval = 10 * time.Millisecond
	rec := NewReconciler(h.pipeline, h.reports, h.store, &cfg, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}
