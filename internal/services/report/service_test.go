package report

import (
	"context"
	"testing"

	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/services/retrieval"
	"github.com/iyunix/go-medreport/internal/services/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCompleted(t *testing.T, h *harness, id, userID, title string, vec []float32) {
	t.Helper()
	ctx := context.Background()
	_, err := h.reports.Create(ctx, &domain.Report{ID: id, UserID: userID, Status: domain.ReportStatusProcessing})
	require.NoError(t, err)
	require.NoError(t, h.reports.MarkCompleted(ctx, id, title, title+" summary", []byte(`{}`)))

	analysis := domain.MedicalReportAnalysis{Title: title, Summary: title + " summary", UserID: userID, ReportID: id}
	payload, err := analysis.Payload()
	require.NoError(t, err)
	require.NoError(t, h.store.Upsert(ctx, vector.Point{ID: "pt-" + id, Vector: vec, Payload: payload}))
}

func newReportService(h *harness) *Service {
	searcher := retrieval.NewService(unitEmbedder(), h.store, retrieval.DefaultConfig(), nopLogger{})
	return NewService(h.reports, h.store, searcher, h.config, nopLogger{})
}

func TestServiceSearchTitleThenSemantic(t *testing.T) {
	h := newHarness(t, replying(cbcJSON), unitEmbedder())
	seedCompleted(t, h, "r-cbc", "patient-1", "CBC Panel", []float32{0.9, 0.1, 0})
	seedCompleted(t, h, "r-lipid", "patient-1", "Lipid Profile", []float32{1, 0, 0})
	seedCompleted(t, h, "r-other", "patient-2", "CBC Panel", []float32{1, 0, 0})
	seedCompleted(t, h, "r-far", "patient-1", "Thyroid Panel", []float32{0, 0, 1})
	svc := newReportService(h)

	got, err := svc.Search(context.Background(), "patient-1", "cbc")
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"r-cbc", "r-lipid"}, ids)

	got, err = svc.Search(context.Background(), "patient-1", "  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.Search(context.Background(), "", "cbc")
	assert.True(t, IsInvalidInput(err))
}

func TestServiceListAndGet(t *testing.T) {
	h := newHarness(t, replying(cbcJSON), unitEmbedder())
	seedCompleted(t, h, "r-1", "patient-1", "CBC Panel", []float32{1, 0, 0})
	svc := newReportService(h)
	ctx := context.Background()

	list, err := svc.List(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := svc.Get(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ReportStatusCompleted, got.Status)

	missing, err := svc.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.List(ctx, "")
	assert.True(t, IsInvalidInput(err))
}

func TestServiceDelete(t *testing.T) {
	h := newHarness(t, replying(cbcJSON), unitEmbedder())
	seedCompleted(t, h, "r-1", "patient-1", "CBC Panel", []float32{1, 0, 0})
	svc := newReportService(h)
	ctx := context.Background()

	deleted, err := svc.Delete(ctx, "r-1", "patient-2")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, h.store.Len())

	deleted, err = svc.Delete(ctx, "r-1", "patient-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, h.store.Len())

	deleted, err = svc.Delete(ctx, "r-1", "")
	require.NoError(t, err)
	assert.False(t, deleted)
}
