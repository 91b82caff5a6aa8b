package retrieval

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error)
	calls     atomic.Int32
}

var _ ai.EmbeddingProvider = (*MockEmbedder)(nil)

func (m *MockEmbedder) CreateEmbedding(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
	m.calls.Add(1)
	return m.EmbedFunc(ctx, req)
}

type MockIndex struct {
	vector.Store
	SearchFunc func(ctx context.Context, q vector.Query) ([]vector.ScoredPoint, error)
	calls      atomic.Int32
}

func (m *MockIndex) Search(ctx context.Context, q vector.Query) ([]vector.ScoredPoint, error) {
	m.calls.Add(1)
	return m.SearchFunc(ctx, q)
}

func fixedEmbedder(vec []float32) *MockEmbedder {
	return &MockEmbedder{EmbedFunc: func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
		return vec, nil
	}}
}

func storeWith(t *testing.T, analyses ...domain.MedicalReportAnalysis) *vector.MemoryStore {
	t.Helper()
	store := vector.NewMemoryStore(2)
	for i := range analyses {
		payload, err := analyses[i].Payload()
		require.NoError(t, err)
		require.NoError(t, store.Upsert(context.Background(), vector.Point{
			ID: analyses[i].ReportID, Vector: []float32{1, 0}, Payload: payload,
		}))
	}
	return store
}

func TestEmptyQueryCallsNothing(t *testing.T) {
	embedder := fixedEmbedder([]float32{1, 0})
	index := &MockIndex{SearchFunc: func(ctx context.Context, q vector.Query) ([]vector.ScoredPoint, error) {
		return nil, nil
	}}
	svc := NewService(embedder, index, DefaultConfig(), nopLogger{})

	for _, q := range []string{"", "   ", "\n\t"} {
		assert.Empty(t, svc.Search(context.Background(), "u1", q, 5))
	}
	assert.Equal(t, int32(0), embedder.calls.Load())
	assert.Equal(t, int32(0), index.calls.Load())
}

func TestSearchOnlyReturnsCallersReports(t *testing.T) {
	store := storeWith(t,
		domain.MedicalReportAnalysis{Title: "Mine", Summary: "s", UserID: "u1", ReportID: "r1"},
		domain.MedicalReportAnalysis{Title: "Theirs", Summary: "s", UserID: "u2", ReportID: "r2"},
	)
	svc := NewService(fixedEmbedder([]float32{1, 0}), store, DefaultConfig(), nopLogger{})

	got := svc.Search(context.Background(), "u1", "anemia", 5)
	require.Len(t, got, 1)
	assert.Equal(t, "Mine", got[0].Title)
	assert.Equal(t, "u1", got[0].UserID)
}

func TestSearchDropsLeakedPointsAndBadPayloads(t *testing.T) {
	index := &MockIndex{SearchFunc: func(ctx context.Context, q vector.Query) ([]vector.ScoredPoint, error) {
		assert.Equal(t, map[string]string{"user_id": "u1"}, q.Filter)
		assert.InDelta(t, 0.5, q.ScoreThreshold, 1e-6)
		return []vector.ScoredPoint{
			{ID: "a", Score: 0.9, Payload: vector.Payload{"title": "Good", "summary": "s", "user_id": "u1"}},
			{ID: "b", Score: 0.9, Payload: vector.Payload{"title": "Leaked", "summary": "s", "user_id": "u2"}},
			{ID: "c", Score: 0.9, Payload: vector.Payload{"title": 7}},
			{ID: "d", Score: 0.2, Payload: vector.Payload{"title": "Weak", "summary": "s", "user_id": "u1"}},
		}, nil
	}}
	svc := NewService(fixedEmbedder([]float32{1, 0}), index, DefaultConfig(), nopLogger{})

	got := svc.Search(context.Background(), "u1", "q", 5)
	require.Len(t, got, 1)
	assert.Equal(t, "Good", got[0].Title)
}

func TestSearchDegradesOnFailures(t *testing.T) {
	failingEmbedder := &MockEmbedder{EmbedFunc: func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
		return nil, errors.New("network down")
	}}
	svc := NewService(failingEmbedder, storeWith(t), DefaultConfig(), nopLogger{})
	assert.Empty(t, svc.Search(context.Background(), "u1", "q", 5))

	failingIndex := &MockIndex{SearchFunc: func(ctx context.Context, q vector.Query) ([]vector.ScoredPoint, error) {
		return nil, errors.New("index down")
	}}
	svc = NewService(fixedEmbedder([]float32{1, 0}), failingIndex, DefaultConfig(), nopLogger{})
	assert.Empty(t, svc.Search(context.Background(), "u1", "q", 5))
}

func TestSearchUsesQueryTaskAndLimit(t *testing.T) {
	var gotTask ai.EmbeddingTask
	embedder := &MockEmbedder{EmbedFunc: func(ctx context.Context, req ai.EmbeddingRequest) ([]float32, error) {
		gotTask = req.Task
		return []float32{1, 0}, nil
	}}
	store := storeWith(t,
		domain.MedicalReportAnalysis{Title: "A", Summary: "s", UserID: "u1", ReportID: "r1"},
		domain.MedicalReportAnalysis{Title: "B", Summary: "s", UserID: "u1", ReportID: "r2"},
		domain.MedicalReportAnalysis{Title: "C", Summary: "s", UserID: "u1", ReportID: "r3"},
	)
	svc := NewService(embedder, store, DefaultConfig(), nopLogger{})

	got := svc.Search(context.Background(), "u1", "q", 2)
	assert.Len(t, got, 2)
	assert.Equal(t, ai.TaskRetrievalQuery, gotTask)
}

func TestSearchRequiresUser(t *testing.T) {
	embedder := fixedEmbedder([]float32{1, 0})
	svc := NewService(embedder, storeWith(t), DefaultConfig(), nopLogger{})
	assert.Empty(t, svc.Search(context.Background(), "", "q", 5))
	assert.Equal(t, int32(0), embedder.calls.Load())
}
