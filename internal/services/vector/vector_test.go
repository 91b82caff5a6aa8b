package vector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func TestMemoryStoreSearchFiltersAndRanks(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx))

	require.NoError(t, s.Upsert(ctx,
		Point{ID: "a", Vector: []float32{1, 0, 0}, Payload: Payload{"user_id": "u1", "title": "exact"}},
		Point{ID: "b", Vector: []float32{0.8, 0.6, 0}, Payload: Payload{"user_id": "u1", "title": "close"}},
		Point{ID: "c", Vector: []float32{0, 1, 0}, Payload: Payload{"user_id": "u1", "title": "orthogonal"}},
		Point{ID: "d", Vector: []float32{1, 0, 0}, Payload: Payload{"user_id": "u2", "title": "other user"}},
	))

	hits, err := s.Search(ctx, Query{Vector: []float32{1, 0, 0}, Filter: map[string]string{"user_id": "u1"}, Limit: 5, ScoreThreshold: 0.5})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "b", hits[1].ID)
	assert.InDelta(t, 0.8, hits[1].Score, 1e-6)
	for _, h := range hits {
		assert.Equal(t, "u1", h.Payload["user_id"])
	}

	hits, err = s.Search(ctx, Query{Vector: []float32{1, 0, 0}, Filter: map[string]string{"user_id": "u1"}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestMemoryStoreUpsertReplacesAndValidates(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, Point{ID: "a", Vector: []float32{1, 0}, Payload: Payload{"v": 1}}))
	require.NoError(t, s.Upsert(ctx, Point{ID: "a", Vector: []float32{0, 1}, Payload: Payload{"v": 2}}))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, float64(2), s.Payloads()[0]["v"])

	err := s.Upsert(ctx, Point{ID: "b", Vector: []float32{1, 0, 0}})
	var vErr *VectorError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "validation", vErr.Type)
}

func TestMemoryStoreDeleteByField(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx,
		Point{ID: "a", Vector: []float32{1, 0}, Payload: Payload{"report_id": "r1"}},
		Point{ID: "b", Vector: []float32{1, 0}, Payload: Payload{"report_id": "r2"}},
	))

	require.NoError(t, s.DeleteByField(ctx, "report_id", "r1"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "r2", s.Payloads()[0]["report_id"])
}

func TestRetryServiceRetriesThenSucceeds(t *testing.T) {
	cfg := &Config{Timeout: time.Second, MaxRetries: 3, RetryDelay: time.Millisecond}
	r := NewRetryService(cfg, nopLogger{})

	var calls atomic.Int32
	err := r.RetryWithTimeout(context.Background(), func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryServiceGivesUp(t *testing.T) {
	cfg := &Config{Timeout: time.Second, MaxRetries: 2, RetryDelay: time.Millisecond}
	r := NewRetryService(cfg, nopLogger{})

	var calls atomic.Int32
	err := r.RetryWithTimeout(context.Background(), func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("unavailable")
	})
	var vErr *VectorError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "retry", vErr.Type)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryServiceSkipsValidationErrors(t *testing.T) {
	cfg := &Config{Timeout: time.Second, MaxRetries: 5, RetryDelay: time.Millisecond}
	r := NewRetryService(cfg, nopLogger{})

	var calls atomic.Int32
	err := r.RetryWithTimeout(context.Background(), func(ctx context.Context) error {
		calls.Add(1)
		return NewValidationError("upsert", "bad vector")
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestServiceRequiresFilter(t *testing.T) {
	svc, err := New(&Config{Backend: "memory", VectorSize: 2, Timeout: time.Second}, nopLogger{})
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), Query{Vector: []float32{1, 0}})
	assert.Error(t, err)

	require.NoError(t, svc.Upsert(context.Background(), Point{ID: "a", Vector: []float32{1, 0}, Payload: Payload{"user_id": "u1"}}))
	hits, err := svc.Search(context.Background(), Query{Vector: []float32{1, 0}, Filter: map[string]string{"user_id": "u1"}})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "qdrant without URL")
	cfg.URL = "http://localhost:6334"
	assert.NoError(t, cfg.Validate())

	cfg.Backend = "pinecone"
	assert.Error(t, cfg.Validate())
	cfg.PineconeAPIKey, cfg.PineconeIndexHost = "k", "idx.pinecone.io"
	assert.NoError(t, cfg.Validate())

	cfg.Backend = "faiss"
	assert.Error(t, cfg.Validate())
}

func TestParseQdrantURL(t *testing.T) {
	cases := []struct {
		in   string
		host string
		port int
		tls  bool
	}{
		{"http://localhost:6334", "localhost", 6334, false},
		{"https://abc.eu-central.aws.cloud.qdrant.io:6334", "abc.eu-central.aws.cloud.qdrant.io", 6334, true},
		{"qdrant:7000", "qdrant", 7000, false},
		{"https://abc.cloud.qdrant.io", "abc.cloud.qdrant.io", 6334, true},
	}
	for _, c := range cases {
		host, port, tls, err := parseQdrantURL(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.host, host, c.in)
		assert.Equal(t, c.port, port, c.in)
		assert.Equal(t, c.tls, tls, c.in)
	}

	_, _, _, err := parseQdrantURL("")
	assert.Error(t, err)
	_, _, _, err = parseQdrantURL("http://localhost:port")
	assert.Error(t, err)
}

func TestPayloadFromQdrant(t *testing.T) {
	in, err := qdrant.TryValueMap(map[string]any{
		"title":   "CBC Panel",
		"count":   int64(3),
		"score":   0.5,
		"flagged": true,
		"tags":    []any{"blood", "routine"},
		"nested":  map[string]any{"k": "v"},
	})
	require.NoError(t, err)

	out := payloadFromQdrant(in)
	assert.Equal(t, "CBC Panel", out["title"])
	assert.Equal(t, int64(3), out["count"])
	assert.Equal(t, 0.5, out["score"])
	assert.Equal(t, true, out["flagged"])
	assert.Equal(t, []any{"blood", "routine"}, out["tags"])
	assert.Equal(t, map[string]any{"k": "v"}, out["nested"])
}

func TestExtractPointID(t *testing.T) {
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", extractPointID(qdrant.NewIDUUID("7c9e6679-7425-40de-944b-e07fc1f90ae7")))
	assert.Equal(t, "42", extractPointID(qdrant.NewIDNum(42)))
	assert.Equal(t, "", extractPointID(nil))
}

func TestBuildFilters(t *testing.T) {
	assert.Nil(t, buildQdrantFilter(nil))
	f := buildQdrantFilter(map[string]string{"user_id": "u1"})
	require.Len(t, f.GetMust(), 1)
	assert.Equal(t, "user_id", f.GetMust()[0].GetField().GetKey())
	assert.Equal(t, "u1", f.GetMust()[0].GetField().GetMatch().GetKeyword())

	pf, err := pineconeFilter(map[string]string{"user_id": "u1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_id": map[string]any{"$eq": "u1"}}, pf.AsMap())
}
