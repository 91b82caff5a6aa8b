package vector

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process index using brute-force cosine similarity.
// Payloads go through a JSON round trip so callers see the same value
// shapes a remote backend would return.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	points    map[string]memoryPoint
	order     []string
}

type memoryPoint struct {
	vector  []float32
	norm    float64
	payload []byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension, points: make(map[string]memoryPoint)}
}

func (s *MemoryStore) EnsureCollection(ctx context.Context) error {
	if s.dimension <= 0 {
		return NewConfigError("invalid dimension")
	}
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, points ...Point) error {
	prepared := make([]memoryPoint, len(points))
	for i, p := range points {
		if p.ID == "" {
			return NewValidationError("upsert", "point ID is required")
		}
		if len(p.Vector) != s.dimension {
			return NewValidationError("upsert", "vector dimension mismatch")
		}
		raw, err := json.Marshal(p.Payload)
		if err != nil {
			return NewValidationError("upsert", "payload is not JSON serialisable: "+err.Error())
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		prepared[i] = memoryPoint{vector: vec, norm: norm(vec), payload: raw}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range points {
		if _, exists := s.points[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.points[p.ID] = prepared[i]
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, q Query) ([]ScoredPoint, error) {
	if len(q.Vector) != s.dimension {
		return nil, NewValidationError("search", "vector dimension mismatch")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}
	qNorm := norm(q.Vector)

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]ScoredPoint, 0)
	for _, id := range s.order {
		p := s.points[id]
		var payload Payload
		if err := json.Unmarshal(p.payload, &payload); err != nil {
			return nil, NewOperationError("search", "corrupt payload", err)
		}
		if !matches(payload, q.Filter) {
			continue
		}
		score := cosine(p.vector, p.norm, q.Vector, qNorm)
		if score < q.ScoreThreshold {
			continue
		}
		hits = append(hits, ScoredPoint{ID: id, Score: score, Payload: payload})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *MemoryStore) DeleteByField(ctx context.Context, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		var payload Payload
		if err := json.Unmarshal(s.points[id].payload, &payload); err == nil && matches(payload, map[string]string{field: value}) {
			delete(s.points, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

// Len returns the number of stored points.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Payloads returns every stored payload in insertion order.
func (s *MemoryStore) Payloads() []Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Payload, 0, len(s.order))
	for _, id := range s.order {
		var payload Payload
		if err := json.Unmarshal(s.points[id].payload, &payload); err == nil {
			out = append(out, payload)
		}
	}
	return out
}

func (s *MemoryStore) HealthCheck(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func matches(payload Payload, filter map[string]string) bool {
	for field, want := range filter {
		got, ok := payload[field].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float32 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (aNorm * bNorm))
}
