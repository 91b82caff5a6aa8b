// File: internal/services/vector/interface.go
package vector

import "context"

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Payload is the JSON-like metadata stored with a point.
type Payload map[string]any

// Point is one vector plus its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Query is a filtered nearest-neighbour search. Filter holds keyword
// equality conditions that every hit must satisfy.
type Query struct {
	Vector         []float32
	Filter         map[string]string
	Limit          int
	ScoreThreshold float32
}

// ScoredPoint is a search hit; Score is cosine similarity.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload Payload
}

// Store is a vector index backend.
type Store interface {
	// EnsureCollection creates the collection and payload indexes when missing.
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points ...Point) error
	Search(ctx context.Context, q Query) ([]ScoredPoint, error)
	// DeleteByField removes every point whose payload field equals value.
	DeleteByField(ctx context.Context, field, value string) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// FieldType is the payload index kind.
type FieldType string

const (
	FieldKeyword FieldType = "keyword"
	FieldText    FieldType = "text"
)

// PayloadIndexes are created by EnsureCollection on backends that support them.
var PayloadIndexes = []struct {
	Field string
	Type  FieldType
}{
	{"user_id", FieldKeyword},
	{"report_id", FieldKeyword},
	{"title", FieldText},
	{"analysis", FieldText},
}
