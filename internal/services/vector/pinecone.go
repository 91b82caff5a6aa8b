// File: internal/services/vector/pinecone.go
package vector

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// PineconeStore writes to an existing serverless index. The index itself,
// including its dimension and cosine metric, is provisioned outside the
// service, so EnsureCollection only verifies connectivity.
type PineconeStore struct {
	client    *pinecone.Client
	index     *pinecone.IndexConnection
	dimension int
	logger    Logger
}

var _ Store = (*PineconeStore)(nil)

func NewPineconeStore(config *Config, logger Logger) (*PineconeStore, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: config.PineconeAPIKey})
	if err != nil {
		return nil, NewConnectionError("connect", "failed to create pinecone client", err)
	}
	index, err := client.Index(pinecone.NewIndexConnParams{
		Host:      config.PineconeIndexHost,
		Namespace: config.PineconeNamespace,
	})
	if err != nil {
		return nil, NewConnectionError("connect", "failed to connect to pinecone index", err)
	}

	logger.Info("Pinecone client initialized", "host", config.PineconeIndexHost, "namespace", config.PineconeNamespace)
	return &PineconeStore{client: client, index: index, dimension: config.VectorSize, logger: logger}, nil
}

func (s *PineconeStore) EnsureCollection(ctx context.Context) error {
	return s.HealthCheck(ctx)
}

func (s *PineconeStore) Upsert(ctx context.Context, points ...Point) error {
	if len(points) == 0 {
		return nil
	}
	vectors := make([]*pinecone.Vector, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return NewValidationError("upsert", fmt.Sprintf("expected %d dimensions, got %d", s.dimension, len(p.Vector)))
		}
		metadata, err := structpb.NewStruct(p.Payload)
		if err != nil {
			return NewValidationError("upsert", "payload conversion failed: "+err.Error())
		}
		values := p.Vector
		vectors = append(vectors, &pinecone.Vector{Id: p.ID, Values: &values, Metadata: metadata})
	}

	count, err := s.index.UpsertVectors(ctx, vectors)
	if err != nil {
		return NewOperationError("upsert", "upsert failed", err)
	}
	s.logger.Debug("upserted vectors", "count", count)
	return nil
}

func (s *PineconeStore) Search(ctx context.Context, q Query) ([]ScoredPoint, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}
	filter, err := pineconeFilter(q.Filter)
	if err != nil {
		return nil, NewValidationError("search", err.Error())
	}

	resp, err := s.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          q.Vector,
		TopK:            uint32(limit),
		MetadataFilter:  filter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, NewOperationError("search", "query failed", err)
	}

	hits := make([]ScoredPoint, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if match == nil || match.Vector == nil || match.Score < q.ScoreThreshold {
			continue
		}
		payload := Payload{}
		if match.Vector.Metadata != nil {
			payload = Payload(match.Vector.Metadata.AsMap())
		}
		hits = append(hits, ScoredPoint{ID: match.Vector.Id, Score: match.Score, Payload: payload})
	}
	return hits, nil
}

func (s *PineconeStore) DeleteByField(ctx context.Context, field, value string) error {
	filter, err := pineconeFilter(map[string]string{field: value})
	if err != nil {
		return NewValidationError("delete", err.Error())
	}
	if err := s.index.DeleteVectorsByFilter(ctx, filter); err != nil {
		return NewOperationError("delete", "delete by filter failed", err)
	}
	return nil
}

func (s *PineconeStore) HealthCheck(ctx context.Context) error {
	if _, err := s.index.DescribeIndexStats(ctx); err != nil {
		return NewConnectionError("health_check", "pinecone health check failed", err)
	}
	return nil
}

func (s *PineconeStore) Close() error {
	return s.index.Close()
}

// pineconeFilter builds {"field": {"$eq": value}, ...}.
func pineconeFilter(filter map[string]string) (*structpb.Struct, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(filter))
	for field, value := range filter {
		m[field] = map[string]any{"$eq": value}
	}
	return structpb.NewStruct(m)
}
