// File: internal/services/vector/qdrant.go
package vector

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

const defaultQdrantGRPCPort = 6334

// QdrantStore uses the official gRPC client.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     Logger
}

var _ Store = (*QdrantStore)(nil)

// NewQdrantStore connects to config.URL. http(s)://host[:port] and bare
// host[:port] are accepted; https enables TLS.
func NewQdrantStore(config *Config, logger Logger) (*QdrantStore, error) {
	host, port, useTLS, err := parseQdrantURL(config.URL)
	if err != nil {
		return nil, NewConfigError(err.Error())
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: config.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, NewConnectionError("connect", "failed to create qdrant client", err)
	}

	logger.Info("Qdrant client initialized", "host", host, "port", port, "tls", useTLS, "collection", config.Collection)
	return &QdrantStore{
		client:     client,
		collection: config.Collection,
		dimension:  config.VectorSize,
		logger:     logger,
	}, nil
}

func parseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, false, fmt.Errorf("qdrant URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant URL: %w", err)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()
	port = defaultQdrantGRPCPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid qdrant port %q", p)
		}
	}
	if host == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant URL %q", raw)
	}
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		host = "[" + host + "]"
	}
	return host, port, useTLS, nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return NewConnectionError("ensure_collection", "failed to check collection", err)
	}
	if !exists {
		s.logger.Info("creating qdrant collection", "collection", s.collection, "dimension", s.dimension)
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return NewOperationError("ensure_collection", "failed to create collection", err)
		}
	}

	for _, idx := range PayloadIndexes {
		fieldType := qdrant.FieldType_FieldTypeKeyword
		if idx.Type == FieldText {
			fieldType = qdrant.FieldType_FieldTypeText
		}
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      idx.Field,
			FieldType:      fieldType.Enum(),
		})
		if err != nil {
			// Existing indexes are not an error worth failing startup for.
			s.logger.Debug("payload index not created", "field", idx.Field, "error", err)
		}
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, points ...Point) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return NewValidationError("upsert", fmt.Sprintf("expected %d dimensions, got %d", s.dimension, len(p.Vector)))
		}
		payload, err := qdrant.TryValueMap(p.Payload)
		if err != nil {
			return NewValidationError("upsert", "payload conversion failed: "+err.Error())
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         structs,
	})
	if err != nil {
		return NewOperationError("upsert", "upsert failed", err)
	}
	s.logger.Debug("upserted points", "count", len(structs))
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, q Query) ([]ScoredPoint, error) {
	limit := uint64(q.Limit)
	if limit == 0 {
		limit = 5
	}
	req := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(q.Vector...),
		Filter:         buildQdrantFilter(q.Filter),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if q.ScoreThreshold > 0 {
		threshold := q.ScoreThreshold
		req.ScoreThreshold = &threshold
	}

	result, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, NewOperationError("search", "query failed", err)
	}

	hits := make([]ScoredPoint, 0, len(result))
	for _, point := range result {
		hits = append(hits, ScoredPoint{
			ID:      extractPointID(point.GetId()),
			Score:   point.GetScore(),
			Payload: payloadFromQdrant(point.GetPayload()),
		})
	}
	return hits, nil
}

func (s *QdrantStore) DeleteByField(ctx context.Context, field, value string) error {
	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(buildQdrantFilter(map[string]string{field: value})),
	})
	if err != nil {
		return NewOperationError("delete", "delete by filter failed", err)
	}
	return nil
}

func (s *QdrantStore) HealthCheck(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return NewConnectionError("health_check", "qdrant health check failed", err)
	}
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func buildQdrantFilter(filter map[string]string) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filter))
	for field, value := range filter {
		must = append(must, qdrant.NewMatch(field, value))
	}
	return &qdrant.Filter{Must: must}
}

func extractPointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10)
	}
	return ""
}

func payloadFromQdrant(payload map[string]*qdrant.Value) Payload {
	out := make(Payload, len(payload))
	for k, v := range payload {
		out[k] = valueFromQdrant(v)
	}
	return out
}

func valueFromQdrant(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return map[string]any(payloadFromQdrant(kind.StructValue.GetFields()))
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, len(values))
		for i, item := range values {
			list[i] = valueFromQdrant(item)
		}
		return list
	default:
		return nil
	}
}
