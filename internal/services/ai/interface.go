// File: internal/services/ai/interface.go
package ai

import "context"

// EmbeddingTask tells the embedder how the text will be used.
type EmbeddingTask string

const (
	TaskRetrievalDocument EmbeddingTask = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    EmbeddingTask = "RETRIEVAL_QUERY"
)

type EmbeddingRequest struct {
	Text  string
	Title string // document title, used with TaskRetrievalDocument
	Task  EmbeddingTask
}

// EmbeddingProvider handles text embeddings
type EmbeddingProvider interface {
	CreateEmbedding(ctx context.Context, req EmbeddingRequest) ([]float32, error)
}

// CompletionProvider handles text generation. An empty string with a nil
// error means the model answered without usable text.
type CompletionProvider interface {
	GetCompletion(ctx context.Context, model, prompt string) (string, error)
}

// VisionProvider generates text from a prompt plus one image.
type VisionProvider interface {
	AnalyzeImage(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error)
}

// Provider combines all capabilities.
type Provider interface {
	EmbeddingProvider
	CompletionProvider
	VisionProvider
	HealthCheck(ctx context.Context) error
}
