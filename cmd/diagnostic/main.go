// File: cmd/diagnostic/main.go
//
// diagnostic probes the external services the server depends on using the
// same configuration, and can mint a bearer token for manual API calls.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/iyunix/go-medreport/internal/auth"
	"github.com/iyunix/go-medreport/internal/config"
	"github.com/iyunix/go-medreport/internal/services"
	"github.com/iyunix/go-medreport/internal/services/ai"
	"github.com/iyunix/go-medreport/internal/services/vector"
)

func main() {
	checkLLM := flag.Bool("llm", true, "send a short completion to the text model")
	checkEmbed := flag.Bool("embed", true, "embed a sample sentence")
	checkVector := flag.Bool("vector", true, "check the vector index and round-trip a probe point")
	tokenFor := flag.String("token", "", "print a JWT for this user id and exit")
	tokenTTL := flag.Duration("ttl", auth.DefaultTokenTTL, "lifetime of the minted token")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if *tokenFor != "" {
		if cfg.JWTSecretKey == "" {
			log.Fatal("JWT_SECRET_KEY not set in environment")
		}
		token, err := auth.GenerateJWT(*tokenFor, []byte(cfg.JWTSecretKey), *tokenTTL)
		if err != nil {
			log.Fatalf("failed to sign token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger := services.NewProductionLogger(os.Stderr, "diagnostic", services.LogLevelWarn, false)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	failed := false
	report := func(name string, err error, detail string) {
		if err != nil {
			failed = true
			fmt.Printf("❌ %s: %v\n", name, err)
			return
		}
		fmt.Printf("✅ %s %s\n", name, detail)
	}

	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.GenAIAPIKey
	aiConfig.BaseURL = cfg.GenAIBaseURL
	aiConfig.TextModel = cfg.TextModelName
	aiConfig.EmbeddingModel = cfg.EmbeddingModelName
	aiConfig.EmbeddingDimensions = cfg.VectorSize
	aiConfig.MaxRetries = 0

	var provider *ai.OpenAIProvider
	if *checkLLM || *checkEmbed {
		provider, err = ai.NewOpenAIProvider(aiConfig, logger)
		report("genai client", err, cfg.GenAIBaseURL)
	}

	if *checkLLM && provider != nil {
		text, err := provider.GetCompletion(ctx, "", "Reply with the single word OK.")
		report("completion", err, fmt.Sprintf("(%s): %q", cfg.TextModelName, text))
	}

	var probe []float32
	if *checkEmbed && provider != nil {
		probe, err = provider.CreateEmbedding(ctx, ai.EmbeddingRequest{
			Text: "Hemoglobin 13.5 g/dL within reference range.",
			Task: ai.TaskRetrievalQuery,
		})
		report("embedding", err, fmt.Sprintf("(%s): %d dimensions", cfg.EmbeddingModelName, len(probe)))
		if err == nil && len(probe) != cfg.VectorSize {
			report("embedding size", fmt.Errorf("got %d, VECTOR_SIZE is %d", len(probe), cfg.VectorSize), "")
		}
	}

	if *checkVector {
		vc := vector.DefaultConfig()
		vc.Backend = cfg.VectorBackend
		vc.URL = cfg.VectorStorageURL
		vc.APIKey = cfg.VectorStorageAPIKey
		vc.Collection = cfg.CollectionName
		vc.VectorSize = cfg.VectorSize
		vc.PineconeAPIKey = cfg.PineconeAPIKey
		vc.PineconeIndexHost = cfg.PineconeIndexHost
		vc.PineconeNamespace = cfg.PineconeNamespace

		index, err := vector.New(vc, logger)
		report("vector client", err, cfg.VectorBackend)
		if err == nil {
			defer index.Close()
			report("vector health", index.HealthCheck(ctx), "")
			report("vector collection", index.EnsureCollection(ctx), cfg.CollectionName)
			if len(probe) == cfg.VectorSize {
				report("vector round trip", roundTrip(ctx, index, probe), "")
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

// roundTrip writes a probe point under a throwaway user, finds it again and
// removes it.
func roundTrip(ctx context.Context, index vector.Store, vec []float32) error {
	probeUser := "diagnostic-" + uuid.NewString()
	point := vector.Point{
		ID:      uuid.NewString(),
		Vector:  vec,
		Payload: vector.Payload{"user_id": probeUser, "report_id": probeUser, "title": "diagnostic probe"},
	}
	if err := index.Upsert(ctx, point); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	defer index.DeleteByField(context.WithoutCancel(ctx), "user_id", probeUser)

	hits, err := index.Search(ctx, vector.Query{Vector: vec, Filter: map[string]string{"user_id": probeUser}, Limit: 1})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		// pinecone is eventually consistent; a fresh upsert may not be visible yet
		return fmt.Errorf("probe point not returned by search")
	}
	return nil
}
