// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string

	DatabaseURL string

	// Generative AI endpoint. Any OpenAI-compatible API works; the default
	// points at Gemini's compatibility layer.
	GenAIAPIKey        string
	GenAIBaseURL       string
	TextModelName      string
	EmbeddingModelName string

	// Vector index
	VectorBackend       string
	VectorStorageURL    string
	VectorStorageAPIKey string
	CollectionName      string
	VectorSize          int
	PineconeAPIKey      string
	PineconeIndexHost   string
	PineconeNamespace   string

	RetrievalTopK  int
	ScoreThreshold float32

	AnalysisWorkers      int
	AnalysisQueueSize    int
	ReconcileInterval    time.Duration
	StaleProcessingAfter time.Duration
	MaxUploadBytes       int64

	JWTSecretKey       string
	RateLimitPerMinute int
	AllowedOrigins     []string
	PromptsFile        string
}

// IsProduction reports whether GO_ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// New reads configuration from environment variables or a .env file.
func New() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if !strings.EqualFold(env, "production") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:  getEnv("PORT", "8080"),
		Environment: env,

		DatabaseURL: getEnv("DATABASE_URL", "sqlite://./sql_app.db"),

		GenAIAPIKey:        getEnv("GENAI_API_KEY", ""),
		GenAIBaseURL:       getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		TextModelName:      getEnv("GENAI_MODEL", "gemini-2.0-flash"),
		EmbeddingModelName: getEnv("GENAI_EMBEDDING_MODEL", "text-embedding-004"),

		VectorBackend:       strings.ToLower(getEnv("VECTOR_BACKEND", "qdrant")),
		VectorStorageURL:    getEnv("VECTOR_STORAGE_URL", "http://localhost:6334"),
		VectorStorageAPIKey: getEnv("VECTOR_STORAGE_API_KEY", ""),
		CollectionName:      getEnv("COLLECTION_NAME", "medical_reports"),
		VectorSize:          getEnvAsInt("VECTOR_SIZE", 768),
		PineconeAPIKey:      getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost:   getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace:   getEnv("PINECONE_NAMESPACE", "medical_reports"),

		RetrievalTopK:  getEnvAsInt("RETRIEVAL_TOP_K", 5),
		ScoreThreshold: getEnvAsFloat("SCORE_THRESHOLD", 0.5),

		AnalysisWorkers:      getEnvAsInt("ANALYSIS_WORKERS", 4),
		AnalysisQueueSize:    getEnvAsInt("ANALYSIS_QUEUE_SIZE", 64),
		ReconcileInterval:    getEnvAsDuration("RECONCILE_INTERVAL", 5*time.Minute),
		StaleProcessingAfter: getEnvAsDuration("STALE_PROCESSING_AFTER", 30*time.Minute),
		MaxUploadBytes:       int64(getEnvAsInt("MAX_UPLOAD_MB", 10)) << 20,

		JWTSecretKey:       getEnv("JWT_SECRET_KEY", ""),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		PromptsFile:        getEnv("PROMPTS_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is New for callers that cannot continue without configuration.
func Load() *Config {
	cfg, err := New()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return cfg
}

// Validate checks value ranges everywhere and required keys in production.
func (c *Config) Validate() error {
	switch c.VectorBackend {
	case "qdrant", "pinecone", "memory":
	default:
		return fmt.Errorf("unsupported VECTOR_BACKEND %q", c.VectorBackend)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("VECTOR_SIZE must be positive")
	}
	if c.AnalysisWorkers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1")
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("SCORE_THRESHOLD must be within [0, 1]")
	}

	if !c.IsProduction() {
		return nil
	}
	missing := []string{}
	if c.GenAIAPIKey == "" {
		missing = append(missing, "GENAI_API_KEY")
	}
	switch c.VectorBackend {
	case "qdrant":
		if c.VectorStorageURL == "" {
			missing = append(missing, "VECTOR_STORAGE_URL")
		}
	case "pinecone":
		if c.PineconeAPIKey == "" {
			missing = append(missing, "PINECONE_API_KEY")
		}
		if c.PineconeIndexHost == "" {
			missing = append(missing, "PINECONE_INDEX_HOST")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required production environment variables: %v", missing)
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float32) float32 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strValue, 32)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as float. Using default value.", key)
		return defaultValue
	}
	return float32(f)
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsDuration accepts Go durations ("90s", "5m"); "0" disables.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if strValue == "0" {
		return 0
	}
	d, err := time.ParseDuration(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
		return defaultValue
	}
	return d
}
