package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Models
	EmbedModel     string `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	ValidatorModel string `envconfig:"VALIDATOR_MODEL" default:"gpt-4o-mini"`

	// Knowledge index
	KBGlob       string `envconfig:"KB_GLOB" default:"sample_kb/*"`
	IndexDir     string `envconfig:"INDEX_DIR" default:"kb_index"`
	ChunkSize    int    `envconfig:"CHUNK_SIZE" default:"800"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" default:"120"`
	TopK         int    `envconfig:"TOP_K" default:"8"`
	WatchKB      bool   `envconfig:"WATCH_KB" default:"false"`

	// Grounding validator
	ValidatorMode        string  `envconfig:"VALIDATOR_MODE" default:"enabled"`
	ConfidenceThreshold  float64 `envconfig:"CONFIDENCE_THRESHOLD" default:"0.7"`
	MaxRetries           int     `envconfig:"MAX_RETRIES" default:"2"`
	AllowOfflineFallback bool    `envconfig:"ALLOW_OFFLINE_FALLBACK" default:"true"`

	// Serving behavior
	AllowMockFallback bool   `envconfig:"ALLOW_MOCK_FALLBACK" default:"true"`
	APIKey            string `envconfig:"API_KEY"`

	// Optional S3-compatible report archive
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"medsum-reports"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MEDSUM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
