package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration. Values come from an optional
// YAML file, overridden by environment variables, with defaults for the rest.
type Config struct {
	PgConn     string `yaml:"pg_conn"`
	ServerAddr string `yaml:"server_addr"`

	LMBaseURL  string `yaml:"lm_base_url"`
	APIKey     string `yaml:"api_key"`
	EmbedModel string `yaml:"embed_model"`
	ChatModel  string `yaml:"chat_model"`

	EmbedDim         int `yaml:"embed_dim"`
	EmbedTimeoutSecs int `yaml:"embed_timeout_secs"`
	BatchSize        int `yaml:"batch_size"`
	Concurrency      int `yaml:"concurrency"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MinChunkLen  int `yaml:"min_chunk_len"`

	MaxDocChars int `yaml:"max_doc_chars"`
	TopK        int `yaml:"top_k"`
}

// EmbedTimeout is the per-call embedding timeout.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSecs) * time.Second
}

// Load reads an optional YAML file from path, then applies env overrides and
// defaults. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.PgConn, "PG_CONN")
	setStr(&cfg.ServerAddr, "SERVER_ADDR")
	setStr(&cfg.LMBaseURL, "LM_BASE_URL")
	setStr(&cfg.APIKey, "LM_API_KEY")
	setStr(&cfg.EmbedModel, "EMBED_MODEL")
	setStr(&cfg.ChatModel, "LLM_MODEL")
	setInt(&cfg.EmbedDim, "EMBED_DIM")
	setInt(&cfg.EmbedTimeoutSecs, "EMBED_TIMEOUT_SECS")
	setInt(&cfg.BatchSize, "EMBED_BATCH_SIZE")
	setInt(&cfg.Concurrency, "EMBED_CONCURRENCY")
	setInt(&cfg.ChunkSize, "CHUNK_SIZE")
	setInt(&cfg.ChunkOverlap, "CHUNK_OVERLAP")
	setInt(&cfg.MinChunkLen, "MIN_CHUNK_LEN")
	setInt(&cfg.MaxDocChars, "MAX_DOC_CHARS")
	setInt(&cfg.TopK, "TOP_K")
}

func applyDefaults(cfg *Config) {
	if cfg.PgConn == "" {
		cfg.PgConn = "host=localhost port=5432 user=postgres password=postgres dbname=docqa sslmode=disable"
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":8080"
	}
	if cfg.LMBaseURL == "" {
		cfg.LMBaseURL = "http://localhost:1234/v1"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "not-needed"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-nomic-embed-text-v1.5"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "google/gemma-3n-e4b"
	}
	if cfg.EmbedDim == 0 {
		cfg.EmbedDim = 768
	}
	if cfg.EmbedTimeoutSecs == 0 {
		cfg.EmbedTimeoutSecs = 30
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 20
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 5
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 800
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 300
	}
	if cfg.MinChunkLen == 0 {
		cfg.MinChunkLen = 100
	}
	if cfg.MaxDocChars == 0 {
		cfg.MaxDocChars = 500_000
	}
	if cfg.TopK == 0 {
		cfg.TopK = 5
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
