// Package config loads pagewise settings from an optional YAML file plus the
// environment, and validates the secrets the pipeline needs before any
// remote call is made.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Secret names looked up in the environment (or a .env file).
const (
	EnvGroqAPIKey    = "GROQ_API_KEY"
	EnvAstraToken    = "ASTRA_DB_APPLICATION_TOKEN"
	EnvAstraEndpoint = "ASTRA_DB_API_ENDPOINT"
)

// Vector index backends.
const (
	IndexAstra    = "astra"
	IndexPostgres = "postgres"
	IndexChromem  = "chromem"
	IndexMemory   = "memory"
)

// Embedding and generation providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BaseURL   string `yaml:"base_url"`
}

type GenerationConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type IndexConfig struct {
	Backend     string `yaml:"backend"`
	Collection  string `yaml:"collection"`
	PostgresDSN string `yaml:"postgres_dsn"`
	ChromemPath string `yaml:"chromem_path"`
}

type RetrievalConfig struct {
	K            int `yaml:"k"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type Config struct {
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	OllamaHost string           `yaml:"ollama_host"`

	// Secrets resolved from the environment, never from the YAML file.
	GroqAPIKey    string `yaml:"-"`
	AstraToken    string `yaml:"-"`
	AstraEndpoint string `yaml:"-"`
	OpenAIAPIKey  string `yaml:"-"`
}

// ConfigurationError reports missing or invalid credentials and settings. It
// is always raised before any network attempt.
type ConfigurationError struct {
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing credentials: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Load reads the YAML config at path, falling back to defaults when the file
// does not exist, then overlays secrets from the environment. A .env file in
// the working directory is honored when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	cfg.GroqAPIKey = os.Getenv(EnvGroqAPIKey)
	cfg.AstraToken = os.Getenv(EnvAstraToken)
	cfg.AstraEndpoint = os.Getenv(EnvAstraEndpoint)
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	return cfg, nil
}

// Default returns the built-in configuration: the models and retrieval
// parameters the pipeline was tuned with.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOllama
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-minilm:l6-v2"
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = 384
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderGroq
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gemma2-9b-it"
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 120
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = IndexAstra
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "pagewise_docs"
	}
	if cfg.Index.ChromemPath == "" {
		cfg.Index.ChromemPath = "./chromemdb"
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = 3
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 1000
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 150
	}
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = "http://localhost:11434"
	}
}

// CheckCredentials verifies the secrets the configured backends require and
// names every missing one. It performs no I/O.
func (c Config) CheckCredentials() error {
	var missing []string
	if c.Generation.Provider == ProviderGroq && c.GroqAPIKey == "" {
		missing = append(missing, EnvGroqAPIKey)
	}
	if c.Index.Backend == IndexAstra {
		if c.AstraToken == "" {
			missing = append(missing, EnvAstraToken)
		}
		if c.AstraEndpoint == "" {
			missing = append(missing, EnvAstraEndpoint)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
