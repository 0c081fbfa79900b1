package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the media library service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Sync       SyncConfig       `yaml:"sync"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	AppName      string        `yaml:"app_name"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BodyLimitMB  int           `yaml:"body_limit_mb"` // restore uploads can be large
	FrontendURL  string        `yaml:"frontend_url"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Driver      string `yaml:"driver"` // "bolt", "postgres", "memory"
	Path        string `yaml:"path"`   // bolt file, relative to the data dir
	DatabaseURL string `yaml:"database_url"`
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	Collection           string `yaml:"collection"`
	Path                 string `yaml:"path"` // bolt file; shared with the record store when equal
	RebuildOnModelChange bool   `yaml:"rebuild_on_model_change"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider         string        `yaml:"provider"` // "ollama", "mock"
	BaseURL          string        `yaml:"base_url"`
	Model            string        `yaml:"model"`
	Timeout          time.Duration `yaml:"timeout"`
	PingTimeout     time.Duration `yaml:"ping_timeout"`
	DefaultDimension int           `yaml:"default_dimension"`
}

// GenerationConfig holds text generation configuration.
type GenerationConfig struct {
	Provider  string        `yaml:"provider"` // "ollama", "gemini", "none"
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RetrieveConfig holds semantic search configuration.
type RetrieveConfig struct {
	Overfetch          int           `yaml:"overfetch"`
	RelevanceThreshold float64       `yaml:"relevance_threshold"` // cosine distance; lower is stricter
	MaxResults         int           `yaml:"max_results"`
	CacheSize          int           `yaml:"cache_size"` // 0 disables the result cache
	CacheTTL           time.Duration `yaml:"cache_ttl"`
}

// SyncConfig holds index synchronization configuration.
type SyncConfig struct {
	Workers   int           `yaml:"workers"` // 0 = synchronous
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text", "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "3000",
			AppName:      "Media Library",
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
			BodyLimitMB:  64,
			FrontendURL:  "http://localhost:3000",
		},
		Store: StoreConfig{
			Driver: "bolt",
			Path:   "library.db",
		},
		Index: IndexConfig{
			Collection:           "media_library",
			Path:                 "library.db",
			RebuildOnModelChange: true,
		},
		Embedding: EmbeddingConfig{
			Provider:         "ollama",
			BaseURL:          "http://localhost:11434",
			Model:            "embeddinggemma:300m",
			Timeout:          30 * time.Second,
			PingTimeout:     5 * time.Second,
			DefaultDimension: 768,
		},
		Generation: GenerationConfig{
			Provider:  "gemini",
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta",
			Model:     "gemini-2.5-flash-lite",
			APIKeyEnv: "GOOGLE_GEMINI_API_KEY",
			Timeout:   60 * time.Second,
		},
		Retrieve: RetrieveConfig{
			Overfetch:          10,
			RelevanceThreshold: 0.7,
			MaxResults:         3,
			CacheSize:          100,
			CacheTTL:           5 * time.Minute,
		},
		Sync: SyncConfig{
			Workers:   2,
			QueueSize: 64,
			Timeout:   45 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnv()
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for medialib.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "medialib.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".medialib", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides deployment values from the environment.
func (c *Config) ApplyEnv() {
	c.Server.Port = envOrDefault("PORT", c.Server.Port)
	c.Store.DatabaseURL = envOrDefault("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.Driver = envOrDefault("STORE_DRIVER", c.Store.Driver)
	c.Index.Collection = envOrDefault("CHROMA_COLLECTION", c.Index.Collection)
	c.Embedding.BaseURL = envOrDefault("OLLAMA_URL", c.Embedding.BaseURL)
	c.Embedding.Model = envOrDefault("OLLAMA_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.DefaultDimension = envOrDefaultInt("EMBEDDING_DIMENSION", c.Embedding.DefaultDimension)
	c.Generation.Provider = envOrDefault("GENERATION_PROVIDER", c.Generation.Provider)
	if c.Generation.Provider == "ollama" {
		c.Generation.BaseURL = envOrDefault("OLLAMA_URL", c.Generation.BaseURL)
		c.Generation.Model = envOrDefault("OLLAMA_CHAT_MODEL", c.Generation.Model)
	}
	c.Logging.Level = envOrDefault("LOG_LEVEL", c.Logging.Level)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "bolt", "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	switch c.Embedding.Provider {
	case "ollama", "mock":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	switch c.Generation.Provider {
	case "ollama", "gemini", "none":
	default:
		return fmt.Errorf("unsupported generation provider: %s", c.Generation.Provider)
	}
	if c.Retrieve.RelevanceThreshold < 0 {
		return fmt.Errorf("retrieve.relevance_threshold must be >= 0, got %f", c.Retrieve.RelevanceThreshold)
	}
	if c.Retrieve.Overfetch < 1 {
		return fmt.Errorf("retrieve.overfetch must be >= 1, got %d", c.Retrieve.Overfetch)
	}
	if c.Retrieve.MaxResults < 1 {
		return fmt.Errorf("retrieve.max_results must be >= 1, got %d", c.Retrieve.MaxResults)
	}
	if c.Embedding.DefaultDimension < 1 {
		return fmt.Errorf("embedding.default_dimension must be >= 1, got %d", c.Embedding.DefaultDimension)
	}
	if c.Sync.Workers < 0 {
		return fmt.Errorf("sync.workers must be >= 0, got %d", c.Sync.Workers)
	}
	if c.Index.Collection == "" {
		return fmt.Errorf("index.collection must not be empty")
	}
	return nil
}

// DataDir returns the directory holding local database files.
func DataDir(dir string) string {
	return filepath.Join(dir, ".medialib")
}

// ResolvePath resolves a data file path against the data directory.
func ResolvePath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(DataDir(dir), name)
}

// EnsureDataDir ensures the .medialib directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
