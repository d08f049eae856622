package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/searchbot/internal/domain"
)

// Config holds the searchbot configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Cache     CacheConfig     `yaml:"cache"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds bot endpoint authentication settings.
type AuthConfig struct {
	AppPasswords []string `yaml:"app_passwords"` // empty = auth disabled
	CORSOrigins  []string `yaml:"cors_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds the search service connection and query strategy.
type SearchConfig struct {
	Endpoint              string   `yaml:"endpoint"`
	APIKey                string   `yaml:"api_key"`
	IndexName             string   `yaml:"index_name"`
	APIVersion            string   `yaml:"api_version"`
	Mode                  string   `yaml:"mode"` // keyword, semantic, vector, hybrid
	SemanticConfiguration string   `yaml:"semantic_configuration"`
	SelectFields          []string `yaml:"select_fields"`
	SearchFields          []string `yaml:"search_fields"`
	VectorField           string   `yaml:"vector_field"`
	VectorK               int      `yaml:"vector_k"`
	Top                   int      `yaml:"top"`
	TokenBudget           int      `yaml:"token_budget"`
	TimeoutSec            int      `yaml:"timeout_sec"`
	ReadyTimeoutSec       int      `yaml:"ready_timeout_sec"`
}

// EmbeddingConfig holds the embedding deployment settings.
type EmbeddingConfig struct {
	APIType    string `yaml:"api_type"` // azure (default), openai
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
	Dimensions int    `yaml:"dimensions"` // > 0 adds a vector field to the index
}

// ChatConfig holds the language model deployment settings.
type ChatConfig struct {
	APIType     string  `yaml:"api_type"`
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Deployment  string  `yaml:"deployment"` // empty = retrieval-only replies
	APIVersion  string  `yaml:"api_version"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	PromptFile  string  `yaml:"prompt_file"`
}

// TokenizerConfig selects the token counter.
type TokenizerConfig struct {
	Encoding string `yaml:"encoding"` // cl100k_base (default), words
}

// CacheConfig holds the embedding cache connection.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"` // empty = caching disabled
	Password string   `yaml:"password"`
	TTLHours int      `yaml:"ttl_hours"`
}

// IngestConfig holds offline ingestion settings.
type IngestConfig struct {
	DataDir     string  `yaml:"data_dir"`
	URIPrefix   string  `yaml:"uri_prefix"`
	Concurrency int     `yaml:"concurrency"`
	EmbedRPS    float64 `yaml:"embed_rps"` // 0 = unlimited
	EmbedBurst  int     `yaml:"embed_burst"`
	// WatchDebounceMs groups file events before the watch command re-uploads.
	WatchDebounceMs int `yaml:"watch_debounce_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded into the environment first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3978
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.Mode == "" {
		c.Search.Mode = "semantic"
	}
	if c.Search.TokenBudget <= 0 {
		c.Search.TokenBudget = 1000
	}
	if c.Search.VectorK <= 0 {
		c.Search.VectorK = 2
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	if c.Search.ReadyTimeoutSec <= 0 {
		c.Search.ReadyTimeoutSec = 60
	}
	if c.Tokenizer.Encoding == "" {
		c.Tokenizer.Encoding = "cl100k_base"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 7
	}
	if c.Ingest.Concurrency <= 0 {
		c.Ingest.Concurrency = 4
	}
	if c.Ingest.WatchDebounceMs <= 0 {
		c.Ingest.WatchDebounceMs = 500
	}
	// The chat deployment shares the embedding endpoint and key unless set.
	if c.Chat.Endpoint == "" {
		c.Chat.Endpoint = c.Embedding.Endpoint
	}
	if c.Chat.APIKey == "" {
		c.Chat.APIKey = c.Embedding.APIKey
	}
}

// Validate checks the configuration for correctness.
// Credentials are not checked here; see RequireSearch, RequireEmbedding and RequireChat.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Search.Mode {
	case "keyword", "semantic", "vector", "hybrid":
	default:
		return fmt.Errorf("search.mode must be keyword, semantic, vector or hybrid, got %q", c.Search.Mode)
	}
	switch c.Tokenizer.Encoding {
	case "cl100k_base", "o200k_base", "p50k_base", "r50k_base", "words":
	default:
		return fmt.Errorf("tokenizer.encoding %q is not supported", c.Tokenizer.Encoding)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Ingest.EmbedRPS < 0 {
		return fmt.Errorf("ingest.embed_rps must not be negative, got %v", c.Ingest.EmbedRPS)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be between 0 and 2, got %v", c.Chat.Temperature)
	}
	return nil
}

// RequireSearch checks the settings every search service operation needs.
func (c *Config) RequireSearch() error {
	return domain.RequireSettings("search",
		"search.endpoint", c.Search.Endpoint,
		"search.api_key", c.Search.APIKey,
		"search.index_name", c.Search.IndexName,
	)
}

// RequireEmbedding checks the settings the embedding client needs.
func (c *Config) RequireEmbedding() error {
	return domain.RequireSettings("embedding",
		"embedding.endpoint", c.Embedding.Endpoint,
		"embedding.api_key", c.Embedding.APIKey,
		"embedding.deployment", c.Embedding.Deployment,
	)
}

// RequireChat checks the settings the language model client needs.
func (c *Config) RequireChat() error {
	return domain.RequireSettings("chat",
		"chat.endpoint", c.Chat.Endpoint,
		"chat.api_key", c.Chat.APIKey,
		"chat.deployment", c.Chat.Deployment,
	)
}

// NeedsEmbedding reports whether an embedder must be built: vector search, a vector field in
// the index, or hybrid search with an embedding deployment configured.
func (c *Config) NeedsEmbedding() bool {
	switch {
	case c.Search.Mode == "vector", c.Embedding.Dimensions > 0:
		return true
	case c.Search.Mode == "hybrid":
		return c.Embedding.Deployment != ""
	default:
		return false
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
