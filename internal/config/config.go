package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the rankfuse API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Keyword    KeywordConfig    `yaml:"keyword"`
	Vector     VectorConfig     `yaml:"vector"`
	Search     SearchConfig     `yaml:"search"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Facets     FacetConfig      `yaml:"facets"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // label for metrics (default: openai)
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	Dimensions     int    `yaml:"dimensions"`
	MaxInputLength int    `yaml:"max_input_length"`
	CacheTTLSec    int    `yaml:"cache_ttl_sec"` // embedding cache TTL, 0 disables caching
}

// KeywordConfig holds lexical index settings.
type KeywordConfig struct {
	// Path is the root directory for bleve indexes; empty keeps them in memory.
	Path string `yaml:"path"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	// TagFields are document fields indexed for server-side filtering.
	TagFields []string `yaml:"tag_fields"`
}

// SearchConfig holds coordinator settings.
type SearchConfig struct {
	KeywordWeight    float64 `yaml:"keyword_weight"`
	SemanticWeight   float64 `yaml:"semantic_weight"`
	BranchTimeoutSec int     `yaml:"branch_timeout_sec"`
	DegradePartial   bool    `yaml:"degrade_partial"`
	OverFetch        int     `yaml:"over_fetch"`
}

// NormalizerConfig holds typo-correction settings.
type NormalizerConfig struct {
	MinTokenLength  int `yaml:"min_token_length"`
	MaxEditDistance int `yaml:"max_edit_distance"`
	MaxAlternatives int `yaml:"max_alternatives"`
	MinFrequency    int `yaml:"min_frequency"`
}

// FacetConfig holds facet aggregation settings.
type FacetConfig struct {
	MaxValuesPerFacet  int    `yaml:"max_values_per_facet"`
	HierarchySeparator string `yaml:"hierarchy_separator"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // redis, memory, none (default: redis)
	TTLSec     int    `yaml:"ttl_sec"`
	MemorySize int    `yaml:"memory_size"` // entry cap for the memory backend
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Search.KeywordWeight <= 0 && c.Search.SemanticWeight <= 0 {
		c.Search.KeywordWeight = 0.3
		c.Search.SemanticWeight = 0.7
	}
	if c.Search.BranchTimeoutSec <= 0 {
		c.Search.BranchTimeoutSec = 5
	}
	if c.Search.OverFetch <= 0 {
		c.Search.OverFetch = 2
	}
	if c.Facets.MaxValuesPerFacet <= 0 {
		c.Facets.MaxValuesPerFacet = 10
	}
	if c.Facets.HierarchySeparator == "" {
		c.Facets.HierarchySeparator = "/"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "redis"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
	if c.Cache.MemorySize <= 0 {
		c.Cache.MemorySize = 1024
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.Cache.Backend {
	case "redis", "memory", "none":
		// ok
	default:
		return fmt.Errorf("cache.backend must be \"redis\", \"memory\" or \"none\", got %q", c.Cache.Backend)
	}
	if c.Search.KeywordWeight < 0 || c.Search.SemanticWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	return nil
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
