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

// Config holds the vidsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Database drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

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

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`  // valkey, redis
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"` // postgres
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Vector index algorithms.
const (
	AlgorithmHNSW = "hnsw"
	AlgorithmFlat = "flat"
)

// maxPostgresCandidates is the highest hnsw.ef_search pgvector accepts.
const maxPostgresCandidates = 1000

// IndexConfig holds vector index and ingest settings.
type IndexConfig struct {
	Algorithm       string `yaml:"algorithm"` // hnsw (approximate) or flat (exact); default hnsw
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	MaxBatchSize    int `yaml:"max_batch_size"` // frames per ingested video
}

// SearchConfig holds lookup and segment defaults.
type SearchConfig struct {
	DefaultTopK     int      `yaml:"default_top_k"`
	MaxTopK         int      `yaml:"max_top_k"`
	MinScore        *float64 `yaml:"min_score"` // nil means 0.1; 0 keeps every hit
	OverFetchFactor int      `yaml:"overfetch_factor"`
	SegmentWindow   float64  `yaml:"segment_window"`
	MergeGap        float64  `yaml:"merge_gap"`
}

// StorageConfig holds storage and media link settings.
type StorageConfig struct {
	KeyPrefix     string `yaml:"key_prefix"`
	ThumbnailBase string `yaml:"thumbnail_base"`
	VideoBase     string `yaml:"video_base"`
}

// EmbeddingConfig holds the query text encoder settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"` // empty disables text search
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	SendDimensions   bool   `yaml:"send_dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	Cache            bool   `yaml:"cache"`
	CacheTTLSec      int    `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// Enabled reports whether a text encoder is configured.
func (e EmbeddingConfig) Enabled() bool { return e.BaseURL != "" }

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
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "clip"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "clip-vit-base-patch32"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 512
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = AlgorithmHNSW
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 10000
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 30
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 100
	}
	if c.Search.MinScore == nil {
		v := 0.1
		c.Search.MinScore = &v
	}
	if c.Search.OverFetchFactor <= 0 {
		c.Search.OverFetchFactor = 10
	}
	if c.Search.SegmentWindow <= 0 {
		c.Search.SegmentWindow = 10.0
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "vidsearch:"
	}
	if c.Storage.ThumbnailBase == "" {
		c.Storage.ThumbnailBase = "/frames"
	}
	if c.Storage.VideoBase == "" {
		c.Storage.VideoBase = "/videos"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, postgres, memory, got %q", c.Database.Driver)
	}
	switch c.Index.Algorithm {
	case AlgorithmHNSW:
	case AlgorithmFlat:
		if c.Database.Driver == DriverPostgres {
			return fmt.Errorf("index.algorithm %q is not supported by driver %q", AlgorithmFlat, DriverPostgres)
		}
	default:
		return fmt.Errorf("index.algorithm must be one of hnsw, flat, got %q", c.Index.Algorithm)
	}
	if c.Database.Driver == DriverPostgres && c.Search.MaxTopK*c.Search.OverFetchFactor > maxPostgresCandidates {
		return fmt.Errorf("search.max_top_k * search.overfetch_factor (%d) exceeds %d candidates for driver %q",
			c.Search.MaxTopK*c.Search.OverFetchFactor, maxPostgresCandidates, DriverPostgres)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if ms := c.Search.MinScore; ms != nil && (*ms < 0 || *ms > 1) {
		return fmt.Errorf("search.min_score must be between 0 and 1, got %v", *ms)
	}
	if c.Search.MergeGap < 0 {
		return fmt.Errorf("search.merge_gap must be >= 0, got %v", c.Search.MergeGap)
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
