package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		db      DatabaseConfig
		wantErr string
	}{
		{"valkey", DatabaseConfig{Driver: DriverValkey, Addrs: []string{"localhost:6379"}}, ""},
		{"redis without addrs", DatabaseConfig{Driver: DriverRedis}, "database.addrs is required"},
		{"postgres", DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://localhost/vidsearch"}, ""},
		{"postgres without dsn", DatabaseConfig{Driver: DriverPostgres}, "database.dsn is required"},
		{"memory", DatabaseConfig{Driver: DriverMemory}, ""},
		{"unknown", DatabaseConfig{Driver: "sqlite"}, "database.driver must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database = tt.db
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingValkeyAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing valkey addrs")
	}
}

func TestValidate_Search(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultTopK = 200
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for default_top_k above max_top_k")
	}

	cfg = validConfig()
	bad := 1.5
	cfg.Search.MinScore = &bad
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for min_score above 1")
	}

	cfg = validConfig()
	cfg.Search.MergeGap = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative merge_gap")
	}
}

func TestValidate_IndexAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		algo    string
		db      DatabaseConfig
		wantErr string
	}{
		{"hnsw valkey", AlgorithmHNSW, DatabaseConfig{Driver: DriverValkey, Addrs: []string{"localhost:6379"}}, ""},
		{"flat valkey", AlgorithmFlat, DatabaseConfig{Driver: DriverValkey, Addrs: []string{"localhost:6379"}}, ""},
		{"flat memory", AlgorithmFlat, DatabaseConfig{Driver: DriverMemory}, ""},
		{"flat postgres", AlgorithmFlat, DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://localhost/vidsearch"},
			"not supported by driver"},
		{"unknown", "ivf", DatabaseConfig{Driver: DriverMemory}, "index.algorithm must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database = tt.db
			cfg.Index.Algorithm = tt.algo
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_PostgresCandidateBudget(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://localhost/vidsearch"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults (100 x 10) must fit: %v", err)
	}

	cfg.Search.OverFetchFactor = 20
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "exceeds 1000 candidates") {
		t.Fatalf("expected candidate budget error, got %v", err)
	}

	// Valkey has no ef_search ceiling.
	cfg.Database = DatabaseConfig{Driver: DriverValkey, Addrs: []string{"localhost:6379"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != DriverValkey {
		t.Errorf("expected driver valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Dimensions != 512 {
		t.Errorf("expected Dimensions=512, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Index.Algorithm != AlgorithmHNSW {
		t.Errorf("expected algorithm hnsw, got %q", cfg.Index.Algorithm)
	}
	if cfg.Index.HNSWM != 16 || cfg.Index.HNSWEFConstruct != 200 {
		t.Errorf("unexpected HNSW defaults: %+v", cfg.Index)
	}
	if cfg.Search.DefaultTopK != 30 || cfg.Search.MaxTopK != 100 {
		t.Errorf("unexpected top_k defaults: %+v", cfg.Search)
	}
	if cfg.Search.MinScore == nil || *cfg.Search.MinScore != 0.1 {
		t.Errorf("expected MinScore=0.1, got %v", cfg.Search.MinScore)
	}
	if cfg.Search.OverFetchFactor != 10 || cfg.Search.SegmentWindow != 10.0 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Storage.KeyPrefix != "vidsearch:" {
		t.Errorf("expected KeyPrefix='vidsearch:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Storage.ThumbnailBase != "/frames" || cfg.Storage.VideoBase != "/videos" {
		t.Errorf("unexpected media bases: %+v", cfg.Storage)
	}
	if cfg.Embedding.Enabled() {
		t.Error("embedding must be disabled without base_url")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: DriverMemory, ReadinessTimeout: 15},
		Index:    IndexConfig{HNSWM: 32, HNSWEFConstruct: 400, MaxBatchSize: 50},
		Search:   SearchConfig{MinScore: &zero, SegmentWindow: 4},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("expected driver memory, got %q", cfg.Database.Driver)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if *cfg.Search.MinScore != 0 {
		t.Errorf("explicit min_score 0 must be kept, got %v", *cfg.Search.MinScore)
	}
	if cfg.Search.SegmentWindow != 4 {
		t.Errorf("expected SegmentWindow=4, got %v", cfg.Search.SegmentWindow)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("VIDSEARCH_TEST_PORT", "9090")

	got := string(expandEnvVars([]byte("port: ${VIDSEARCH_TEST_PORT}\nkey: ${VIDSEARCH_TEST_MISSING:-fallback}\nempty: ${VIDSEARCH_TEST_MISSING}")))
	want := "port: 9090\nkey: fallback\nempty: "
	if got != want {
		t.Errorf("expandEnvVars = %q, want %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: ${VIDSEARCH_TEST_HTTP_PORT:-8081}
database:
  driver: memory
search:
  min_score: 0
`
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8081 || cfg.Database.Driver != DriverMemory {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if *cfg.Search.MinScore != 0 {
		t.Errorf("expected min_score 0, got %v", *cfg.Search.MinScore)
	}
}
