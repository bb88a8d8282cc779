package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Vector sources.
const (
	VectorSourceFile   = "file"
	VectorSourceValkey = "valkey"
	VectorSourceOpenAI = "openai"
)

// Config holds the openalex4ml pipeline configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Paths     PathsConfig     `yaml:"paths"`
	OpenAlex  OpenAlexConfig  `yaml:"openalex"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Batch     BatchConfig     `yaml:"batch"`
	Split     SplitConfig     `yaml:"split"`
	Vectors   VectorsConfig   `yaml:"vectors"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// PathsConfig holds the on-disk layout of every stage.
type PathsConfig struct {
	Subjects   string `yaml:"subjects"`   // subject catalog JSON
	Docs       string `yaml:"docs"`       // retriever output
	Corrected  string `yaml:"corrected"`  // hierarchy corrector output
	Split      string `yaml:"split"`      // train shards + test.json
	Vectorized string `yaml:"vectorized"` // vectorizer output
	Stats      string `yaml:"stats"`      // statistics reports
	SKOS       string `yaml:"skos"`       // Turtle export file
}

// OpenAlexConfig holds work-listing client settings.
type OpenAlexConfig struct {
	Mailto            string  `yaml:"mailto"`              // polite pool address, optional
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// RetrievalConfig holds retriever settings.
type RetrievalConfig struct {
	Quota int  `yaml:"quota"` // documents per subject
	Raw   bool `yaml:"raw"`   // keep title+abstract text instead of tokens
}

// BatchConfig holds batch writer settings.
type BatchConfig struct {
	Threshold int `yaml:"threshold"` // records per shard before a flush
}

// SplitConfig holds stratified splitter settings.
type SplitConfig struct {
	TestFraction float64 `yaml:"test_fraction"`
	Seed         *uint64 `yaml:"seed"` // nil = random
}

// VectorsConfig holds vectorizer settings.
type VectorsConfig struct {
	Source      string `yaml:"source"`       // file, valkey, openai (default: file)
	File        string `yaml:"file"`         // vectors text file for source=file and `vectors load`
	KeyPrefix   string `yaml:"key_prefix"`   // Valkey key prefix for vectors and cache entries
	ImportBatch int    `yaml:"import_batch"` // vectors per pipelined write
}

// DatabaseConfig holds Valkey connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds OpenAI-compatible embedding settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	ChunkSize  int    `yaml:"chunk_size"` // texts per provider request
	Cache      bool   `yaml:"cache"`      // cache embeddings in Valkey
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Port        int `yaml:"port"` // 0 = disabled
	ShutdownSec int `yaml:"shutdown_timeout_sec"`
}

// Timeout returns the per-request OpenAlex timeout.
func (c OpenAlexConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// UsesValkey reports whether any configured component needs the database.
func (c *Config) UsesValkey() bool {
	return c.Vectors.Source == VectorSourceValkey || (c.Vectors.Source == VectorSourceOpenAI && c.Embedding.Cache)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Paths.Subjects == "" {
		c.Paths.Subjects = "data/openalex/subjects.json"
	}
	if c.Paths.Docs == "" {
		c.Paths.Docs = "data/openalex/docs"
	}
	if c.Paths.Corrected == "" {
		c.Paths.Corrected = "data/openalex/docs_corrected"
	}
	if c.Paths.Split == "" {
		c.Paths.Split = "data/openalex/split"
	}
	if c.Paths.Vectorized == "" {
		c.Paths.Vectorized = "data/openalex/vectorized"
	}
	if c.Paths.Stats == "" {
		c.Paths.Stats = "analysis"
	}
	if c.Paths.SKOS == "" {
		c.Paths.SKOS = "data/openalex/subjects.ttl"
	}
	if c.OpenAlex.TimeoutSec <= 0 {
		c.OpenAlex.TimeoutSec = 30
	}
	if c.Retrieval.Quota <= 0 {
		c.Retrieval.Quota = 100
	}
	if c.Batch.Threshold <= 0 {
		c.Batch.Threshold = 3000
	}
	if c.Split.TestFraction == 0 {
		c.Split.TestFraction = 0.01
	}
	if c.Vectors.Source == "" {
		c.Vectors.Source = VectorSourceFile
	}
	if c.Vectors.KeyPrefix == "" {
		c.Vectors.KeyPrefix = "openalex4ml:"
	}
	if c.Vectors.ImportBatch <= 0 {
		c.Vectors.ImportBatch = 1000
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.ChunkSize <= 0 {
		c.Embedding.ChunkSize = 256
	}
	if c.Metrics.ShutdownSec <= 0 {
		c.Metrics.ShutdownSec = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if f := c.Split.TestFraction; math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("split.test_fraction must be within [0, 1], got %v", f)
	}
	if c.OpenAlex.RequestsPerSecond < 0 {
		return fmt.Errorf("openalex.requests_per_second must not be negative, got %v", c.OpenAlex.RequestsPerSecond)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port)
	}
	switch c.Vectors.Source {
	case VectorSourceFile, VectorSourceValkey:
	case VectorSourceOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for vectors.source %q", VectorSourceOpenAI)
		}
	default:
		return fmt.Errorf("vectors.source must be %q, %q or %q, got %q",
			VectorSourceFile, VectorSourceValkey, VectorSourceOpenAI, c.Vectors.Source)
	}
	if c.UsesValkey() && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required for vectors.source %q", c.Vectors.Source)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
