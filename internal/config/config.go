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
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds index backend connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// SearchConfig holds fusion and weighting settings.
type SearchConfig struct {
	FusionMethod     string  `yaml:"fusion_method"` // rrf (default) or weighted
	RRFK             int     `yaml:"rrf_k"`
	BaseVectorWeight float64 `yaml:"base_vector_weight"`
	BaseBM25Weight   float64 `yaml:"base_bm25_weight"`
	// FixedWeights disables adaptive ensemble balancing; weighted fusion
	// then uses the base weights as configured.
	FixedWeights bool    `yaml:"fixed_weights"`
	BM25K1       float64 `yaml:"bm25_k1"`
	BM25B        float64 `yaml:"bm25_b"`
	// Normalization applied per side before weighted fusion.
	VectorNormalization string `yaml:"vector_normalization"` // default passthrough
	BM25Normalization   string `yaml:"bm25_normalization"`   // default z-score
	TopK                int    `yaml:"top_k"`                // per-side candidate depth
	DefaultLimit        int    `yaml:"default_limit"`
	MaxLimit            int    `yaml:"max_limit"`
}

// ChunkingConfig holds document chunking settings.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	Overlap       int `yaml:"overlap"`
	CharsPerToken int `yaml:"chars_per_token"`
}

// CacheConfig holds query-result cache settings.
type CacheConfig struct {
	TTLSec     int `yaml:"ttl_sec"`
	MaxEntries int `yaml:"max_entries"`
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
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "rankfuse:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Search.FusionMethod == "" {
		c.Search.FusionMethod = "rrf"
	}
	if c.Search.RRFK <= 0 {
		c.Search.RRFK = 60
	}
	if c.Search.BaseVectorWeight <= 0 {
		c.Search.BaseVectorWeight = 0.5
	}
	if c.Search.BaseBM25Weight <= 0 {
		c.Search.BaseBM25Weight = 0.5
	}
	if c.Search.BM25K1 <= 0 {
		c.Search.BM25K1 = 1.2
	}
	if c.Search.BM25B <= 0 {
		c.Search.BM25B = 0.75
	}
	if c.Search.VectorNormalization == "" {
		c.Search.VectorNormalization = "passthrough"
	}
	if c.Search.BM25Normalization == "" {
		c.Search.BM25Normalization = "z-score"
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 50
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}

	if c.Chunking.MaxTokens <= 0 {
		c.Chunking.MaxTokens = 500
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = 50
	}
	if c.Chunking.CharsPerToken <= 0 {
		c.Chunking.CharsPerToken = 4
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 1000
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
	switch c.Search.FusionMethod {
	case "rrf", "weighted":
	default:
		return fmt.Errorf("search.fusion_method must be \"rrf\" or \"weighted\", got %q", c.Search.FusionMethod)
	}
	switch c.Search.BM25Normalization {
	case "min-max", "z-score", "none", "passthrough":
	default:
		return fmt.Errorf("search.bm25_normalization: unknown method %q", c.Search.BM25Normalization)
	}
	switch c.Search.VectorNormalization {
	case "min-max", "z-score", "none", "passthrough":
	default:
		return fmt.Errorf("search.vector_normalization: unknown method %q", c.Search.VectorNormalization)
	}
	if c.Search.BM25B < 0 || c.Search.BM25B > 1 {
		return fmt.Errorf("search.bm25_b must be in [0,1], got %v", c.Search.BM25B)
	}
	if c.Chunking.Overlap >= c.Chunking.MaxTokens {
		return fmt.Errorf(
			"chunking.overlap %d must be below chunking.max_tokens %d",
			c.Chunking.Overlap, c.Chunking.MaxTokens,
		)
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
