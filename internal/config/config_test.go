package config

import (
	"os"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
	if !strings.Contains(err.Error(), "database.addrs") {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_InvalidFusionMethod(t *testing.T) {
	cfg := validConfig()
	cfg.Search.FusionMethod = "linear"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid fusion method")
	}

	expected := `search.fusion_method must be "rrf" or "weighted", got "linear"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidFusionMethods(t *testing.T) {
	for _, method := range []string{"rrf", "weighted"} {
		t.Run("method="+method, func(t *testing.T) {
			cfg := validConfig()
			cfg.Search.FusionMethod = method
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for method %q: %v", method, err)
			}
		})
	}
}

func TestValidate_InvalidNormalization(t *testing.T) {
	cfg := validConfig()
	cfg.Search.BM25Normalization = "log-scale"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid bm25 normalization")
	}

	cfg = validConfig()
	cfg.Search.VectorNormalization = "rank"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid vector normalization")
	}
}

func TestValidate_BM25BOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Search.BM25B = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bm25_b above 1")
	}
}

func TestValidate_OverlapAboveMaxTokens(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.MaxTokens = 100
	cfg.Chunking.Overlap = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= max tokens")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Search.FusionMethod != "rrf" {
		t.Errorf("fusion method default: got %q", cfg.Search.FusionMethod)
	}
	if cfg.Search.RRFK != 60 {
		t.Errorf("rrf_k default: got %d", cfg.Search.RRFK)
	}
	if cfg.Search.BaseVectorWeight != 0.5 || cfg.Search.BaseBM25Weight != 0.5 {
		t.Errorf("base weight defaults: got %v/%v", cfg.Search.BaseVectorWeight, cfg.Search.BaseBM25Weight)
	}
	if cfg.Search.BM25K1 != 1.2 || cfg.Search.BM25B != 0.75 {
		t.Errorf("bm25 parameter defaults: got %v/%v", cfg.Search.BM25K1, cfg.Search.BM25B)
	}
	if cfg.Search.VectorNormalization != "passthrough" || cfg.Search.BM25Normalization != "z-score" {
		t.Errorf("normalization defaults: got %q/%q", cfg.Search.VectorNormalization, cfg.Search.BM25Normalization)
	}
	if cfg.Chunking.MaxTokens != 500 || cfg.Chunking.Overlap != 50 || cfg.Chunking.CharsPerToken != 4 {
		t.Errorf("chunking defaults: got %+v", cfg.Chunking)
	}
	if cfg.Cache.TTLSec != 300 || cfg.Cache.MaxEntries != 1000 {
		t.Errorf("cache defaults: got %+v", cfg.Cache)
	}
	if cfg.Search.FixedWeights {
		t.Error("adaptive balancing should be enabled by default")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Search: SearchConfig{RRFK: 30, FusionMethod: "weighted"},
	}
	cfg.ApplyDefaults()

	if cfg.Search.RRFK != 30 {
		t.Errorf("explicit rrf_k overridden: got %d", cfg.Search.RRFK)
	}
	if cfg.Search.FusionMethod != "weighted" {
		t.Errorf("explicit fusion method overridden: got %q", cfg.Search.FusionMethod)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("RANKFUSE_TEST_PORT", "9090")
	defer os.Unsetenv("RANKFUSE_TEST_PORT")

	input := []byte("port: ${RANKFUSE_TEST_PORT}\nhost: ${RANKFUSE_TEST_HOST:-localhost}\nempty: ${RANKFUSE_TEST_UNSET}")
	got := string(expandEnvVars(input))
	want := "port: 9090\nhost: localhost\nempty: "
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}
