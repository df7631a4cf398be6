// Package config loads and validates organizador's configuration: scanner
// filters, rule file location, LLM backend selection, and planner/executor
// defaults. Values come from (in increasing priority) built-in defaults, a
// YAML file, environment variables, and CLI flags layered on top by the
// caller.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/brunoalves/organizador/internal/errkind"
)

// Backend selects which LLM classifier backend to use.
type Backend string

const (
	BackendLocal      Backend = "local" // Ollama
	BackendGemini     Backend = "gemini"
	BackendOpenAI     Backend = "openai"
	BackendRulesOnly  Backend = "rules-only"
)

// ScannerConfig controls Scan (spec §4.1).
type ScannerConfig struct {
	MinSizeBytes       int64    `mapstructure:"min_size_bytes"`
	ExcludedDirs       []string `mapstructure:"excluded_dirs"`
	ExcludedExtensions []string `mapstructure:"excluded_extensions"`
}

// LLMConfig controls the LLM classifier (spec §4.4).
type LLMConfig struct {
	Backend            Backend       `mapstructure:"backend"`
	Model              string        `mapstructure:"model"`
	OllamaBaseURL       string        `mapstructure:"ollama_base_url"`
	Concurrency        int           `mapstructure:"concurrency"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	BackoffInitial     time.Duration `mapstructure:"backoff_initial"`
	BackoffMax         time.Duration `mapstructure:"backoff_max"`
	BackoffMaxAttempts int           `mapstructure:"backoff_max_attempts"`
	UseKeychain        bool          `mapstructure:"use_keychain"`

	OpenAIKey string `mapstructure:"-"`
	GoogleKey string `mapstructure:"-"`
}

// PlannerConfig controls destination layout and collision policy (spec §4.5).
type PlannerConfig struct {
	BaseRoot      string `mapstructure:"base_root"`
	CopyMode      bool   `mapstructure:"copy_mode"`
	MinConfidence int    `mapstructure:"min_confidence"` // apply threshold, default 85
	MaxBaseName   int    `mapstructure:"max_base_name"`  // default 200
	MaxVersionTry int    `mapstructure:"max_version_try"` // collision cap, default 999
}

// ExecutorConfig controls Execute (spec §4.6).
type ExecutorConfig struct {
	PerFileTimeout time.Duration `mapstructure:"per_file_timeout"` // default 60s
	OverallTimeout time.Duration `mapstructure:"overall_timeout"`
}

// Config is the root configuration object.
type Config struct {
	RulesFile string        `mapstructure:"rules_file"`
	Scanner   ScannerConfig `mapstructure:"scanner"`
	LLM       LLMConfig     `mapstructure:"llm"`
	Planner   PlannerConfig `mapstructure:"planner"`
	Executor  ExecutorConfig `mapstructure:"executor"`
}

// Default excluded directory and extension sets per spec §4.1.
var (
	DefaultExcludedDirs = []string{
		".git", ".ssh", ".gnupg", ".vscode", ".idea",
		"node_modules", "__pycache__", "venv",
		"$RECYCLE.BIN", "System Volume Information",
	}
	DefaultExcludedExtensions = []string{
		"exe", "dll", "sys", "msi", "bat", "ps1", "sh",
	}
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RulesFile: "rules.yaml",
		Scanner: ScannerConfig{
			MinSizeBytes:       1024,
			ExcludedDirs:       append([]string(nil), DefaultExcludedDirs...),
			ExcludedExtensions: append([]string(nil), DefaultExcludedExtensions...),
		},
		LLM: LLMConfig{
			Backend:            BackendLocal,
			Model:              "llama3.1",
			OllamaBaseURL:      "http://localhost:11434",
			Concurrency:        4,
			RequestsPerMinute:  60,
			MaxAttempts:        3,
			RequestTimeout:     30 * time.Second,
			BackoffInitial:     1 * time.Second,
			BackoffMax:         30 * time.Second,
			BackoffMaxAttempts: 5,
		},
		Planner: PlannerConfig{
			BaseRoot:      "organized",
			CopyMode:      false,
			MinConfidence: 85,
			MaxBaseName:   200,
			MaxVersionTry: 999,
		},
		Executor: ExecutorConfig{
			PerFileTimeout: 60 * time.Second,
			OverallTimeout: 0,
		},
	}
}

// Load reads configuration from an optional YAML file at path, with
// defaults beneath it and environment variables above it. An empty path
// only applies defaults and environment variables.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("rules_file", def.RulesFile)
	v.SetDefault("scanner", def.Scanner)
	v.SetDefault("llm", def.LLM)
	v.SetDefault("planner", def.Planner)
	v.SetDefault("executor", def.Executor)

	v.SetEnvPrefix("ORGANIZADOR")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errkind.Wrapf(err, errkind.Config, "reading config file %s", path)
		}
	}

	cfg := def
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errkind.Wrapf(err, errkind.Config, "decoding configuration")
	}

	cfg.LLM.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.GoogleKey = os.Getenv("GOOGLE_API_KEY")
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		cfg.LLM.OllamaBaseURL = url
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the invariants config must satisfy before Scan begins
// (spec §7: ConfigError is fatal and must fail before Scan).
func Validate(cfg *Config) error {
	switch cfg.LLM.Backend {
	case BackendLocal, BackendGemini, BackendOpenAI, BackendRulesOnly:
	default:
		return errkind.Newf(errkind.Config, "unknown backend %q", cfg.LLM.Backend)
	}
	if cfg.Planner.MinConfidence < 0 || cfg.Planner.MinConfidence > 100 {
		return errkind.Newf(errkind.Config, "min_confidence must be 0-100, got %d", cfg.Planner.MinConfidence)
	}
	if cfg.Planner.MaxBaseName <= 0 {
		return errkind.Newf(errkind.Config, "max_base_name must be positive")
	}
	if cfg.Scanner.MinSizeBytes < 0 {
		return errkind.Newf(errkind.Config, "min_size_bytes cannot be negative")
	}
	return nil
}

func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := cwd
	for i := 0; i < 5; i++ {
		p := filepath.Join(dir, ".env")
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// RunTimestamp returns the timestamp format embedded in persisted
// artifact file names (spec §6: YYYYMMDD_HHMMSS).
func RunTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
