package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"groq", "openai", "anthropic", "gemini", "ollama", "deepseek", "mistral"},
	"stt":        {"whisper", "whisper-native"},
	"tts":        {"coqui", "console"},
	"embeddings": {"openai"},
}

// LoadDotEnv loads variables from a .env file in the working directory into
// the process environment, if one exists. Variables already set in the
// environment win. Call this before [Load] so ${ENV_VAR} expansion can see
// the secrets.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("config: failed to load .env", "error", err)
		}
	}
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, expands ${ENV_VAR} references
// in secret-bearing fields, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	expandEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnv resolves ${ENV_VAR} references in fields that commonly carry
// secrets or deployment-specific endpoints.
func expandEnv(cfg *Config) {
	for _, e := range []*ProviderEntry{
		&cfg.Providers.LLM,
		&cfg.Providers.STT,
		&cfg.Providers.STTFallback,
		&cfg.Providers.TTS,
		&cfg.Providers.Embeddings,
	} {
		e.APIKey = os.ExpandEnv(e.APIKey)
		e.BaseURL = os.ExpandEnv(e.BaseURL)
	}
	cfg.Storage.PostgresDSN = os.ExpandEnv(cfg.Storage.PostgresDSN)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("stt", cfg.Providers.STTFallback.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)

	// Provider availability warnings
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; sessions will use the built-in question bank")
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; responses will use fallback audio scores")
	}

	// Interview bounds
	iv := cfg.Interview
	if iv.QuestionCount != 0 && (iv.QuestionCount < 1 || iv.QuestionCount > 20) {
		errs = append(errs, fmt.Errorf("interview.question_count %d is out of range [1, 20]", iv.QuestionCount))
	}
	if iv.QuestionTimeLimitSec != 0 && (iv.QuestionTimeLimitSec < 30 || iv.QuestionTimeLimitSec > 600) {
		errs = append(errs, fmt.Errorf("interview.question_time_limit_sec %d is out of range [30, 600]", iv.QuestionTimeLimitSec))
	}
	if iv.FrameIntervalMs < 0 {
		errs = append(errs, fmt.Errorf("interview.frame_interval_ms %d must not be negative", iv.FrameIntervalMs))
	}
	if iv.AnalysisStride < 0 {
		errs = append(errs, fmt.Errorf("interview.analysis_stride %d must not be negative", iv.AnalysisStride))
	}

	// Embeddings ↔ storage dimensions
	if cfg.Providers.Embeddings.Name != "" && cfg.Storage.EmbeddingDimensions <= 0 {
		slog.Warn("providers.embeddings is configured but storage.embedding_dimensions is not set; defaulting to 1536")
	}
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; analytics and semantic lookups are disabled")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
