// Package config provides the configuration schema, loader, and provider
// registry for the interview simulator.
package config

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// InterviewType selects which question categories a generated set draws from.
type InterviewType string

const (
	InterviewTechnical  InterviewType = "technical"
	InterviewBehavioral InterviewType = "behavioral"
	InterviewMixed      InterviewType = "mixed"
)

// IsValid reports whether t is a recognised interview type.
func (t InterviewType) IsValid() bool {
	switch t {
	case InterviewTechnical, InterviewBehavioral, InterviewMixed:
		return true
	}
	return false
}

// Difficulty grades the question set.
type Difficulty string

const (
	DifficultyEntry  Difficulty = "entry"
	DifficultyMid    Difficulty = "mid"
	DifficultySenior Difficulty = "senior"
)

// IsValid reports whether d is a recognised difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEntry, DifficultyMid, DifficultySenior:
		return true
	}
	return false
}

// Config is the root configuration structure for the interview simulator.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Interview InterviewConfig `yaml:"interview"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
	STT ProviderEntry `yaml:"stt"`

	// STTFallback is a secondary transcription backend tried when the primary
	// STT provider fails or its circuit is open. Optional.
	STTFallback ProviderEntry `yaml:"stt_fallback"`

	TTS        ProviderEntry `yaml:"tts"`
	Embeddings ProviderEntry `yaml:"embeddings"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "groq",
	// "whisper", "coqui").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	// Supports ${ENV_VAR} expansion.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "llama-3.3-70b-versatile", "base.en").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above.
	Options map[string]any `yaml:"options"`
}

// InterviewConfig tunes session behaviour.
type InterviewConfig struct {
	// ResultsDir is where interview result JSON files are written.
	// Defaults to the working directory.
	ResultsDir string `yaml:"results_dir"`

	// RecordingsDir is where per-utterance WAV recordings are written.
	// Empty disables recordings.
	RecordingsDir string `yaml:"recordings_dir"`

	// QuestionCount is the target number of questions per session, clamped to
	// [8, 12]. Zero means 10.
	QuestionCount int `yaml:"question_count"`

	// QuestionTimeLimitSec bounds each response window in seconds, range
	// [30, 600]. Zero means 180.
	QuestionTimeLimitSec int `yaml:"question_time_limit_sec"`

	// IncludeIntro enables the warm-up introduction phase.
	IncludeIntro bool `yaml:"include_intro"`

	// IncludeClosing enables the closing statement phase.
	IncludeClosing bool `yaml:"include_closing"`

	// Hints enables mid-question coaching hints on the live feed.
	Hints bool `yaml:"hints"`

	// FrameIntervalMs is the delay between frame reads in the analysis loop.
	// Zero means 100 ms.
	FrameIntervalMs int `yaml:"frame_interval_ms"`

	// AnalysisStride analyses every Nth captured frame. Zero means 10.
	AnalysisStride int `yaml:"analysis_stride"`

	// QuestionBankPath points to a YAML file holding the fallback question
	// bank. Empty uses the built-in bank.
	QuestionBankPath string `yaml:"question_bank_path"`

	// FramesDir points to a directory of image files used as the video
	// source. Empty uses the synthetic generator.
	FramesDir string `yaml:"frames_dir"`

	// Vocabulary lists proper nouns (company names, products, frameworks)
	// the transcript corrector repairs STT mishearings toward.
	Vocabulary []string `yaml:"vocabulary"`

	// ResponseWAVPaths lists WAV files replayed as candidate responses
	// instead of recording from the microphone. Used for demos and headless
	// runs.
	ResponseWAVPaths []string `yaml:"response_wav_paths"`
}

// StorageConfig holds settings for the optional Postgres analytics store.
type StorageConfig struct {
	// PostgresDSN is the PostgreSQL connection string for the analytics and
	// semantic-index store. Empty disables persistence beyond JSON reports.
	// Supports ${ENV_VAR} expansion.
	PostgresDSN string `yaml:"postgres_dsn"`

	// EmbeddingDimensions is the vector dimension used for the response
	// embeddings column. Must match the model configured in
	// Providers.Embeddings.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`
}
