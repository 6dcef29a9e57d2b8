// Command interviewsim runs the mock-interview simulation server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MdSameerBaba/orbmech-interview/internal/analytics"
	"github.com/MdSameerBaba/orbmech-interview/internal/config"
	"github.com/MdSameerBaba/orbmech-interview/internal/observe"
	"github.com/MdSameerBaba/orbmech-interview/internal/question"
	"github.com/MdSameerBaba/orbmech-interview/internal/report"
	"github.com/MdSameerBaba/orbmech-interview/internal/resilience"
	"github.com/MdSameerBaba/orbmech-interview/internal/server"
	"github.com/MdSameerBaba/orbmech-interview/internal/session"
	"github.com/MdSameerBaba/orbmech-interview/internal/speech"
	"github.com/MdSameerBaba/orbmech-interview/internal/transcript"
	"github.com/MdSameerBaba/orbmech-interview/internal/vision"
	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/audio"
	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/video"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/embeddings"
	oaembed "github.com/MdSameerBaba/orbmech-interview/pkg/provider/embeddings/openai"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/llm"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/llm/anyllm"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt/whisper"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts/console"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts/coqui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env first so ${ENV_VAR} expansion in the config file sees its values.
	config.LoadDotEnv()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "interviewsim: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "interviewsim: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("interviewsim starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "interviewsim",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Question generation ───────────────────────────────────────────────────
	genOpts := []question.GeneratorOption{}
	if cfg.Interview.QuestionCount > 0 {
		genOpts = append(genOpts, question.WithCount(cfg.Interview.QuestionCount))
	}
	if path := cfg.Interview.QuestionBankPath; path != "" {
		bank, err := question.LoadBank(path)
		if err != nil {
			slog.Warn("failed to load question bank, using built-in", "path", path, "err", err)
		} else {
			genOpts = append(genOpts, question.WithBank(bank))
		}
	}
	generator := question.NewGenerator(providers.LLM, genOpts...)

	// Config reload: pick up question-bank swaps without a restart. Everything
	// else (providers, ports) needs a restart and is logged as such.
	watcher, err := config.NewWatcher(*configPath, func(old, cur *config.Config) {
		if cur.Interview.QuestionBankPath == old.Interview.QuestionBankPath {
			slog.Info("config changed; provider and server changes take effect on restart")
			return
		}
		bank, err := question.LoadBank(cur.Interview.QuestionBankPath)
		if err != nil {
			slog.Warn("reloaded config names an unreadable question bank, keeping previous",
				"path", cur.Interview.QuestionBankPath, "err", err)
			return
		}
		generator.SetBank(bank)
		slog.Info("question bank reloaded", "path", cur.Interview.QuestionBankPath)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Capture devices ───────────────────────────────────────────────────────
	recorder := newRecorder(cfg)
	defer recorder.Close()

	var frames video.FrameSource
	if dir := cfg.Interview.FramesDir; dir != "" {
		frames = video.NewDirSource(dir)
		slog.Info("video source", "kind", "directory", "dir", dir)
	} else {
		frames = video.NewSyntheticSource(0, 0)
		slog.Info("video source", "kind", "synthetic")
	}

	// ── Speech pipeline ───────────────────────────────────────────────────────
	samplerOpts := []speech.SamplerOption{}
	if dir := cfg.Interview.RecordingsDir; dir != "" {
		samplerOpts = append(samplerOpts, speech.WithRecordingsDir(dir))
	}
	if vocab := cfg.Interview.Vocabulary; len(vocab) > 0 {
		samplerOpts = append(samplerOpts, speech.WithCorrector(transcript.NewCorrector(vocab...)))
	}
	sampler := speech.NewSampler(recorder, providers.STT, samplerOpts...)

	// ── Analytics store (optional) ────────────────────────────────────────────
	var store *analytics.Store
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		storeOpts := []analytics.StoreOption{}
		if providers.Embeddings != nil {
			dims := cfg.Storage.EmbeddingDimensions
			if dims <= 0 {
				dims = 1536
			}
			storeOpts = append(storeOpts, analytics.WithEmbedder(providers.Embeddings, dims))
		}
		store, err = analytics.Open(ctx, dsn, storeOpts...)
		if err != nil {
			slog.Warn("analytics store unavailable, continuing without persistence", "err", err)
			store = nil
		} else {
			defer store.Close()
			slog.Info("analytics store connected", "semantic_index", providers.Embeddings != nil)
		}
	}

	// ── Orchestrator ──────────────────────────────────────────────────────────
	orchOpts := []session.Option{
		session.WithIntro(cfg.Interview.IncludeIntro),
		session.WithClosing(cfg.Interview.IncludeClosing),
		session.WithHints(cfg.Interview.Hints),
	}
	if ms := cfg.Interview.FrameIntervalMs; ms > 0 {
		orchOpts = append(orchOpts, session.WithFrameInterval(time.Duration(ms)*time.Millisecond))
	}
	if n := cfg.Interview.AnalysisStride; n > 0 {
		orchOpts = append(orchOpts, session.WithAnalysisStride(n))
	}
	if sec := cfg.Interview.QuestionTimeLimitSec; sec > 0 {
		orchOpts = append(orchOpts, session.WithTimeLimit(time.Duration(sec)*time.Second))
	}
	if voice := voiceFromConfig(cfg.Providers.TTS); voice.ID != "" {
		orchOpts = append(orchOpts, session.WithVoice(voice))
	}
	if store != nil {
		orchOpts = append(orchOpts, session.WithReportSink(store))
	}

	orch := session.NewOrchestrator(
		frames,
		vision.NewHeuristic(),
		sampler,
		providers.TTS,
		report.NewWriter(cfg.Interview.ResultsDir),
		orchOpts...,
	)

	// ── HTTP server ───────────────────────────────────────────────────────────
	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := server.New(addr, orch, generator, store)

	printStartupSummary(cfg, addr)
	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx, 15*time.Second); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// Flush any session still running when the signal arrived.
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := orch.Stop(stopCtx); err != nil {
		slog.Warn("session stop error during shutdown", "err", err)
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// providerSet holds the instantiated pipeline providers, each already wrapped
// in its circuit-breaker fallback chain where one applies. Any field may be
// nil; downstream components degrade per stage.
type providerSet struct {
	LLM        llm.Provider
	STT        stt.Provider
	TTS        tts.Provider
	Embeddings embeddings.Provider
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// The hosted chat backends share the same pattern: optional APIKey +
	// optional BaseURL.
	for _, providerName := range []string{
		"groq", "openai", "anthropic", "gemini", "deepseek", "mistral",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if mode := optString(entry.Options, "api_mode"); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	reg.RegisterTTS("console", func(entry config.ProviderEntry) (tts.Provider, error) {
		return console.New(), nil
	})

	// ── Embeddings ────────────────────────────────────────────────────────────

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})
}

// buildProviders instantiates every provider named in cfg and wraps each in
// its fallback chain: the LLM and TTS behind circuit breakers, the STT behind
// a breaker plus the optional secondary transcription backend. The console
// speaker is always the TTS chain's last resort so questions are never lost
// to a dead synthesis server.
func buildProviders(cfg *config.Config, reg *config.Registry) (*providerSet, error) {
	ps := &providerSet{}
	fbCfg := resilience.FallbackConfig{}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		ps.LLM = resilience.NewLLMFallback(p, name, fbCfg)
		slog.Info("provider created", "kind", "llm", "name", name, "model", cfg.Providers.LLM.Model)
	}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		}
		chain := resilience.NewSTTFallback(p, name, fbCfg)
		if fbName := cfg.Providers.STTFallback.Name; fbName != "" {
			fb, err := reg.CreateSTT(cfg.Providers.STTFallback)
			if err != nil {
				return nil, fmt.Errorf("create stt fallback provider %q: %w", fbName, err)
			}
			chain.AddFallback(fbName, fb)
			slog.Info("provider created", "kind", "stt_fallback", "name", fbName)
		}
		ps.STT = chain
		slog.Info("provider created", "kind", "stt", "name", name, "model", cfg.Providers.STT.Model)
	}

	ttsEntry := cfg.Providers.TTS
	if ttsEntry.Name == "" {
		ttsEntry.Name = "console"
	}
	ttsName := ttsEntry.Name
	ttsPrimary, err := reg.CreateTTS(ttsEntry)
	if err != nil {
		return nil, fmt.Errorf("create tts provider %q: %w", ttsName, err)
	}
	ttsChain := resilience.NewTTSFallback(ttsPrimary, ttsName, fbCfg)
	if ttsName != "console" {
		ttsChain.AddFallback("console", console.New())
	}
	ps.TTS = ttsChain
	slog.Info("provider created", "kind", "tts", "name", ttsName)

	if name := cfg.Providers.Embeddings.Name; name != "" {
		p, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
		if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
		}
		ps.Embeddings = p
		slog.Info("provider created", "kind", "embeddings", "name", name, "model", cfg.Providers.Embeddings.Model)
	}

	return ps, nil
}

// newRecorder picks the audio source: WAV replay when configured, then the
// microphone, then the null recorder so headless hosts still run sessions
// with fallback speech scores.
func newRecorder(cfg *config.Config) audio.Recorder {
	if paths := cfg.Interview.ResponseWAVPaths; len(paths) > 0 {
		rec, err := audio.NewFileRecorder(paths...)
		if err == nil {
			slog.Info("audio source", "kind", "wav_replay", "clips", len(paths))
			return rec
		}
		slog.Warn("wav replay unavailable, trying microphone", "err", err)
	}
	mic, err := audio.NewMic()
	if err != nil {
		slog.Warn("microphone unavailable, responses will use fallback scores", "err", err)
		return audio.NullRecorder{}
	}
	slog.Info("audio source", "kind", "microphone")
	return mic
}

// voiceFromConfig builds the interviewer voice profile from the TTS entry's
// options block.
func voiceFromConfig(entry config.ProviderEntry) tts.VoiceProfile {
	return tts.VoiceProfile{
		ID:       optString(entry.Options, "speaker_id"),
		Name:     optString(entry.Options, "speaker_name"),
		Provider: entry.Name,
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, addr string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║      interviewsim — startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("STT fallback", cfg.Providers.STTFallback.Name, cfg.Providers.STTFallback.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	printProvider("Embeddings", cfg.Providers.Embeddings.Name, cfg.Providers.Embeddings.Model)
	if cfg.Storage.PostgresDSN != "" {
		fmt.Printf("║  Analytics       : %-19s ║\n", "postgres")
	} else {
		fmt.Printf("║  Analytics       : %-19s ║\n", "(disabled)")
	}
	fmt.Printf("║  Listen addr     : %-19s ║\n", addr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
