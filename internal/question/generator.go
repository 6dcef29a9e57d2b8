package question

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MdSameerBaba/orbmech-interview/internal/config"
	"github.com/MdSameerBaba/orbmech-interview/internal/observe"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/llm"
)

const systemPrompt = `You are an experienced interviewer preparing a mock interview.
Respond with a JSON array only. Each element must be an object with the keys:
"text" (string, the question), "category" (one of "behavioral", "technical",
"system_design"), "difficulty" (one of "entry", "mid", "senior"),
"expected_duration_sec" (integer seconds the answer should take, 30-600),
"evaluation_criteria" (array of strings), "tags" (array of strings).
Do not wrap the array in markdown fences or add commentary.`

// Generator builds tailored question sets through an LLM, falling back to
// the static bank when the model is unavailable or returns garbage.
type Generator struct {
	provider llm.Provider
	metrics  *observe.Metrics
	count    int

	mu   sync.RWMutex
	bank *Bank
}

// SetBank swaps the fallback bank, e.g. after a config reload.
func (g *Generator) SetBank(b *Bank) {
	if b == nil {
		return
	}
	g.mu.Lock()
	g.bank = b
	g.mu.Unlock()
}

func (g *Generator) fallbackBank() *Bank {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bank
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithBank replaces the built-in fallback bank.
func WithBank(b *Bank) GeneratorOption {
	return func(g *Generator) { g.bank = b }
}

// WithCount sets the target question count, clamped to [MinQuestions,
// MaxQuestions]. Default: 10.
func WithCount(n int) GeneratorOption {
	return func(g *Generator) { g.count = n }
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) GeneratorOption {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a Generator. provider may be nil, in which case every
// Generate call returns the fallback bank.
func NewGenerator(provider llm.Provider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider: provider,
		bank:     DefaultBank(),
		count:    10,
	}
	for _, o := range opts {
		o(g)
	}
	if g.count < MinQuestions {
		g.count = MinQuestions
	}
	if g.count > MaxQuestions {
		g.count = MaxQuestions
	}
	if g.metrics == nil {
		g.metrics = observe.DefaultMetrics()
	}
	return g
}

// Generate produces a question set for qctx. Any provider, parse, or
// validation failure logs a warning and returns the fallback bank instead;
// Generate never fails outright.
func (g *Generator) Generate(ctx context.Context, qctx Context) Set {
	if g.provider == nil {
		return g.fallbackBank().Fallback(qctx.Type)
	}

	set, err := g.generate(ctx, qctx)
	if err != nil {
		slog.Warn("question generation failed, using fallback bank",
			"company", qctx.Company,
			"role", qctx.Role,
			"error", err)
		g.metrics.RecordProviderError(ctx, "llm", "question_generation")
		return g.fallbackBank().Fallback(qctx.Type)
	}
	return set
}

// generate performs the LLM round trip and strict schema validation.
func (g *Generator) generate(ctx context.Context, qctx Context) (Set, error) {
	start := time.Now()
	resp, err := g.provider.Complete(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(qctx, g.count)},
		},
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	g.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return Set{}, fmt.Errorf("question: completion: %w", err)
	}
	g.metrics.RecordProviderRequest(ctx, "llm", "question_generation", "ok")

	questions, err := decodeQuestions(resp.Content, qctx.Difficulty)
	if err != nil {
		return Set{}, err
	}

	if len(questions) < MinQuestions {
		return Set{}, fmt.Errorf("question: model returned %d questions, need at least %d", len(questions), MinQuestions)
	}
	if len(questions) > MaxQuestions {
		questions = questions[:MaxQuestions]
	}

	return Set{Questions: questions, Source: SourceGenerated}, nil
}

// buildPrompt renders the user message for the completion request.
func buildPrompt(qctx Context, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d interview questions for a %s interview.\n", count, interviewTypeLabel(qctx.Type))
	if qctx.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", qctx.Company)
	}
	if qctx.Role != "" {
		fmt.Fprintf(&b, "Role: %s\n", qctx.Role)
	}
	if qctx.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", qctx.Difficulty)
	}
	if qctx.CandidateSummary != "" {
		fmt.Fprintf(&b, "Candidate background: %s\n", qctx.CandidateSummary)
	}
	return b.String()
}

// interviewTypeLabel renders the type for the prompt.
func interviewTypeLabel(t config.InterviewType) string {
	if t == "" {
		return "mixed"
	}
	return string(t)
}

// questionSchema is the strict wire schema the model must produce.
type questionSchema struct {
	Text                string   `json:"text"`
	Category            string   `json:"category"`
	Difficulty          string   `json:"difficulty"`
	ExpectedDurationSec int      `json:"expected_duration_sec"`
	EvaluationCriteria  []string `json:"evaluation_criteria"`
	Tags                []string `json:"tags"`
}

// decodeQuestions extracts the JSON array from raw model output and decodes
// it strictly. Unknown fields, empty texts, or out-of-range durations reject
// the whole payload.
func decodeQuestions(content string, fallbackDifficulty config.Difficulty) ([]Question, error) {
	payload, err := extractJSONArray(content)
	if err != nil {
		return nil, err
	}

	var raw []questionSchema
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("question: decode model output: %w", err)
	}

	questions := make([]Question, 0, len(raw))
	for i, q := range raw {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return nil, fmt.Errorf("question: entry %d has empty text", i)
		}

		cat := Category(q.Category)
		switch cat {
		case CategoryBehavioral, CategoryTechnical, CategorySystemDesign:
		case "":
			cat = CategoryBehavioral
		default:
			return nil, fmt.Errorf("question: entry %d has unknown category %q", i, q.Category)
		}

		diff := config.Difficulty(q.Difficulty)
		if diff == "" || !diff.IsValid() {
			diff = fallbackDifficulty
		}

		dur := time.Duration(q.ExpectedDurationSec) * time.Second
		if dur == 0 {
			dur = DefaultExpectedDuration
		}
		if dur < MinExpectedDuration || dur > MaxExpectedDuration {
			return nil, fmt.Errorf("question: entry %d duration %s is out of range [%s, %s]",
				i, dur, MinExpectedDuration, MaxExpectedDuration)
		}

		questions = append(questions, Question{
			ID:                 uuid.NewString(),
			Text:               text,
			Category:           cat,
			Difficulty:         diff,
			ExpectedDuration:   dur,
			EvaluationCriteria: q.EvaluationCriteria,
			Tags:               q.Tags,
		})
	}
	return questions, nil
}

// extractJSONArray returns the outermost [...] slice of content. Models
// sometimes wrap the payload in prose or markdown fences despite the system
// prompt.
func extractJSONArray(content string) ([]byte, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("question: no JSON array in model output")
	}
	return []byte(content[start : end+1]), nil
}
