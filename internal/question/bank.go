package question

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/MdSameerBaba/orbmech-interview/internal/config"
)

// Bank holds the static fallback questions, grouped by category.
type Bank struct {
	Behavioral   []Question `yaml:"behavioral"`
	Technical    []Question `yaml:"technical"`
	SystemDesign []Question `yaml:"system_design"`
}

// DefaultBank returns the built-in question bank.
func DefaultBank() *Bank {
	return &Bank{
		Behavioral: bankQuestions(CategoryBehavioral,
			"Tell me about a time you had to deliver under a tight deadline. How did you prioritise?",
			"Describe a disagreement with a teammate and how you resolved it.",
			"Tell me about a project you are most proud of and your specific contribution.",
			"Give an example of a time you received difficult feedback. What did you change?",
			"Describe a situation where you had to learn a new technology quickly.",
		),
		Technical: bankQuestions(CategoryTechnical,
			"Walk me through how you would debug a service whose latency doubled overnight.",
			"Explain the difference between concurrency and parallelism, with an example from your own work.",
			"How do you decide between SQL and NoSQL storage for a new feature?",
			"What happens between typing a URL into a browser and the page rendering?",
			"How would you profile and reduce the memory footprint of a long-running process?",
		),
		SystemDesign: bankQuestions(CategorySystemDesign,
			"Design a rate limiter for a public API. Discuss the trade-offs of your approach.",
			"Design a notification system that delivers email, SMS, and push at scale.",
			"How would you design the backend for a real-time collaborative document editor?",
		),
	}
}

// bankQuestions builds Question values with stable per-process IDs.
func bankQuestions(cat Category, texts ...string) []Question {
	out := make([]Question, len(texts))
	for i, text := range texts {
		out[i] = Question{
			ID:               uuid.NewString(),
			Text:             text,
			Category:         cat,
			Difficulty:       config.DifficultyMid,
			ExpectedDuration: DefaultExpectedDuration,
		}
	}
	return out
}

// LoadBank reads a bank from a YAML file. Missing or invalid entries reject
// the whole file so a half-broken bank never silently replaces the default.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("question: read bank %q: %w", path, err)
	}

	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("question: parse bank %q: %w", path, err)
	}

	for _, group := range [][]Question{b.Behavioral, b.Technical, b.SystemDesign} {
		for i := range group {
			q := &group[i]
			if q.Text == "" {
				return nil, fmt.Errorf("question: bank %q contains an entry with empty text", path)
			}
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			if q.ExpectedDuration == 0 {
				q.ExpectedDuration = DefaultExpectedDuration
			}
			if q.ExpectedDuration < MinExpectedDuration || q.ExpectedDuration > MaxExpectedDuration {
				q.ExpectedDuration = DefaultExpectedDuration
			}
		}
	}
	if len(b.Behavioral)+len(b.Technical)+len(b.SystemDesign) == 0 {
		return nil, fmt.Errorf("question: bank %q is empty", path)
	}
	return &b, nil
}

// Fallback assembles a set from the bank for the given interview type:
// three behavioral, three technical, and two system design questions, with
// the mix shifted toward the requested type.
func (b *Bank) Fallback(t config.InterviewType) Set {
	var questions []Question
	switch t {
	case config.InterviewBehavioral:
		questions = append(questions, take(b.Behavioral, 5)...)
		questions = append(questions, take(b.Technical, 2)...)
		questions = append(questions, take(b.SystemDesign, 1)...)
	case config.InterviewTechnical:
		questions = append(questions, take(b.Technical, 3)...)
		questions = append(questions, take(b.SystemDesign, 2)...)
		questions = append(questions, take(b.Behavioral, 3)...)
	default:
		questions = append(questions, take(b.Behavioral, 3)...)
		questions = append(questions, take(b.Technical, 3)...)
		questions = append(questions, take(b.SystemDesign, 2)...)
	}
	return Set{Questions: questions, Source: SourceFallback}
}

// IntroQuestion returns the warm-up prompt used during the introduction
// phase.
func IntroQuestion() Question {
	return Question{
		ID:               uuid.NewString(),
		Text:             "To start, please introduce yourself and tell me a little about your background.",
		Category:         CategoryIntroduction,
		ExpectedDuration: 30 * time.Second,
	}
}

// take copies up to n questions from qs.
func take(qs []Question, n int) []Question {
	if n > len(qs) {
		n = len(qs)
	}
	out := make([]Question, n)
	copy(out, qs[:n])
	return out
}
