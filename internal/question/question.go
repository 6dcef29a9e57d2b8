// Package question generates and validates interview question sets.
//
// Sets are produced by an LLM through a strict JSON schema; anything the
// model returns that fails decoding or validation is discarded wholesale and
// the built-in bank takes over. Callers can always tell which path produced
// a set via [Set.Source].
package question

import (
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/config"
)

// Duration bounds for a single response window.
const (
	MinExpectedDuration = 30 * time.Second
	MaxExpectedDuration = 600 * time.Second

	// DefaultExpectedDuration applies when the model omits a duration.
	DefaultExpectedDuration = 180 * time.Second

	// MinQuestions and MaxQuestions bound the size of a generated set.
	MinQuestions = 8
	MaxQuestions = 12
)

// Category groups questions by what they probe.
type Category string

const (
	CategoryBehavioral   Category = "behavioral"
	CategoryTechnical    Category = "technical"
	CategorySystemDesign Category = "system_design"
	CategoryIntroduction Category = "introduction"
)

// Source records how a question set was produced.
type Source string

const (
	// SourceGenerated means the set came from the LLM and passed validation.
	SourceGenerated Source = "generated"

	// SourceFallback means the built-in (or configured) bank was used.
	SourceFallback Source = "fallback"
)

// Question is a single interview prompt.
type Question struct {
	// ID is a unique identifier assigned at set-build time.
	ID string `json:"id" yaml:"id"`

	// Text is the question as the interviewer speaks it.
	Text string `json:"text" yaml:"text"`

	// Category groups the question.
	Category Category `json:"category" yaml:"category"`

	// Difficulty grades the question ("entry", "mid", "senior").
	Difficulty config.Difficulty `json:"difficulty" yaml:"difficulty"`

	// ExpectedDuration bounds the candidate's response window.
	ExpectedDuration time.Duration `json:"expected_duration" yaml:"expected_duration"`

	// EvaluationCriteria lists what a strong answer covers.
	EvaluationCriteria []string `json:"evaluation_criteria,omitempty" yaml:"evaluation_criteria,omitempty"`

	// Tags carry free-form topic labels.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Set is an ordered question list plus its provenance.
type Set struct {
	Questions []Question `json:"questions"`
	Source    Source     `json:"source"`
}

// Context carries everything the generator needs to tailor a set.
type Context struct {
	// Company is the hiring company the candidate is practising for.
	Company string

	// Role is the target position (e.g., "Backend Engineer").
	Role string

	// Type selects which categories the set draws from.
	Type config.InterviewType

	// Difficulty grades the set.
	Difficulty config.Difficulty

	// CandidateSummary is optional free text about the candidate (resume
	// highlights) folded into the prompt.
	CandidateSummary string
}
