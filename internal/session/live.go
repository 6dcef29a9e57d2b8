package session

import (
	"sync"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/vision"
)

// LiveSnapshot is the advisory feedback surface polled by UIs while a
// session runs. Values are the latest aggregates, zero before the first
// analyzed frame.
type LiveSnapshot struct {
	Active bool `json:"active"`

	EyeContact      float64 `json:"eye_contact"`
	Confidence      float64 `json:"confidence"`
	Professionalism float64 `json:"professionalism"`
	Attention       float64 `json:"attention"`

	// Overall is the equal-weight blend of the four video aggregates.
	Overall float64 `json:"overall"`

	// Pace and FillerCount reflect the most recent scored response.
	Pace        float64 `json:"pace"`
	FillerCount int     `json:"filler_count"`

	// ResponsesRecorded counts responses recorded so far. It is the
	// synchronized way to observe session progress while the loop runs.
	ResponsesRecorded int `json:"responses_recorded"`

	QuestionNumber  int    `json:"question_number"`
	TotalQuestions  int    `json:"total_questions"`
	CurrentQuestion string `json:"current_question"`

	// TimeRemaining is how much of the current response window is left.
	TimeRemaining time.Duration `json:"time_remaining"`

	Recommendations []string `json:"recommendations"`
}

// collector consumes frame scores from the analysis channel, maintains the
// live aggregates, and hands per-question windows to the session loop. It
// is the single owner of live state; readers get copies.
type collector struct {
	mu sync.RWMutex

	snapshot LiveSnapshot

	// window accumulates scores for the current response; nil outside a
	// response window (scores still update the live aggregates).
	window []vision.FrameScore

	// collecting gates window accumulation; discarding gates everything
	// (used while paused).
	collecting bool
	discarding bool

	// hints gates the coaching recommendation strings.
	hints bool

	frames int // total frames folded into the running aggregates
}

// fold merges one frame score into the running aggregates and, when a
// window is open, the current window.
func (c *collector) fold(score vision.FrameScore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discarding {
		return
	}

	c.frames++
	n := float64(c.frames)
	c.snapshot.EyeContact += (score.EyeContact - c.snapshot.EyeContact) / n
	c.snapshot.Confidence += (score.Confidence - c.snapshot.Confidence) / n
	c.snapshot.Professionalism += (score.Professionalism - c.snapshot.Professionalism) / n
	c.snapshot.Attention += (score.Attention - c.snapshot.Attention) / n
	c.snapshot.Overall = 0.25 * (c.snapshot.EyeContact + c.snapshot.Confidence +
		c.snapshot.Professionalism + c.snapshot.Attention)
	if c.hints {
		c.snapshot.Recommendations = recommendations(
			c.snapshot.EyeContact, c.snapshot.Confidence, score.Posture, c.snapshot.Professionalism)
	}

	if c.collecting {
		c.window = append(c.window, score)
	}
}

// beginWindow starts accumulating scores for one response.
func (c *collector) beginWindow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = c.window[:0]
	c.collecting = true
}

// endWindow closes the current window and returns its scores.
func (c *collector) endWindow() []vision.FrameScore {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collecting = false
	out := make([]vision.FrameScore, len(c.window))
	copy(out, c.window)
	c.window = c.window[:0]
	return out
}

// setDiscarding toggles frame discarding (paused sessions park the loop and
// throw parked frames away).
func (c *collector) setDiscarding(v bool) {
	c.mu.Lock()
	c.discarding = v
	c.mu.Unlock()
}

// setQuestion publishes the current question to the snapshot.
func (c *collector) setQuestion(number, total int, text string, window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.QuestionNumber = number
	c.snapshot.TotalQuestions = total
	c.snapshot.CurrentQuestion = text
	c.snapshot.TimeRemaining = window
}

// setResponse publishes the delivery metrics of the latest response.
func (c *collector) setResponse(pace float64, fillers int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Pace = pace
	c.snapshot.FillerCount = fillers
	c.snapshot.ResponsesRecorded++
}

// setActive publishes the session lifecycle state.
func (c *collector) setActive(v bool) {
	c.mu.Lock()
	c.snapshot.Active = v
	c.mu.Unlock()
}

// live returns a copy of the snapshot. Never blocks on session progress.
func (c *collector) live() LiveSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := c.snapshot
	snap.Recommendations = append([]string(nil), c.snapshot.Recommendations...)
	return snap
}

// recommendations maps running aggregates to coaching strings.
func recommendations(eye, confidence, posture, professionalism float64) []string {
	var out []string
	if eye < 60 {
		out = append(out, "Look directly at the camera more often")
	}
	if confidence < 65 {
		out = append(out, "Project more confidence; sit up and speak firmly")
	}
	if posture < 70 {
		out = append(out, "Straighten your posture")
	}
	if professionalism < 75 {
		out = append(out, "Keep a professional demeanor")
	}
	if len(out) == 0 {
		out = append(out, "Great job! Keep up the strong presentation")
	}
	return out
}
