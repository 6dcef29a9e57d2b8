// Package session drives one mock interview end to end.
//
// The Orchestrator owns two concurrent loops per active session: an
// analysis loop that samples video frames and publishes immutable
// FrameScores over a bounded channel, and a session loop that speaks each
// question, captures the spoken response, and folds the frame scores that
// arrived during the response window into the session state. The session
// loop is the only writer of the Session after Start; everything the
// analysis loop produces crosses a channel.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/MdSameerBaba/orbmech-interview/internal/config"
	"github.com/MdSameerBaba/orbmech-interview/internal/question"
	"github.com/MdSameerBaba/orbmech-interview/internal/speech"
	"github.com/MdSameerBaba/orbmech-interview/internal/vision"
)

// Quality score weights: video presence 40%, audio delivery 30%, answer
// substance (word count) 30%.
const (
	qualityVideoWeight   = 0.4
	qualityAudioWeight   = 0.3
	qualityContentWeight = 0.3
)

// Session is one interview's full state. The orchestrator's session loop is
// the sole writer after Start; once Active flips to false the session is
// read-only.
type Session struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	Company    string               `json:"company"`
	Role       string               `json:"role"`
	Type       config.InterviewType `json:"interview_type"`
	Difficulty config.Difficulty    `json:"difficulty"`

	Questions []question.Question `json:"questions"`
	Responses []Response          `json:"responses"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Active    bool      `json:"active"`

	// CurrentIndex is the zero-based index of the question being asked or
	// answered. Monotone non-decreasing, never exceeds len(Questions).
	CurrentIndex int `json:"current_index"`
}

// New builds a session with a fresh ID for the given candidate and
// question set.
func New(userID, company, role string, t config.InterviewType, d config.Difficulty, questions []question.Question) *Session {
	return &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Company:    company,
		Role:       role,
		Type:       t,
		Difficulty: d,
		Questions:  questions,
	}
}

// Response is one answered question: the averaged frame scores from the
// response window, the audio delivery scores, and the derived quality.
type Response struct {
	QuestionID string `json:"question_id"`
	Transcript string `json:"transcript"`

	// Video is the arithmetic mean of every frame scored during the
	// response window.
	Video vision.FrameScore `json:"video"`

	// FrameCount is how many frames contributed to Video.
	FrameCount int `json:"frame_count"`

	Audio speech.Score `json:"audio"`

	WordCount int           `json:"word_count"`
	Duration  time.Duration `json:"duration"`

	// Fallback marks responses whose audio scores are placeholder values.
	Fallback bool `json:"fallback"`

	// Quality is the weighted composite, in [0, 100].
	Quality float64 `json:"quality"`
}

// Quality computes the composite quality score for one response.
func Quality(video vision.FrameScore, audio speech.Score, wordCount int) float64 {
	videoScore := 0.3*video.EyeContact + 0.4*video.Confidence + 0.3*video.Professionalism

	fillerPenalty := 100 - 5*float64(audio.FillerCount)
	if fillerPenalty < 0 {
		fillerPenalty = 0
	}
	audioScore := 0.4*audio.Clarity + 0.3*audio.Confidence + 0.3*fillerPenalty

	contentScore := 2 * float64(wordCount)
	if contentScore > 100 {
		contentScore = 100
	}

	q := qualityVideoWeight*videoScore + qualityAudioWeight*audioScore + qualityContentWeight*contentScore
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}

// averageFrames reduces a frame-score window to its arithmetic mean. An
// empty window returns a zero score.
func averageFrames(frames []vision.FrameScore) vision.FrameScore {
	if len(frames) == 0 {
		return vision.FrameScore{}
	}
	var avg vision.FrameScore
	for _, f := range frames {
		avg.EyeContact += f.EyeContact
		avg.Confidence += f.Confidence
		avg.Posture += f.Posture
		avg.Gesture += f.Gesture
		avg.Attention += f.Attention
		avg.Professionalism += f.Professionalism
	}
	n := float64(len(frames))
	avg.EyeContact /= n
	avg.Confidence /= n
	avg.Posture /= n
	avg.Gesture /= n
	avg.Attention /= n
	avg.Professionalism /= n
	avg.Timestamp = frames[len(frames)-1].Timestamp
	avg.Expression = frames[len(frames)-1].Expression
	return avg
}
