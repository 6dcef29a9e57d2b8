package session_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/config"
	"github.com/MdSameerBaba/orbmech-interview/internal/question"
	"github.com/MdSameerBaba/orbmech-interview/internal/report"
	"github.com/MdSameerBaba/orbmech-interview/internal/session"
	"github.com/MdSameerBaba/orbmech-interview/internal/speech"
	"github.com/MdSameerBaba/orbmech-interview/internal/vision"
	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/video"
	ttsmock "github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts/mock"
)

// fixedAnalyzer returns the same score for every frame.
type fixedAnalyzer struct {
	score vision.FrameScore
}

func (a *fixedAnalyzer) Analyze(_ context.Context, frame video.Frame) (vision.FrameScore, error) {
	s := a.score
	s.Timestamp = frame.Timestamp
	return s, nil
}

// stubSampler returns a fixed utterance after a short delay, or blocks until
// the window is cancelled when block is set.
type stubSampler struct {
	utterance speech.Utterance
	delay     time.Duration
	block     bool
}

func (s *stubSampler) Capture(ctx context.Context, maxDuration time.Duration) (speech.Utterance, error) {
	wait := s.delay
	if s.block {
		wait = maxDuration
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return speech.Utterance{}, ctx.Err()
	case <-timer.C:
		return s.utterance, nil
	}
}

func testQuestions(n int) []question.Question {
	qs := make([]question.Question, n)
	for i := range qs {
		qs[i] = question.Question{
			ID:       string(rune('a' + i)),
			Text:     "Tell me about your experience.",
			Category: question.CategoryBehavioral,
		}
	}
	return qs
}

func newTestOrchestrator(t *testing.T, sampler session.SpeechSampler, opts ...session.Option) *session.Orchestrator {
	t.Helper()
	analyzer := &fixedAnalyzer{score: vision.FrameScore{
		EyeContact: 80, Confidence: 80, Posture: 80, Gesture: 80,
		Attention: 80, Professionalism: 80, Expression: "neutral",
	}}
	base := []session.Option{
		session.WithIntro(false),
		session.WithClosing(false),
		session.WithFrameInterval(5 * time.Millisecond),
		session.WithAnalysisStride(1),
		session.WithQuestionPause(10 * time.Millisecond),
		session.WithTimeLimit(60 * time.Millisecond),
		session.WithStopTimeout(time.Second),
	}
	return session.NewOrchestrator(
		video.NewSyntheticSource(0, 0),
		analyzer,
		sampler,
		&ttsmock.Provider{},
		report.NewWriter(t.TempDir()),
		append(base, opts...)...,
	)
}

// eightyUtterance scores exactly 80 on every quality component: four filler
// words make the filler penalty 80, forty words make the content score 80.
func eightyUtterance() speech.Utterance {
	return speech.Utterance{
		Transcript: "answer",
		WordCount:  40,
		Score: speech.Score{
			Clarity: 80, Confidence: 80, Pace: 120, Volume: 70,
			FillerCount: 4, Tone: "professional",
		},
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &stubSampler{})

	rep, err := o.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop with no session: %v", err)
	}
	if rep.ResponsesGiven != 0 || rep.Scores.Overall != 0 {
		t.Errorf("report = %+v, want zero value", rep)
	}
}

func TestStartRejectsSecondSession(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &stubSampler{utterance: eightyUtterance(), delay: 20 * time.Millisecond})
	s := session.New("u1", "Acme", "Engineer", config.InterviewMixed, config.DifficultyMid, testQuestions(2))

	if err := o.Start(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	defer o.Stop(context.Background())

	other := session.New("u2", "Acme", "Engineer", config.InterviewMixed, config.DifficultyMid, testQuestions(1))
	if err := o.Start(context.Background(), other); !errors.Is(err, session.ErrSessionActive) {
		t.Fatalf("second start err = %v, want ErrSessionActive", err)
	}
}

func TestStartRequiresQuestions(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &stubSampler{})
	s := session.New("u1", "", "", config.InterviewMixed, config.DifficultyMid, nil)

	if err := o.Start(context.Background(), s); err == nil {
		t.Fatal("start with no questions should fail")
	}
}

func TestFullSession_DeterministicComposites(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &stubSampler{utterance: eightyUtterance(), delay: 30 * time.Millisecond})
	s := session.New("u1", "Acme", "Engineer", config.InterviewMixed, config.DifficultyMid, testQuestions(2))

	if err := o.Start(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	// The session loop owns s while running; progress is observed through the
	// live snapshot and s is only read once Stop has joined the loops.
	waitFor(t, 3*time.Second, func() bool { return o.Live().ResponsesRecorded == 2 })

	rep, err := o.Stop(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Responses) > len(s.Questions) {
		t.Errorf("responses %d > questions %d", len(s.Responses), len(s.Questions))
	}
	if s.CurrentIndex != len(s.Questions) {
		t.Errorf("current index = %d, want %d after completion", s.CurrentIndex, len(s.Questions))
	}
	if s.Active {
		t.Error("session still active after stop")
	}
	if s.EndedAt.IsZero() {
		t.Error("end time not set")
	}
	for i, r := range s.Responses {
		if math.Abs(r.Quality-80) > 1e-9 {
			t.Errorf("response %d quality = %v, want 80", i, r.Quality)
		}
	}

	// Frame averages are 80 across the board and every audio sub-score is
	// 80-equivalent, so all four composites and the overall land on 80.
	for name, got := range map[string]float64{
		"communication":   rep.Scores.Communication,
		"confidence":      rep.Scores.Confidence,
		"professionalism": rep.Scores.Professionalism,
		"technical":       rep.Scores.Technical,
		"overall":         rep.Scores.Overall,
	} {
		if math.Abs(got-80) > 1e-9 {
			t.Errorf("%s = %v, want 80", name, got)
		}
	}
	if rep.ResponsesGiven != 2 || rep.QuestionsAsked != 2 {
		t.Errorf("counts = %d/%d, want 2/2", rep.ResponsesGiven, rep.QuestionsAsked)
	}
}

func TestSkipRecordsFallbackResponse(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &stubSampler{block: true},
		session.WithTimeLimit(10*time.Second))
	s := session.New("u1", "Acme", "Engineer", config.InterviewMixed, config.DifficultyMid, testQuestions(2))

	if err := o.Start(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	defer o.Stop(context.Background())

	waitFor(t, time.Second, func() bool { return o.Live().QuestionNumber == 1 })
	time.Sleep(30 * time.Millisecond) // let the capture window open
	o.Skip()

	waitFor(t, time.Second, func() bool { return o.Live().ResponsesRecorded == 1 })
	if _, err := o.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(s.Responses))
	}
	r := s.Responses[0]
	if !r.Fallback {
		t.Error("skipped response should carry fallback scores")
	}
	if r.Audio.Clarity != 75 || r.Audio.Pace != 120 {
		t.Errorf("fallback audio = %+v, want 75/120", r.Audio)
	}
}

func TestPauseParksAtQuestionBoundary(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &stubSampler{utterance: eightyUtterance(), delay: 30 * time.Millisecond},
		session.WithQuestionPause(50*time.Millisecond))
	s := session.New("u1", "Acme", "Engineer", config.InterviewMixed, config.DifficultyMid, testQuestions(3))

	if err := o.Start(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	defer o.Stop(context.Background())

	waitFor(t, time.Second, func() bool { return o.Live().ResponsesRecorded >= 1 })
	o.Pause()
	parked := o.Live().ResponsesRecorded + 1 // the in-flight question may still finish

	time.Sleep(300 * time.Millisecond)
	if got := o.Live().ResponsesRecorded; got > parked {
		t.Errorf("responses grew to %d while paused, want at most %d", got, parked)
	}

	o.Resume()
	waitFor(t, 3*time.Second, func() bool { return o.Live().ResponsesRecorded == 3 })
}

func TestLiveSnapshot(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &stubSampler{utterance: eightyUtterance(), delay: 40 * time.Millisecond})

	if snap := o.Live(); snap.Active || snap.Overall != 0 {
		t.Errorf("pre-start snapshot = %+v, want zero", snap)
	}

	s := session.New("u1", "Acme", "Engineer", config.InterviewMixed, config.DifficultyMid, testQuestions(2))
	if err := o.Start(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	defer o.Stop(context.Background())

	waitFor(t, time.Second, func() bool {
		snap := o.Live()
		return snap.Active && snap.Overall > 0
	})

	snap := o.Live()
	// Every analyzed frame scores 80 on all four aggregates.
	if math.Abs(snap.Overall-80) > 1e-6 {
		t.Errorf("overall = %v, want 80", snap.Overall)
	}
	if snap.TotalQuestions != 2 || snap.QuestionNumber < 1 {
		t.Errorf("question progress = %d/%d", snap.QuestionNumber, snap.TotalQuestions)
	}
	if len(snap.Recommendations) == 0 {
		t.Error("recommendations should never be empty once frames arrive")
	}
}

func TestQuality_Formula(t *testing.T) {
	t.Parallel()
	vscore := vision.FrameScore{EyeContact: 90, Confidence: 70, Professionalism: 80}
	ascore := speech.Score{Clarity: 60, Confidence: 75, FillerCount: 6}

	// video: 0.3*90 + 0.4*70 + 0.3*80 = 79
	// audio: 0.4*60 + 0.3*75 + 0.3*(100-30) = 67.5
	// content: min(100, 2*30) = 60
	want := 0.4*79 + 0.3*67.5 + 0.3*60
	got := session.Quality(vscore, ascore, 30)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Quality() = %v, want %v", got, want)
	}

	if got := session.Quality(vision.FrameScore{}, speech.Score{FillerCount: 50}, 0); got != 0 {
		t.Errorf("floor = %v, want 0", got)
	}
}
