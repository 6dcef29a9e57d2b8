package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MdSameerBaba/orbmech-interview/internal/observe"
	"github.com/MdSameerBaba/orbmech-interview/internal/question"
	"github.com/MdSameerBaba/orbmech-interview/internal/report"
	"github.com/MdSameerBaba/orbmech-interview/internal/speech"
	"github.com/MdSameerBaba/orbmech-interview/internal/vision"
	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/video"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts"
)

var (
	// ErrSessionActive is returned by Start while another session runs.
	ErrSessionActive = errors.New("session: a session is already active")

	// ErrNoSession is returned by operations that need an active session.
	ErrNoSession = errors.New("session: no active session")
)

// Defaults for the orchestration loops.
const (
	// frameQueueCapacity bounds the score channel between the analysis and
	// collector loops. Sends are non-blocking; overflow is dropped and
	// counted.
	frameQueueCapacity = 30

	defaultFrameInterval = 100 * time.Millisecond
	defaultStride        = 10
	defaultQuestionPause = 2 * time.Second
	defaultStopTimeout   = 5 * time.Second

	// errorBackoff is how long a loop sleeps after a transient failure.
	errorBackoff = time.Second

	// introWindow bounds the warm-up introduction response.
	introWindow = 30 * time.Second

	// warningLead is how far before the window deadline the time warning is
	// spoken.
	warningLead = 30 * time.Second
)

const closingText = "That concludes our interview. Thank you for your time, and best of luck!"

// SpeechSampler captures one scored utterance per call. *speech.Sampler is
// the production implementation.
type SpeechSampler interface {
	Capture(ctx context.Context, maxDuration time.Duration) (speech.Utterance, error)
}

// ReportSink receives finished reports for long-term storage. The analytics
// store implements it; a nil sink disables persistence beyond the JSON file.
type ReportSink interface {
	SaveReport(ctx context.Context, r report.Report) error
}

// Orchestrator drives interviews. One session at a time; all dependencies
// are injected at construction.
type Orchestrator struct {
	frames   video.FrameSource
	analyzer vision.Analyzer
	sampler  SpeechSampler
	tts      tts.Provider
	voice    tts.VoiceProfile
	writer   *report.Writer
	sink     ReportSink
	metrics  *observe.Metrics

	frameInterval  time.Duration
	stride         int
	questionPause  time.Duration
	stopTimeout    time.Duration
	timeLimit      time.Duration // 0 means per-question ExpectedDuration
	includeIntro   bool
	includeClosing bool
	hints          bool

	mu     sync.Mutex
	sess   *Session
	cancel context.CancelFunc
	done   chan struct{}
	col    *collector

	// paused is polled by the session loop at question boundaries. The loop
	// parks there until Resume; in-flight captures complete first.
	paused atomic.Bool

	// skipCancel cancels the current capture window, when one is open.
	skipCancel atomic.Value // context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFrameInterval sets the frame sampling cadence. Default: 100ms.
func WithFrameInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.frameInterval = d }
}

// WithAnalysisStride analyzes every n-th sampled frame. Default: 10.
func WithAnalysisStride(n int) Option {
	return func(o *Orchestrator) { o.stride = n }
}

// WithQuestionPause sets the pause between questions. Default: 2s.
func WithQuestionPause(d time.Duration) Option {
	return func(o *Orchestrator) { o.questionPause = d }
}

// WithStopTimeout bounds how long Stop waits for the loops. Default: 5s.
func WithStopTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stopTimeout = d }
}

// WithTimeLimit overrides every question's response window.
func WithTimeLimit(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeLimit = d }
}

// WithIntro toggles the warm-up introduction phase. Default: on.
func WithIntro(v bool) Option {
	return func(o *Orchestrator) { o.includeIntro = v }
}

// WithClosing toggles the spoken closing line. Default: on.
func WithClosing(v bool) Option {
	return func(o *Orchestrator) { o.includeClosing = v }
}

// WithHints toggles coaching recommendations on the live snapshot.
// Default: on.
func WithHints(v bool) Option {
	return func(o *Orchestrator) { o.hints = v }
}

// WithVoice sets the interviewer voice profile.
func WithVoice(v tts.VoiceProfile) Option {
	return func(o *Orchestrator) { o.voice = v }
}

// WithReportSink adds long-term report storage.
func WithReportSink(s ReportSink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator wires an Orchestrator. frames, analyzer, and sampler are
// required; tts and writer may be nil (silent interviewer, no JSON file).
func NewOrchestrator(frames video.FrameSource, analyzer vision.Analyzer, sampler SpeechSampler, speaker tts.Provider, writer *report.Writer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		frames:         frames,
		analyzer:       analyzer,
		sampler:        sampler,
		tts:            speaker,
		writer:         writer,
		frameInterval:  defaultFrameInterval,
		stride:         defaultStride,
		questionPause:  defaultQuestionPause,
		stopTimeout:    defaultStopTimeout,
		includeIntro:   true,
		includeClosing: true,
		hints:          true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.stride < 1 {
		o.stride = 1
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// Start begins the interview. It fails if a session is already active, the
// session has no questions, or the frame source cannot open. The loops run
// until every question is answered or Stop is called.
func (o *Orchestrator) Start(ctx context.Context, s *Session) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sess != nil {
		return ErrSessionActive
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("session: %s has no questions", s.ID)
	}
	if err := o.frames.Open(); err != nil {
		return fmt.Errorf("session: open frame source: %w", err)
	}

	// The session outlives the Start call's context.
	sctx, cancel := context.WithCancel(context.Background())

	s.StartedAt = time.Now()
	s.Active = true
	o.sess = s
	o.cancel = cancel
	o.done = make(chan struct{})
	o.col = &collector{hints: o.hints}
	o.col.setActive(true)
	o.paused.Store(false)
	o.metrics.ActiveSessions.Add(ctx, 1)

	scores := make(chan vision.FrameScore, frameQueueCapacity)
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error { return o.analysisLoop(gctx, scores) })
	g.Go(func() error { return o.collectLoop(gctx, o.col, scores) })
	col := o.col
	g.Go(func() error {
		defer cancel() // session completion winds down the other loops
		return o.sessionLoop(gctx, s, col)
	})

	done := o.done
	go func() {
		defer close(done)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("session loops exited with error", "session", s.ID, "error", err)
		}
	}()

	slog.Info("interview started",
		"session", s.ID, "company", s.Company, "role", s.Role,
		"questions", len(s.Questions))
	return nil
}

// Stop ends the session: both loops are signalled and waited for (bounded),
// the session is finalised, and the report is built and persisted. With no
// active session Stop returns a zero Report and no error.
func (o *Orchestrator) Stop(ctx context.Context) (report.Report, error) {
	o.mu.Lock()
	sess := o.sess
	cancel := o.cancel
	done := o.done
	col := o.col
	o.sess = nil
	o.cancel = nil
	o.mu.Unlock()

	if sess == nil {
		return report.Report{}, nil
	}

	cancel()
	select {
	case <-done:
	case <-time.After(o.stopTimeout):
		slog.Warn("session loops still running at stop deadline, abandoning", "session", sess.ID)
	}

	if err := o.frames.Close(); err != nil {
		slog.Warn("closing frame source failed", "error", err)
	}

	sess.EndedAt = time.Now()
	sess.Active = false
	col.setActive(false)
	o.metrics.ActiveSessions.Add(ctx, -1)

	rep, err := report.Build(metadata(sess), len(sess.Questions), responseMetrics(sess.Responses))
	if errors.Is(err, report.ErrNoResponses) {
		slog.Info("session ended with no responses", "session", sess.ID)
		return report.Report{}, nil
	}
	if err != nil {
		return report.Report{}, fmt.Errorf("session: build report: %w", err)
	}

	if o.writer != nil {
		path, err := o.writer.Write(rep)
		if err != nil {
			slog.Error("persisting report failed", "session", sess.ID, "error", err)
		} else {
			slog.Info("report written", "session", sess.ID, "path", path)
		}
	}
	if o.sink != nil {
		if err := o.sink.SaveReport(ctx, rep); err != nil {
			slog.Warn("saving report to analytics store failed", "session", sess.ID, "error", err)
		}
	}
	return rep, nil
}

// Pause parks the session loop at the next question boundary. The in-flight
// capture, if any, completes first; frame scores arriving while parked are
// discarded.
func (o *Orchestrator) Pause() {
	o.paused.Store(true)
	slog.Info("session pause requested")
}

// Resume unparks the session loop.
func (o *Orchestrator) Resume() {
	o.paused.Store(false)
	slog.Info("session resumed")
}

// Skip ends the current capture window early. The skipped question records
// a fallback-scored response. No-op outside a capture window.
func (o *Orchestrator) Skip() {
	if cancel, ok := o.skipCancel.Load().(context.CancelFunc); ok && cancel != nil {
		cancel()
		slog.Info("question skipped")
	}
}

// Live returns the current live-analysis snapshot. Never blocks; zero
// before any session has started.
func (o *Orchestrator) Live() LiveSnapshot {
	o.mu.Lock()
	col := o.col
	o.mu.Unlock()
	if col == nil {
		return LiveSnapshot{}
	}
	return col.live()
}

// analysisLoop samples frames at the configured cadence and scores every
// stride-th one. Transient failures back off and retry; the loop only exits
// on cancellation or a closed source.
func (o *Orchestrator) analysisLoop(ctx context.Context, scores chan<- vision.FrameScore) error {
	ticker := time.NewTicker(o.frameInterval)
	defer ticker.Stop()

	sampled := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame, err := o.frames.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, video.ErrClosed) {
				return nil
			}
			slog.Warn("frame read failed", "error", err)
			sleepCtx(ctx, errorBackoff)
			continue
		}

		sampled++
		if sampled%o.stride != 0 {
			continue
		}

		start := time.Now()
		score, err := o.analyzer.Analyze(ctx, frame)
		o.metrics.FrameAnalysisDuration.Record(ctx, time.Since(start).Seconds())
		if err != nil && !errors.Is(err, vision.ErrUnavailable) {
			slog.Warn("frame analysis failed", "error", err)
			sleepCtx(ctx, errorBackoff)
			continue
		}

		select {
		case scores <- score:
		default:
			o.metrics.FramesDropped.Add(ctx, 1)
		}
	}
}

// collectLoop folds published frame scores into the collector. It is the
// only consumer of the score channel.
func (o *Orchestrator) collectLoop(ctx context.Context, col *collector, scores <-chan vision.FrameScore) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case score := <-scores:
			col.fold(score)
		}
	}
}

// sessionLoop asks each question in turn and records the response. It is
// the sole writer of the Session while running.
func (o *Orchestrator) sessionLoop(ctx context.Context, s *Session, col *collector) error {
	if o.includeIntro {
		o.runIntro(ctx, col)
	}

	for i := 0; i < len(s.Questions); i++ {
		if err := o.waitWhilePaused(ctx, col); err != nil {
			return nil
		}

		s.CurrentIndex = i
		q := s.Questions[i]
		window := o.windowFor(q)
		col.setQuestion(i+1, len(s.Questions), q.Text, window)
		o.speak(ctx, q.Text)

		resp, err := o.captureResponse(ctx, col, q, window)
		if err != nil {
			return nil // cancelled
		}
		s.Responses = append(s.Responses, resp)
		col.setResponse(resp.Audio.Pace, resp.Audio.FillerCount)
		o.metrics.ResponsesRecorded.Add(ctx, 1)
		slog.Info("response recorded",
			"question", i+1, "words", resp.WordCount,
			"quality", fmt.Sprintf("%.1f", resp.Quality), "fallback", resp.Fallback)

		if i < len(s.Questions)-1 {
			if err := sleepCtx(ctx, o.questionPause); err != nil {
				return nil
			}
		}
	}

	s.CurrentIndex = len(s.Questions)
	if o.includeClosing {
		o.speak(ctx, closingText)
	}
	slog.Info("interview completed", "session", s.ID, "responses", len(s.Responses))
	return nil
}

// runIntro speaks the warm-up prompt and captures (but does not score into
// the session) the candidate's introduction.
func (o *Orchestrator) runIntro(ctx context.Context, col *collector) {
	q := question.IntroQuestion()
	col.setQuestion(0, 0, q.Text, introWindow)
	o.speak(ctx, q.Text)

	utt, err := o.sampler.Capture(ctx, introWindow)
	if err != nil {
		return
	}
	slog.Debug("introduction captured", "words", utt.WordCount)
}

// captureResponse runs one response window: frame scores accumulate in the
// collector while the sampler blocks on the utterance. Skip cancels the
// window; the question then records a fallback response.
func (o *Orchestrator) captureResponse(ctx context.Context, col *collector, q question.Question, window time.Duration) (Response, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.skipCancel.Store(cancel)
	defer o.skipCancel.Store(context.CancelFunc(nil))

	if window > warningLead {
		warn := time.AfterFunc(window-warningLead, func() {
			o.speak(ctx, "Thirty seconds remaining for this question.")
		})
		defer warn.Stop()
	}

	col.beginWindow()
	start := time.Now()
	utt, err := o.sampler.Capture(cctx, window)
	frames := col.endWindow()
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("session: capture: %w", ctx.Err())
		}
		// Skipped: the window context was cancelled but the session is
		// still live.
		utt = speech.FallbackUtterance()
	}

	avg := averageFrames(frames)
	return Response{
		QuestionID: q.ID,
		Transcript: utt.Transcript,
		Video:      avg,
		FrameCount: len(frames),
		Audio:      utt.Score,
		WordCount:  utt.WordCount,
		Duration:   time.Since(start),
		Fallback:   utt.Fallback,
		Quality:    Quality(avg, utt.Score, utt.WordCount),
	}, nil
}

// waitWhilePaused parks the loop while the pause flag is set, discarding
// frames in the meantime. Returns the context error on cancellation.
func (o *Orchestrator) waitWhilePaused(ctx context.Context, col *collector) error {
	if !o.paused.Load() {
		return ctx.Err()
	}
	col.setDiscarding(true)
	defer col.setDiscarding(false)
	for o.paused.Load() {
		if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// windowFor returns the response window for a question.
func (o *Orchestrator) windowFor(q question.Question) time.Duration {
	if o.timeLimit > 0 {
		return o.timeLimit
	}
	if q.ExpectedDuration > 0 {
		return q.ExpectedDuration
	}
	return question.DefaultExpectedDuration
}

// speak synthesizes text with the interviewer voice. Synthesis failures are
// logged and swallowed; a silent interviewer is better than a stalled
// session. The audio bytes are discarded — the console provider prints the
// text, and no playback device is wired in-process.
func (o *Orchestrator) speak(ctx context.Context, text string) {
	if o.tts == nil {
		return
	}
	start := time.Now()
	_, err := o.tts.Synthesize(ctx, text, o.voice)
	o.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("speech synthesis failed", "error", err)
			o.metrics.RecordProviderError(ctx, "tts", "synthesis")
		}
		return
	}
	o.metrics.RecordProviderRequest(ctx, "tts", "synthesis", "ok")
}

// metadata converts a finished session for the report builder.
func metadata(s *Session) report.Metadata {
	return report.Metadata{
		SessionID:  s.ID,
		UserID:     s.UserID,
		Company:    s.Company,
		Role:       s.Role,
		Type:       string(s.Type),
		Difficulty: string(s.Difficulty),
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
	}
}

// responseMetrics converts responses for the report builder.
func responseMetrics(responses []Response) []report.ResponseMetrics {
	out := make([]report.ResponseMetrics, len(responses))
	for i, r := range responses {
		out[i] = report.ResponseMetrics{
			EyeContact:      r.Video.EyeContact,
			VideoConfidence: r.Video.Confidence,
			Professionalism: r.Video.Professionalism,
			Attention:       r.Video.Attention,
			Clarity:         r.Audio.Clarity,
			AudioConfidence: r.Audio.Confidence,
			Pace:            r.Audio.Pace,
			FillerCount:     r.Audio.FillerCount,
			Quality:         r.Quality,
			WordCount:       r.WordCount,
		}
	}
	return out
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
