package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	defaultCalibration     = 5 * time.Second
	defaultSilenceHold     = 1 * time.Second
	defaultVADRatio        = 2.22
	defaultFramesPerBuffer = 1024

	// minNoiseFloor prevents the energy ratio from exploding in a dead-quiet
	// room where the calibrated background amplitude approaches zero.
	minNoiseFloor = 10.0
)

// Compile-time assertion that Mic satisfies Recorder.
var _ Recorder = (*Mic)(nil)

// Mic records from the default PortAudio input device. It calibrates the
// ambient noise floor once, then each Record call opens a stream and applies
// an energy-ratio VAD to decide when the utterance has ended.
type Mic struct {
	sampleRate      int
	channels        int
	framesPerBuffer int
	vadRatio        float64
	silenceHold     time.Duration
	calibration     time.Duration

	mu         sync.Mutex
	noiseFloor float64
	closed     bool
}

// MicOption is a functional option for configuring a Mic.
type MicOption func(*Mic)

// WithSampleRate sets the capture sample rate in Hz. Defaults to 16000.
func WithSampleRate(rate int) MicOption {
	return func(m *Mic) { m.sampleRate = rate }
}

// WithVADRatio sets the speech/background energy ratio above which a chunk
// counts as speech. Defaults to 2.22.
func WithVADRatio(r float64) MicOption {
	return func(m *Mic) { m.vadRatio = r }
}

// WithSilenceHold sets how long the speaker must stay silent after speech
// before the recording ends. Defaults to 1 s.
func WithSilenceHold(d time.Duration) MicOption {
	return func(m *Mic) { m.silenceHold = d }
}

// WithCalibrationDuration sets the ambient-noise calibration window.
// Defaults to 5 s.
func WithCalibrationDuration(d time.Duration) MicOption {
	return func(m *Mic) { m.calibration = d }
}

// NewMic initialises PortAudio, opens a calibration stream, and returns a
// Mic ready to record. The caller must call Close when done.
func NewMic(opts ...MicOption) (*Mic, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}

	m := &Mic{
		sampleRate:      DefaultSampleRate,
		channels:        DefaultChannels,
		framesPerBuffer: defaultFramesPerBuffer,
		vadRatio:        defaultVADRatio,
		silenceHold:     defaultSilenceHold,
		calibration:     defaultCalibration,
	}
	for _, o := range opts {
		o(m)
	}

	if err := m.calibrate(); err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return m, nil
}

// calibrate measures the ambient noise amplitude over the calibration window.
func (m *Mic) calibrate() error {
	slog.Debug("calibrating background noise", "duration", m.calibration)

	var (
		mu             sync.Mutex
		totalAmplitude float64
		sampleCount    int
	)

	stream, err := portaudio.OpenDefaultStream(m.channels, 0, float64(m.sampleRate), m.framesPerBuffer, func(in []int16) {
		a := chunkAmplitude(in)
		mu.Lock()
		totalAmplitude += a
		sampleCount++
		mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("audio: open calibration stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("audio: start calibration stream: %w", err)
	}
	time.Sleep(m.calibration)
	if err := stream.Stop(); err != nil {
		slog.Warn("failed to stop calibration stream", "error", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if sampleCount > 0 {
		m.noiseFloor = totalAmplitude / float64(sampleCount)
	}
	if m.noiseFloor < minNoiseFloor {
		m.noiseFloor = minNoiseFloor
	}
	slog.Debug("background noise calibration complete", "noiseFloor", m.noiseFloor)
	return nil
}

// Record implements Recorder. It captures until sustained silence follows
// speech or maxDuration elapses. Leading silence before the first speech
// chunk is discarded.
func (m *Mic) Record(ctx context.Context, maxDuration time.Duration) (Clip, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Clip{}, fmt.Errorf("audio: recorder is closed")
	}
	noiseFloor := m.noiseFloor
	m.mu.Unlock()

	chunks := make(chan []int16, 256)
	stream, err := portaudio.OpenDefaultStream(m.channels, 0, float64(m.sampleRate), m.framesPerBuffer, func(in []int16) {
		chunk := make([]int16, len(in))
		copy(chunk, in)
		select {
		case chunks <- chunk:
		default:
			// Consumer fell behind. Dropping keeps the callback non-blocking.
		}
	})
	if err != nil {
		return Clip{}, fmt.Errorf("audio: open record stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return Clip{}, fmt.Errorf("audio: start record stream: %w", err)
	}
	defer func() {
		if err := stream.Stop(); err != nil {
			slog.Warn("failed to stop record stream", "error", err)
		}
	}()

	clip := Clip{
		SampleRate: m.sampleRate,
		Channels:   m.channels,
		StartedAt:  time.Now(),
	}

	deadline := time.NewTimer(maxDuration)
	defer deadline.Stop()

	var (
		hadSpeech     bool
		lastSpeechAt  time.Time
		silenceTicker = time.NewTicker(100 * time.Millisecond)
	)
	defer silenceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return m.finish(clip, hadSpeech, ctx.Err())

		case <-deadline.C:
			return m.finish(clip, hadSpeech, nil)

		case <-silenceTicker.C:
			if hadSpeech && time.Since(lastSpeechAt) > m.silenceHold {
				return m.finish(clip, hadSpeech, nil)
			}

		case chunk := <-chunks:
			ratio := chunkAmplitude(chunk) / noiseFloor
			if ratio > m.vadRatio {
				hadSpeech = true
				lastSpeechAt = time.Now()
				clip.PCM = append(clip.PCM, int16ToBytes(chunk)...)
			} else if hadSpeech {
				// Keep trailing pauses so natural gaps inside an answer are
				// preserved for transcription.
				clip.PCM = append(clip.PCM, int16ToBytes(chunk)...)
			}
		}
	}
}

// finish resolves the final Record result. A cancel error wins over captured
// audio; otherwise silence-only captures map to ErrNoAudio.
func (m *Mic) finish(clip Clip, hadSpeech bool, cause error) (Clip, error) {
	if cause != nil {
		return Clip{}, fmt.Errorf("audio: record: %w", cause)
	}
	if !hadSpeech || len(clip.PCM) == 0 {
		return Clip{}, ErrNoAudio
	}
	return clip, nil
}

// Close terminates PortAudio. Safe to call once.
func (m *Mic) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return portaudio.Terminate()
}
