// Package audio captures candidate speech for transcription and scoring.
//
// The microphone recorder is built on PortAudio with an energy-ratio voice
// activity detector: a short calibration pass measures ambient noise, then
// recording runs until the candidate stops speaking (sustained silence after
// speech) or a deadline passes. WAV helpers read and write clips via
// github.com/youpy/go-wav.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"time"
)

const (
	// DefaultSampleRate is what whisper.cpp expects.
	DefaultSampleRate = 16000

	// DefaultChannels is mono capture.
	DefaultChannels = 1
)

// ErrNoAudio is returned by Record when no speech was captured before the
// deadline.
var ErrNoAudio = errors.New("audio: no speech captured")

// Clip is a recorded utterance as raw 16-bit signed little-endian PCM.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int

	// StartedAt is when recording began.
	StartedAt time.Time
}

// Duration returns the playback duration of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	bytesPerSec := c.SampleRate * c.Channels * 2
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(bytesPerSec)
}

// RMS returns the root-mean-square energy of the clip in PCM sample units
// (0–32767). Returns 0 for empty clips.
func (c Clip) RMS() float64 {
	n := len(c.PCM) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(c.PCM[i*2 : i*2+2]))
		v := float64(sample)
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// Recorder captures one utterance per call.
//
// Implementations must be safe for sequential reuse; concurrent Record calls
// on the same Recorder are not supported.
type Recorder interface {
	// Record captures audio until the speaker falls silent or maxDuration
	// elapses, whichever comes first. Returns ErrNoAudio when nothing above
	// the noise floor was heard.
	Record(ctx context.Context, maxDuration time.Duration) (Clip, error)

	// Close releases the capture device.
	Close() error
}

// NullRecorder is a Recorder with no capture device. Record waits briefly
// and reports ErrNoAudio, so pipelines degrade to fallback scoring instead
// of failing. It stands in for the microphone on headless hosts.
type NullRecorder struct{}

var _ Recorder = (*NullRecorder)(nil)

// Record implements Recorder. It waits up to one second (bounded by
// maxDuration and ctx) and returns ErrNoAudio.
func (NullRecorder) Record(ctx context.Context, maxDuration time.Duration) (Clip, error) {
	wait := time.Second
	if maxDuration > 0 && maxDuration < wait {
		wait = maxDuration
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Clip{}, ctx.Err()
	case <-timer.C:
		return Clip{}, ErrNoAudio
	}
}

// Close implements Recorder.
func (NullRecorder) Close() error { return nil }

// chunkAmplitude returns the mean absolute amplitude of an int16 chunk.
func chunkAmplitude(chunk []int16) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var total float64
	for _, sample := range chunk {
		total += math.Abs(float64(sample))
	}
	return total / float64(len(chunk))
}

// int16ToBytes converts int16 samples to little-endian PCM bytes.
func int16ToBytes(chunk []int16) []byte {
	out := make([]byte, len(chunk)*2)
	for i, sample := range chunk {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}
