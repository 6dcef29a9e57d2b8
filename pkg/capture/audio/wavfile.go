package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/youpy/go-wav"
)

// Compile-time assertion that FileRecorder satisfies Recorder.
var _ Recorder = (*FileRecorder)(nil)

// FileRecorder replays pre-recorded WAV files as utterances. Each Record call
// returns the next file in sequence. It stands in for the microphone in demos
// and headless environments.
type FileRecorder struct {
	paths []string
	next  int
}

// NewFileRecorder creates a FileRecorder over the given WAV paths. At least
// one path is required.
func NewFileRecorder(paths ...string) (*FileRecorder, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("audio: at least one wav path is required")
	}
	return &FileRecorder{paths: paths}, nil
}

// Record implements Recorder by loading the next WAV file. Files are cycled
// when exhausted. maxDuration is ignored; the file defines the utterance.
func (f *FileRecorder) Record(ctx context.Context, _ time.Duration) (Clip, error) {
	if err := ctx.Err(); err != nil {
		return Clip{}, fmt.Errorf("audio: record: %w", err)
	}
	path := f.paths[f.next%len(f.paths)]
	f.next++
	return ReadWAV(path)
}

// Close implements Recorder.
func (f *FileRecorder) Close() error { return nil }

// ReadWAV loads a WAV file into a Clip. Multi-channel files keep their
// interleaved layout; the clip records the channel count from the header.
func ReadWAV(path string) (Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: open wav %q: %w", path, err)
	}
	defer file.Close()

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		return Clip{}, fmt.Errorf("audio: read wav format %q: %w", path, err)
	}

	clip := Clip{
		SampleRate: int(format.SampleRate),
		Channels:   int(format.NumChannels),
		StartedAt:  time.Now(),
	}

	for {
		samples, err := reader.ReadSamples(2048)
		if len(samples) > 0 {
			for _, s := range samples {
				for ch := 0; ch < clip.Channels; ch++ {
					v := int16(s.Values[ch])
					clip.PCM = append(clip.PCM, byte(v), byte(v>>8))
				}
			}
		}
		if err != nil {
			break
		}
	}

	if len(clip.PCM) == 0 {
		return Clip{}, fmt.Errorf("audio: wav %q contains no samples", path)
	}
	return clip, nil
}

// WriteWAV persists a clip as a 16-bit PCM WAV file.
func WriteWAV(path string, clip Clip) error {
	if clip.SampleRate <= 0 || clip.Channels <= 0 {
		return fmt.Errorf("audio: invalid clip format %d Hz / %d ch", clip.SampleRate, clip.Channels)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create wav %q: %w", path, err)
	}
	defer file.Close()

	numSamples := uint32(len(clip.PCM) / 2 / clip.Channels)
	writer := wav.NewWriter(file, numSamples, uint16(clip.Channels), uint32(clip.SampleRate), 16)
	if _, err := writer.Write(clip.PCM); err != nil {
		return fmt.Errorf("audio: write wav %q: %w", path, err)
	}
	return nil
}
