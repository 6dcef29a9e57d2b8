package audio_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/audio"
)

// tone builds a mono clip holding a constant-amplitude square wave.
func tone(amplitude int16, samples int) audio.Clip {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return audio.Clip{PCM: pcm, SampleRate: audio.DefaultSampleRate, Channels: 1, StartedAt: time.Now()}
}

func TestClipDuration(t *testing.T) {
	t.Parallel()

	clip := tone(1000, audio.DefaultSampleRate) // one second of samples
	if got := clip.Duration(); got != time.Second {
		t.Errorf("duration = %v, want 1s", got)
	}
	if got := (audio.Clip{}).Duration(); got != 0 {
		t.Errorf("empty clip duration = %v, want 0", got)
	}
}

func TestClipRMS(t *testing.T) {
	t.Parallel()

	clip := tone(1000, 512)
	if got := clip.RMS(); math.Abs(got-1000) > 1e-6 {
		t.Errorf("rms = %v, want 1000 for a constant-amplitude wave", got)
	}
	if got := (audio.Clip{}).RMS(); got != 0 {
		t.Errorf("empty clip rms = %v, want 0", got)
	}
}

func TestFileRecorder_CyclesThroughFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := make([]string, 2)
	for i, amp := range []int16{500, 2000} {
		paths[i] = filepath.Join(dir, "clip"+string(rune('0'+i))+".wav")
		if err := audio.WriteWAV(paths[i], tone(amp, 256)); err != nil {
			t.Fatalf("WriteWAV: %v", err)
		}
	}

	rec, err := audio.NewFileRecorder(paths...)
	if err != nil {
		t.Fatalf("NewFileRecorder: %v", err)
	}
	defer rec.Close()

	ctx := context.Background()
	var levels []float64
	for i := 0; i < 3; i++ {
		clip, err := rec.Record(ctx, time.Minute)
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
		if clip.SampleRate != audio.DefaultSampleRate || clip.Channels != 1 {
			t.Errorf("clip format = %d Hz / %d ch", clip.SampleRate, clip.Channels)
		}
		levels = append(levels, clip.RMS())
	}

	// Third call wraps around to the first file.
	if math.Abs(levels[0]-levels[2]) > 1e-6 {
		t.Errorf("replay did not cycle: rms %v vs %v", levels[0], levels[2])
	}
	if levels[0] >= levels[1] {
		t.Errorf("rms order = %v, want quieter first clip", levels)
	}
}

func TestNewFileRecorder_RequiresPaths(t *testing.T) {
	t.Parallel()
	if _, err := audio.NewFileRecorder(); err == nil {
		t.Fatal("NewFileRecorder() should fail without paths")
	}
}

func TestNullRecorder_ReportsNoAudio(t *testing.T) {
	t.Parallel()

	var rec audio.NullRecorder
	_, err := rec.Record(context.Background(), 10*time.Millisecond)
	if !errors.Is(err, audio.ErrNoAudio) {
		t.Fatalf("err = %v, want ErrNoAudio", err)
	}
}

func TestNullRecorder_HonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var rec audio.NullRecorder
	if _, err := rec.Record(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
