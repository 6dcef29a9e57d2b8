package speech_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/speech"
	"github.com/MdSameerBaba/orbmech-interview/internal/transcript"
	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/audio"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt"
	sttmock "github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt/mock"
)

// stubRecorder returns a fixed clip or error.
type stubRecorder struct {
	clip audio.Clip
	err  error
}

func (r *stubRecorder) Record(context.Context, time.Duration) (audio.Clip, error) {
	return r.clip, r.err
}

func (r *stubRecorder) Close() error { return nil }

// testClip builds a clip of the given duration with constant amplitude.
func testClip(d time.Duration, amplitude int16) audio.Clip {
	n := int(d.Seconds() * float64(audio.DefaultSampleRate))
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		pcm[i*2] = byte(amplitude)
		pcm[i*2+1] = byte(amplitude >> 8)
	}
	return audio.Clip{
		PCM:        pcm,
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
		StartedAt:  time.Now(),
	}
}

func TestCapture_ScoresTranscript(t *testing.T) {
	t.Parallel()
	words := strings.Repeat("word ", 60) // 60 words over 30s = 120 wpm
	provider := &sttmock.Provider{
		TranscribeFunc: func(context.Context, stt.Audio) (stt.Transcript, error) {
			return stt.Transcript{Text: strings.TrimSpace(words)}, nil
		},
	}
	s := speech.NewSampler(&stubRecorder{clip: testClip(30*time.Second, 2500)}, provider)

	u, err := s.Capture(context.Background(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if u.Fallback {
		t.Fatal("utterance should not be flagged fallback")
	}
	if u.WordCount != 60 {
		t.Errorf("word count = %d, want 60", u.WordCount)
	}
	if u.Score.Clarity != 85 {
		t.Errorf("clarity = %v, want 85 for a long answer", u.Score.Clarity)
	}
	if u.Score.Pace < 119 || u.Score.Pace > 121 {
		t.Errorf("pace = %v, want ~120 wpm", u.Score.Pace)
	}
	if u.Score.Volume <= 0 || u.Score.Volume > 100 {
		t.Errorf("volume = %v, want (0, 100]", u.Score.Volume)
	}
}

func TestCapture_RecorderFailureFallsBack(t *testing.T) {
	t.Parallel()
	s := speech.NewSampler(
		&stubRecorder{err: errors.New("device gone")},
		&sttmock.Provider{},
	)

	u, err := s.Capture(context.Background(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !u.Fallback {
		t.Fatal("utterance should be flagged fallback")
	}
	if u.Score.Clarity != 75 || u.Score.Pace != 120 || u.Score.FillerCount != 2 {
		t.Errorf("fallback score = %+v, want 75/120/2", u.Score)
	}
}

func TestCapture_NoSpeechScoresEmptyTranscript(t *testing.T) {
	t.Parallel()
	s := speech.NewSampler(
		&stubRecorder{err: audio.ErrNoAudio},
		&sttmock.Provider{},
	)

	u, err := s.Capture(context.Background(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !u.Fallback {
		t.Fatal("utterance should be flagged fallback")
	}
	if u.Score.Clarity != 20 {
		t.Errorf("clarity = %v, want 20 for silence", u.Score.Clarity)
	}
}

func TestCapture_STTFailureFallsBack(t *testing.T) {
	t.Parallel()
	provider := &sttmock.Provider{
		TranscribeFunc: func(context.Context, stt.Audio) (stt.Transcript, error) {
			return stt.Transcript{}, errors.New("whisper down")
		},
	}
	s := speech.NewSampler(&stubRecorder{clip: testClip(5*time.Second, 1000)}, provider)

	u, err := s.Capture(context.Background(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !u.Fallback {
		t.Fatal("utterance should be flagged fallback")
	}
	if u.Duration != 5*time.Second {
		t.Errorf("duration = %s, want 5s preserved from the clip", u.Duration)
	}
}

func TestCapture_CancelledContextFails(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := speech.NewSampler(&stubRecorder{err: ctx.Err()}, &sttmock.Provider{})
	if _, err := s.Capture(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCapture_AppliesCorrector(t *testing.T) {
	t.Parallel()
	provider := &sttmock.Provider{
		TranscribeFunc: func(context.Context, stt.Audio) (stt.Transcript, error) {
			return stt.Transcript{Text: "I love working with terriform daily"}, nil
		},
	}
	s := speech.NewSampler(
		&stubRecorder{clip: testClip(3*time.Second, 1500)},
		provider,
		speech.WithCorrector(transcript.NewCorrector("Terraform")),
	)

	u, err := s.Capture(context.Background(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(u.Transcript, "Terraform") {
		t.Errorf("transcript = %q, want corrected spelling", u.Transcript)
	}
}

func TestCountFillers(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"I used Go and Postgres", 0},
		{"um so I basically did it", 3},
		{"you know, it was, like, fine", 2},
		{"Um... UM. uh!", 3},
		{"the sofa is like a couch", 1},
	}
	for _, tc := range cases {
		if got := speech.CountFillers(tc.text); got != tc.want {
			t.Errorf("CountFillers(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
