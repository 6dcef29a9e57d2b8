package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/resilience"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt"
	sttmock "github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt/mock"
)

func TestFallbackGroup_PrimarySucceeds(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup("primary", "p", resilience.FallbackConfig{})
	fg.AddFallback("f", "fallback")

	var used string
	err := fg.Execute(func(v string) error {
		used = v
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != "primary" {
		t.Errorf("used = %q, want primary", used)
	}
}

func TestFallbackGroup_FailsOverToSecondary(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup("primary", "p", resilience.FallbackConfig{})
	fg.AddFallback("f", "fallback")

	var used string
	err := fg.Execute(func(v string) error {
		if v == "primary" {
			return errBoom
		}
		used = v
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != "fallback" {
		t.Errorf("used = %q, want fallback", used)
	}
}

func TestFallbackGroup_AllFail(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup("primary", "p", resilience.FallbackConfig{})
	fg.AddFallback("f", "fallback")

	err := fg.Execute(func(string) error { return errBoom })
	if !errors.Is(err, resilience.ErrAllFailed) {
		t.Fatalf("expected ErrAllFailed, got %v", err)
	}
}

func TestFallbackGroup_SkipsOpenBreaker(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup("primary", "p", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Hour,
		},
	})
	fg.AddFallback("f", "fallback")

	// Trip the primary's breaker.
	_ = fg.Execute(func(v string) error {
		if v == "primary" {
			return errBoom
		}
		return nil
	})

	primaryCalls := 0
	err := fg.Execute(func(v string) error {
		if v == "primary" {
			primaryCalls++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primaryCalls != 0 {
		t.Errorf("primary called %d times while its breaker is open, want 0", primaryCalls)
	}
}

func TestExecuteWithResult_ReturnsValue(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup(1, "one", resilience.FallbackConfig{})
	fg.AddFallback("two", 2)

	got, err := resilience.ExecuteWithResult(fg, func(v int) (int, error) {
		if v == 1 {
			return 0, errBoom
		}
		return v * 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 20 {
		t.Errorf("result = %d, want 20", got)
	}
}

func TestSTTFallback_UsesSecondaryOnPrimaryFailure(t *testing.T) {
	t.Parallel()
	primary := &sttmock.Provider{
		TranscribeFunc: func(context.Context, stt.Audio) (stt.Transcript, error) {
			return stt.Transcript{}, errBoom
		},
	}
	secondary := &sttmock.Provider{
		TranscribeFunc: func(context.Context, stt.Audio) (stt.Transcript, error) {
			return stt.Transcript{Text: "hello world"}, nil
		},
	}

	f := resilience.NewSTTFallback(primary, "primary", resilience.FallbackConfig{})
	f.AddFallback("secondary", secondary)

	got, err := f.Transcribe(context.Background(), stt.Audio{PCM: []byte{0, 0}, SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "hello world" {
		t.Errorf("text = %q, want %q", got.Text, "hello world")
	}
	if primary.CallCount() != 1 {
		t.Errorf("primary calls = %d, want 1", primary.CallCount())
	}
}
