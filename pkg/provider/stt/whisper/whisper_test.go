package whisper

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt"
)

// mustNew is a test helper that calls New and fails the test on error.
func mustNew(t *testing.T, serverURL string, opts ...Option) *Provider {
	t.Helper()
	p, err := New(serverURL, opts...)
	if err != nil {
		t.Fatalf("New(%q): unexpected error: %v", serverURL, err)
	}
	return p
}

// testAudio returns one second of silent mono PCM at 16 kHz.
func testAudio() stt.Audio {
	return stt.Audio{
		PCM:        make([]byte, 16000*2),
		SampleRate: 16000,
		Channels:   1,
	}
}

func TestNew_EmptyServerURL(t *testing.T) {
	t.Parallel()
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") should fail")
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	t.Parallel()
	p := mustNew(t, "http://localhost:9")

	_, err := p.Transcribe(context.Background(), stt.Audio{})
	if err != stt.ErrEmptyAudio {
		t.Fatalf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestTranscribe_Success(t *testing.T) {
	t.Parallel()

	var gotLanguage, gotModel string
	var gotWAV []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("path = %q, want /inference", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")

		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		gotWAV, _ = io.ReadAll(f)

		json.NewEncoder(w).Encode(map[string]string{"text": "  hello   world "})
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL, WithModel("base.en"), WithLanguage("en"))
	tr, err := p.Transcribe(context.Background(), testAudio())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if tr.Text != "hello world" {
		t.Errorf("text = %q, want collapsed %q", tr.Text, "hello world")
	}
	if gotLanguage != "en" || gotModel != "base.en" {
		t.Errorf("form fields = %q/%q, want en/base.en", gotLanguage, gotModel)
	}

	// The upload must be a valid RIFF/WAVE container around the PCM.
	if len(gotWAV) != 44+16000*2 {
		t.Fatalf("wav size = %d, want %d", len(gotWAV), 44+16000*2)
	}
	if string(gotWAV[0:4]) != "RIFF" || string(gotWAV[8:12]) != "WAVE" {
		t.Error("upload is not a RIFF/WAVE container")
	}
	if sr := binary.LittleEndian.Uint32(gotWAV[24:28]); sr != 16000 {
		t.Errorf("wav sample rate = %d, want 16000", sr)
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	if _, err := p.Transcribe(context.Background(), testAudio()); err == nil {
		t.Fatal("Transcribe should surface HTTP 500")
	}
}

func TestTranscribe_ContextCancelled(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := mustNew(t, srv.URL)
	if _, err := p.Transcribe(ctx, testAudio()); err == nil {
		t.Fatal("Transcribe should fail on cancelled context")
	}
}
