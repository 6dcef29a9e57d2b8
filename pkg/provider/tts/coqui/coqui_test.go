package coqui

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts"
)

// buildTestWAV constructs a minimal but valid RIFF/WAVE byte slice containing
// the supplied raw PCM samples, with a standard 44-byte header (RIFF + fmt +
// data) so parseWAV can locate the audio payload.
func buildTestWAV(pcm []byte, sampleRate int) []byte {
	fmtSize := uint32(16)
	dataSize := uint32(len(pcm))
	fileSize := 4 + (8 + fmtSize) + (8 + dataSize)

	buf := make([]byte, 0, 12+8+fmtSize+8+dataSize)
	le := binary.LittleEndian

	putU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	putU16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, []byte("RIFF")...)
	putU32(fileSize)
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	putU32(fmtSize)
	putU16(1) // PCM format
	putU16(1) // mono
	putU32(uint32(sampleRate))
	putU32(uint32(sampleRate * 2)) // byte rate
	putU16(2)                      // block align
	putU16(16)                     // bits per sample

	buf = append(buf, []byte("data")...)
	putU32(dataSize)
	buf = append(buf, pcm...)

	return buf
}

// mustNew is a test helper that calls New and fails the test on error.
func mustNew(t *testing.T, serverURL string, opts ...Option) *Provider {
	t.Helper()
	p, err := New(serverURL, opts...)
	if err != nil {
		t.Fatalf("New(%q): unexpected error: %v", serverURL, err)
	}
	return p
}

func TestNew_EmptyServerURL(t *testing.T) {
	t.Parallel()
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") should fail")
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()
	p := mustNew(t, "http://localhost:9")

	if _, err := p.Synthesize(context.Background(), "   ", tts.VoiceProfile{}); err == nil {
		t.Fatal("Synthesize with blank text should fail")
	}
}

func TestSynthesize_XTTSRequiresVoice(t *testing.T) {
	t.Parallel()
	p := mustNew(t, "http://localhost:9", WithAPIMode(APIModeXTTS))

	if _, err := p.Synthesize(context.Background(), "hello", tts.VoiceProfile{}); err == nil {
		t.Fatal("XTTS mode without voice.ID should fail")
	}
}

func TestSynthesize_StandardMode(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tts" {
			t.Errorf("request = %s %s, want GET /api/tts", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("text") != "Tell me about yourself." {
			t.Errorf("text param = %q", q.Get("text"))
		}
		if q.Get("speaker_id") != "p225" {
			t.Errorf("speaker_id param = %q", q.Get("speaker_id"))
		}
		if q.Get("language_id") != "en" {
			t.Errorf("language_id param = %q", q.Get("language_id"))
		}
		w.Write(buildTestWAV(pcm, 22050))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	got, err := p.Synthesize(context.Background(), "Tell me about yourself.", tts.VoiceProfile{ID: "p225"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("pcm = %v, want %v (container stripped)", got, pcm)
	}
}

func TestSynthesize_XTTSMode(t *testing.T) {
	t.Parallel()

	pcm := []byte{9, 8, 7, 6}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tts_to_audio/" {
			t.Errorf("request = %s %s, want POST /tts_to_audio/", r.Method, r.URL.Path)
		}
		var body ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Text != "hello" || body.SpeakerWav != "voice.wav" || body.Language != "de" {
			t.Errorf("body = %+v", body)
		}
		w.Write(buildTestWAV(pcm, 24000))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL, WithAPIMode(APIModeXTTS), WithLanguage("de"))
	got, err := p.Synthesize(context.Background(), "hello", tts.VoiceProfile{ID: "voice.wav"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("pcm = %v, want %v", got, pcm)
	}
}

func TestSynthesize_Resamples(t *testing.T) {
	t.Parallel()

	// Four constant samples at 32 kHz resample to two at 16 kHz.
	pcm := pcm16(1000, 1000, 1000, 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buildTestWAV(pcm, 32000))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL, WithOutputSampleRate(16000))
	got, err := p.Synthesize(context.Background(), "hi", tts.VoiceProfile{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("resampled size = %d bytes, want 4", len(got))
	}
	for i := 0; i < len(got); i += 2 {
		if s := int16(binary.LittleEndian.Uint16(got[i : i+2])); s != 1000 {
			t.Errorf("sample %d = %d, want 1000", i/2, s)
		}
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	if _, err := p.Synthesize(context.Background(), "hello", tts.VoiceProfile{}); err == nil {
		t.Fatal("Synthesize should surface HTTP 502")
	}
}

func TestSynthesize_RejectsNonWAVResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not audio"))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	if _, err := p.Synthesize(context.Background(), "hello", tts.VoiceProfile{}); err == nil {
		t.Fatal("Synthesize should reject a non-WAV payload")
	}
}

func TestParseWAV_SkipsExtraChunks(t *testing.T) {
	t.Parallel()

	// RIFF with a LIST chunk between fmt and data.
	pcm := []byte{5, 5}
	wav := buildTestWAV(pcm, 22050)
	list := append([]byte("LIST"), 0x04, 0x00, 0x00, 0x00, 'I', 'N', 'F', 'O')
	// Splice the LIST chunk in front of the data chunk (offset 36).
	spliced := append(append(append([]byte{}, wav[:36]...), list...), wav[36:]...)

	info, err := parseWAV(spliced)
	if err != nil {
		t.Fatalf("parseWAV: %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 1 {
		t.Errorf("format = %d Hz / %d ch, want 22050 / 1", info.SampleRate, info.Channels)
	}
	if got := spliced[info.DataOffset:]; string(got) != string(pcm) {
		t.Errorf("data = %v, want %v", got, pcm)
	}
}

// pcm16 encodes int16 samples as little-endian PCM bytes.
func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
