package wav2vec

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jbousquie/whisperx-api/alignment"
	"github.com/jbousquie/whisperx-api/audio"
	"github.com/jbousquie/whisperx-api/sidecar"
	"github.com/jbousquie/whisperx-api/transcription"
)

func newProvider(t *testing.T, mux *http.ServeMux) *Provider {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewProvider(Config{Sidecar: sidecar.Config{URL: srv.URL}})
}

func sample(t *testing.T) *audio.Sample {
	t.Helper()
	s, _ := audio.NewSample(make([]float32, 320), audio.SampleRate)
	return s
}

func f(v float64) *float64 { return &v }

func TestFactoryDefaultLanguage(t *testing.T) {
	p, err := Factory()(map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Language() != alignment.DefaultLanguage || p.Name() != ProviderName {
		t.Errorf("unexpected provider %s/%s", p.Name(), p.Language())
	}
}

func TestInitSendsLanguage(t *testing.T) {
	got := make(chan loadRequest, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/models/load", func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		got <- req
		_, _ = io.WriteString(w, `{"model":"WAV2VEC2_ASR_BASE_960H"}`)
	})
	p := newProvider(t, mux)
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if req := <-got; req.LanguageCode != "en" {
		t.Errorf("expected language_code en, got %+v", req)
	}
}

func TestAlign(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/align", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		var segs []segmentIn
		if err := json.Unmarshal([]byte(r.FormValue("segments")), &segs); err != nil || len(segs) != 1 {
			t.Errorf("unexpected segments field %q", r.FormValue("segments"))
		}
		_, _ = io.WriteString(w, `{"segments":[{"start":0.0,"end":2.0,"text":"hello 42 world","words":[
			{"word":"hello","start":0.1,"end":0.5,"score":0.9},
			{"word":"42"},
			{"word":"world","start":1.2,"end":1.8,"score":0.8}]}]}`)
	})
	p := newProvider(t, mux)

	segs, err := p.Align(context.Background(), alignment.Request{
		Audio:    sample(t),
		Segments: []transcription.Segment{{Start: 0, End: 2, Text: "hello 42 world"}},
	})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if len(segs) != 1 || len(segs[0].Words) != 3 {
		t.Fatalf("unexpected segments %+v", segs)
	}
	mid := segs[0].Words[1]
	if mid.Start != 0.5 || mid.End != 1.2 {
		t.Errorf("expected untimed word to span the gap 0.5-1.2, got %v-%v", mid.Start, mid.End)
	}
}

func TestAlignEmptySegments(t *testing.T) {
	p := NewProvider(Config{})
	segs, err := p.Align(context.Background(), alignment.Request{Audio: sample(t)})
	if err != nil || len(segs) != 0 {
		t.Errorf("expected empty result, got %v %v", segs, err)
	}
}

func TestAlignOtherLanguageUsesLoadedModel(t *testing.T) {
	sent := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/align", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		sent <- r.FormValue("language")
		_, _ = io.WriteString(w, `{"segments":[{"start":0.0,"end":1.0,"text":"bonjour","words":[{"word":"bonjour","start":0.1,"end":0.6}]}]}`)
	})
	p := newProvider(t, mux)

	segs, err := p.Align(context.Background(), alignment.Request{
		Audio:    sample(t),
		Segments: []transcription.Segment{{Start: 0, End: 1, Text: "bonjour"}},
		Language: "fr",
	})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if lang := <-sent; lang != alignment.DefaultLanguage {
		t.Errorf("expected the loaded model language %q, got %q", alignment.DefaultLanguage, lang)
	}
	if len(segs) != 1 || len(segs[0].Words) != 1 {
		t.Errorf("unexpected segments %+v", segs)
	}
}

func TestFillWordTimes(t *testing.T) {
	words := fillWordTimes(1.0, 3.0, []alignedWord{
		{Word: "$5"},
		{Word: "now", Start: f(1.5), End: f(1.9), Score: f(0.7)},
		{Word: "100%"},
	})
	if words[0].Start != 1.0 || words[0].End != 1.5 {
		t.Errorf("leading untimed word: got %v-%v", words[0].Start, words[0].End)
	}
	if words[1].Score != 0.7 {
		t.Errorf("expected score kept, got %v", words[1].Score)
	}
	if words[2].Start != 1.9 || words[2].End != 3.0 {
		t.Errorf("trailing untimed word: got %v-%v", words[2].Start, words[2].End)
	}
	if fillWordTimes(0, 1, nil) != nil {
		t.Error("expected nil words for empty input")
	}
}
