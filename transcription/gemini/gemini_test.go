package gemini

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/transcription"
)

type fakeModels struct {
	reply    string
	err      error
	prompts  []string
	getCalls int
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func (f *fakeModels) Get(context.Context, string, *genai.GetModelConfig) (*genai.Model, error) {
	f.getCalls++
	return &genai.Model{Name: defaultModel}, f.err
}

func memArtifact() *audio.Artifact {
	return audio.NewArtifact("a.wav", audio.MIMEWAV, 4,
		func(context.Context) (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("RIFF")), nil },
		nil)
}

func TestTranscribe_AutoLanguageSendsAlternatives(t *testing.T) {
	fm := &fakeModels{reply: "hello world"}
	p := newProvider(Config{APIKey: "k"}, fm)

	res, err := p.Transcribe(context.Background(), transcription.Request{Audio: memArtifact(), Language: "auto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello world" {
		t.Errorf("Text = %q", res.Text)
	}
	prompt := fm.prompts[0]
	if !strings.Contains(prompt, transcription.DefaultLanguage) || !strings.Contains(prompt, "ja-JP") {
		t.Errorf("prompt lacks language hints: %s", prompt)
	}
}

func TestTranscribe_ExplicitLanguagePassesThrough(t *testing.T) {
	fm := &fakeModels{reply: "hola"}
	p := newProvider(Config{APIKey: "k"}, fm)
	res, err := p.Transcribe(context.Background(), transcription.Request{Audio: memArtifact(), Language: "es-MX"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Language != "es-MX" {
		t.Errorf("Language = %q", res.Language)
	}
	if strings.Contains(fm.prompts[0], "ja-JP") {
		t.Error("explicit language should not carry alternatives")
	}
}

func TestTranscribe_NoSpeechMarkerIsEmpty(t *testing.T) {
	p := newProvider(Config{APIKey: "k"}, &fakeModels{reply: noSpeechMarker})
	res, err := p.Transcribe(context.Background(), transcription.Request{Audio: memArtifact()})
	if err != nil {
		t.Fatal(err)
	}
	if !res.NoSpeech() {
		t.Errorf("expected no speech, got %q", res.Text)
	}
}

func TestTranscribe_ErrorMapping(t *testing.T) {
	tests := []struct {
		err         error
		unavailable bool
	}{
		{genai.APIError{Code: 503, Message: "overloaded"}, true},
		{genai.APIError{Code: 401, Message: "bad key"}, true},
		{genai.APIError{Code: 400, Message: "unsupported audio"}, false},
		{stderrors.New("dial tcp: connection refused"), true},
	}
	for _, tt := range tests {
		p := newProvider(Config{APIKey: "k"}, &fakeModels{err: tt.err})
		_, err := p.Transcribe(context.Background(), transcription.Request{Audio: memArtifact()})
		if got := stderrors.Is(err, transcription.ErrProviderUnavailable); got != tt.unavailable {
			t.Errorf("%v: unavailable = %v", tt.err, got)
		}
	}
}

func TestTranscribe_BreakerOpensAfterOutages(t *testing.T) {
	fm := &fakeModels{err: genai.APIError{Code: 503}}
	p := newProvider(Config{APIKey: "k"}, fm)
	for i := 0; i < 5; i++ {
		_, _ = p.Transcribe(context.Background(), transcription.Request{Audio: memArtifact()})
	}
	if p.IsAvailable(context.Background()) {
		t.Error("open breaker should report unavailable")
	}
	calls := len(fm.prompts)
	_, err := p.Transcribe(context.Background(), transcription.Request{Audio: memArtifact()})
	if !stderrors.Is(err, transcription.ErrProviderUnavailable) || len(fm.prompts) != calls {
		t.Errorf("open breaker should short-circuit, err=%v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	fm := &fakeModels{}
	if newProvider(Config{}, fm).IsAvailable(context.Background()) {
		t.Error("no key must be unavailable")
	}
	if !newProvider(Config{APIKey: "k"}, fm).IsAvailable(context.Background()) {
		t.Error("expected available")
	}
	if len(fm.prompts) != 0 {
		t.Error("IsAvailable must not transcribe")
	}
}
