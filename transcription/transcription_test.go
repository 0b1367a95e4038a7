package transcription

import (
	stderrors "errors"
	"testing"
)

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		hint    string
		primary string
		auto    bool
	}{
		{"", DefaultLanguage, true},
		{"auto", DefaultLanguage, true},
		{" AUTO ", DefaultLanguage, true},
		{"de-DE", "de-DE", false},
		{"pt-BR", "pt-BR", false},
	}
	for _, tt := range tests {
		ls := ResolveLanguage(tt.hint)
		if ls.Primary != tt.primary || ls.Auto != tt.auto {
			t.Errorf("ResolveLanguage(%q) = %+v", tt.hint, ls)
		}
		if tt.auto && len(ls.Alternatives) != len(AlternativeLanguages) {
			t.Errorf("ResolveLanguage(%q): %d alternatives", tt.hint, len(ls.Alternatives))
		}
		if !tt.auto && ls.Alternatives != nil {
			t.Errorf("explicit language should carry no alternatives")
		}
	}
}

func TestResolveLanguage_AlternativesAreCopied(t *testing.T) {
	ls := ResolveLanguage("auto")
	ls.Alternatives[0] = "xx-XX"
	if AlternativeLanguages[0] == "xx-XX" {
		t.Fatal("caller mutated the shared alternatives list")
	}
}

func TestBaseLanguage(t *testing.T) {
	for in, want := range map[string]string{"en-US": "en", "pt_BR": "pt", "FR": "fr", "cmn-Hans-CN": "cmn"} {
		if got := BaseLanguage(in); got != want {
			t.Errorf("BaseLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseVariant(t *testing.T) {
	if v, _ := ParseVariant("on_device"); v != OnDevice {
		t.Errorf("got %v", v)
	}
	if v, _ := ParseVariant(""); v != Cloud {
		t.Errorf("got %v", v)
	}
	if _, err := ParseVariant("satellite"); err == nil {
		t.Error("expected error")
	}
}

func TestErrors(t *testing.T) {
	err := Unavailable("gemini", stderrors.New("dial tcp: refused"))
	if !stderrors.Is(err, ErrProviderUnavailable) {
		t.Error("Unavailable should wrap ErrProviderUnavailable")
	}

	cause := stderrors.New("bad audio")
	var fe *FailedError
	if !stderrors.As(error(Failed("whisper", "decode", cause)), &fe) || !stderrors.Is(fe, cause) {
		t.Error("FailedError should unwrap to its cause")
	}
	if !(&Result{Text: "  "}).NoSpeech() || (&Result{Text: "hi"}).NoSpeech() {
		t.Error("NoSpeech mismatch")
	}
}
