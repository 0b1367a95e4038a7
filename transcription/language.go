package transcription

import "strings"

const (
	// LanguageAuto asks the backend to detect the spoken language.
	LanguageAuto = "auto"
	// DefaultLanguage is the primary hint when detection is requested.
	DefaultLanguage = "en-US"
)

// AlternativeLanguages are extra hints sent along with DefaultLanguage when
// the caller asks for detection. Order is a hint to the backend, not a ranking.
var AlternativeLanguages = []string{
	"es-ES", "fr-FR", "de-DE", "it-IT", "pt-BR", "nl-NL", "pl-PL", "ru-RU",
	"uk-UA", "tr-TR", "ar-SA", "hi-IN", "bn-IN", "ja-JP", "ko-KR", "cmn-Hans-CN",
	"vi-VN", "id-ID", "th-TH", "sv-SE",
}

// LanguageSpec is what a backend should be told about the spoken language.
type LanguageSpec struct {
	Primary      string
	Alternatives []string
	// Auto is true when the caller did not pin a language.
	Auto bool
}

// ResolveLanguage maps a caller hint to a LanguageSpec. An explicit tag is
// passed through untouched; empty or "auto" favors recall with a long
// alternatives list.
func ResolveLanguage(hint string) LanguageSpec {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.EqualFold(hint, LanguageAuto) {
		alts := make([]string, len(AlternativeLanguages))
		copy(alts, AlternativeLanguages)
		return LanguageSpec{Primary: DefaultLanguage, Alternatives: alts, Auto: true}
	}
	return LanguageSpec{Primary: hint}
}

// BaseLanguage returns the ISO 639 part of a tag: "en-US" -> "en".
func BaseLanguage(tag string) string {
	base, _, _ := strings.Cut(tag, "-")
	base, _, _ = strings.Cut(base, "_")
	return strings.ToLower(base)
}
