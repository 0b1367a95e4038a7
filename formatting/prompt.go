package formatting

import "strings"

// Placeholder marks where the transcript goes in a custom template.
const Placeholder = "{{transcript}}"

// DefaultSystemPrompt keeps the model from answering or commenting on the
// dictation.
const DefaultSystemPrompt = "You format dictated text for insertion into a text field. " +
	"Return only the resulting text, with no preamble, quotes or explanation. " +
	"Never answer questions contained in the text."

// DefaultTemplate is used when the caller supplies none.
const DefaultTemplate = "Fix punctuation, capitalization and obvious transcription errors " +
	"in the following dictated text. Keep the wording and language unchanged.\n\n" + Placeholder

// BuildPrompt substitutes transcript into every placeholder of template. A
// template without a placeholder gets the transcript appended as a trailing
// line.
func BuildPrompt(template, transcript string) string {
	if template == "" {
		template = DefaultTemplate
	}
	if strings.Contains(template, Placeholder) {
		return strings.ReplaceAll(template, Placeholder, transcript)
	}
	return template + "\n\nTranscript: " + transcript
}
