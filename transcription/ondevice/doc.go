// Package ondevice adapts push-based speech recognizers (ready, partial,
// final and error events) to the transcription.Provider contract.
//
// Recognizers on phones stop after a few seconds of silence with NO_MATCH or
// SPEECH_TIMEOUT. The adapter restarts them to approximate continuous
// dictation, but only up to MaxRestarts. Any other error rebuilds the
// recognizer at most MaxRecreations times, and the whole session is capped by
// MaxSessionDuration, so a flapping recognizer cannot restart forever.
package ondevice
