// Package transcription defines the speech-to-text provider contract shared by
// the server and the dictation client.
//
// Backends live in subpackages and register through a provider.Registry so the
// server can select one by name:
//
//   - gemini: Gemini audio understanding (the default cloud engine)
//   - openai: OpenAI whisper-1
//   - whisper: a self-hosted faster-whisper sidecar
//   - ondevice: adapts a push-based recognizer with bounded restarts
//
// Empty text is a normal outcome meaning no speech was heard. Unreachable
// backends return errors wrapping ErrProviderUnavailable; reachable backends
// that fail return *FailedError.
package transcription
