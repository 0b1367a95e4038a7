// Package orchestrator is the backend request pipeline behind the format
// and transcribe endpoints: validation, response cache, transcription,
// formatting with retry, and envelope assembly.
package orchestrator
