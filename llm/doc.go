// Package llm is the chat-completion layer behind transcript formatting.
//
// Backends:
//
//   - openai: OpenAI chat completions via go-openai
//   - gemini: Gemini via google.golang.org/genai
//   - ollama: a local Ollama server over the REST client
//
// Each backend classifies its failures into *Error so callers can tell a
// transient outage (retry) from a rejected key or request (give up).
package llm
