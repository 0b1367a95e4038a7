// Package ollama is an llm.Provider for a local Ollama server.
package ollama
