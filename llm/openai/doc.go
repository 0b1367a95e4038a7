// Package openai is an llm.Provider for OpenAI-compatible chat completion APIs.
package openai
