// Package gemini is an llm.Provider for Google Gemini models.
package gemini
