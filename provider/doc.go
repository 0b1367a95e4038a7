// Package provider is the common shape of swappable backends: transcription
// engines and language models. Each backend package exposes a Factory, and
// the server picks one by name from configuration:
//
//	reg := provider.NewRegistry[transcription.Provider]()
//	reg.RegisterFactory("gemini", gemini.Factory(apiKey))
//	p, err := reg.Create(cfg.Transcription.Provider, cfg.Transcription.Options)
package provider
