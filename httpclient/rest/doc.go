// Package rest adds typed JSON helpers on top of httpclient:
//
//	c, _ := rest.New(httpclient.Config{BaseURL: "http://localhost:11434"})
//	resp, err := rest.Post[chatResponse](ctx, c, "/api/chat", req)
//
// A 2xx reply that fails to decode returns *DecodeError.
package rest
