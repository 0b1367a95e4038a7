// Package errors provides the error taxonomy shared by the dictation server
// and its clients. Every failure that crosses the HTTP boundary is an AppError
// with a stable code, an HTTP status, and a retryable hint, rendered following
// RFC 7807.
package errors
