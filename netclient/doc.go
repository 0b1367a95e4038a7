// Package netclient is the dictation client's connection to the voxboard
// backend.
//
// Every call runs under one of two timeout classes: short for text-only
// formatting and long for audio uploads, with a shared dial timeout.
// Transport failures and 5xx replies get one more attempt after a fixed
// backoff. Replies are decoded into contract.Envelope, and failures into a
// *Error whose Kind the session logic switches on.
//
// In-flight calls are registered under their request id so the recorder
// can cancel one mid-flight:
//
//	go func() { env, err = c.TranscribeAndFormat(ctx, req) }()
//	...
//	c.Cancel(req.RequestID) // no-op once the call has returned
package netclient
