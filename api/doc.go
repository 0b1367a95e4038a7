// Package api binds the voxboard HTTP routes to the orchestrator.
//
// Handlers only translate: JSON and multipart bodies in, envelopes and
// AppError bodies out. Uploaded audio is streamed to temporary storage and
// handed to the orchestrator, which owns and deletes it from then on.
package api
