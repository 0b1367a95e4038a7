// Package recorder drives one dictation session at a time through
// Idle, Recording, Processing and Cancelling.
//
// All state lives on a single actor goroutine. Public methods marshal a
// closure onto it and wait; background work (the backend call, the
// processing timer, the settle delay) posts its result back the same way,
// and a result that arrives for a session that is no longer current is
// dropped. A processing timeout behaves exactly like CancelProcessing.
//
// Announcer and Inserter callbacks run on the actor goroutine. They must
// not call back into the Machine synchronously.
package recorder
