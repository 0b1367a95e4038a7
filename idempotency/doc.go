// Package idempotency caches finished responses by request id so client
// retries never re-run providers.
//
// MemoryCache keeps entries in process with lazy expiry plus a background
// sweep. RedisCache shares them across instances. Group coalesces
// concurrent duplicates of one id onto a single computation.
package idempotency
