// Package redis wraps go-redis for the shared response cache: a pooled
// client, a lifecycle component, and a JSON TypedStore with SET NX support.
package redis
