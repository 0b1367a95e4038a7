// Package util holds size parsing for byte limits and secret masking for logs.
package util
