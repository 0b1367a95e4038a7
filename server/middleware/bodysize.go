package middleware

import (
	"errors"
	"net/http"

	"github.com/kbukum/voxboard/util"
)

const defaultMaxBodySize = 12 << 20

// BodySizeLimit caps the request body at maxSize ("12MB", "512KB"). Reads
// past the cap fail with *http.MaxBytesError; see IsBodyTooLarge.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				w.Header().Set("Connection", "close")
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// IsBodyTooLarge reports whether err came from reading past the body cap.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
