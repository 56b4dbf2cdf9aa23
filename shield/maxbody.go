package shield

import (
	"net/http"
	"strings"
)

// MaxUploadBody returns middleware that caps the request body size for
// multipart and form-encoded POST requests. Exceeding the cap surfaces as
// a *http.MaxBytesError from the handler's body reads. Other content types
// are passed through untouched.
func MaxUploadBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if strings.HasPrefix(ct, "multipart/form-data") ||
				ct == "application/x-www-form-urlencoded" {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
