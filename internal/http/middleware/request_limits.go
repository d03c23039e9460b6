package middleware

import "net/http"

// Homework uploads carry up to three 50 MB attachments plus form fields.
const maxRequestBodySize = 160 << 20

// RequestSizeLimit creates middleware that caps the request body size so a
// single client cannot exhaust server memory.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = maxRequestBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
