package contract

import "net/http"

// BodyLimit returns middleware that limits the maximum request body size.
// Oversized bodies surface as a BadRequest from the parse-body stage when
// the pipeline hits the reader's limit.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
