package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// WithRequestID wraps next so every request gets an opaque correlation
// id, logged on one slog line when the request arrives and echoed back
// as the X-Request-Id response header; the handlers' own slog lines do
// not carry it. The id is a log-correlation token only, never a
// protocol field.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		slog.Info("request", "request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
