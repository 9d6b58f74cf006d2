// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/fieldnotes/internal/logging"
)

// Logger logs one line per request with the request-scoped logger, so every
// entry carries the chi request id.
//
// The level follows the response: Error for 5xx, Warn for 4xx, Info
// otherwise. Health probes are logged at Debug. Accepted uploads also log
// the job they started, read from the Location header.
//
// Log fields:
//   - method, path, status
//   - duration_ms: time spent in the handler chain
//   - bytes_in: request Content-Length when known
//   - bytes_out: response body size
//   - ip: client address after chi's RealIP rewrite
//   - job: Location of a newly accepted import
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_out", ww.bytes,
			"ip", r.RemoteAddr,
		}
		if r.ContentLength > 0 {
			attrs = append(attrs, "bytes_in", r.ContentLength)
		}
		if ww.status == http.StatusAccepted {
			if loc := ww.Header().Get("Location"); loc != "" {
				attrs = append(attrs, "job", loc)
			}
		}

		logging.FromContext(r.Context()).Log(r.Context(), requestLevel(r, ww.status), "request", attrs...)
	})
}

func requestLevel(r *http.Request, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case r.URL.Path == "/healthz":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
