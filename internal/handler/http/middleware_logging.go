package http

import (
	"net/http"
	"time"

	"github.com/questlog-app/questlog/internal/logger"
)

// withLogging emits one structured line per request once the response
// is written. Server errors log at error level and client errors at
// warn so operational noise stays greppable by severity. The user_id
// field appears once the auth middleware has identified the caller.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		start := time.Now()

		lw := &responseWriter{
			ResponseWriter: w,
		}

		next.ServeHTTP(lw, r)

		event := log.Info()
		switch {
		case lw.status >= http.StatusInternalServerError:
			event = log.Error()
		case lw.status >= http.StatusBadRequest:
			event = log.Warn()
		}
		if lw.userID != 0 {
			event = event.Int64("user_id", lw.userID)
		}

		event.
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Int("status", lw.status).
			Int("size", lw.size).
			Dur("duration", time.Since(start)).
			Send()
	})
}
