package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger logs each request with its status, duration, request id and,
// once the auth middleware has run, the caller's user id.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			// the auth middleware runs deeper in the chain, so it records the
			// user id on this holder for the log line below
			holder := &userHolder{}
			r = r.WithContext(withUserHolder(r.Context(), holder))

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			ev := log.Info()
			if status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev = ev.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context()))
			if holder.id != 0 {
				ev = ev.Int64("user_id", holder.id)
			}
			ev.Msg("http request")
		})
	}
}
