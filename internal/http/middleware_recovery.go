package http

import (
	"net/http"
	"runtime/debug"

	"bookstore/internal/logger"
)

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithComponent("http").
					WithField("request_id", RequestIDFrom(r)).
					Errorf("panic recovered: %v stack=%s", err, debug.Stack())

				var wroteHeader bool
				if rw, ok := w.(*responseWriter); ok {
					wroteHeader = rw.wroteHeader()
				}

				if !wroteHeader {
					JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}
