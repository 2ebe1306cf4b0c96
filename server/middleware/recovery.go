package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
)

// Recovery answers 500 INTERNAL_ERROR when a handler panics. The stack goes
// to the log, never to the client. http.ErrAbortHandler is re-raised.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				switch rec {
				case nil:
					return
				case http.ErrAbortHandler:
					panic(rec)
				}
				cause := fmt.Errorf("panic: %v", rec)
				log.WithContext(r.Context()).Error("Panic recovered", logger.Fields(
					logger.FieldError, cause.Error(),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				))
				writeError(w, errors.Internal(cause))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
