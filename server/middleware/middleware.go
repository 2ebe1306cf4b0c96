// Package middleware is the net/http layer in front of the gin router. It
// runs for every request, including ones that match no route.
package middleware

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/jbousquie/whisperx-api/errors"
)

// Middleware decorates a handler.
type Middleware func(http.Handler) http.Handler

// Chain nests middlewares so the first one listed sees the request first.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, m := range slices.Backward(middlewares) {
			h = m(h)
		}
		return h
	}
}

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
