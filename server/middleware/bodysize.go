package middleware

import (
	"net/http"

	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/util"
)

// BodySizeLimit caps request bodies at maxSize ("500MB", "1GB"; 500MB if
// unparseable). A declared Content-Length over the cap gets 413 at once.
// Otherwise reads past the cap fail with *http.MaxBytesError, which the
// upload handler turns into the same 413.
func BodySizeLimit(maxSize string) Middleware {
	limit := util.ParseSize(maxSize, 500<<20)
	tooLarge := errors.PayloadTooLarge(limit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, tooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
