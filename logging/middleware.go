package logging

import (
	"context"
	"net/http"
	"time"

	"gatekeep/errors"
)

// Frames of stack trace included on logged errors.
const stackSize = 5

// Middleware wraps an HTTP handler so that every request runs with a
// request-scoped logger in its context and emits a single summary line when
// handling completes. Fields added via Track during handling appear on the
// summary line.
//
// Panics are recovered, logged with a stack trace, and converted to a 500
// response if the handler had not yet written one.
func Middleware(base Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := With(r.Context(), base.Named(r.Method+" "+r.URL.Path))
			sw := &statusWriter{ResponseWriter: w}

			defer func() {
				if rec := recover(); rec != nil {
					err := errors.Wrap(rec, 3)
					Track(ctx, "error.panic", true)
					TrackError(ctx, err)
					if !sw.wroteHeader {
						http.Error(sw, "An internal error occurred", http.StatusInternalServerError)
					}
				}
				Infow(ctx, "request handled",
					"http.status", sw.Status(),
					"http.durationMs", time.Since(start).Milliseconds(),
					"http.remote", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(sw, r.WithContext(ctx))
		})
	}
}

// TrackError records error metadata on the current logging scope so it shows
// up on the request summary line.
func TrackError(ctx context.Context, err error) {
	Track(ctx, "error.message", err.Error())
	Track(ctx, "error.httpStatus", errors.HTTPStatusCode(err))

	var gerr *errors.Error
	if errors.As(err, &gerr) {
		Track(ctx, "error.stack", gerr.MinimalStack(0, stackSize))
	}
}

// statusWriter records the status code written to the response.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.status = http.StatusOK
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the response status, defaulting to 200 when the handler
// wrote a body without an explicit WriteHeader call.
func (w *statusWriter) Status() int {
	if !w.wroteHeader {
		return http.StatusOK
	}
	return w.status
}
