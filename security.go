package gatekeep

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"gatekeep/errors"

	"google.golang.org/grpc/codes"
)

type XFramesOptions string

const (
	XFramesOptionsNone       XFramesOptions = ""
	XFramesOptionsDeny       XFramesOptions = "DENY"
	XFramesOptionsSameOrigin XFramesOptions = "SAMEORIGIN"
)

// HSTS requires a minimum expiration of 1 year for preload.
var ErrBadHSTSExpiration = errors.NewC(
	"gatekeep: HSTS preload requires expiration of at least 1 year", codes.FailedPrecondition)

// SecurityHeaders contains the security headers set on every HTTP response.
// The service only serves top-level browser pages, so there is no CORS
// surface; cross-origin requests have nothing to call.
type SecurityHeaders struct {
	// X-Frame-Options controls whether the browser should allow the page to
	// be rendered in a frame or iframe. Framing the verification pages would
	// enable clickjacking, so the default is DENY.
	XFramesOptions XFramesOptions

	// Strict-Transport-Security (HSTS) tells the browser to always use HTTPS
	// when connecting to the site.
	HSTSExpiration        time.Duration
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	once    sync.Once
	headers map[string]string
	err     error
}

// Apply sets the security headers on the given response.
func (s *SecurityHeaders) Apply(w http.ResponseWriter) error {
	s.once.Do(s.compute)
	if s.err != nil {
		return s.err
	}
	for k, v := range s.headers {
		w.Header().Set(k, v)
	}
	return nil
}

// Middleware wraps a handler so the headers are applied before it runs.
func (s *SecurityHeaders) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.Apply(w); err != nil {
			http.Error(w, "server misconfigured", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *SecurityHeaders) compute() {
	s.headers = map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	if s.XFramesOptions != XFramesOptionsNone {
		s.headers["X-Frame-Options"] = string(s.XFramesOptions)
	}

	if s.HSTSExpiration > 0 {
		h := fmt.Sprintf("max-age=%.0f", s.HSTSExpiration.Seconds())
		if s.HSTSIncludeSubdomains {
			h += "; includeSubDomains"
		}
		if s.HSTSPreload {
			if s.HSTSExpiration < time.Hour*24*365 {
				s.err = ErrBadHSTSExpiration
				return
			}
			h += "; preload"
		}
		s.headers["Strict-Transport-Security"] = h
	}
}
