package gatekeep

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersDefaults(t *testing.T) {
	s := &SecurityHeaders{XFramesOptions: XFramesOptionsDeny}
	rec := httptest.NewRecorder()
	require.NoError(t, s.Apply(rec))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeadersHSTS(t *testing.T) {
	s := &SecurityHeaders{
		HSTSExpiration:        2 * 365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,
	}
	rec := httptest.NewRecorder()
	require.NoError(t, s.Apply(rec))
	assert.Equal(t, "max-age=63072000; includeSubDomains; preload",
		rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeadersPreloadRequiresLongExpiration(t *testing.T) {
	s := &SecurityHeaders{
		HSTSExpiration: 30 * 24 * time.Hour,
		HSTSPreload:    true,
	}
	err := s.Apply(httptest.NewRecorder())
	assert.ErrorIs(t, err, ErrBadHSTSExpiration)
}

func TestSecurityHeadersMiddlewareFailsClosed(t *testing.T) {
	s := &SecurityHeaders{
		HSTSExpiration: time.Hour,
		HSTSPreload:    true,
	}
	handler := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run when headers cannot be applied")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
