package templates

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmbeddedPages(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, AuthPage, map[string]any{
		"ServiceName":  "Gatekeep",
		"AuthorizeURL": "https://discord.com/oauth2/authorize?state=abc",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "https://discord.com/oauth2/authorize?state=abc")
	assert.Contains(t, buf.String(), "Verify your account")

	buf.Reset()
	err = r.Render(&buf, SuccessPage, map[string]any{
		"ServiceName": "Gatekeep",
		"DisplayName": "someone#1234",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "someone#1234")
}

func TestRenderEscapesData(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, ErrorPage, map[string]any{
		"ServiceName": "Gatekeep",
		"Message":     "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestRenderPageSetsStatusAndContentType(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	err = r.RenderPage(w, 403, ErrorPage, map[string]any{
		"ServiceName": "Gatekeep",
		"Message":     "This link was issued to a different account.",
	})
	require.NoError(t, err)
	assert.Equal(t, 403, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestNewFromDirOverrides(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "success.html.tmpl")
	require.NoError(t, os.WriteFile(custom, []byte("custom for {{.DisplayName}}"), 0o644))

	r, err := NewFromDir(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, SuccessPage, map[string]any{"DisplayName": "x"}))
	assert.Equal(t, "custom for x", buf.String())

	// Pages not present in the directory fall back to the embedded set.
	buf.Reset()
	require.NoError(t, r.Render(&buf, AuthPage, map[string]any{
		"ServiceName": "g", "AuthorizeURL": "u",
	}))
	assert.Contains(t, buf.String(), "Verify your account")
}
