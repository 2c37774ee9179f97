// Package templates renders the HTML pages served by the verification flow.
// A built-in set of pages is embedded in the binary; deployments can point
// `templates.dir` at a directory of *.tmpl files to replace them.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"net/http"
	"path/filepath"

	"gatekeep/errors"
)

//go:embed pages/*.tmpl
var builtin embed.FS

// Page names rendered by the verification handlers.
const (
	AuthPage    = "auth.html.tmpl"
	SuccessPage = "success.html.tmpl"
	ErrorPage   = "error.html.tmpl"
)

// Renderer renders named templates.
type Renderer struct {
	templates *template.Template
}

// New returns a Renderer backed by the embedded pages.
func New() (*Renderer, error) {
	t, err := template.ParseFS(builtin, "pages/*.tmpl")
	if err != nil {
		return nil, errors.WrapPrefix(err, "templates: parsing embedded pages", 0)
	}
	return &Renderer{templates: t}, nil
}

// NewFromDir returns a Renderer that loads *.tmpl files from dir, falling
// back to the embedded pages for names the directory doesn't provide.
func NewFromDir(dir string) (*Renderer, error) {
	r, err := New()
	if err != nil {
		return nil, err
	}
	t, err := r.templates.ParseGlob(filepath.Join(dir, "*.tmpl"))
	if err != nil {
		return nil, errors.WrapPrefix(err, "templates: parsing "+dir, 0)
	}
	r.templates = t
	return r, nil
}

// Render executes the named template. The output is buffered so a template
// error can't leave a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return errors.WrapPrefix(err, "templates: rendering "+name, 0)
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderPage renders a full HTML page response with the given status code.
func (r *Renderer) RenderPage(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return errors.WrapPrefix(err, "templates: rendering "+name, 0)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
