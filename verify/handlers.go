package verify

import (
	"net/http"

	"gatekeep"
	"gatekeep/errors"
	"gatekeep/logging"
	"gatekeep/serverutil"
	"gatekeep/templates"
)

// Handlers exposes the verification pipeline over HTTP.
type Handlers struct {
	verifier    *Verifier
	pages       *templates.Renderer
	serviceName string
}

// NewHandlers returns the HTTP surface for a verifier. Pages are titled with
// the configured service name.
func NewHandlers(verifier *Verifier, pages *templates.Renderer) *Handlers {
	return &Handlers{
		verifier:    verifier,
		pages:       pages,
		serviceName: gatekeep.ConfigString("name"),
	}
}

type authPageData struct {
	ServiceName  string
	AuthorizeURL string
}

type successPageData struct {
	ServiceName string
	DisplayName string
}

type errorPageData struct {
	ServiceName string
	Message     string
}

// Auth handles GET /auth: issues a correlation token and renders an interim
// page that forwards the user to the provider. An optional `principal` query
// param pins the token to an account.
func (h *Handlers) Auth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authorizeURL, err := h.verifier.Begin(ctx, r.URL.Query().Get("principal"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, templates.AuthPage, authPageData{
		ServiceName:  h.serviceName,
		AuthorizeURL: authorizeURL,
	})
}

// Callback handles GET /callback: runs the pipeline against the provider's
// code and state and renders the outcome.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	identity, err := h.verifier.Complete(ctx, q.Get("code"), q.Get("state"), serverutil.ClientIP(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, templates.SuccessPage, successPageData{
		ServiceName: h.serviceName,
		DisplayName: identity.DisplayName(),
	})
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logging.TrackError(ctx, err)
	h.renderPage(w, r, errors.HTTPStatusCode(err), templates.ErrorPage, errorPageData{
		ServiceName: h.serviceName,
		Message:     errors.PublicMessage(err),
	})
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.pages.RenderPage(w, status, name, data); err != nil {
		logging.Errorw(r.Context(), "failed to render page", "page", name, "error", err)
	}
}
