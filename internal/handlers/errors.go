package handlers

import (
	"archsite/internal/cms"
	"archsite/internal/components"
	"errors"
	"net/http"
)

// InternalError handles 500 errors
func (h *SiteHandler) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error("500 internal server error", "err", err, "path", r.URL.Path)
	h.renderError(w, r, http.StatusInternalServerError,
		"Internal Server Error",
		"Something went wrong on our end. We've logged the error and will look into it.",
	)
}

// Unavailable handles 503 errors caused by the content store
func (h *SiteHandler) Unavailable(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error("503 store unavailable", "err", err, "path", r.URL.Path)
	w.Header().Set("Retry-After", "30")
	h.renderError(w, r, http.StatusServiceUnavailable,
		"Temporarily Unavailable",
		"The site could not reach its content right now. Please try again in a moment.",
	)
}

// Forbidden is served when a form post fails the CSRF check, usually because
// the page sat open past the session lifetime.
func (h *SiteHandler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusForbidden,
		"Form Expired",
		"This form is no longer valid. Go back, reload the page and submit it again.",
	)
}

// NotFound is a helper to serve the custom 404 page
func (h *SiteHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Logger.Warn("404 not found", "path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
	h.renderError(w, r, http.StatusNotFound,
		"Page Not Found",
		"The page you are looking for doesn't exist or has been moved.",
	)
}

// fail picks the error page for an error returned by the cms services.
func (h *SiteHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cms.ErrNotFound):
		h.NotFound(w, r)
	case errors.Is(err, cms.ErrStoreUnavailable):
		h.Unavailable(w, r, err)
	default:
		h.InternalError(w, r, err)
	}
}

// renderError writes a header code wraps the call to the ErrorPage component with common data
func (h *SiteHandler) renderError(w http.ResponseWriter, r *http.Request, code int, title, message string) {
	common := h.newCommonData(r)
	h.render(w, r, code, components.ErrorPage(common, code, title, message))
}
