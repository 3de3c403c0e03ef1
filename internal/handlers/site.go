package handlers

import (
	"archsite/internal/cms"
	"archsite/internal/components"
	"archsite/internal/content"
	"archsite/internal/middleware"
	"archsite/internal/storage"
	"context"
	"html"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/justinas/nosurf"
)

// UserStore is the part of the relational store the login flow needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*storage.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*storage.User, error)
	SetUserPassword(ctx context.Context, username, passwordHash string) error
}

// Services groups the content services the handlers delegate to.
type Services struct {
	Query    *cms.Query
	Manager  *cms.Manager
	Contacts *cms.Contacts
	Pages    *cms.Pages
}

// SiteHandler serves the public site, the admin area and the login flow.
type SiteHandler struct {
	Title          string
	Services       Services
	Users          UserStore
	Sessions       *middleware.Sessions
	Renderer       *content.MarkDownRenderer
	Logger         *slog.Logger
	MaxUploadBytes int64
}

func NewSiteHandler(title string, services Services, users UserStore, sessions *middleware.Sessions, renderer *content.MarkDownRenderer, maxUploadBytes int64, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{
		Title:          title,
		Services:       services,
		Users:          users,
		Sessions:       sessions,
		Renderer:       renderer,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *SiteHandler) newCommonData(r *http.Request) components.CommonData {
	return components.CommonData{
		SiteName:  h.Title,
		Path:      r.URL.Path,
		Username:  h.Sessions.Username(r.Context()),
		CSRFToken: nosurf.Token(r),
	}
}

// render writes an HTML component with the given status.
func (h *SiteHandler) render(w http.ResponseWriter, r *http.Request, code int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := c.Render(r.Context(), w); err != nil {
		h.Logger.Warn("render interrupted", "path", r.URL.Path, "err", err)
	}
}

// markdown renders an entity or page body. A body that fails to convert is
// shown as escaped text rather than failing the page.
func (h *SiteHandler) markdown(source string) templ.Component {
	out, err := h.Renderer.RenderString(source)
	if err != nil {
		h.Logger.Error("markdown conversion failed", "err", err)
		return templ.Raw("<p>" + html.EscapeString(source) + "</p>")
	}
	return templ.Raw(out)
}
