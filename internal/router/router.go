package router

import (
	"archsite/internal/config"
	"archsite/internal/content"
	"archsite/internal/handlers"
	"archsite/internal/middleware"
	"archsite/internal/telemetry"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ContactAPIPath is exempt from the CSRF check; it only accepts JSON.
const ContactAPIPath = "/api/contact"

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg            *config.Config
	Logger         *slog.Logger
	SiteHandler    *handlers.SiteHandler
	MediaHandler   *handlers.MediaHandler
	Health         handlers.Pinger
	Limiter        *middleware.IPRateLimiter
	AuthLimiter    *middleware.IPRateLimiter
	ContactLimiter *middleware.IPRateLimiter
	Tracer         trace.Tracer
	Metrics        *telemetry.Metrics
	Session        *middleware.Sessions
	CSRF           *middleware.CSRF
	CSP            *middleware.CSP
}

func NewRouter(deps RouterDependencies) http.Handler {
	site := deps.SiteHandler

	// routing
	appMux := http.NewServeMux()

	// static files
	fs := http.FileServer(http.Dir("static"))
	appMux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	appMux.Handle("GET /"+deps.Cfg.Media.URLPrefix+"/{key...}", deps.MediaHandler)

	authDelay := 500 * time.Millisecond
	authStack := func(h http.Handler) http.Handler {
		h = middleware.SecureDelay(authDelay, deps.Metrics)(h)
		h = deps.AuthLimiter.Middleware(deps.Logger)(h)
		return h
	}
	contactStack := deps.ContactLimiter.Middleware(deps.Logger)
	admin := deps.Session.RequireAdmin(deps.Logger)

	// auth
	appMux.Handle("GET /login", site.HandleLoginPage())
	appMux.Handle("POST /login", authStack(site.HandleLogin()))
	appMux.Handle("POST /logout", site.HandleLogout())

	// public pages
	appMux.Handle("GET /{$}", site.HandleHome())
	appMux.Handle("GET /projects", site.HandleProjects())
	appMux.Handle("GET /projects/{slug}", site.HandleProject())
	appMux.Handle("GET /about", site.HandleAbout())
	appMux.Handle("GET /about/services", site.HandleServices())
	appMux.Handle("GET /about/services/{slug}", site.HandleService())
	appMux.Handle("GET /news", site.HandleNewsList())
	appMux.Handle("GET /news/{slug}", site.HandleNews())
	appMux.Handle("GET /contact", site.HandleContactPage())
	appMux.Handle("POST /contact", contactStack(site.HandleContact()))
	appMux.Handle("POST "+ContactAPIPath, contactStack(site.HandleContactAPI()))

	// admin
	appMux.Handle("GET /admin", admin(site.HandleDashboard()))
	appMux.Handle("GET /admin/runtime", admin(site.HandleRuntimeStats()))
	appMux.Handle("GET /admin/pages", admin(site.HandleAdminPages()))
	appMux.Handle("GET /admin/pages/{key}", admin(site.HandleEditPage()))
	appMux.Handle("POST /admin/pages/{key}", admin(site.HandleUpdatePage()))
	appMux.Handle("GET /admin/contacts", admin(site.HandleAdminContacts()))
	appMux.Handle("POST /admin/contacts/{id}/delete", admin(site.HandleDeleteContact()))
	for _, kind := range content.Kinds {
		base := "/admin/" + kind.Plural()
		appMux.Handle("GET "+base, admin(site.HandleAdminList(kind)))
		appMux.Handle("POST "+base, admin(site.HandleCreateEntity(kind)))
		appMux.Handle("GET "+base+"/new", admin(site.HandleNewEntity(kind)))
		appMux.Handle("GET "+base+"/{id}", admin(site.HandleEditEntity(kind)))
		appMux.Handle("POST "+base+"/{id}", admin(site.HandleUpdateEntity(kind)))
		appMux.Handle("POST "+base+"/{id}/delete", admin(site.HandleDeleteEntity(kind)))
	}

	appMux.HandleFunc("/", site.NotFound)

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	if deps.Cfg.Metrics.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger, deps.Cfg.Media.URLPrefix))
	}

	middlewareStack = append(middlewareStack,
		deps.CSP.Middleware(),
		deps.Limiter.Middleware(deps.Logger),
		middleware.BodyLimit(deps.Cfg.Media.MaxUploadBytes*maxFilesPerForm),
		deps.Session.Middleware(deps.Logger, deps.Tracer),
		deps.CSRF.Middleware(deps.Logger, http.HandlerFunc(site.Forbidden)),
		middleware.Logger(deps.Logger), // Inner logger (shows simple text logs)
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	// lightweight for docker keepalive
	rootMux.Handle("GET /healthz", handlers.HandleHealthz(deps.Health))

	rootMux.Handle("/", appHandler)

	return rootMux
}

// an admin form carries a cover and a handful of content images
const maxFilesPerForm = 8
