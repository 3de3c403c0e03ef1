package handlers

import (
	"archsite/internal/components"
	"archsite/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// compared against when the username is unknown so both paths cost a bcrypt run
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

func (h *SiteHandler) HandleLoginPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// user already logged in, send to the admin area
		if h.Sessions.LoggedIn(r.Context()) {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}

		h.render(w, r, http.StatusOK, components.Login(h.newCommonData(r), "", r.URL.Query().Get("next"), ""))
	})
}

// HandleLogin processes the login form submission
func (h *SiteHandler) HandleLogin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Sessions.LoggedIn(r.Context()) {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		next := r.FormValue("next")

		invalid := func() {
			h.render(w, r, http.StatusUnauthorized, components.Login(h.newCommonData(r), username, next, "Invalid username or password."))
		}

		user, err := h.Users.GetUserByUsername(r.Context(), username)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
				invalid()
			default:
				h.Logger.Error("db error on login", "err", err)
				h.InternalError(w, r, err)
			}
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			h.Logger.Warn("failed login", "username", username, "ip", r.RemoteAddr)
			invalid()
			return
		}

		if err := h.Sessions.Login(r.Context(), user.ID, user.Username); err != nil {
			h.InternalError(w, r, err)
			return
		}

		h.Logger.Info("user logged in", "id", user.ID, "username", user.Username)

		http.Redirect(w, r, safeRedirect(next, "/admin"), http.StatusSeeOther)
	})
}

func (h *SiteHandler) HandleLogout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// destroy session in db and clear cookie
		if err := h.Sessions.Logout(r.Context()); err != nil {
			h.InternalError(w, r, err)
			return
		}

		h.Logger.Info("user logged out")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

// safeRedirect only follows local absolute paths.
func safeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

// AdminBootstrap describes the administrator account created on start.
type AdminBootstrap struct {
	Username string
	Password string
	// Reset rewrites the password of an existing account, for lost credentials.
	Reset bool
}

// EnsureAdmin creates the bootstrap administrator unless an account with that
// name already exists. An existing account is left alone unless Reset is
// set. An empty username disables the bootstrap.
func EnsureAdmin(ctx context.Context, users UserStore, admin AdminBootstrap, logger *slog.Logger) error {
	username := strings.TrimSpace(admin.Username)
	if username == "" {
		return nil
	}

	_, err := users.GetUserByUsername(ctx, username)
	exists := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}
	if exists && !admin.Reset {
		logger.Debug("admin account present", "username", username)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if exists {
		if err := users.SetUserPassword(ctx, username, string(hash)); err != nil {
			return fmt.Errorf("reset admin password: %w", err)
		}
		logger.Warn("admin password reset from configuration", "username", username)
		return nil
	}

	user, err := users.CreateUser(ctx, username, string(hash))
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin account created", "id", user.ID, "username", user.Username)
	return nil
}
