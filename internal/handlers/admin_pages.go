package handlers

import (
	"archsite/internal/cms"
	"archsite/internal/components"
	"archsite/internal/content"
	"archsite/internal/storage"
	"errors"
	"net/http"
)

func (h *SiteHandler) HandleAdminPages() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages, err := h.Services.Pages.List(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.AdminPages(h.newCommonData(r), pages))
	})
}

func (h *SiteHandler) HandleEditPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := content.ParsePageKey(r.PathValue("key"))
		if err != nil {
			h.NotFound(w, r)
			return
		}

		page, err := h.Services.Pages.Get(r.Context(), key)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.AdminPageForm(h.newCommonData(r), page, nil))
	})
}

func (h *SiteHandler) HandleUpdatePage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// unknown keys never reach the store
		key, err := content.ParsePageKey(r.PathValue("key"))
		if err != nil {
			h.NotFound(w, r)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body := r.PostFormValue("content")

		if _, err := h.Services.Pages.Update(r.Context(), key, body); err != nil {
			var verr *cms.ValidationError
			if errors.As(err, &verr) {
				page := &storage.PageContent{Key: key, Content: body}
				h.render(w, r, http.StatusUnprocessableEntity, components.AdminPageForm(h.newCommonData(r), page, verr.Fields))
				return
			}
			h.fail(w, r, err)
			return
		}

		h.Logger.Info("admin updated page", "key", key, "user", h.currentUser(r))
		http.Redirect(w, r, "/admin/pages", http.StatusSeeOther)
	})
}

func (h *SiteHandler) HandleAdminContacts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		msgs, err := h.Services.Contacts.List(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.AdminContacts(h.newCommonData(r), msgs))
	})
}

func (h *SiteHandler) HandleDeleteContact() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := h.Services.Contacts.Delete(r.Context(), id); err != nil {
			h.fail(w, r, err)
			return
		}

		h.Logger.Info("admin deleted contact message", "id", id, "user", h.currentUser(r))
		http.Redirect(w, r, "/admin/contacts", http.StatusSeeOther)
	})
}
