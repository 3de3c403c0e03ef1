package handlers

import (
	"archsite/internal/cms"
	"archsite/internal/components"
	"archsite/internal/content"
	"archsite/internal/media"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// parts of a multipart form kept in memory, the rest spills to temp files
const multipartMemory = 8 << 20

// scalar form fields of every content kind
var entityFields = []string{
	"title", "slug", "description", "content",
	"category", "location", "completionDate", "isFeatured",
	"date", "isPublished",
}

var errUploadTooLarge = errors.New("upload too large")

func (h *SiteHandler) HandleDashboard() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counts, err := h.Services.Query.Counts(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.AdminDashboard(h.newCommonData(r), counts.Entities, counts.Contacts))
	})
}

func (h *SiteHandler) HandleAdminList(kind content.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entities, err := h.Services.Query.ListAll(r.Context(), kind)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.AdminList(h.newCommonData(r), kind, entities))
	})
}

func (h *SiteHandler) HandleNewEntity(kind content.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := components.EntityForm{Kind: kind, Values: content.Fields{}}
		if kind == content.KindNews {
			form.Values["date"] = time.Now().Format(content.DateLayout)
		}
		h.render(w, r, http.StatusOK, components.AdminEntityForm(h.newCommonData(r), form))
	})
}

func (h *SiteHandler) HandleCreateEntity(kind content.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := components.EntityForm{Kind: kind}
		sub, err := h.parseSubmission(r)
		form.Values = sub.Fields
		if err != nil {
			h.formFailure(w, r, form, err)
			return
		}

		created, err := h.Services.Manager.Create(r.Context(), kind, sub)
		if err != nil {
			h.formFailure(w, r, form, err)
			return
		}

		h.Logger.Info("admin created entity", "kind", kind, "id", created.ID, "user", h.currentUser(r))
		http.Redirect(w, r, "/admin/"+kind.Plural(), http.StatusSeeOther)
	})
}

func (h *SiteHandler) HandleEditEntity(kind content.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e, err := h.Services.Query.GetByID(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			h.fail(w, r, err)
			return
		}

		form := components.EntityForm{
			Kind:   kind,
			ID:     e.ID,
			Values: components.EntityFormValues(e),
			Cover:  e.Cover(),
			Images: e.ContentImages,
		}
		h.render(w, r, http.StatusOK, components.AdminEntityForm(h.newCommonData(r), form))
	})
}

func (h *SiteHandler) HandleUpdateEntity(kind content.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		form := components.EntityForm{Kind: kind, ID: id}
		// the form shows the media as stored, whatever the outcome
		if e, err := h.Services.Query.GetByID(r.Context(), kind, id); err == nil {
			form.Cover = e.Cover()
			form.Images = e.ContentImages
		}

		sub, err := h.parseSubmission(r)
		form.Values = sub.Fields
		if err != nil {
			h.formFailure(w, r, form, err)
			return
		}

		updated, err := h.Services.Manager.Update(r.Context(), kind, id, sub)
		if err != nil {
			h.formFailure(w, r, form, err)
			return
		}

		h.Logger.Info("admin updated entity", "kind", kind, "id", updated.ID, "user", h.currentUser(r))
		http.Redirect(w, r, "/admin/"+kind.Plural(), http.StatusSeeOther)
	})
}

func (h *SiteHandler) HandleDeleteEntity(kind content.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if err := h.Services.Manager.Delete(r.Context(), kind, id); err != nil {
			h.fail(w, r, err)
			return
		}

		h.Logger.Info("admin deleted entity", "kind", kind, "id", id, "user", h.currentUser(r))
		http.Redirect(w, r, "/admin/"+kind.Plural(), http.StatusSeeOther)
	})
}

// parseSubmission reads an admin entity form. Fields are returned even when
// reading the files fails so the form can be shown again.
func (h *SiteHandler) parseSubmission(r *http.Request) (cms.Submission, error) {
	var sub cms.Submission

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return sub, errUploadTooLarge
		}
		return sub, fmt.Errorf("parse form: %w", err)
	}

	sub.Fields = make(content.Fields, len(entityFields))
	for _, name := range entityFields {
		if v := r.PostFormValue(name); v != "" {
			sub.Fields[name] = v
		}
	}
	sub.RemoveCover = content.Checked(r.PostFormValue("deleteCoverImage"))
	sub.DeleteImages = r.PostForm["deleteImages"]

	if r.MultipartForm == nil {
		return sub, nil
	}

	covers, err := media.ReadUploads(r.MultipartForm.File["coverImageFile"], h.MaxUploadBytes)
	if err != nil {
		return sub, uploadFailure(err)
	}
	if len(covers) > 0 {
		sub.Cover = covers[0]
	}

	sub.ContentImages, err = media.ReadUploads(r.MultipartForm.File["contentImagesFiles"], h.MaxUploadBytes)
	if err != nil {
		return sub, uploadFailure(err)
	}
	return sub, nil
}

func uploadFailure(err error) error {
	if errors.Is(err, media.ErrFileTooLarge) {
		return fmt.Errorf("%w: %w", errUploadTooLarge, err)
	}
	return &cms.UploadError{Err: err}
}

// formFailure shows the entity form again with the reason the save failed.
func (h *SiteHandler) formFailure(w http.ResponseWriter, r *http.Request, form components.EntityForm, err error) {
	var (
		verr *cms.ValidationError
		cerr *cms.ConflictError
		uerr *cms.UploadError
		code int
	)

	switch {
	case errors.As(err, &verr):
		form.Errors = verr.Fields
		code = http.StatusUnprocessableEntity
	case errors.As(err, &cerr):
		form.Errors = cerr.FieldErrors()
		code = http.StatusConflict
	case errors.Is(err, errUploadTooLarge):
		form.Message = fmt.Sprintf("Each file must be smaller than %d MB.", h.MaxUploadBytes>>20)
		code = http.StatusRequestEntityTooLarge
	case errors.As(err, &uerr):
		h.Logger.Error("admin upload failed", "kind", form.Kind, "id", form.ID, "err", err)
		form.Message = "The uploaded files could not be stored. Nothing was saved."
		code = http.StatusInternalServerError
	case errors.Is(err, cms.ErrStoreUnavailable):
		h.Logger.Error("admin save failed", "kind", form.Kind, "id", form.ID, "err", err)
		form.Message = "The database is unavailable right now. Nothing was saved, please try again."
		code = http.StatusServiceUnavailable
	default:
		h.fail(w, r, err)
		return
	}

	if form.Values == nil {
		form.Values = content.Fields{}
	}
	h.render(w, r, code, components.AdminEntityForm(h.newCommonData(r), form))
}

func (h *SiteHandler) currentUser(r *http.Request) string {
	return h.Sessions.Username(r.Context())
}
