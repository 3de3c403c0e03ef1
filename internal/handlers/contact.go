package handlers

import (
	"archsite/internal/cms"
	"archsite/internal/components"
	"archsite/internal/content"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
)

const maxContactBody = 64 << 10

var contactFields = []string{"name", "email", "phone", "message"}

func (h *SiteHandler) HandleContactPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent := r.URL.Query().Get("sent") == "1"
		h.render(w, r, http.StatusOK, components.Contact(h.newCommonData(r), nil, nil, sent))
	})
}

// HandleContact processes the HTML contact form.
func (h *SiteHandler) HandleContact() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		fields := make(content.Fields, len(contactFields))
		for _, name := range contactFields {
			fields[name] = r.PostFormValue(name)
		}

		if _, err := h.Services.Contacts.Submit(r.Context(), fields); err != nil {
			var verr *cms.ValidationError
			if errors.As(err, &verr) {
				h.render(w, r, http.StatusUnprocessableEntity, components.Contact(h.newCommonData(r), fields, verr.Fields, false))
				return
			}
			h.fail(w, r, err)
			return
		}

		http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
	})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type contactResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type apiError struct {
	Error   string              `json:"error"`
	Details content.FieldErrors `json:"details,omitempty"`
}

// HandleContactAPI is the JSON variant used by scripted forms. It answers
// 201 with the new id or 400 with one message per invalid field.
func (h *SiteHandler) HandleContactAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
			writeJSON(w, http.StatusUnsupportedMediaType, apiError{Error: "expected application/json"})
			return
		}

		var req contactRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "malformed request body"})
			return
		}

		msg, err := h.Services.Contacts.Submit(r.Context(), content.Fields{
			"name":    req.Name,
			"email":   req.Email,
			"phone":   req.Phone,
			"message": req.Message,
		})
		if err != nil {
			var verr *cms.ValidationError
			switch {
			case errors.As(err, &verr):
				writeJSON(w, http.StatusBadRequest, apiError{Error: "validation failed", Details: verr.Fields})
			case errors.Is(err, cms.ErrStoreUnavailable):
				h.Logger.Error("contact api store unavailable", "err", err)
				writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "try again later"})
			default:
				h.Logger.Error("contact api failed", "err", err)
				writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
			}
			return
		}

		writeJSON(w, http.StatusCreated, contactResponse{Message: "message received", ID: msg.ID})
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
