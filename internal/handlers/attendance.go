package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/ministry/internal/models"
)

// GET /api/sessions/{id}/attendance
func (h *Handlers) Roster(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Catalog.Session(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.Store.Roster(r.Context(), orgID(r), sess.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "attendance": rows})
}

type statusRequest struct {
	Status string `json:"status"`
}

// PUT /api/sessions/{id}/attendance/{userID}
func (h *Handlers) SetAttendanceStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	status := models.AttendanceStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	rec, err := h.Store.SetStatus(r.Context(), orgID(r), chi.URLParam(r, "id"), chi.URLParam(r, "userID"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
