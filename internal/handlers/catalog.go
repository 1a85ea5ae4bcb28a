package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/services"
)

type organizationRequest struct {
	Name string `json:"name"`
}

// POST /orgs
//
// Organizations are created before any tenant header exists.
func (h *Handlers) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var body organizationRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	org, err := h.Catalog.CreateOrganization(r.Context(), body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

// POST /api/programs
func (h *Handlers) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var body services.NewProgram
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	body.OrganizationID = orgID(r)
	prog, err := h.Catalog.CreateProgram(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prog)
}

// POST /api/programs/{id}/archive
func (h *Handlers) ArchiveProgram(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.ArchiveProgram(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionRequest struct {
	ProgramID string `json:"program_id"`
	Title     string `json:"title"`
	StartsAt  string `json:"starts_at"` // RFC 3339
}

// POST /api/sessions
func (h *Handlers) ScheduleSession(w http.ResponseWriter, r *http.Request) {
	var body sessionRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	var startsAt time.Time
	if s := strings.TrimSpace(body.StartsAt); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, r, apperr.WithMetadata(apperr.CodeInvalidArgument, "invalid input",
				map[string]string{"starts_at": "rfc3339"}))
			return
		}
		startsAt = t
	}
	sess, err := h.Catalog.ScheduleSession(r.Context(), services.NewSession{
		OrganizationID: orgID(r),
		ProgramID:      strings.TrimSpace(body.ProgramID),
		Title:          body.Title,
		StartsAt:       startsAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// POST /api/sessions/{id}/token
func (h *Handlers) RotateSessionToken(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Catalog.RotateSessionToken(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// POST /api/participants
func (h *Handlers) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	var body services.NewParticipant
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	body.OrganizationID = orgID(r)
	p, err := h.Catalog.RegisterParticipant(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GET /api/participants?phone=...
func (h *Handlers) FindParticipant(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		writeError(w, r, apperr.WithMetadata(apperr.CodeInvalidArgument, "invalid input",
			map[string]string{"phone": "required"}))
		return
	}
	p, err := h.Catalog.FindParticipantByPhone(r.Context(), orgID(r), phone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type enrollRequest struct {
	ProgramID string `json:"program_id"`
	UserID    string `json:"user_id"`
}

// POST /api/enrollments
func (h *Handlers) Enroll(w http.ResponseWriter, r *http.Request) {
	var body enrollRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	enr, err := h.Catalog.Enroll(r.Context(), orgID(r), strings.TrimSpace(body.ProgramID), strings.TrimSpace(body.UserID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, enr)
}
