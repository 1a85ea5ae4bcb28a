package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/ministry/internal/services"
)

type paymentRequest struct {
	UserID    string `json:"user_id"`
	ProgramID string `json:"program_id"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
}

// POST /api/payments
//
// Exactly one of program_id and session_id names what is being paid for.
func (h *Handlers) CollectPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Recorder.Collect(r.Context(), services.CollectInput{
		Scope: services.Scope{
			OrganizationID: orgID(r),
			UserID:         strings.TrimSpace(body.UserID),
			ProgramID:      strings.TrimSpace(body.ProgramID),
			SessionID:      strings.TrimSpace(body.SessionID),
		},
		Amount:  body.Amount,
		Method:  body.Method,
		ActorID: actorID(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GET /api/enrollments/{id}/payments
func (h *Handlers) EnrollmentPayments(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Ledger.Payments(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": ps})
}
