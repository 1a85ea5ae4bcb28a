package handlers

import (
	"net/http"
	"strings"

	"github.com/lojf/ministry/internal/services"
)

type checkinRequest struct {
	Token         string `json:"token"`
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Method        string `json:"method"`
}

// POST /api/checkin
//
// A scanning terminal sends a participant token with its session_id. A
// participant scanning a session code sends the session token; when
// participant_id is omitted the acting user is assumed.
func (h *Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	var body checkinRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	participant := strings.TrimSpace(body.ParticipantID)
	if participant == "" {
		participant = actorID(r)
	}

	res, err := h.Gateway.CheckIn(r.Context(), services.CheckInRequest{
		Raw:            body.Token,
		OrganizationID: orgID(r),
		SessionID:      strings.TrimSpace(body.SessionID),
		ParticipantID:  participant,
		Method:         strings.TrimSpace(body.Method),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
