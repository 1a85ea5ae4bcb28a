package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/ministry/internal/token"
)

// GET /api/sessions/{id}/qr.png
//
// The printed session code. Rotating the token invalidates printed copies.
func (h *Handlers) SessionQR(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Catalog.Session(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writePNG(w, r, token.Session, sess.Token)
}

// GET /api/participants/{id}/qr.png
func (h *Handlers) ParticipantQR(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Participant(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writePNG(w, r, token.Participant, p.ID)
}

func (h *Handlers) writePNG(w http.ResponseWriter, r *http.Request, kind token.Kind, id string) {
	payload, err := token.Encode(kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := token.PNG(payload, h.opts.QRSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
