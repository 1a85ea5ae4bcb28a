package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lojf/ministry/internal/models"
)

// GET /api/sessions/{id}/attendance.csv
func (h *Handlers) RosterCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.Catalog.Session(ctx, orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.Store.Roster(ctx, orgID(r), sess.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	people, err := h.Catalog.Participants(ctx, orgID(r), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}

	loc := h.opts.Location
	filename := fmt.Sprintf("attendance-%s.csv", fmtISODate(sess.StartsAt, loc))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := writeRosterCSV(w, rows, people, loc); err != nil {
		log.Printf("[%s] roster csv for session %s: %v", middleware.GetReqID(ctx), sess.ID, err)
	}
}

// writeRosterCSV emits one row per attendance record. Headers may already
// be sent, so the caller can only log the returned error.
func writeRosterCSV(w io.Writer, rows []models.Attendance, people map[string]models.Participant, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"Participant", "Phone", "Status", "CheckedInAt", "CheckinMethod", "CheckedOutAt", "CheckoutMethod",
	}); err != nil {
		return err
	}
	for _, row := range rows {
		p := people[row.UserID]
		if err := cw.Write([]string{
			p.Name,
			p.Phone,
			string(row.Status),
			fmtDateTime(row.CheckinTime, loc),
			row.CheckinMethod,
			fmtDateTime(row.CheckoutTime, loc),
			row.CheckoutMethod,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
