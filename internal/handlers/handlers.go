package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/events"
	"github.com/lojf/ministry/internal/services"
)

// Handlers serves the JSON API on top of the services.
type Handlers struct {
	Catalog  *services.Catalog
	Ledger   *services.Ledger
	Store    *services.AttendanceStore
	Gateway  *services.Gateway
	Recorder *services.Recorder

	opts Options
}

type Options struct {
	QRSize      int
	CountryCode string         // for participant phone numbers
	Location    *time.Location // for CSV exports
}

// New wires every service against db. Committed check-ins and payments are
// published on bus.
func New(db *gorm.DB, bus *events.Bus, opts Options) *Handlers {
	if opts.QRSize <= 0 {
		opts.QRSize = 256
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	ledger := services.NewLedger(db)
	store := services.NewAttendanceStore(db)
	catalog := services.NewCatalog(db)
	if opts.CountryCode != "" {
		catalog.CountryCode = opts.CountryCode
	}
	return &Handlers{
		Catalog:  catalog,
		Ledger:   ledger,
		Store:    store,
		Gateway:  services.NewGateway(db, ledger, store, bus),
		Recorder: services.NewRecorder(db, ledger, bus),
		opts:     opts,
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// decodeJSON reads the request body into v. Malformed bodies are reported
// as INVALID_ARGUMENT.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "malformed request body", err)
	}
	return nil
}
