package main

import (
	"log"
	"net/http"

	"github.com/lojf/ministry/internal/config"
	"github.com/lojf/ministry/internal/db"
	"github.com/lojf/ministry/internal/events"
	"github.com/lojf/ministry/internal/handlers"
	"github.com/lojf/ministry/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := db.Init(cfg.DSN, cfg.GormLogLevel()); err != nil {
		log.Fatalf("db init: %v", err)
	}

	bus := events.NewBus()
	bus.OnAttendance(func(ev events.Attendance) {
		log.Printf("attendance %s: org=%s session=%s user=%s status=%s",
			ev.Action, ev.Record.OrganizationID, ev.Record.SessionID, ev.Record.UserID, ev.Record.Status)
	})

	r := web.Router(handlers.New(db.Conn(), bus, handlers.Options{
		QRSize:      cfg.QRSize,
		CountryCode: cfg.CountryCode,
		Location:    handlers.LoadLocation(cfg.Timezone),
	}))

	log.Printf("ministry check-in (%s) listening on %s", cfg.Env, cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
