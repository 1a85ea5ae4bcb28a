package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/db"
	"github.com/lojf/ministry/internal/events"
	"github.com/lojf/ministry/internal/models"
)

// testEnv wires every service against an isolated SQLite file.
type testEnv struct {
	db       *gorm.DB
	bus      *events.Bus
	catalog  *Catalog
	ledger   *Ledger
	store    *AttendanceStore
	gateway  *Gateway
	recorder *Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	bus := events.NewBus()
	ledger := NewLedger(gdb)
	store := NewAttendanceStore(gdb)
	return &testEnv{
		db:       gdb,
		bus:      bus,
		catalog:  NewCatalog(gdb),
		ledger:   ledger,
		store:    store,
		gateway:  NewGateway(gdb, ledger, store, bus),
		recorder: NewRecorder(gdb, ledger, bus),
	}
}

// fixture is one organization with a program, a session and an enrolled
// participant.
type fixture struct {
	org     models.Organization
	program models.Program
	session models.Session
	user    models.Participant
}

func (e *testEnv) seed(t *testing.T, np NewProgram, enroll bool) fixture {
	t.Helper()
	ctx := context.Background()

	org, err := e.catalog.CreateOrganization(ctx, "Grace Church")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	np.OrganizationID = org.ID
	if np.Name == "" {
		np.Name = "Alpha Course"
	}
	prog, err := e.catalog.CreateProgram(ctx, np)
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	sess, err := e.catalog.ScheduleSession(ctx, NewSession{
		OrganizationID: org.ID,
		ProgramID:      prog.ID,
		Title:          "Week 1",
		StartsAt:       time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("schedule session: %v", err)
	}
	user, err := e.catalog.RegisterParticipant(ctx, NewParticipant{OrganizationID: org.ID, Name: "P1"})
	if err != nil {
		t.Fatalf("register participant: %v", err)
	}
	if enroll {
		if _, err := e.catalog.Enroll(ctx, org.ID, prog.ID, user.ID); err != nil {
			t.Fatalf("enroll: %v", err)
		}
	}
	return fixture{org: org, program: prog, session: sess, user: user}
}

func (e *testEnv) countAttendance(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.Attendance{}).Count(&n).Error; err != nil {
		t.Fatalf("count attendance: %v", err)
	}
	return n
}

func wantCode(t *testing.T, err error, code apperr.Code) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("want %s error, got nil", code)
	}
	e, ok := apperr.As(err)
	if !ok || e.Code != code {
		t.Fatalf("want %s error, got %v", code, err)
	}
	return e
}
