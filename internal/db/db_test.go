package db_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"gorm.io/gorm/logger"

	"github.com/lojf/ministry/internal/db"
)

func openTemp(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db") + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// TestWALMode verifies that the DSN parameters enable WAL journal mode.
func TestWALMode(t *testing.T) {
	gdb, err := db.Open(openTemp(t), logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	var mode string
	gdb.Raw("PRAGMA journal_mode").Scan(&mode)
	if mode != "wal" {
		t.Errorf("expected journal_mode=wal, got %q", mode)
	}
}

// TestOpen_CreatesUniqueIndexes verifies the unique constraints the
// check-in and ledger logic rely on.
func TestOpen_CreatesUniqueIndexes(t *testing.T) {
	gdb, err := db.Open(openTemp(t), logger.Silent)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}

	cases := map[string]string{
		"attendances":         "idx_attendance_pair",
		"session_enrollments": "idx_session_enrollment",
		"enrollments":         "idx_enrollment_triple",
		"sessions":            "idx_sessions_token",
		"payments":            "idx_payments_receipt_number",
	}
	for table, want := range cases {
		found := indexes(t, sqlDB, table)
		unique, ok := found[want]
		if !ok {
			t.Errorf("index %q missing from %s; found: %v", want, table, found)
			continue
		}
		if !unique {
			t.Errorf("index %q on %s is not unique", want, table)
		}
	}

	if _, ok := indexes(t, sqlDB, "attendances")["idx_attendance_org_session"]; !ok {
		t.Error("composite index idx_attendance_org_session missing")
	}
}

func TestInit(t *testing.T) {
	if err := db.Init(openTemp(t), logger.Silent); err != nil {
		t.Fatalf("init: %v", err)
	}
	if db.Conn() == nil {
		t.Fatal("Conn() returned nil after Init")
	}
}

func indexes(t *testing.T, sqlDB *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := sqlDB.Query("PRAGMA index_list(" + table + ")")
	if err != nil {
		t.Fatalf("PRAGMA index_list: %v", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var seq int
		var name string
		var unique bool
		var origin, partial string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out[name] = unique
	}
	return out
}
