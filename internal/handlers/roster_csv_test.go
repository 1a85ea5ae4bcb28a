package handlers

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lojf/ministry/internal/models"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func rosterFixture() ([]models.Attendance, map[string]models.Participant) {
	in := time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC)
	rows := []models.Attendance{
		{UserID: "u1", CheckedIn: true, CheckinTime: &in, CheckinMethod: "manual", Status: models.StatusPresent},
		{UserID: "u2", Status: models.StatusExcused},
	}
	people := map[string]models.Participant{
		"u1": {Name: "Budi", Phone: "+628112345678"},
		"u2": {Name: "Sari"},
	}
	return rows, people
}

func TestWriteRosterCSV(t *testing.T) {
	rows, people := rosterFixture()
	var buf bytes.Buffer
	if err := writeRosterCSV(&buf, rows, people, time.UTC); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %q", buf.String())
	}
	if want := "Budi,+628112345678,present,2026-03-01 02:30,manual,,"; lines[1] != want {
		t.Errorf("row 1: want %q, got %q", want, lines[1])
	}
	if want := "Sari,,excused,,,,"; lines[2] != want {
		t.Errorf("row 2: want %q, got %q", want, lines[2])
	}
}

func TestWriteRosterCSV_ReportsWriteFailure(t *testing.T) {
	rows, people := rosterFixture()
	if err := writeRosterCSV(brokenWriter{}, rows, people, time.UTC); err == nil {
		t.Fatal("want error from failing writer")
	}
}
