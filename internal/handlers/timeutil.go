package handlers

import (
	"log"
	"time"
)

// LoadLocation resolves name for display formatting, falling back to UTC
// when the tzdata is missing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("timezone %q unavailable, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// e.g. "2006-01-02 15:04"
func fmtDateTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// ISO date string, e.g. "2006-01-02"
func fmtISODate(d time.Time, loc *time.Location) string {
	return d.In(loc).Format("2006-01-02")
}
