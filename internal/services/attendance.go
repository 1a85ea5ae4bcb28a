package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/models"
)

// Action is what a scan did to an attendance row.
type Action string

const (
	ActionClockIn  Action = "clock_in"
	ActionClockOut Action = "clock_out"
	ActionNone     Action = "none"
)

// ScanInput describes one scan for a (session, participant) pair.
type ScanInput struct {
	OrganizationID string
	SessionID      string
	UserID         string
	Method         string
	At             time.Time

	// StartsAt and LateAfter decide between "present" and "late".
	StartsAt  time.Time
	LateAfter time.Duration
}

func (in ScanInput) checkinStatus() models.AttendanceStatus {
	if in.LateAfter > 0 && !in.StartsAt.IsZero() && in.At.After(in.StartsAt.Add(in.LateAfter)) {
		return models.StatusLate
	}
	return models.StatusPresent
}

// AttendanceStore owns the attendance table. ApplyScanTx is the only code
// that writes checked_in and checked_out.
type AttendanceStore struct {
	db *gorm.DB
}

func NewAttendanceStore(db *gorm.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// ApplyScan runs ApplyScanTx in its own transaction.
func (s *AttendanceStore) ApplyScan(ctx context.Context, in ScanInput) (rec models.Attendance, act Action, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, act, err = s.ApplyScanTx(tx, in)
		return err
	})
	return rec, act, err
}

// ApplyScanTx moves the pair one step along Absent -> CheckedIn -> CheckedOut.
// A scan on a checked-out pair changes nothing and reports ActionNone.
func (s *AttendanceStore) ApplyScanTx(tx *gorm.DB, in ScanInput) (models.Attendance, Action, error) {
	if in.At.IsZero() {
		in.At = time.Now()
	}

	rec, err := lockAttendanceTx(tx, in.SessionID, in.UserID)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		at := in.At
		rec = models.Attendance{
			OrganizationID: in.OrganizationID,
			SessionID:      in.SessionID,
			UserID:         in.UserID,
			CheckedIn:      true,
			CheckinTime:    &at,
			CheckinMethod:  in.Method,
			Status:         in.checkinStatus(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if res.Error != nil {
			return models.Attendance{}, ActionNone, apperr.Write("attendance", res.Error)
		}
		if res.RowsAffected == 1 {
			return rec, ActionClockIn, nil
		}
		// A concurrent scan inserted the row first; continue from its state.
		rec, err = lockAttendanceTx(tx, in.SessionID, in.UserID)
	}
	if err != nil {
		return models.Attendance{}, ActionNone, err
	}
	if rec.OrganizationID != in.OrganizationID {
		return models.Attendance{}, ActionNone, apperr.ErrTenantMismatch
	}

	switch {
	case !rec.CheckedIn:
		// Placeholder row written by SetStatusTx (absent/excused).
		at := in.At
		rec.CheckedIn = true
		rec.CheckinTime = &at
		rec.CheckinMethod = in.Method
		rec.Status = in.checkinStatus()
		err = tx.Model(&rec).Select("checked_in", "checkin_time", "checkin_method", "status", "updated_at").Updates(&rec).Error
		if err != nil {
			return models.Attendance{}, ActionNone, apperr.Write("attendance", err)
		}
		return rec, ActionClockIn, nil

	case !rec.CheckedOut:
		at := in.At
		rec.CheckedOut = true
		rec.CheckoutTime = &at
		rec.CheckoutMethod = in.Method
		err = tx.Model(&rec).Select("checked_out", "checkout_time", "checkout_method", "updated_at").Updates(&rec).Error
		if err != nil {
			return models.Attendance{}, ActionNone, apperr.Write("attendance", err)
		}
		return rec, ActionClockOut, nil
	}

	// TODO: decide whether a scan after check-out re-opens attendance for
	// programs that run several sessions a day.
	return rec, ActionNone, nil
}

func lockAttendanceTx(tx *gorm.DB, sessionID, userID string) (models.Attendance, error) {
	var rec models.Attendance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Take(&rec).Error
	if err != nil {
		return models.Attendance{}, apperr.Read("attendance", err)
	}
	return rec, nil
}

// SetStatusTx records an administrative status (absent, excused, late,
// present) without touching the check-in/out flags. Present and late need
// an existing check-in; absent and excused are refused once one exists.
func (s *AttendanceStore) SetStatusTx(tx *gorm.DB, orgID, sessionID, userID string, status models.AttendanceStatus) (models.Attendance, error) {
	if !status.Valid() {
		return models.Attendance{}, apperr.New(apperr.CodeInvalidArgument, "unknown attendance status "+string(status))
	}

	rec, err := lockAttendanceTx(tx, sessionID, userID)
	switch {
	case apperr.CodeOf(err) == apperr.CodeNotFound:
		if status == models.StatusPresent || status == models.StatusLate {
			return models.Attendance{}, apperr.New(apperr.CodeInvalidArgument, "participant has not checked in")
		}
		rec = models.Attendance{OrganizationID: orgID, SessionID: sessionID, UserID: userID, Status: status}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if res.Error != nil {
			return models.Attendance{}, apperr.Write("attendance", res.Error)
		}
		if res.RowsAffected == 1 {
			return rec, nil
		}
		if rec, err = lockAttendanceTx(tx, sessionID, userID); err != nil {
			return models.Attendance{}, err
		}
	case err != nil:
		return models.Attendance{}, err
	}

	if rec.OrganizationID != orgID {
		return models.Attendance{}, apperr.ErrTenantMismatch
	}
	if !rec.CheckedIn && (status == models.StatusPresent || status == models.StatusLate) {
		return models.Attendance{}, apperr.New(apperr.CodeInvalidArgument, "participant has not checked in")
	}
	if (rec.CheckedIn || rec.CheckedOut) && (status == models.StatusAbsent || status == models.StatusExcused) {
		return models.Attendance{}, apperr.New(apperr.CodeInvalidArgument, "participant has already checked in")
	}
	rec.Status = status
	if err := tx.Model(&rec).Select("status", "updated_at").Updates(&rec).Error; err != nil {
		return models.Attendance{}, apperr.Write("attendance", err)
	}
	return rec, nil
}

// SetStatus runs SetStatusTx after checking the session belongs to orgID.
func (s *AttendanceStore) SetStatus(ctx context.Context, orgID, sessionID, userID string, status models.AttendanceStatus) (rec models.Attendance, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := sessionInOrgTx(tx, orgID, sessionID); err != nil {
			return err
		}
		var part models.Participant
		if err := tx.Where("id = ? AND organization_id = ?", userID, orgID).Take(&part).Error; err != nil {
			return apperr.Read("participant", err)
		}
		rec, err = s.SetStatusTx(tx, orgID, sessionID, userID, status)
		return err
	})
	return rec, err
}

// Roster lists a session's attendance rows in check-in order; rows without
// a check-in come last.
func (s *AttendanceStore) Roster(ctx context.Context, orgID, sessionID string) ([]models.Attendance, error) {
	var rows []models.Attendance
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND session_id = ?", orgID, sessionID).
		Order("checkin_time IS NULL, checkin_time asc, user_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Read("attendance", err)
	}
	return rows, nil
}

func sessionInOrgTx(tx *gorm.DB, orgID, sessionID string) (models.Session, error) {
	var sess models.Session
	err := tx.Where("id = ?", sessionID).Take(&sess).Error
	if err != nil {
		return models.Session{}, apperr.Read("session", err)
	}
	if sess.OrganizationID != orgID {
		return models.Session{}, errors.WithStack(apperr.ErrTenantMismatch)
	}
	return sess, nil
}
