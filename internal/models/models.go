package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the primary key and timestamps shared by every table.
// IDs are generated on create when empty.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type Organization struct {
	Base
	Name string `gorm:"not null" json:"name"`
}

type Program struct {
	Base
	OrganizationID string `gorm:"index;not null" json:"organization_id"`
	Name           string `gorm:"not null" json:"name"`

	EnrollmentFee    int64        `json:"enrollment_fee"` // minor units
	SessionFee       int64        `json:"session_fee"`    // minor units
	Capabilities     Capabilities `gorm:"not null;default:0" json:"capabilities"`
	LateAfterMinutes int          `json:"late_after_minutes"` // 0 disables "late"

	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// LateAfter is the grace period after the session start before a check-in
// counts as late. Zero means never late.
func (p Program) LateAfter() time.Duration {
	return time.Duration(p.LateAfterMinutes) * time.Minute
}

type Session struct {
	Base
	OrganizationID string    `gorm:"index;not null" json:"organization_id"`
	ProgramID      string    `gorm:"index;not null" json:"program_id"`
	Title          string    `json:"title"`
	StartsAt       time.Time `json:"starts_at"`
	Token          string    `gorm:"uniqueIndex;not null" json:"token"`
}

type Participant struct {
	Base
	OrganizationID string `gorm:"index;not null" json:"organization_id"`
	Name           string `gorm:"not null" json:"name"`
	Phone          string `json:"phone"`
}

// PaymentStatus: pending | partial | paid
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// DerivePaymentStatus is the only way a payment status is computed.
func DerivePaymentStatus(due, paid int64) PaymentStatus {
	switch {
	case paid >= due:
		return PaymentPaid
	case paid > 0:
		return PaymentPartial
	default:
		return PaymentPending
	}
}

type Enrollment struct {
	Base
	OrganizationID string        `gorm:"uniqueIndex:idx_enrollment_triple;not null" json:"organization_id"`
	ProgramID      string        `gorm:"uniqueIndex:idx_enrollment_triple;not null" json:"program_id"`
	UserID         string        `gorm:"uniqueIndex:idx_enrollment_triple;not null" json:"user_id"`
	AmountDue      int64         `gorm:"not null;default:0" json:"amount_due"`
	AmountPaid     int64         `gorm:"not null;default:0" json:"amount_paid"`
	PaymentStatus  PaymentStatus `gorm:"size:16;not null;default:pending" json:"payment_status"`
}

type SessionEnrollment struct {
	Base
	OrganizationID string        `gorm:"index;not null" json:"organization_id"`
	EnrollmentID   string        `gorm:"uniqueIndex:idx_session_enrollment;not null" json:"enrollment_id"`
	SessionID      string        `gorm:"uniqueIndex:idx_session_enrollment;index;not null" json:"session_id"`
	UserID         string        `gorm:"index;not null" json:"user_id"`
	AmountDue      int64         `gorm:"not null;default:0" json:"amount_due"`
	AmountPaid     int64         `gorm:"not null;default:0" json:"amount_paid"`
	PaymentStatus  PaymentStatus `gorm:"size:16;not null;default:pending" json:"payment_status"`
}

// AttendanceStatus: present | absent | late | excused
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

type Attendance struct {
	Base
	OrganizationID string `gorm:"index;not null" json:"organization_id"`
	SessionID      string `gorm:"uniqueIndex:idx_attendance_pair;not null" json:"session_id"`
	UserID         string `gorm:"uniqueIndex:idx_attendance_pair;not null" json:"user_id"`

	CheckedIn     bool       `gorm:"not null;default:false" json:"checked_in"`
	CheckinTime   *time.Time `json:"checkin_time,omitempty"`
	CheckinMethod string     `json:"checkin_method,omitempty"`

	CheckedOut     bool       `gorm:"not null;default:false" json:"checked_out"`
	CheckoutTime   *time.Time `json:"checkout_time,omitempty"`
	CheckoutMethod string     `json:"checkout_method,omitempty"`

	Status AttendanceStatus `gorm:"size:16;not null;default:absent" json:"status"`
}

// ErrImmutable is returned by hooks guarding append-only tables.
var ErrImmutable = errors.New("payments are append-only")

type Payment struct {
	ID                  string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt           time.Time `gorm:"index" json:"created_at"`
	OrganizationID      string    `gorm:"index;not null" json:"organization_id"`
	EnrollmentID        string    `gorm:"index;not null" json:"enrollment_id"`
	SessionEnrollmentID *string   `gorm:"index" json:"session_enrollment_id,omitempty"`
	Amount              int64     `gorm:"not null" json:"amount"`
	Method              string    `gorm:"size:32;not null" json:"method"`
	ReceiptNumber       string    `gorm:"uniqueIndex;not null" json:"receipt_number"`
	ActorID             string    `json:"actor_id,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Payment) BeforeUpdate(tx *gorm.DB) error { return ErrImmutable }
func (p *Payment) BeforeDelete(tx *gorm.DB) error { return ErrImmutable }

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Organization{},
		&Program{},
		&Session{},
		&Participant{},
		&Enrollment{},
		&SessionEnrollment{},
		&Attendance{},
		&Payment{},
	}
}
