package services

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/models"
)

// Scope names what a payment is applied against: the program-level
// enrollment, or one session of that program.
type Scope struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
	ProgramID      string `json:"program_id" validate:"required_without=SessionID,excluded_with=SessionID"`
	SessionID      string `json:"session_id" validate:"required_without=ProgramID"`
}

func ProgramScope(orgID, userID, programID string) Scope {
	return Scope{OrganizationID: orgID, UserID: userID, ProgramID: programID}
}

func SessionScope(orgID, userID, sessionID string) Scope {
	return Scope{OrganizationID: orgID, UserID: userID, SessionID: sessionID}
}

func (s Scope) IsSession() bool { return s.SessionID != "" }

// Ledger is the source of truth for whether a participant has paid for a
// program or a session.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// SessionPaymentStatus returns the session-level ledger row. A NOT_FOUND
// error means no session-level charge has ever been recorded.
func (l *Ledger) SessionPaymentStatus(ctx context.Context, sessionID, userID string) (models.SessionEnrollment, error) {
	return sessionPaymentStatusTx(l.db.WithContext(ctx), sessionID, userID)
}

func sessionPaymentStatusTx(tx *gorm.DB, sessionID, userID string) (models.SessionEnrollment, error) {
	var se models.SessionEnrollment
	err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).Take(&se).Error
	if err != nil {
		return models.SessionEnrollment{}, apperr.Read("session enrollment", err)
	}
	return se, nil
}

// Enrollment returns the enrollment for the (organization, program, user)
// triple, or NOT_ENROLLED.
func (l *Ledger) Enrollment(ctx context.Context, orgID, programID, userID string) (models.Enrollment, error) {
	return enrollmentTx(l.db.WithContext(ctx), orgID, programID, userID)
}

func enrollmentTx(tx *gorm.DB, orgID, programID, userID string) (models.Enrollment, error) {
	var e models.Enrollment
	err := tx.Where("organization_id = ? AND program_id = ? AND user_id = ?", orgID, programID, userID).
		Take(&e).Error
	if err != nil {
		err = apperr.Read("enrollment", err)
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return models.Enrollment{}, apperr.WithMetadata(apperr.CodeNotEnrolled, "participant is not enrolled in this program",
				map[string]string{"user_id": userID, "program_id": programID})
		}
		return models.Enrollment{}, err
	}
	return e, nil
}

// Payments lists the payments recorded against an enrollment, oldest first.
func (l *Ledger) Payments(ctx context.Context, orgID, enrollmentID string) ([]models.Payment, error) {
	var ps []models.Payment
	err := l.db.WithContext(ctx).
		Where("organization_id = ? AND enrollment_id = ?", orgID, enrollmentID).
		Order("created_at asc, id asc").
		Find(&ps).Error
	if err != nil {
		return nil, apperr.Read("payments", err)
	}
	return ps, nil
}

// RecordPaymentTx appends a payment and applies it to the ledger inside tx.
// Balances are bumped with an in-database increment, so concurrent payments
// against the same row never overwrite each other.
func (l *Ledger) RecordPaymentTx(tx *gorm.DB, scope Scope, amount int64, method, actorID, receipt string) (models.Payment, error) {
	if amount <= 0 {
		return models.Payment{}, apperr.New(apperr.CodeInvalidArgument, "amount must be positive")
	}

	programID := scope.ProgramID
	var sess models.Session
	if scope.IsSession() {
		err := tx.Where("id = ? AND organization_id = ?", scope.SessionID, scope.OrganizationID).Take(&sess).Error
		if err != nil {
			return models.Payment{}, apperr.Read("session", err)
		}
		programID = sess.ProgramID
	}

	enr, err := enrollmentTx(tx, scope.OrganizationID, programID, scope.UserID)
	if err != nil {
		return models.Payment{}, err
	}

	p := models.Payment{
		OrganizationID: scope.OrganizationID,
		EnrollmentID:   enr.ID,
		Amount:         amount,
		Method:         method,
		ReceiptNumber:  receipt,
		ActorID:        actorID,
	}

	if scope.IsSession() {
		se, err := applySessionPaymentTx(tx, enr, sess, amount)
		if err != nil {
			return models.Payment{}, err
		}
		p.SessionEnrollmentID = &se.ID
	} else if err := applyEnrollmentPaymentTx(tx, enr, amount); err != nil {
		return models.Payment{}, err
	}

	if err := tx.Create(&p).Error; err != nil {
		return models.Payment{}, apperr.Write("payment", err)
	}
	return p, nil
}

func applyEnrollmentPaymentTx(tx *gorm.DB, enr models.Enrollment, amount int64) error {
	err := tx.Model(&models.Enrollment{}).Where("id = ?", enr.ID).Updates(map[string]any{
		"amount_paid": gorm.Expr("amount_paid + ?", amount),
		"updated_at":  time.Now(),
	}).Error
	if err != nil {
		return apperr.Write("enrollment", err)
	}

	var fresh models.Enrollment
	if err := tx.Where("id = ?", enr.ID).Take(&fresh).Error; err != nil {
		return apperr.Read("enrollment", err)
	}
	status := models.DerivePaymentStatus(fresh.AmountDue, fresh.AmountPaid)
	if status == fresh.PaymentStatus {
		return nil
	}
	err = tx.Model(&models.Enrollment{}).Where("id = ?", enr.ID).Update("payment_status", status).Error
	return apperr.Write("enrollment", err)
}

// applySessionPaymentTx upserts the session-level row. The amount due is
// the program's session fee at the time of the first payment.
func applySessionPaymentTx(tx *gorm.DB, enr models.Enrollment, sess models.Session, amount int64) (models.SessionEnrollment, error) {
	var prog models.Program
	if err := tx.Where("id = ?", sess.ProgramID).Take(&prog).Error; err != nil {
		return models.SessionEnrollment{}, apperr.Read("program", err)
	}

	now := time.Now()
	row := models.SessionEnrollment{
		OrganizationID: enr.OrganizationID,
		EnrollmentID:   enr.ID,
		SessionID:      sess.ID,
		UserID:         enr.UserID,
		AmountDue:      prog.SessionFee,
		AmountPaid:     amount,
		PaymentStatus:  models.DerivePaymentStatus(prog.SessionFee, amount),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "session_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount_paid": gorm.Expr("session_enrollments.amount_paid + excluded.amount_paid"),
			"updated_at":  now,
		}),
	}).Create(&row).Error
	if err != nil {
		return models.SessionEnrollment{}, apperr.Write("session enrollment", err)
	}

	// The insert may have hit an existing row; read back the stored state.
	var fresh models.SessionEnrollment
	err = tx.Where("enrollment_id = ? AND session_id = ?", enr.ID, sess.ID).Take(&fresh).Error
	if err != nil {
		return models.SessionEnrollment{}, apperr.Read("session enrollment", err)
	}
	status := models.DerivePaymentStatus(fresh.AmountDue, fresh.AmountPaid)
	if status != fresh.PaymentStatus {
		err = tx.Model(&models.SessionEnrollment{}).Where("id = ?", fresh.ID).Update("payment_status", status).Error
		if err != nil {
			return models.SessionEnrollment{}, apperr.Write("session enrollment", err)
		}
		fresh.PaymentStatus = status
	}
	return fresh, nil
}

// paymentRequired builds the error the gateway returns when a fee is
// outstanding. It carries what a caller needs to offer in-line payment.
func paymentRequired(scope, userID, sessionID, programID string, due, paid int64) error {
	return apperr.WithMetadata(apperr.CodePaymentRequired, "payment required before check-in", map[string]string{
		"scope":       scope,
		"user_id":     userID,
		"session_id":  sessionID,
		"program_id":  programID,
		"amount_due":  strconv.FormatInt(due, 10),
		"amount_paid": strconv.FormatInt(paid, 10),
	})
}
