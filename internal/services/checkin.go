package services

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/events"
	"github.com/lojf/ministry/internal/models"
	"github.com/lojf/ministry/internal/token"
)

// Default check-in methods, by token kind.
const (
	MethodSessionScan     = "qr_session"
	MethodParticipantScan = "qr_participant"
)

// CheckInRequest is one scan event.
//
// For a session token, ParticipantID is the authenticated participant doing
// a self-scan. For a participant token, SessionID is the session the
// scanning terminal is bound to.
type CheckInRequest struct {
	Raw            string
	OrganizationID string
	SessionID      string
	ParticipantID  string
	Method         string
}

type CheckInResult struct {
	Attendance  models.Attendance  `json:"attendance"`
	Action      Action             `json:"action"`
	Session     models.Session     `json:"session"`
	Participant models.Participant `json:"participant"`
}

// Gateway turns scans into attendance transitions, subject to the program's
// payment gate. It never records payments.
type Gateway struct {
	db     *gorm.DB
	ledger *Ledger
	store  *AttendanceStore
	bus    *events.Bus
	now    func() time.Time
}

func NewGateway(db *gorm.DB, ledger *Ledger, store *AttendanceStore, bus *events.Bus) *Gateway {
	return &Gateway{db: db, ledger: ledger, store: store, bus: bus, now: time.Now}
}

func (g *Gateway) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResult, error) {
	if req.OrganizationID == "" {
		return CheckInResult{}, apperr.New(apperr.CodeInvalidArgument, "organization is required")
	}
	ref, err := token.Decode(req.Raw)
	if err != nil {
		return CheckInResult{}, apperr.Wrap(apperr.CodeInvalidToken, "unrecognized code", err)
	}

	var res CheckInResult
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, part, err := g.resolveTx(tx, ref, req)
		if err != nil {
			return err
		}
		res.Session, res.Participant = sess, part

		var prog models.Program
		if err := tx.Where("id = ?", sess.ProgramID).Take(&prog).Error; err != nil {
			return apperr.Read("program", err)
		}
		if err := g.admitTx(tx, ref.Kind, prog, sess, part.ID); err != nil {
			return err
		}

		method := req.Method
		if method == "" {
			method = defaultMethod(ref.Kind)
		}
		res.Attendance, res.Action, err = g.store.ApplyScanTx(tx, ScanInput{
			OrganizationID: req.OrganizationID,
			SessionID:      sess.ID,
			UserID:         part.ID,
			Method:         method,
			At:             g.now(),
			StartsAt:       sess.StartsAt,
			LateAfter:      prog.LateAfter(),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrTenantMismatch) {
			log.Printf("checkin: tenant mismatch org=%s kind=%s id=%s session=%s participant=%s",
				req.OrganizationID, ref.Kind, ref.ID, req.SessionID, req.ParticipantID)
		}
		return CheckInResult{}, err
	}

	if res.Action != ActionNone {
		g.bus.PublishAttendance(events.Attendance{Record: res.Attendance, Action: string(res.Action)})
	}
	return res, nil
}

// resolveTx finds the session and participant a scan refers to and checks
// both belong to the acting organization.
func (g *Gateway) resolveTx(tx *gorm.DB, ref token.Ref, req CheckInRequest) (models.Session, models.Participant, error) {
	var sess models.Session
	var participantID string

	switch ref.Kind {
	case token.Session:
		if err := tx.Where("token = ?", ref.ID).Take(&sess).Error; err != nil {
			err = apperr.Read("session", err)
			if apperr.CodeOf(err) == apperr.CodeNotFound {
				return sess, models.Participant{}, apperr.Wrap(apperr.CodeInvalidToken, "session code not recognized", err)
			}
			return sess, models.Participant{}, err
		}
		if req.ParticipantID == "" {
			return sess, models.Participant{}, apperr.New(apperr.CodeInvalidArgument, "participant is required for a session code")
		}
		participantID = req.ParticipantID

	case token.Participant:
		if req.SessionID == "" {
			return sess, models.Participant{}, apperr.New(apperr.CodeInvalidArgument, "session is required for a participant code")
		}
		if err := tx.Where("id = ?", req.SessionID).Take(&sess).Error; err != nil {
			return sess, models.Participant{}, apperr.Read("session", err)
		}
		participantID = ref.ID
	}

	if sess.OrganizationID != req.OrganizationID {
		return sess, models.Participant{}, apperr.ErrTenantMismatch
	}

	var part models.Participant
	if err := tx.Where("id = ?", participantID).Take(&part).Error; err != nil {
		err = apperr.Read("participant", err)
		if ref.Kind == token.Participant && apperr.CodeOf(err) == apperr.CodeNotFound {
			return sess, part, apperr.Wrap(apperr.CodeInvalidToken, "participant code not recognized", err)
		}
		return sess, part, err
	}
	if part.OrganizationID != req.OrganizationID {
		return sess, part, apperr.ErrTenantMismatch
	}
	return sess, part, nil
}

// admitTx evaluates the program's capability set once: self-scan
// permission, enrollment and the payment gate.
func (g *Gateway) admitTx(tx *gorm.DB, kind token.Kind, prog models.Program, sess models.Session, userID string) error {
	caps := prog.Capabilities

	if prog.ArchivedAt != nil {
		return apperr.New(apperr.CodeCheckInDenied, "program is archived")
	}
	if kind == token.Session && !caps.Has(models.CapSelfCheckIn) {
		return apperr.New(apperr.CodeCheckInDenied, "self check-in is disabled for this program")
	}

	enr, err := enrollmentTx(tx, sess.OrganizationID, prog.ID, userID)
	if apperr.CodeOf(err) == apperr.CodeNotEnrolled && caps.Has(models.CapWalkIn) && !caps.RequiresPayment() {
		return nil
	}
	if err != nil {
		return err
	}

	if caps.Has(models.CapEnrollmentFee) && enr.PaymentStatus != models.PaymentPaid {
		return paymentRequired("program", userID, sess.ID, prog.ID, enr.AmountDue, enr.AmountPaid)
	}
	if caps.Has(models.CapSessionFee) {
		se, err := sessionPaymentStatusTx(tx, sess.ID, userID)
		switch {
		case apperr.CodeOf(err) == apperr.CodeNotFound:
			return paymentRequired("session", userID, sess.ID, prog.ID, prog.SessionFee, 0)
		case err != nil:
			return err
		case se.PaymentStatus != models.PaymentPaid:
			return paymentRequired("session", userID, sess.ID, prog.ID, se.AmountDue, se.AmountPaid)
		}
	}
	return nil
}

func defaultMethod(kind token.Kind) string {
	if kind == token.Session {
		return MethodSessionScan
	}
	return MethodParticipantScan
}
