package services

import (
	"context"
	"encoding/hex"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/events"
	"github.com/lojf/ministry/internal/models"
)

// CollectInput is a payment to apply against a scope.
type CollectInput struct {
	Scope   Scope  `json:"scope"`
	Amount  int64  `json:"amount" validate:"gt=0"`
	Method  string `json:"method" validate:"required,oneof=cash mobile_money card bank_transfer other"`
	ActorID string `json:"actor_id"`
}

// Recorder collects payments. The Payment row and the ledger update are
// written in one transaction.
type Recorder struct {
	db     *gorm.DB
	ledger *Ledger
	bus    *events.Bus
}

func NewRecorder(db *gorm.DB, ledger *Ledger, bus *events.Bus) *Recorder {
	return &Recorder{db: db, ledger: ledger, bus: bus}
}

func (r *Recorder) Collect(ctx context.Context, in CollectInput) (models.Payment, error) {
	in.Method = strings.ToLower(strings.TrimSpace(in.Method))
	if err := validateStruct(in); err != nil {
		return models.Payment{}, err
	}

	var p models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt, err := newReceiptNumber(tx)
		if err != nil {
			return err
		}
		p, err = r.ledger.RecordPaymentTx(tx, in.Scope, in.Amount, in.Method, in.ActorID, receipt)
		return err
	})
	if err != nil {
		return models.Payment{}, err
	}

	log.Printf("payment %s recorded: org=%s enrollment=%s amount=%d method=%s actor=%s",
		p.ReceiptNumber, p.OrganizationID, p.EnrollmentID, p.Amount, p.Method, p.ActorID)
	r.bus.PublishPayment(events.Payment{Payment: p})
	return p, nil
}

// newReceiptNumber returns an unused RCT-XXXXXXXX code (uppercase hex).
func newReceiptNumber(tx *gorm.DB) (string, error) {
	for i := 0; i < 20; i++ {
		id := uuid.New()
		code := "RCT-" + strings.ToUpper(hex.EncodeToString(id[:4]))
		var exists int64
		if err := tx.Model(&models.Payment{}).Where("receipt_number = ?", code).Count(&exists).Error; err != nil {
			return "", apperr.Read("payments", err)
		}
		if exists == 0 {
			return code, nil
		}
	}
	return "", apperr.New(apperr.CodeStorage, "could not allocate a receipt number")
}
