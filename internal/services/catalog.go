package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/models"
	"github.com/lojf/ministry/internal/token"
)

// Catalog manages the organizations, programs, sessions, participants and
// enrollments that check-in and payments operate on.
type Catalog struct {
	db *gorm.DB

	// CountryCode completes participant phone numbers written in local form.
	CountryCode string
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db, CountryCode: DefaultCountryCode}
}

type NewProgram struct {
	OrganizationID   string `json:"organization_id" validate:"required"`
	Name             string `json:"name" validate:"required"`
	EnrollmentFee    int64  `json:"enrollment_fee" validate:"gte=0"`
	SessionFee       int64  `json:"session_fee" validate:"gte=0"`
	SelfCheckIn      bool   `json:"self_checkin"`
	WalkIn           bool   `json:"walk_in"`
	LateAfterMinutes int    `json:"late_after_minutes" validate:"gte=0"`
}

type NewSession struct {
	OrganizationID string    `json:"organization_id" validate:"required"`
	ProgramID      string    `json:"program_id" validate:"required"`
	Title          string    `json:"title"`
	StartsAt       time.Time `json:"starts_at"`
}

type NewParticipant struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Phone          string `json:"phone"`
}

func (c *Catalog) CreateOrganization(ctx context.Context, name string) (models.Organization, error) {
	org := models.Organization{Name: strings.TrimSpace(name)}
	if org.Name == "" {
		return models.Organization{}, apperr.New(apperr.CodeInvalidArgument, "organization name is required")
	}
	if err := c.db.WithContext(ctx).Create(&org).Error; err != nil {
		return models.Organization{}, apperr.Write("organization", err)
	}
	return org, nil
}

// CreateProgram derives the fee capabilities from the fee amounts.
func (c *Catalog) CreateProgram(ctx context.Context, np NewProgram) (models.Program, error) {
	np.Name = strings.TrimSpace(np.Name)
	if err := validateStruct(np); err != nil {
		return models.Program{}, err
	}
	if err := c.orgExists(ctx, np.OrganizationID); err != nil {
		return models.Program{}, err
	}

	var caps models.Capabilities
	if np.EnrollmentFee > 0 {
		caps |= models.CapEnrollmentFee
	}
	if np.SessionFee > 0 {
		caps |= models.CapSessionFee
	}
	if np.SelfCheckIn {
		caps |= models.CapSelfCheckIn
	}
	if np.WalkIn {
		caps |= models.CapWalkIn
	}

	prog := models.Program{
		OrganizationID:   np.OrganizationID,
		Name:             np.Name,
		EnrollmentFee:    np.EnrollmentFee,
		SessionFee:       np.SessionFee,
		Capabilities:     caps,
		LateAfterMinutes: np.LateAfterMinutes,
	}
	if err := c.db.WithContext(ctx).Create(&prog).Error; err != nil {
		return models.Program{}, apperr.Write("program", err)
	}
	return prog, nil
}

func (c *Catalog) Program(ctx context.Context, orgID, programID string) (models.Program, error) {
	var prog models.Program
	err := c.db.WithContext(ctx).Where("id = ? AND organization_id = ?", programID, orgID).Take(&prog).Error
	return prog, apperr.Read("program", err)
}

// ArchiveProgram hides a program from check-in; programs are never deleted.
func (c *Catalog) ArchiveProgram(ctx context.Context, orgID, programID string) error {
	res := c.db.WithContext(ctx).Model(&models.Program{}).
		Where("id = ? AND organization_id = ? AND archived_at IS NULL", programID, orgID).
		Update("archived_at", time.Now())
	if res.Error != nil {
		return apperr.Write("program", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := c.Program(ctx, orgID, programID); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleSession creates a session with a freshly minted scan token.
func (c *Catalog) ScheduleSession(ctx context.Context, ns NewSession) (models.Session, error) {
	if err := validateStruct(ns); err != nil {
		return models.Session{}, err
	}
	if _, err := c.Program(ctx, ns.OrganizationID, ns.ProgramID); err != nil {
		return models.Session{}, err
	}
	sess := models.Session{
		OrganizationID: ns.OrganizationID,
		ProgramID:      ns.ProgramID,
		Title:          strings.TrimSpace(ns.Title),
		StartsAt:       ns.StartsAt,
		Token:          token.NewSessionToken(),
	}
	if err := c.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return models.Session{}, apperr.Write("session", err)
	}
	return sess, nil
}

func (c *Catalog) Session(ctx context.Context, orgID, sessionID string) (models.Session, error) {
	return sessionInOrgTx(c.db.WithContext(ctx), orgID, sessionID)
}

// RotateSessionToken replaces the session token in a single UPDATE. The old
// token stops resolving as soon as the statement commits, so printed codes
// carrying it are rejected as unrecognized.
func (c *Catalog) RotateSessionToken(ctx context.Context, orgID, sessionID string) (models.Session, error) {
	tok := token.NewSessionToken()
	res := c.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND organization_id = ?", sessionID, orgID).
		Update("token", tok)
	if res.Error != nil {
		return models.Session{}, apperr.Write("session", res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a foreign session from a missing one.
		if _, err := c.Session(ctx, orgID, sessionID); err != nil {
			return models.Session{}, err
		}
	}
	return c.Session(ctx, orgID, sessionID)
}

func (c *Catalog) RegisterParticipant(ctx context.Context, np NewParticipant) (models.Participant, error) {
	np.Name = strings.TrimSpace(np.Name)
	if err := validateStruct(np); err != nil {
		return models.Participant{}, err
	}
	if raw := strings.TrimSpace(np.Phone); raw != "" {
		if np.Phone = NormPhone(raw, c.CountryCode); np.Phone == "" {
			return models.Participant{}, apperr.WithMetadata(apperr.CodeInvalidArgument, "invalid input",
				map[string]string{"phone": "e164"})
		}
	}
	if err := c.orgExists(ctx, np.OrganizationID); err != nil {
		return models.Participant{}, err
	}
	p := models.Participant{OrganizationID: np.OrganizationID, Name: np.Name, Phone: np.Phone}
	if err := c.db.WithContext(ctx).Create(&p).Error; err != nil {
		return models.Participant{}, apperr.Write("participant", err)
	}
	return p, nil
}

func (c *Catalog) Participant(ctx context.Context, orgID, participantID string) (models.Participant, error) {
	var p models.Participant
	err := c.db.WithContext(ctx).Where("id = ?", participantID).Take(&p).Error
	if err != nil {
		return p, apperr.Read("participant", err)
	}
	if p.OrganizationID != orgID {
		return models.Participant{}, apperr.ErrTenantMismatch
	}
	return p, nil
}

// Participants loads the organization's participants with the given ids,
// keyed by id. Unknown ids are skipped.
func (c *Catalog) Participants(ctx context.Context, orgID string, ids []string) (map[string]models.Participant, error) {
	out := make(map[string]models.Participant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var ps []models.Participant
	err := c.db.WithContext(ctx).Where("organization_id = ? AND id IN ?", orgID, ids).Find(&ps).Error
	if err != nil {
		return nil, apperr.Read("participants", err)
	}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

// Enroll links a participant to a program. The amount due is the program's
// enrollment fee. Enrolling twice returns the existing enrollment.
func (c *Catalog) Enroll(ctx context.Context, orgID, programID, userID string) (enr models.Enrollment, err error) {
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prog models.Program
		if err := tx.Where("id = ? AND organization_id = ?", programID, orgID).Take(&prog).Error; err != nil {
			return apperr.Read("program", err)
		}
		var part models.Participant
		if err := tx.Where("id = ? AND organization_id = ?", userID, orgID).Take(&part).Error; err != nil {
			return apperr.Read("participant", err)
		}

		enr = models.Enrollment{
			OrganizationID: orgID,
			ProgramID:      programID,
			UserID:         userID,
			AmountDue:      prog.EnrollmentFee,
			PaymentStatus:  models.DerivePaymentStatus(prog.EnrollmentFee, 0),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enr).Error; err != nil {
			return apperr.Write("enrollment", err)
		}
		enr, err = enrollmentTx(tx, orgID, programID, userID)
		return err
	})
	return enr, err
}

func (c *Catalog) orgExists(ctx context.Context, orgID string) error {
	var org models.Organization
	err := c.db.WithContext(ctx).Where("id = ?", orgID).Take(&org).Error
	return apperr.Read("organization", err)
}
