// internal/tools/followup-schedule/adapter.go
package followupschedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"

	"github.com/google/uuid"
)

// SMSSender is the slice of SNS the adapter uses.
type SMSSender interface {
	PublishSMS(ctx context.Context, phoneNumber, message string) error
}

// Adapter schedules a follow-up contact: a Postgres record always, plus an
// SMS confirmation when the client's contact method is a phone number and
// SNS is enabled. Follow-ups link to the case when one exists.
type Adapter struct {
	config *Config
	db     *sql.DB
	sms    SMSSender
	now    func() time.Time
	logger logger.Logger
}

func NewAdapter(cfg *Config, db *sql.DB, sms SMSSender, log logger.Logger) *Adapter {
	return &Adapter{
		config: cfg,
		db:     db,
		sms:    sms,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"tool": dispatch.ToolFollowupSchedule}),
	}
}

func (a *Adapter) Name() string       { return dispatch.ToolFollowupSchedule }
func (a *Adapter) NeedsConsent() bool { return true }

func (a *Adapter) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"days": map[string]interface{}{
				"type":    "integer",
				"minimum": 1,
				"maximum": 90,
			},
			"referral_type": map[string]interface{}{"type": "string"},
		},
	}
}

func (a *Adapter) Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
	days := a.config.DefaultDays
	if v, ok := input["days"].(float64); ok {
		days = int(v)
	}
	days = a.clampDays(days)

	contact := s.FieldValue(intake.FieldContactInfo)
	if contact == "" {
		return nil, stderrors.NewSequenceViolationError(a.Name(),
			"no contact detail on file to follow up with")
	}

	record := &models.FollowupRecord{
		FollowupID:    uuid.New().String(),
		SessionID:     s.SessionID,
		CaseID:        s.CaseID,
		ContactInfo:   contact,
		ContactMethod: s.FieldValue(intake.FieldContactMethod),
		ReferralType:  stringInput(input, "referral_type"),
		NeedCategory:  s.NeedCategory,
		ScheduledDate: a.now().UTC().AddDate(0, 0, days),
		CreatedAt:     a.now().UTC(),
	}

	if err := a.insertFollowup(ctx, record); err != nil {
		return nil, err
	}

	s.FollowupID = record.FollowupID

	if a.shouldSendSMS(record.ContactMethod) {
		a.sendConfirmationSMS(ctx, record, days)
	}

	a.logger.Info("followup scheduled", map[string]interface{}{
		"sessionId":     s.SessionID,
		"followUpId":    record.FollowupID,
		"scheduledDate": record.ScheduledDate.Format("2006-01-02"),
		"days":          days,
	})

	return map[string]interface{}{
		"follow_up_id":   record.FollowupID,
		"scheduled_date": record.ScheduledDate.Format("2006-01-02"),
		"days":           days,
	}, nil
}

func (a *Adapter) clampDays(days int) int {
	if days < a.config.MinDays {
		return a.config.MinDays
	}
	if days > a.config.MaxDays {
		return a.config.MaxDays
	}
	return days
}

func (a *Adapter) insertFollowup(ctx context.Context, record *models.FollowupRecord) error {
	query := `
		INSERT INTO follow_ups (follow_up_id, session_id, case_id, contact_info,
			contact_method, referral_type, need_category, scheduled_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := a.db.ExecContext(ctx, query,
		record.FollowupID,
		record.SessionID,
		nullable(record.CaseID),
		record.ContactInfo,
		record.ContactMethod,
		record.ReferralType,
		record.NeedCategory,
		record.ScheduledDate,
		record.CreatedAt,
	)
	if err != nil {
		return stderrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (a *Adapter) shouldSendSMS(method string) bool {
	if !a.config.SMSEnabled || a.sms == nil {
		return false
	}
	return method == "phone" || method == "sms" || method == "text"
}

func (a *Adapter) sendConfirmationSMS(ctx context.Context, record *models.FollowupRecord, days int) {
	message := fmt.Sprintf("We'll check in with you in %d days about your request. Reply STOP to opt out.", days)
	if err := a.sms.PublishSMS(ctx, record.ContactInfo, message); err != nil {
		// The record is scheduled either way.
		a.logger.Warn("followup SMS failed", map[string]interface{}{
			"followUpId": record.FollowupID,
			"error":      err.Error(),
		})
	}
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func stringInput(input map[string]interface{}, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}
