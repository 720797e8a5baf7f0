// internal/tools/case-submit/adapter.go
package casesubmit

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"

	"github.com/google/uuid"
)

// Emailer is the slice of SES the adapter uses.
type Emailer interface {
	SendHTML(ctx context.Context, from, to, subject, htmlBody string) error
}

// Adapter files the assistance case: it writes the case record to Postgres,
// emails the intake team the case packet, and stamps the session with the
// reference number. The dispatcher guarantees at most one submission per
// session; the adapter itself only ever creates.
type Adapter struct {
	config  *Config
	db      *sql.DB
	emailer Emailer
	logger  logger.Logger
}

func NewAdapter(cfg *Config, db *sql.DB, emailer Emailer, log logger.Logger) *Adapter {
	return &Adapter{
		config:  cfg,
		db:      db,
		emailer: emailer,
		logger:  log.WithFields(map[string]interface{}{"tool": dispatch.ToolCharityTrackerSubmit}),
	}
}

func (a *Adapter) Name() string       { return dispatch.ToolCharityTrackerSubmit }
func (a *Adapter) NeedsConsent() bool { return true }

func (a *Adapter) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"notes": map[string]interface{}{"type": "string", "maxLength": 2000},
		},
	}
}

func (a *Adapter) Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
	reference, err := a.newReference()
	if err != nil {
		return nil, err
	}

	record := &models.CaseRecord{
		CaseID:        uuid.New().String(),
		CaseReference: reference,
		SessionID:     s.SessionID,
		ProfileID:     s.ProfileID,
		ClientName:    clientName(s),
		NeedCategory:  s.NeedCategory,
		ZipCode:       s.FieldValue(intake.FieldZipCode),
		County:        s.FieldValue(intake.FieldCounty),
		Status:        models.CaseStatusSubmitted,
		CreatedAt:     time.Now().UTC(),
	}

	if err := a.insertCase(ctx, record); err != nil {
		return nil, err
	}

	s.CaseID = record.CaseID
	s.CaseReference = record.CaseReference

	if err := a.sendCasePacket(ctx, s, record, stringInput(input, "notes")); err != nil {
		// The case exists; a lost notification email must not undo it.
		a.logger.Warn("case packet email failed", map[string]interface{}{
			"sessionId":     s.SessionID,
			"caseReference": record.CaseReference,
			"error":         err.Error(),
		})
	}

	a.logger.Info("case submitted", map[string]interface{}{
		"sessionId":     s.SessionID,
		"caseId":        record.CaseID,
		"caseReference": record.CaseReference,
		"needCategory":  record.NeedCategory,
	})

	return map[string]interface{}{
		"case_id":        record.CaseID,
		"case_reference": record.CaseReference,
		"duplicate":      false,
	}, nil
}

func (a *Adapter) insertCase(ctx context.Context, record *models.CaseRecord) error {
	query := `
		INSERT INTO cases (case_id, case_reference, session_id, profile_id,
			client_name, need_category, zip_code, county, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := a.db.ExecContext(ctx, query,
		record.CaseID,
		record.CaseReference,
		record.SessionID,
		record.ProfileID,
		record.ClientName,
		record.NeedCategory,
		record.ZipCode,
		record.County,
		record.Status,
		record.CreatedAt,
	)
	if err != nil {
		return stderrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (a *Adapter) sendCasePacket(ctx context.Context, s *models.Session, record *models.CaseRecord, notes string) error {
	if !a.config.EmailEnabled || a.emailer == nil {
		return nil
	}

	subject := fmt.Sprintf("[%s] New case %s — %s", a.config.ProgramName, record.CaseReference, record.NeedCategory)
	body := a.buildCaseHTML(s, record, notes)

	return a.emailer.SendHTML(ctx, a.config.FromEmail, a.config.NotifyEmail, subject, body)
}

func (a *Adapter) buildCaseHTML(s *models.Session, record *models.CaseRecord, notes string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString(fmt.Sprintf("<h2>%s — Case %s</h2>", a.config.ProgramName, record.CaseReference))
	sb.WriteString("<table border=\"0\" cellpadding=\"4\">")
	row := func(label, value string) {
		if value != "" {
			sb.WriteString(fmt.Sprintf("<tr><td><b>%s</b></td><td>%s</td></tr>", label, value))
		}
	}
	row("Client", record.ClientName)
	row("Need", record.NeedCategory)
	row("Subcategory", s.NeedSubcategory)
	row("County", record.County)
	row("ZIP", record.ZipCode)
	row("Contact", s.FieldValue(intake.FieldContactInfo))
	row("Preferred method", s.FieldValue(intake.FieldContactMethod))
	if s.Scoring != nil {
		row("Composite score", fmt.Sprintf("%.2f", s.Scoring.CompositeScore))
		row("Recommended path", string(s.Scoring.RecommendedPath))
		if s.Scoring.PriorityFlag {
			row("Priority", "YES")
		}
	}
	if s.PriorityOverride {
		row("Urgency short-circuit", "YES")
	}
	row("Notes", notes)
	sb.WriteString("</table>")
	sb.WriteString("</body></html>")
	return sb.String()
}

// newReference generates the numeric reference clients read back over the
// phone. Width comes from config; the default is eight digits.
func (a *Adapter) newReference() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < a.config.ReferenceWidth; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate case reference: %w", err)
	}
	return fmt.Sprintf("%0*d", a.config.ReferenceWidth, n), nil
}

func clientName(s *models.Session) string {
	name := strings.TrimSpace(s.FieldValue(intake.FieldFirstName) + " " + s.FieldValue(intake.FieldLastName))
	if name == "" {
		return "Anonymous"
	}
	return name
}

func stringInput(input map[string]interface{}, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}
