// internal/tools/case-status/adapter.go
package casestatus

import (
	"context"
	"database/sql"
	"errors"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/models"
)

// Adapter answers "what happened to my case?" by reference number. It reads
// the case table only and handles no personal data beyond the reference the
// client already holds, so it runs without consent.
type Adapter struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAdapter(db *sql.DB, log logger.Logger) *Adapter {
	return &Adapter{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"tool": dispatch.ToolCaseStatusLookup}),
	}
}

func (a *Adapter) Name() string       { return dispatch.ToolCaseStatusLookup }
func (a *Adapter) NeedsConsent() bool { return false }

func (a *Adapter) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"case_reference"},
		"properties": map[string]interface{}{
			"case_reference": map[string]interface{}{
				"type":    "string",
				"pattern": "^\\d{6,12}$",
			},
		},
	}
}

func (a *Adapter) Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
	reference, _ := input["case_reference"].(string)

	query := `
		SELECT case_reference, need_category, status, created_at
		FROM cases
		WHERE case_reference = $1`

	var (
		needCategory string
		status       string
		createdAt    time.Time
	)
	err := a.db.QueryRowContext(ctx, query, reference).
		Scan(&reference, &needCategory, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewCaseReferenceNotFoundError(reference)
	}
	if err != nil {
		return nil, err
	}

	description, ok := models.CaseStatusDescriptions[status]
	if !ok {
		description = "Your case is on file. Call us for details."
	}

	a.logger.Info("case status looked up", map[string]interface{}{
		"sessionId":     s.SessionID,
		"caseReference": reference,
		"status":        status,
	})

	return map[string]interface{}{
		"case_reference":     reference,
		"need_category":      needCategory,
		"status":             status,
		"status_description": description,
		"submitted_at":       createdAt.Format("2006-01-02"),
	}, nil
}
