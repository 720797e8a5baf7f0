// internal/tools/scoring-calculate/adapter.go
package scoringcalculate

import (
	"context"
	"database/sql"
	"time"

	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/models"
	"intake-orchestrator/internal/scoring"
)

// Adapter runs the deterministic scoring engine over the session's answered
// fields and records the result on the session. Each run is audited to
// Postgres; audit failures are logged but never fail the call.
type Adapter struct {
	engine *scoring.Engine
	db     *sql.DB
	logger logger.Logger
}

func NewAdapter(engine *scoring.Engine, db *sql.DB, log logger.Logger) *Adapter {
	return &Adapter{
		engine: engine,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"tool": dispatch.ToolScoringCalculate}),
	}
}

func (a *Adapter) Name() string       { return dispatch.ToolScoringCalculate }
func (a *Adapter) NeedsConsent() bool { return true }

// InputSchema is empty: scoring reads the session, not the request.
func (a *Adapter) InputSchema() map[string]interface{} { return nil }

func (a *Adapter) Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
	in, err := scoring.InputFromSession(s)
	if err != nil {
		return nil, err
	}

	out, err := a.engine.Score(in)
	if err != nil {
		return nil, err
	}
	// The recommendation lives on the scoring output only. The session path
	// stays the need classification, which never takes the mixed value.
	s.Scoring = out

	a.logger.Info("scoring completed", map[string]interface{}{
		"sessionId":       s.SessionID,
		"compositeScore":  out.CompositeScore,
		"priorityFlag":    out.PriorityFlag,
		"recommendedPath": string(out.RecommendedPath),
	})

	a.audit(ctx, s, out)

	return dispatch.ScoringResultPayload(out), nil
}

func (a *Adapter) audit(ctx context.Context, s *models.Session, out *models.ScoringOutput) {
	if a.db == nil {
		return
	}
	query := `
		INSERT INTO scoring_audit (session_id, housing_score, employment_score,
			financial_score, composite_score, priority_flag, recommended_path,
			input_fingerprint, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := a.db.ExecContext(ctx, query,
		s.SessionID,
		out.HousingScore,
		out.EmploymentScore,
		out.FinancialScore,
		out.CompositeScore,
		out.PriorityFlag,
		string(out.RecommendedPath),
		out.InputFingerprint,
		time.Now().UTC(),
	)
	if err != nil {
		a.logger.Warn("failed to audit scoring run", map[string]interface{}{
			"sessionId": s.SessionID,
			"error":     err.Error(),
		})
	}
}
