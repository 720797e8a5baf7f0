// internal/reporting/indexer.go
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"intake-orchestrator/internal/common/config"
	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Document is the completed-session summary case managers query. It carries
// outcomes, never raw answers: the session store remains the only place
// personal detail lives.
type Document struct {
	SessionID       string    `json:"session_id"`
	NeedCategory    string    `json:"need_category"`
	NeedSubcategory string    `json:"need_subcategory,omitempty"`
	Path            string    `json:"path"`
	County          string    `json:"county,omitempty"`
	EscalationRoute string    `json:"escalation_route"`
	OutOfArea       bool      `json:"out_of_area"`
	PriorityFlag    bool      `json:"priority_flag"`
	IsReturning     bool      `json:"is_returning"`
	CaseSubmitted   bool      `json:"case_submitted"`
	Turns           int       `json:"turns"`
	CompletedAt     time.Time `json:"completed_at"`

	HousingScore    *float64 `json:"housing_score,omitempty"`
	EmploymentScore *float64 `json:"employment_score,omitempty"`
	FinancialScore  *float64 `json:"financial_score,omitempty"`
	CompositeScore  *float64 `json:"composite_score,omitempty"`
}

// Indexer writes one reporting document per session when the session reaches
// a terminal route.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, cfg config.ReportingConfig, log logger.Logger) *Indexer {
	index := cfg.Index
	if index == "" {
		index = "intake-sessions"
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "reporting"}),
	}
}

// IndexSession builds the summary document and indexes it keyed by session
// ID, so a re-run on the same session overwrites rather than duplicates.
func (ix *Indexer) IndexSession(ctx context.Context, s *models.Session) error {
	doc := BuildDocument(s)

	body, err := json.Marshal(doc)
	if err != nil {
		return stderrors.NewReportingIndexFailedError(err)
	}

	res, err := ix.client.Index(
		ix.index,
		bytes.NewReader(body),
		ix.client.Index.WithContext(ctx),
		ix.client.Index.WithDocumentID(s.SessionID),
	)
	if err != nil {
		return stderrors.NewReportingIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewReportingIndexFailedError(
			&indexError{status: res.Status()})
	}

	ix.logger.Info("session indexed for reporting", map[string]interface{}{
		"sessionId": s.SessionID,
		"index":     ix.index,
		"route":     doc.EscalationRoute,
	})
	return nil
}

// BuildDocument flattens a terminal session into its reporting shape.
func BuildDocument(s *models.Session) *Document {
	doc := &Document{
		SessionID:       s.SessionID,
		NeedCategory:    s.NeedCategory,
		NeedSubcategory: s.NeedSubcategory,
		Path:            string(s.Path),
		County:          s.FieldValue(intake.FieldCounty),
		EscalationRoute: string(s.EscalationRoute),
		OutOfArea:       s.OutOfArea,
		PriorityFlag:    s.PriorityOverride,
		IsReturning:     s.IsReturning,
		CaseSubmitted:   s.CaseReference != "",
		Turns:           s.Turn,
		CompletedAt:     time.Now().UTC(),
	}
	if s.Scoring != nil {
		doc.PriorityFlag = doc.PriorityFlag || s.Scoring.PriorityFlag
		doc.HousingScore = &s.Scoring.HousingScore
		doc.EmploymentScore = &s.Scoring.EmploymentScore
		doc.FinancialScore = &s.Scoring.FinancialScore
		doc.CompositeScore = &s.Scoring.CompositeScore
	}
	return doc
}

type indexError struct {
	status string
}

func (e *indexError) Error() string {
	return "elasticsearch returned " + e.status
}
