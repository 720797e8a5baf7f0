// Package dispatch enforces the tool-call ordering rules. It holds the
// allow-list logic: what the dialogue agent requests is irrelevant until a
// rule says the call may run.
package dispatch

import (
	"context"
	"fmt"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/common/metrics"
	"intake-orchestrator/internal/common/validation"
	"intake-orchestrator/internal/consent"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"
	"intake-orchestrator/internal/scoring"
)

// Tool names as the dialogue agent requests them.
const (
	ToolScoringCalculate      = "scoringCalculate"
	ToolResourceLookup        = "resourceLookup"
	ToolCustomerProfileLookup = "customerProfileLookup"
	ToolCharityTrackerSubmit  = "charityTrackerSubmit"
	ToolFollowupSchedule      = "followupSchedule"
	ToolCaseStatusLookup      = "caseStatusLookup"
)

// Adapter executes one tool against external collaborators. Adapters do the
// work; the dispatcher decides whether they may run.
type Adapter interface {
	Name() string
	NeedsConsent() bool
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error)
}

// Dispatcher guards and forwards tool calls. One instance serves many
// sessions; per-session serialization is the orchestrator's job.
type Dispatcher struct {
	adapters map[string]Adapter
	gate     *consent.Gate
	budget   time.Duration
	log      logger.Logger
}

func NewDispatcher(gate *consent.Gate, budget time.Duration, log logger.Logger) *Dispatcher {
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &Dispatcher{
		adapters: make(map[string]Adapter),
		gate:     gate,
		budget:   budget,
		log:      log,
	}
}

// Register adds an adapter. Panics on duplicate or misnamed adapters;
// registration happens once at startup.
func (d *Dispatcher) Register(a Adapter) {
	if err := validation.ValidateToolNaming(a.Name()); err != nil {
		panic(fmt.Sprintf("adapter %q: %v", a.Name(), err))
	}
	if _, exists := d.adapters[a.Name()]; exists {
		panic(fmt.Sprintf("adapter %q registered twice", a.Name()))
	}
	d.adapters[a.Name()] = a
}

// Allowed returns the tools the session state permits on the upcoming turn,
// independent of anything the dialogue agent has asked for. The one-call-per-
// turn rule is deliberately not applied here: each turn opens a fresh slot,
// so a spent slot on the current turn says nothing about the next one.
func (d *Dispatcher) Allowed(s *models.Session) []string {
	if s.IsClosed() {
		return nil
	}
	var allowed []string
	for name, adapter := range d.adapters {
		if d.gate.AllowTool(s, adapter.NeedsConsent()) != nil {
			continue
		}
		if d.precondition(s, name) != nil {
			continue
		}
		allowed = append(allowed, name)
	}
	return allowed
}

// Dispatch validates a single tool request against every ordering rule and,
// when all hold, forwards it to the adapter under the execution budget.
// Structural violations come back as errors; duplicate submissions resolve
// to the cached result instead.
func (d *Dispatcher) Dispatch(ctx context.Context, s *models.Session, name string, input map[string]interface{}) (map[string]interface{}, error) {
	start := time.Now()

	if s.IsClosed() {
		return nil, stderrors.NewSessionClosedError(s.SessionID, string(s.EscalationRoute))
	}

	// Rule: at most one tool call per conversational turn.
	if s.LastDispatchTurn == s.Turn {
		d.countRejected(name, stderrors.ErrCodeSequenceViolation)
		return nil, stderrors.NewSequenceViolationError(name,
			"a tool call already ran this turn; split the requests across turns")
	}

	adapter, ok := d.adapters[name]
	if !ok {
		return nil, stderrors.NewUnknownToolError(name)
	}

	// Rule: no personal-data tool before consent is granted.
	if err := d.gate.AllowTool(s, adapter.NeedsConsent()); err != nil {
		d.countRejected(name, stderrors.ErrCodeConsentViolation)
		return nil, err
	}

	// Rule: tool-specific ordering preconditions.
	if err := d.precondition(s, name); err != nil {
		d.countRejected(name, stderrors.ErrCodeSequenceViolation)
		return nil, err
	}

	// Rule: repeat requests resolve from the session, not the adapter.
	if cached, ok := d.cachedResult(s, name); ok {
		d.log.Info("Returning cached tool result", map[string]interface{}{
			"sessionId": s.SessionID,
			"tool":      name,
		})
		s.LastDispatchTurn = s.Turn
		return cached, nil
	}

	if err := validation.ValidateAgainstSchema(adapter.InputSchema(), input); err != nil {
		d.countRejected(name, stderrors.ErrCodeInvalidToolInput)
		return nil, stderrors.NewInvalidToolInputError(name, err.Error())
	}

	execCtx, cancel := context.WithTimeout(ctx, d.budget)
	defer cancel()

	result, err := adapter.Execute(execCtx, s, input)

	// The call was forwarded, successful or not; the turn's slot is spent.
	s.LastDispatchTurn = s.Turn
	metrics.ToolCallDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		d.countRejected(name, stderrors.ErrCodeToolExecutionFailure)
		if _, isStd := stderrors.AsStandard(err); isStd {
			return nil, err
		}
		return nil, stderrors.NewToolExecutionFailureError(name, err)
	}

	metrics.ToolCallsCompleted.WithLabelValues(name).Inc()
	return result, nil
}

// precondition holds the per-tool ordering rules.
func (d *Dispatcher) precondition(s *models.Session, name string) error {
	switch name {
	case ToolScoringCalculate:
		if s.PriorityOverride {
			return stderrors.NewSequenceViolationError(name,
				"an urgency signal short-circuits scoring for this session")
		}
		if !s.Answered(intake.ScoringFieldNames...) {
			return stderrors.NewSequenceViolationError(name,
				"the four required scoring answers are not complete")
		}
	case ToolCustomerProfileLookup, ToolCharityTrackerSubmit:
		if s.Scoring == nil && !s.PriorityOverride {
			return stderrors.NewSequenceViolationError(name,
				"scoring has not run and no urgency short-circuit applies")
		}
		if !s.ProceedConfirmed {
			return stderrors.NewSequenceViolationError(name,
				"the client has not confirmed they want to proceed")
		}
		if name == ToolCharityTrackerSubmit && s.ProfileID == "" {
			return stderrors.NewSequenceViolationError(name,
				"profile lookup has not completed")
		}
	}
	return nil
}

// cachedResult resolves idempotent repeats: an unchanged scoring request and
// any second case submission return what the session already holds.
func (d *Dispatcher) cachedResult(s *models.Session, name string) (map[string]interface{}, bool) {
	switch name {
	case ToolScoringCalculate:
		if s.Scoring == nil {
			return nil, false
		}
		in, err := scoring.InputFromSession(s)
		if err != nil || in.Fingerprint() != s.Scoring.InputFingerprint {
			return nil, false
		}
		return ScoringResultPayload(s.Scoring), true
	case ToolCharityTrackerSubmit:
		if s.CaseReference == "" {
			return nil, false
		}
		metrics.ToolCallsRejected.WithLabelValues(name, string(stderrors.ErrCodeDuplicateSubmission)).Inc()
		return map[string]interface{}{
			"case_id":        s.CaseID,
			"case_reference": s.CaseReference,
			"duplicate":      true,
		}, true
	}
	return nil, false
}

func (d *Dispatcher) countRejected(name string, code stderrors.ErrorCode) {
	metrics.ToolCallsRejected.WithLabelValues(name, string(code)).Inc()
}

// ScoringResultPayload is the wire shape of a scoring result, shared by the
// scoring adapter and the cache path.
func ScoringResultPayload(out *models.ScoringOutput) map[string]interface{} {
	return map[string]interface{}{
		"housing_score":              out.HousingScore,
		"employment_score":           out.EmploymentScore,
		"financial_resilience_score": out.FinancialScore,
		"composite_score":            out.CompositeScore,
		"priority_flag":              out.PriorityFlag,
		"recommended_path":           string(out.RecommendedPath),
	}
}
