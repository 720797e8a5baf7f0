// internal/dispatch/dispatcher_test.go
package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/consent"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeAdapter struct {
	name         string
	needsConsent bool
	schema       map[string]interface{}
	execute      func(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error)
	calls        int
}

func (f *fakeAdapter) Name() string                        { return f.name }
func (f *fakeAdapter) NeedsConsent() bool                  { return f.needsConsent }
func (f *fakeAdapter) InputSchema() map[string]interface{} { return f.schema }

func (f *fakeAdapter) Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
	f.calls++
	if f.execute != nil {
		return f.execute(ctx, s, input)
	}
	return map[string]interface{}{"ok": true}, nil
}

func newTestDispatcher(t *testing.T, adapters ...*fakeAdapter) *Dispatcher {
	d := NewDispatcher(consent.NewGate(), 5*time.Second, logger.NewTestLogger(t))
	for _, a := range adapters {
		d.Register(a)
	}
	return d
}

// grantedSession is a session mid-way through its first processed turn, the
// state the orchestrator hands the dispatcher.
func grantedSession() *models.Session {
	s := models.NewSession("sess-1")
	s.Turn = 1
	s.ConsentState = models.ConsentGranted
	return s
}

func scoredSession() *models.Session {
	s := grantedSession()
	s.SetField(intake.FieldHousingSituation, "renting_unstable", models.ProvenanceAnswered)
	s.SetField(intake.FieldMonthlyIncome, "1800", models.ProvenanceAnswered)
	s.SetField(intake.FieldMonthlyHousingCost, "950", models.ProvenanceAnswered)
	s.SetField(intake.FieldEmploymentStatus, "part_time", models.ProvenanceAnswered)
	s.Scoring = &models.ScoringOutput{
		HousingScore:    2,
		EmploymentScore: 2,
		FinancialScore:  2,
		CompositeScore:  2,
		RecommendedPath: models.PathDirectSupport,
	}
	return s
}

// ==========================
// Consent Rule
// ==========================

func TestDispatch_ConsentRule(t *testing.T) {
	pii := &fakeAdapter{name: ToolCustomerProfileLookup, needsConsent: true}
	anon := &fakeAdapter{name: ToolResourceLookup}
	d := newTestDispatcher(t, pii, anon)

	s := models.NewSession("sess-1")
	s.Turn = 1

	_, err := d.Dispatch(context.Background(), s, ToolCustomerProfileLookup, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeConsentViolation))
	assert.Zero(t, pii.calls)

	// Anonymous resource search runs even with consent declined.
	s.ConsentState = models.ConsentDeclined
	result, err := d.Dispatch(context.Background(), s, ToolResourceLookup, nil)
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"ok": true}, result)
}

// ==========================
// One Tool Per Turn
// ==========================

func TestDispatch_OneToolPerTurn(t *testing.T) {
	a := &fakeAdapter{name: ToolResourceLookup}
	d := newTestDispatcher(t, a)

	s := grantedSession()

	_, err := d.Dispatch(context.Background(), s, ToolResourceLookup, nil)
	assert.NoError(t, err)

	_, err = d.Dispatch(context.Background(), s, ToolResourceLookup, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))
	assert.Equal(t, 1, a.calls)

	// A new turn reopens the slot.
	s.Turn++
	_, err = d.Dispatch(context.Background(), s, ToolResourceLookup, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, a.calls)
}

// ==========================
// Ordering Preconditions
// ==========================

func TestDispatch_ScoringRequiresAnswers(t *testing.T) {
	a := &fakeAdapter{name: ToolScoringCalculate, needsConsent: true}
	d := newTestDispatcher(t, a)

	s := grantedSession()
	s.SetField(intake.FieldHousingSituation, "homeless", models.ProvenanceAnswered)

	_, err := d.Dispatch(context.Background(), s, ToolScoringCalculate, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))
	assert.Zero(t, a.calls)
}

func TestDispatch_ProfileLookupOrdering(t *testing.T) {
	a := &fakeAdapter{name: ToolCustomerProfileLookup, needsConsent: true}
	d := newTestDispatcher(t, a)

	s := grantedSession()

	// Before scoring: rejected.
	_, err := d.Dispatch(context.Background(), s, ToolCustomerProfileLookup, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))

	// After scoring but before the explicit client choice: still rejected.
	s = scoredSession()
	_, err = d.Dispatch(context.Background(), s, ToolCustomerProfileLookup, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))

	s.ProceedConfirmed = true
	_, err = d.Dispatch(context.Background(), s, ToolCustomerProfileLookup, nil)
	assert.NoError(t, err)
}

func TestDispatch_UrgencyShortCircuitUnlocksProfileLookup(t *testing.T) {
	a := &fakeAdapter{name: ToolCustomerProfileLookup, needsConsent: true}
	d := newTestDispatcher(t, a)

	s := grantedSession()
	s.PriorityOverride = true
	s.ProceedConfirmed = true

	_, err := d.Dispatch(context.Background(), s, ToolCustomerProfileLookup, nil)
	assert.NoError(t, err)
}

func TestDispatch_UrgencyShortCircuitBlocksScoring(t *testing.T) {
	a := &fakeAdapter{name: ToolScoringCalculate, needsConsent: true}
	d := newTestDispatcher(t, a)

	// All four answers are in, but the urgency signal means scoring must
	// never run for this session.
	s := scoredSession()
	s.Scoring = nil
	s.PriorityOverride = true

	_, err := d.Dispatch(context.Background(), s, ToolScoringCalculate, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))
	assert.Zero(t, a.calls)
}

func TestDispatch_CaseSubmitRequiresProfile(t *testing.T) {
	a := &fakeAdapter{name: ToolCharityTrackerSubmit, needsConsent: true}
	d := newTestDispatcher(t, a)

	s := scoredSession()
	s.ProceedConfirmed = true

	_, err := d.Dispatch(context.Background(), s, ToolCharityTrackerSubmit, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))

	s.ProfileID = "prof-1"
	_, err = d.Dispatch(context.Background(), s, ToolCharityTrackerSubmit, nil)
	assert.NoError(t, err)
}

// ==========================
// Idempotence
// ==========================

func TestDispatch_ScoringIdempotent(t *testing.T) {
	a := &fakeAdapter{name: ToolScoringCalculate, needsConsent: true}
	d := newTestDispatcher(t, a)

	s := scoredSession()
	s.Scoring.InputFingerprint = scoredSessionFingerprint(s)

	result, err := d.Dispatch(context.Background(), s, ToolScoringCalculate, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, result["composite_score"])
	assert.Zero(t, a.calls, "cached result must not recompute")
}

func TestDispatch_DuplicateCaseReturnsCachedReference(t *testing.T) {
	a := &fakeAdapter{name: ToolCharityTrackerSubmit, needsConsent: true}
	d := newTestDispatcher(t, a)

	s := scoredSession()
	s.ProceedConfirmed = true
	s.ProfileID = "prof-1"
	s.CaseID = "case-1"
	s.CaseReference = "12345678"

	result, err := d.Dispatch(context.Background(), s, ToolCharityTrackerSubmit, nil)
	assert.NoError(t, err)
	assert.Equal(t, "12345678", result["case_reference"])
	assert.Equal(t, true, result["duplicate"])
	assert.Zero(t, a.calls)
}

// ==========================
// Validation and Failures
// ==========================

func TestDispatch_UnknownTool(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), grantedSession(), "mysteryTool", nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeUnknownTool))
}

func TestDispatch_SchemaValidation(t *testing.T) {
	a := &fakeAdapter{
		name: ToolResourceLookup,
		schema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"keyword"},
			"properties": map[string]interface{}{
				"keyword": map[string]interface{}{"type": "string"},
			},
		},
	}
	d := newTestDispatcher(t, a)

	_, err := d.Dispatch(context.Background(), grantedSession(), ToolResourceLookup, map[string]interface{}{})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeInvalidToolInput))
	assert.Zero(t, a.calls)
}

func TestDispatch_AdapterFailure(t *testing.T) {
	a := &fakeAdapter{
		name: ToolResourceLookup,
		execute: func(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
			return nil, errors.New("directory API unreachable")
		},
	}
	d := newTestDispatcher(t, a)

	s := grantedSession()
	_, err := d.Dispatch(context.Background(), s, ToolResourceLookup, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeToolExecutionFailure))

	// The failed call still spent the turn's slot; no automatic retry.
	_, err = d.Dispatch(context.Background(), s, ToolResourceLookup, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))
	assert.Equal(t, 1, a.calls)
}

func TestDispatch_ClosedSession(t *testing.T) {
	a := &fakeAdapter{name: ToolResourceLookup}
	d := newTestDispatcher(t, a)

	s := grantedSession()
	s.EscalationRoute = models.RouteSelfService

	_, err := d.Dispatch(context.Background(), s, ToolResourceLookup, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSessionClosed))
}

// ==========================
// Allow-List
// ==========================

func TestAllowed(t *testing.T) {
	d := newTestDispatcher(t,
		&fakeAdapter{name: ToolResourceLookup},
		&fakeAdapter{name: ToolCaseStatusLookup},
		&fakeAdapter{name: ToolScoringCalculate, needsConsent: true},
		&fakeAdapter{name: ToolCustomerProfileLookup, needsConsent: true},
	)

	// Pre-consent: only the anonymous tools.
	s := models.NewSession("sess-1")
	assert.ElementsMatch(t, []string{ToolResourceLookup, ToolCaseStatusLookup}, d.Allowed(s))

	// Scored and confirmed: profile lookup opens up.
	s = scoredSession()
	s.ProceedConfirmed = true
	assert.ElementsMatch(t,
		[]string{ToolResourceLookup, ToolCaseStatusLookup, ToolScoringCalculate, ToolCustomerProfileLookup},
		d.Allowed(s))

	// A spent slot does not shrink the list: each turn opens a fresh one,
	// so the allow-list describes the upcoming turn.
	s.LastDispatchTurn = s.Turn
	assert.ElementsMatch(t,
		[]string{ToolResourceLookup, ToolCaseStatusLookup, ToolScoringCalculate, ToolCustomerProfileLookup},
		d.Allowed(s))

	// Urgency short-circuit: scoring drops out, profile lookup stays.
	s = grantedSession()
	s.PriorityOverride = true
	s.ProceedConfirmed = true
	assert.ElementsMatch(t,
		[]string{ToolResourceLookup, ToolCaseStatusLookup, ToolCustomerProfileLookup},
		d.Allowed(s))

	// Closed sessions allow nothing.
	s.EscalationRoute = models.RouteSelfService
	assert.Empty(t, d.Allowed(s))
}

// scoredSessionFingerprint mirrors how the dispatcher detects an unchanged
// answer set.
func scoredSessionFingerprint(s *models.Session) string {
	in := models.ScoringInput{
		HousingSituation:   s.FieldValue(intake.FieldHousingSituation),
		EmploymentStatus:   s.FieldValue(intake.FieldEmploymentStatus),
		MonthlyIncome:      1800,
		MonthlyHousingCost: 950,
	}
	return in.Fingerprint()
}
