// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/common/observability"
	"intake-orchestrator/internal/consent"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/escalation"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"
	"intake-orchestrator/internal/reporting"
	"intake-orchestrator/internal/session"
)

// Orchestrator drives one conversational turn at a time: load the session,
// apply the turn's signals through the guard components, dispatch at most
// one tool call, commit, and recompute what the dialogue agent may do next.
// Turns within a session are strictly sequential; sessions are independent.
type Orchestrator struct {
	store      *session.Store
	gate       *consent.Gate
	collector  *intake.Collector
	dispatcher *dispatch.Dispatcher
	router     *escalation.Router
	indexer    *reporting.Indexer
	errHandler *stderrors.Handler
	obs        *observability.Observability
	logger     logger.Logger
}

func New(
	store *session.Store,
	gate *consent.Gate,
	collector *intake.Collector,
	dispatcher *dispatch.Dispatcher,
	router *escalation.Router,
	indexer *reporting.Indexer,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		gate:       gate,
		collector:  collector,
		dispatcher: dispatcher,
		router:     router,
		indexer:    indexer,
		errHandler: stderrors.NewHandler(log),
		obs:        obs,
		logger:     log,
	}
}

// ProcessTurn applies one turn. It always commits whatever state the turn
// produced, even when parts of the request were refused.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req *TurnRequest) (*TurnResponse, error) {
	start := time.Now()

	s, err := o.store.LoadOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if s.IsClosed() {
		return nil, stderrors.NewSessionClosedError(s.SessionID, string(s.EscalationRoute))
	}

	s.Turn++
	resp := &TurnResponse{SessionID: s.SessionID, Turn: s.Turn}

	o.applyConsent(s, req, resp)
	o.applyUrgency(s, req)
	o.applyNeed(s, req, resp)
	o.applyAnswers(s, req, resp)
	o.applyDeclines(s, req, resp)
	o.applyFollowupRequest(s, req)

	if req.ProceedConfirmed {
		s.ProceedConfirmed = true
	}

	o.applyToolCalls(ctx, s, req, resp)
	o.applyEscalation(ctx, s, req, resp)

	if s.OutOfArea && !s.IsClosed() {
		// Out of service area: the session ends in self-service with a
		// referral to the regional 211 line. No path classification runs.
		resp.Relay = append(resp.Relay, o.collector.OutOfAreaReferral())
		s.EscalationRoute = models.RouteSelfService
		o.indexCompleted(ctx, s)
	}

	if err := o.store.Commit(ctx, s); err != nil {
		return nil, err
	}

	o.finishResponse(s, resp)

	if o.obs != nil {
		status := "ok"
		if len(resp.Refusals) > 0 {
			status = "refused"
		}
		o.obs.RecordTurnProcessed(ctx, status)
		o.obs.RecordTurnDuration(ctx, time.Since(start), status)
	}
	return resp, nil
}

// Session returns the committed state of one session.
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	return o.store.Load(ctx, sessionID)
}

func (o *Orchestrator) applyConsent(s *models.Session, req *TurnRequest, resp *TurnResponse) {
	if req.Consent == "" {
		return
	}
	var err error
	switch req.Consent {
	case ConsentSignalAsk:
		err = o.gate.Ask(s)
	case ConsentSignalGrant:
		err = o.gate.Grant(s)
	case ConsentSignalDecline:
		err = o.gate.Decline(s)
	default:
		err = stderrors.NewInvalidToolInputError("consent", "unknown consent signal "+req.Consent)
	}
	if err != nil {
		resp.Refusals = append(resp.Refusals, o.errHandler.HandleToolError(s.SessionID, "consent", err))
	}
}

func (o *Orchestrator) applyUrgency(s *models.Session, req *TurnRequest) {
	if !req.UrgencySignal || s.PriorityOverride {
		return
	}
	s.PriorityOverride = true
	o.logger.Info("Urgency short-circuit set", map[string]interface{}{
		"sessionId": s.SessionID,
		"turn":      s.Turn,
	})
}

func (o *Orchestrator) applyNeed(s *models.Session, req *TurnRequest, resp *TurnResponse) {
	if req.NeedSubcategory == "" {
		return
	}
	if err := o.collector.ClassifyNeed(s, req.NeedSubcategory); err != nil {
		resp.Refusals = append(resp.Refusals,
			o.errHandler.HandleToolError(s.SessionID, "needClassification", err))
	}
}

func (o *Orchestrator) applyAnswers(s *models.Session, req *TurnRequest, resp *TurnResponse) {
	for _, answer := range req.Answers {
		if s.OutOfArea {
			// Intake halted at the geography field; ignore the rest.
			return
		}
		if err := o.collector.RecordAnswer(s, answer.Field, answer.Value); err != nil {
			resp.Refusals = append(resp.Refusals,
				o.errHandler.HandleToolError(s.SessionID, "intakeWrite", err))
		}
	}
}

func (o *Orchestrator) applyDeclines(s *models.Session, req *TurnRequest, resp *TurnResponse) {
	for _, field := range req.Declines {
		outcome, err := o.collector.RecordDecline(s, field)
		if err != nil {
			resp.Refusals = append(resp.Refusals,
				o.errHandler.HandleToolError(s.SessionID, "intakeDecline", err))
			continue
		}
		switch outcome {
		case intake.DeclineReprompt:
			resp.Relay = append(resp.Relay,
				"We only use your location to find help nearby. Could you share just your ZIP code?")
		case intake.DeclineAnonymousFallback:
			resp.Relay = append(resp.Relay,
				"No problem. I can still search community resources without any location details.")
		case intake.DeclineCircleBack:
			resp.Relay = append(resp.Relay,
				"That's fine for now. If you'd like a follow-up later, I'll ask again then.")
		}
	}
}

func (o *Orchestrator) applyFollowupRequest(s *models.Session, req *TurnRequest) {
	if !req.FollowupRequested {
		return
	}
	for _, f := range s.Fields {
		if f.Provenance == models.ProvenanceDeclined && o.collector.ReopenContactField(s, f.Name) {
			return
		}
	}
}

func (o *Orchestrator) applyToolCalls(ctx context.Context, s *models.Session, req *TurnRequest, resp *TurnResponse) {
	if len(req.ToolCalls) == 0 {
		return
	}
	if len(req.ToolCalls) > 1 {
		err := stderrors.NewSequenceViolationError("multiple",
			"one tool call per turn; split the requests across turns")
		resp.Refusals = append(resp.Refusals, o.errHandler.HandleToolError(s.SessionID, "multiple", err))
		return
	}

	call := req.ToolCalls[0]
	result, err := o.dispatcher.Dispatch(ctx, s, call.Name, call.Input)
	if err != nil {
		resp.Refusals = append(resp.Refusals, o.errHandler.HandleToolError(s.SessionID, call.Name, err))
		return
	}
	resp.ToolName = call.Name
	resp.ToolResult = result
}

func (o *Orchestrator) applyEscalation(ctx context.Context, s *models.Session, req *TurnRequest, resp *TurnResponse) {
	if req.EscalationChoice == "" || s.IsClosed() {
		return
	}
	choice := escalation.ClientChoice(req.EscalationChoice)
	route := o.router.Route(s, choice)

	switch route {
	case models.RouteLiveAgent:
		resp.Relay = append(resp.Relay, "Connecting you with a team member now.")
	case models.RouteCallback:
		resp.Relay = append(resp.Relay, "We'll call you back during our next open hours.")
	case models.RouteSelfService:
		resp.Relay = append(resp.Relay,
			"You can reach our warm line any time at "+o.router.WarmLinePhone()+".")
	}

	o.indexCompleted(ctx, s)
}

// indexCompleted ships the reporting document for a terminal session.
// Reporting is best-effort: an indexing failure never affects the client.
func (o *Orchestrator) indexCompleted(ctx context.Context, s *models.Session) {
	if o.indexer == nil {
		return
	}
	if err := o.indexer.IndexSession(ctx, s); err != nil {
		o.logger.Warn("Reporting index failed", map[string]interface{}{
			"sessionId": s.SessionID,
			"error":     err.Error(),
		})
	}
}

func (o *Orchestrator) finishResponse(s *models.Session, resp *TurnResponse) {
	resp.ConsentState = string(s.ConsentState)
	resp.Path = string(s.Path)
	resp.EssentialComplete = o.collector.EssentialComplete(s)
	resp.OutOfArea = s.OutOfArea
	resp.EscalationRoute = string(s.EscalationRoute)
	resp.Closed = s.IsClosed()

	// Allow-list and next prompt are computed against committed state, so a
	// superseded turn never leaks a stale allowance.
	if !resp.Closed {
		resp.AllowedTools = o.dispatcher.Allowed(s)
		if next, ok := o.collector.NextField(s); ok {
			resp.NextField = next.Name
		}
	}
}
