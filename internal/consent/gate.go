// Package consent implements the state machine guarding the onset of
// personal-data collection. It is a pure guard with no side effects.
package consent

import (
	"fmt"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/models"
)

// Gate validates consent transitions and answers permission questions for
// the rest of the orchestrator.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// Ask moves none -> asked. Only valid when the dialogue agent signals intent
// to begin data collection and consent has not already been resolved.
func (g *Gate) Ask(s *models.Session) error {
	switch s.ConsentState {
	case models.ConsentNone:
		s.ConsentState = models.ConsentAsked
		return nil
	case models.ConsentAsked:
		return nil // already pending, idempotent
	default:
		return fmt.Errorf("consent already resolved to %s", s.ConsentState)
	}
}

// Grant moves asked -> granted. Granting is permanent for the session; the
// client is never re-asked.
func (g *Gate) Grant(s *models.Session) error {
	switch s.ConsentState {
	case models.ConsentAsked:
		s.ConsentState = models.ConsentGranted
		return nil
	case models.ConsentGranted:
		return nil
	default:
		return fmt.Errorf("cannot grant consent from state %s", s.ConsentState)
	}
}

// Decline moves asked -> declined. Declining permanently blocks intake
// writes but leaves no-PII tool calls available.
func (g *Gate) Decline(s *models.Session) error {
	switch s.ConsentState {
	case models.ConsentAsked:
		s.ConsentState = models.ConsentDeclined
		return nil
	case models.ConsentDeclined:
		return nil
	default:
		return fmt.Errorf("cannot decline consent from state %s", s.ConsentState)
	}
}

// AllowFieldWrite reports whether intake-field writes are permitted.
func (g *Gate) AllowFieldWrite(s *models.Session) error {
	if s.ConsentState != models.ConsentGranted {
		return stderrors.NewConsentViolationError(
			fmt.Sprintf("field write attempted while consent is %s", s.ConsentState))
	}
	return nil
}

// AllowTool reports whether a tool needing personal data may run. Tools that
// carry no personal identifiers bypass the gate entirely.
func (g *Gate) AllowTool(s *models.Session, needsConsent bool) error {
	if !needsConsent {
		return nil
	}
	if s.ConsentState != models.ConsentGranted {
		return stderrors.NewConsentViolationError(
			fmt.Sprintf("personal-data tool requested while consent is %s", s.ConsentState))
	}
	return nil
}
