// Package escalation decides the terminal handoff route for a session from
// the recommended path, staffed hours, and the client's explicit choice.
package escalation

import (
	"fmt"
	"time"

	"intake-orchestrator/internal/common/config"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/common/metrics"
	"intake-orchestrator/internal/models"
)

// ClientChoice is the client's explicit answer when offered a handoff.
type ClientChoice string

const (
	ChoiceConnectNow       ClientChoice = "connect_now"
	ChoiceScheduleCallback ClientChoice = "schedule_callback"
	ChoiceDecline          ClientChoice = "decline"
)

// Router applies the escalation decision table.
type Router struct {
	cfg config.EscalationConfig
	loc *time.Location
	now func() time.Time
	log logger.Logger
}

func NewRouter(cfg config.EscalationConfig, log logger.Logger) (*Router, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bad escalation timezone %q: %w", cfg.Timezone, err)
	}
	return &Router{cfg: cfg, loc: loc, now: time.Now, log: log}, nil
}

// InHours reports whether staff are available at the given instant.
func (r *Router) InHours(at time.Time) bool {
	local := at.In(r.loc)
	if !r.cfg.IsOpenDay(int(local.Weekday())) {
		return false
	}
	hour := local.Hour()
	return hour >= r.cfg.OpenHour && hour < r.cfg.CloseHour
}

// Route resolves the terminal route and writes it onto the session. The
// priority short-circuit ignores both path and choice: an urgent session
// always reaches a human, live when staffed and by callback otherwise.
func (r *Router) Route(s *models.Session, choice ClientChoice) models.EscalationRoute {
	route := r.decide(s, choice)

	s.EscalationRoute = route
	metrics.EscalationsRouted.WithLabelValues(string(route)).Inc()
	r.log.Info("Session routed", map[string]interface{}{
		"sessionId": s.SessionID,
		"route":     string(route),
		"choice":    string(choice),
		"priority":  r.isPriority(s),
	})
	return route
}

func (r *Router) decide(s *models.Session, choice ClientChoice) models.EscalationRoute {
	inHours := r.InHours(r.now())

	if r.isPriority(s) {
		if inHours {
			return models.RouteLiveAgent
		}
		return models.RouteCallback
	}

	if choice == ChoiceDecline {
		return models.RouteSelfService
	}

	path := models.PathReferral
	if s.Scoring != nil {
		path = s.Scoring.RecommendedPath
	}

	switch path {
	case models.PathDirectSupport, models.PathMixed:
		if inHours && choice == ChoiceConnectNow {
			return models.RouteLiveAgent
		}
		return models.RouteCallback
	default:
		return models.RouteCallback
	}
}

func (r *Router) isPriority(s *models.Session) bool {
	if s.PriorityOverride {
		return true
	}
	return s.Scoring != nil && s.Scoring.PriorityFlag
}

// WarmLinePhone is the number offered alongside callback routing.
func (r *Router) WarmLinePhone() string {
	return r.cfg.WarmLinePhone
}
