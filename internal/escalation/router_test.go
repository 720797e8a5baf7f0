// internal/escalation/router_test.go
package escalation

import (
	"testing"
	"time"

	"intake-orchestrator/internal/common/config"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func testEscalationConfig() config.EscalationConfig {
	return config.EscalationConfig{
		Timezone:      "America/New_York",
		OpenHour:      9,
		CloseHour:     17,
		OpenDays:      []int{1, 2, 3, 4, 5},
		WarmLinePhone: "843-555-0100",
	}
}

// Tuesday 2026-03-10 is a staffed day.
var (
	tuesdayMorning  = time.Date(2026, 3, 10, 10, 30, 0, 0, mustLoad())
	tuesdayEvening  = time.Date(2026, 3, 10, 19, 0, 0, 0, mustLoad())
	saturdayMidday  = time.Date(2026, 3, 14, 12, 0, 0, 0, mustLoad())
	tuesdayOpening  = time.Date(2026, 3, 10, 9, 0, 0, 0, mustLoad())
	tuesdayLastCall = time.Date(2026, 3, 10, 16, 59, 0, 0, mustLoad())
	tuesdayClosing  = time.Date(2026, 3, 10, 17, 0, 0, 0, mustLoad())
)

func mustLoad() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}

func testRouter(t *testing.T, at time.Time) *Router {
	r, err := NewRouter(testEscalationConfig(), logger.NewTestLogger(t))
	assert.NoError(t, err)
	r.now = func() time.Time { return at }
	return r
}

func sessionWithPath(path models.Path, priority bool) *models.Session {
	s := models.NewSession("sess-1")
	s.Scoring = &models.ScoringOutput{
		RecommendedPath: path,
		PriorityFlag:    priority,
	}
	return s
}

// ==========================
// Operating Hours
// ==========================

func TestInHours_Boundaries(t *testing.T) {
	r := testRouter(t, tuesdayMorning)

	tests := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{"weekday mid morning", tuesdayMorning, true},
		{"opening minute", tuesdayOpening, true},
		{"last staffed minute", tuesdayLastCall, true},
		{"closing minute", tuesdayClosing, false},
		{"weekday evening", tuesdayEvening, false},
		{"saturday midday", saturdayMidday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.InHours(tt.at))
		})
	}
}

// ==========================
// Decision Table
// ==========================

func TestRoute_DecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		path     models.Path
		at       time.Time
		choice   ClientChoice
		expected models.EscalationRoute
	}{
		{"direct support in hours accept", models.PathDirectSupport, tuesdayMorning, ChoiceConnectNow, models.RouteLiveAgent},
		{"mixed in hours accept", models.PathMixed, tuesdayMorning, ChoiceConnectNow, models.RouteLiveAgent},
		{"direct support out of hours", models.PathDirectSupport, tuesdayEvening, ChoiceConnectNow, models.RouteCallback},
		{"mixed weekend", models.PathMixed, saturdayMidday, ChoiceConnectNow, models.RouteCallback},
		{"direct support prefers callback", models.PathDirectSupport, tuesdayMorning, ChoiceScheduleCallback, models.RouteCallback},
		{"referral accept", models.PathReferral, tuesdayMorning, ChoiceConnectNow, models.RouteCallback},
		{"referral schedules callback", models.PathReferral, tuesdayEvening, ChoiceScheduleCallback, models.RouteCallback},
		{"referral decline", models.PathReferral, tuesdayMorning, ChoiceDecline, models.RouteSelfService},
		{"direct support decline", models.PathDirectSupport, tuesdayMorning, ChoiceDecline, models.RouteSelfService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRouter(t, tt.at)
			s := sessionWithPath(tt.path, false)

			route := r.Route(s, tt.choice)
			assert.Equal(t, tt.expected, route)
			assert.Equal(t, tt.expected, s.EscalationRoute)
			assert.True(t, s.IsClosed())
		})
	}
}

// ==========================
// Priority Short-Circuit
// ==========================

func TestRoute_PriorityShortCircuit(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		choice   ClientChoice
		expected models.EscalationRoute
	}{
		{"in hours ignores decline", tuesdayMorning, ChoiceDecline, models.RouteLiveAgent},
		{"out of hours ignores decline", tuesdayEvening, ChoiceDecline, models.RouteCallback},
		{"in hours accept", tuesdayMorning, ChoiceConnectNow, models.RouteLiveAgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRouter(t, tt.at)
			s := sessionWithPath(models.PathReferral, true)

			assert.Equal(t, tt.expected, r.Route(s, tt.choice))
		})
	}
}

func TestRoute_UrgencyOverrideWithoutScoring(t *testing.T) {
	r := testRouter(t, tuesdayMorning)

	// Scoring was bypassed entirely: no output, just the override.
	s := models.NewSession("sess-1")
	s.PriorityOverride = true

	assert.Equal(t, models.RouteLiveAgent, r.Route(s, ChoiceDecline))
}
