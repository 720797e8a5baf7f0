package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ConsentState tracks whether personal-data collection has been authorized.
type ConsentState string

const (
	ConsentNone     ConsentState = "none"
	ConsentAsked    ConsentState = "asked"
	ConsentGranted  ConsentState = "granted"
	ConsentDeclined ConsentState = "declined"
)

// Path is the resolution track for a classified need.
type Path string

const (
	PathUnset         Path = "unset"
	PathReferral      Path = "referral"
	PathDirectSupport Path = "direct_support"
	// PathMixed applies only to the post-scoring recommendation, never to
	// need classification.
	PathMixed Path = "mixed"
)

// Provenance records how a collected field got its value.
type Provenance string

const (
	ProvenanceNotAsked Provenance = "not_asked"
	ProvenanceAnswered Provenance = "answered"
	ProvenanceDeclined Provenance = "declined"
)

// EscalationRoute is the terminal handoff decision for a session.
type EscalationRoute string

const (
	RouteLiveAgent   EscalationRoute = "live_agent"
	RouteCallback    EscalationRoute = "callback"
	RouteSelfService EscalationRoute = "self_service"
)

// CollectedField is one intake answer with its provenance.
type CollectedField struct {
	Name       string     `json:"name"`
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// Session is the single source of truth for one conversation. Every component
// reads and writes through it; a turn commits the whole session atomically.
type Session struct {
	SessionID       string           `json:"sessionId"`
	ConsentState    ConsentState     `json:"consentState"`
	NeedCategory    string           `json:"needCategory,omitempty"`
	NeedSubcategory string           `json:"needSubcategory,omitempty"`
	Path            Path             `json:"path"`
	Fields          []CollectedField `json:"fields,omitempty"`
	Scoring         *ScoringOutput   `json:"scoring,omitempty"`

	// PriorityOverride marks the urgency short-circuit: scoring is skipped
	// and escalation resolves straight from the short-circuit table.
	PriorityOverride bool `json:"priorityOverride,omitempty"`

	OutOfArea       bool            `json:"outOfArea,omitempty"`
	EscalationRoute EscalationRoute `json:"escalationRoute,omitempty"`

	// ProceedConfirmed records the client's explicit choice to move ahead
	// with profile lookup and case creation.
	ProceedConfirmed bool `json:"proceedConfirmed,omitempty"`

	ProfileID   string `json:"profileId,omitempty"`
	IsReturning bool   `json:"isReturning,omitempty"`

	CaseID        string `json:"caseId,omitempty"`
	CaseReference string `json:"caseReference,omitempty"`

	FollowupID string `json:"followupId,omitempty"`

	// Turn is the current conversational turn counter; LastDispatchTurn is
	// the turn on which the dispatcher last forwarded a tool call.
	Turn             int `json:"turn"`
	LastDispatchTurn int `json:"lastDispatchTurn,omitempty"`

	// CircleBackAsks counts re-prompts already spent on declined fields.
	CircleBackAsks map[string]int `json:"circleBackAsks,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession creates an empty session in the pre-consent state. Turn starts
// at zero and advances when the orchestrator processes the first turn.
func NewSession(sessionID string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:    sessionID,
		ConsentState: ConsentNone,
		Path:         PathUnset,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Field returns the collected field by name, or nil.
func (s *Session) Field(name string) *CollectedField {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// FieldValue returns the value of an answered field, or "" when the field is
// missing or was declined.
func (s *Session) FieldValue(name string) string {
	if f := s.Field(name); f != nil && f.Provenance == ProvenanceAnswered {
		return f.Value
	}
	return ""
}

// SetField records an answer or decline, preserving first-seen order.
func (s *Session) SetField(name, value string, provenance Provenance) {
	if f := s.Field(name); f != nil {
		f.Value = value
		f.Provenance = provenance
		return
	}
	s.Fields = append(s.Fields, CollectedField{Name: name, Value: value, Provenance: provenance})
}

// Answered reports whether every named field has provenance answered.
func (s *Session) Answered(names ...string) bool {
	for _, n := range names {
		f := s.Field(n)
		if f == nil || f.Provenance != ProvenanceAnswered {
			return false
		}
	}
	return true
}

// IsClosed reports whether the session has reached a terminal route.
func (s *Session) IsClosed() bool {
	return s.EscalationRoute != ""
}

// --- Flat attribute codec ---
//
// The hosting platform stores session attributes as string key/value pairs
// with no nesting, so the session round-trips through a flat map. Collected
// fields use two keys apiece plus an order list.

const (
	attrFieldOrder  = "fieldOrder"
	attrFieldPrefix = "field."
)

// ToAttributes flattens the session into string key/value pairs.
func (s *Session) ToAttributes() map[string]string {
	attrs := map[string]string{
		"sessionId":    s.SessionID,
		"consentState": string(s.ConsentState),
		"path":         string(s.Path),
		"turn":         strconv.Itoa(s.Turn),
		"createdAt":    s.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":    s.UpdatedAt.Format(time.RFC3339Nano),
	}

	setIf := func(key, val string) {
		if val != "" {
			attrs[key] = val
		}
	}
	setIf("needCategory", s.NeedCategory)
	setIf("needSubcategory", s.NeedSubcategory)
	setIf("escalationRoute", string(s.EscalationRoute))
	setIf("profileId", s.ProfileID)
	setIf("caseId", s.CaseID)
	setIf("caseReference", s.CaseReference)
	setIf("followupId", s.FollowupID)

	if s.PriorityOverride {
		attrs["priorityOverride"] = "true"
	}
	if s.OutOfArea {
		attrs["outOfArea"] = "true"
	}
	if s.IsReturning {
		attrs["isReturning"] = "true"
	}
	if s.ProceedConfirmed {
		attrs["proceedConfirmed"] = "true"
	}
	if s.LastDispatchTurn > 0 {
		attrs["lastDispatchTurn"] = strconv.Itoa(s.LastDispatchTurn)
	}

	if len(s.Fields) > 0 {
		names := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			names[i] = f.Name
			attrs[attrFieldPrefix+f.Name+".value"] = f.Value
			attrs[attrFieldPrefix+f.Name+".provenance"] = string(f.Provenance)
		}
		attrs[attrFieldOrder] = strings.Join(names, ",")
	}

	for name, count := range s.CircleBackAsks {
		attrs["circleBack."+name] = strconv.Itoa(count)
	}

	if s.Scoring != nil {
		for k, v := range s.Scoring.ToAttributes() {
			attrs["scoring."+k] = v
		}
	}

	return attrs
}

// SessionFromAttributes rebuilds a session from its flattened form.
func SessionFromAttributes(attrs map[string]string) (*Session, error) {
	if attrs["sessionId"] == "" {
		return nil, fmt.Errorf("missing sessionId attribute")
	}

	s := &Session{
		SessionID:       attrs["sessionId"],
		ConsentState:    ConsentState(attrs["consentState"]),
		NeedCategory:    attrs["needCategory"],
		NeedSubcategory: attrs["needSubcategory"],
		Path:            Path(attrs["path"]),
		EscalationRoute: EscalationRoute(attrs["escalationRoute"]),
		ProfileID:       attrs["profileId"],
		CaseID:          attrs["caseId"],
		CaseReference:   attrs["caseReference"],
		FollowupID:      attrs["followupId"],

		PriorityOverride: attrs["priorityOverride"] == "true",
		OutOfArea:        attrs["outOfArea"] == "true",
		IsReturning:      attrs["isReturning"] == "true",
		ProceedConfirmed: attrs["proceedConfirmed"] == "true",
	}
	if s.ConsentState == "" {
		s.ConsentState = ConsentNone
	}
	if s.Path == "" {
		s.Path = PathUnset
	}

	s.Turn, _ = strconv.Atoi(attrs["turn"])
	if s.Turn == 0 {
		s.Turn = 1
	}
	s.LastDispatchTurn, _ = strconv.Atoi(attrs["lastDispatchTurn"])

	if ts := attrs["createdAt"]; ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("bad createdAt: %w", err)
		}
		s.CreatedAt = t
	}
	if ts := attrs["updatedAt"]; ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("bad updatedAt: %w", err)
		}
		s.UpdatedAt = t
	}

	if order := attrs[attrFieldOrder]; order != "" {
		for _, name := range strings.Split(order, ",") {
			s.Fields = append(s.Fields, CollectedField{
				Name:       name,
				Value:      attrs[attrFieldPrefix+name+".value"],
				Provenance: Provenance(attrs[attrFieldPrefix+name+".provenance"]),
			})
		}
	}

	var circleKeys []string
	for k := range attrs {
		if strings.HasPrefix(k, "circleBack.") {
			circleKeys = append(circleKeys, k)
		}
	}
	if len(circleKeys) > 0 {
		sort.Strings(circleKeys)
		s.CircleBackAsks = make(map[string]int, len(circleKeys))
		for _, k := range circleKeys {
			count, _ := strconv.Atoi(attrs[k])
			s.CircleBackAsks[strings.TrimPrefix(k, "circleBack.")] = count
		}
	}

	scoringAttrs := make(map[string]string)
	for k, v := range attrs {
		if strings.HasPrefix(k, "scoring.") {
			scoringAttrs[strings.TrimPrefix(k, "scoring.")] = v
		}
	}
	if len(scoringAttrs) > 0 {
		out, err := ScoringOutputFromAttributes(scoringAttrs)
		if err != nil {
			return nil, err
		}
		s.Scoring = out
	}

	return s, nil
}
