// internal/orchestrator/models.go
package orchestrator

import (
	stderrors "intake-orchestrator/internal/common/errors"
)

// Consent signals the dialogue agent may raise on a turn.
const (
	ConsentSignalAsk     = "ask"
	ConsentSignalGrant   = "grant"
	ConsentSignalDecline = "decline"
)

// TurnRequest is everything the dialogue agent reports for one conversational
// turn. Every section is optional; the orchestrator applies them in a fixed
// order and ignores what is absent.
type TurnRequest struct {
	SessionID string `json:"session_id"`

	// Consent is one of the consent signals, or empty.
	Consent string `json:"consent,omitempty"`

	// UrgencySignal marks an explicit out-of-band urgency statement, e.g.
	// an imminent shutoff. It bypasses scoring for the rest of the session.
	UrgencySignal bool `json:"urgency_signal,omitempty"`

	// NeedSubcategory classifies (or re-classifies, for mixed sessions)
	// the client's stated need.
	NeedSubcategory string `json:"need_subcategory,omitempty"`

	// Answers and Declines report intake-field outcomes from the turn.
	Answers  []FieldAnswer `json:"answers,omitempty"`
	Declines []string      `json:"declines,omitempty"`

	// FollowupRequested reopens a declined contact field if one is still
	// eligible for a circle-back.
	FollowupRequested bool `json:"followup_requested,omitempty"`

	// ProceedConfirmed records the client's explicit choice to move ahead
	// with profile lookup and case creation.
	ProceedConfirmed bool `json:"proceed_confirmed,omitempty"`

	// ToolCalls are the tool invocations the agent wants this turn. More
	// than one is rejected outright.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// EscalationChoice is the client's answer when offered a handoff:
	// connect_now, schedule_callback, or decline. It ends the session.
	EscalationChoice string `json:"escalation_choice,omitempty"`
}

type FieldAnswer struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type ToolCall struct {
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input,omitempty"`
}

// TurnResponse tells the dialogue agent what happened and what it may do
// next. AllowedTools is recomputed against committed state after every turn.
type TurnResponse struct {
	SessionID    string `json:"session_id"`
	Turn         int    `json:"turn"`
	ConsentState string `json:"consent_state"`
	Path         string `json:"path,omitempty"`

	NextField         string `json:"next_field,omitempty"`
	EssentialComplete bool   `json:"essential_complete"`
	OutOfArea         bool   `json:"out_of_area,omitempty"`

	ToolResult map[string]interface{} `json:"tool_result,omitempty"`
	ToolName   string                 `json:"tool_name,omitempty"`

	AllowedTools []string `json:"allowed_tools"`

	// Refusals are structured rejections the agent can relay without
	// technical detail.
	Refusals []stderrors.Refusal `json:"refusals,omitempty"`

	// Relay carries client-facing messages the agent should pass on, e.g.
	// the out-of-area referral or a decline follow-up.
	Relay []string `json:"relay,omitempty"`

	EscalationRoute string `json:"escalation_route,omitempty"`
	Closed          bool   `json:"closed"`
}
