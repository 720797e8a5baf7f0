package models

import "time"

// CaseRecord mirrors the row written when a case is submitted to the
// external case-management collaborator.
type CaseRecord struct {
	CaseID        string    `json:"caseId" db:"case_id"`
	CaseReference string    `json:"caseReference" db:"case_reference"`
	SessionID     string    `json:"sessionId" db:"session_id"`
	ProfileID     string    `json:"profileId,omitempty" db:"profile_id"`
	ClientName    string    `json:"clientName" db:"client_name"`
	NeedCategory  string    `json:"needCategory" db:"need_category"`
	ZipCode       string    `json:"zipCode" db:"zip_code"`
	County        string    `json:"county" db:"county"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Case statuses as stored in the cases table.
const (
	CaseStatusSubmitted  = "submitted"
	CaseStatusInReview   = "in_review"
	CaseStatusAssigned   = "assigned"
	CaseStatusInProgress = "in_progress"
	CaseStatusClosed     = "closed"
)

// CaseStatusDescriptions maps a case status to the phrasing relayed to the
// client when they check on a case.
var CaseStatusDescriptions = map[string]string{
	CaseStatusSubmitted:  "Your request has been received and is waiting for review.",
	CaseStatusInReview:   "A team member is reviewing your request.",
	CaseStatusAssigned:   "Your request has been assigned to a case manager.",
	CaseStatusInProgress: "Your case manager is actively working on your request.",
	CaseStatusClosed:     "This case has been completed and closed.",
}

// FollowupRecord is a scheduled follow-up contact.
type FollowupRecord struct {
	FollowupID    string    `json:"followUpId" db:"follow_up_id"`
	SessionID     string    `json:"sessionId" db:"session_id"`
	CaseID        string    `json:"caseId,omitempty" db:"case_id"`
	ContactInfo   string    `json:"contactInfo" db:"contact_info"`
	ContactMethod string    `json:"contactMethod" db:"contact_method"`
	ReferralType  string    `json:"referralType" db:"referral_type"`
	NeedCategory  string    `json:"needCategory" db:"need_category"`
	ScheduledDate time.Time `json:"scheduledDate" db:"scheduled_date"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Profile is the slice of a customer profile the orchestrator cares about.
type Profile struct {
	ProfileID   string `json:"profileId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsReturning bool   `json:"isReturning"`
}
