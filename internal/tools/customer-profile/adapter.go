// internal/tools/customer-profile/adapter.go
package customerprofile

import (
	"context"
	"strings"

	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/common/validation"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/customerprofiles"
)

const (
	searchKeyEmail = "_email"
	searchKeyPhone = "_phone"
)

// ProfilesAPI is the slice of the Customer Profiles service the adapter uses.
type ProfilesAPI interface {
	SearchProfiles(ctx context.Context, input *customerprofiles.SearchProfilesInput) (*customerprofiles.SearchProfilesOutput, error)
	CreateProfile(ctx context.Context, input *customerprofiles.CreateProfileInput) (*customerprofiles.CreateProfileOutput, error)
}

// Adapter looks up the client in the profile directory, searching by email
// first and phone second, and creates a profile when neither matches. The
// session records whether the client is returning.
type Adapter struct {
	profiles   ProfilesAPI
	domainName string
	logger     logger.Logger
}

func NewAdapter(profiles ProfilesAPI, domainName string, log logger.Logger) *Adapter {
	return &Adapter{
		profiles:   profiles,
		domainName: domainName,
		logger:     log.WithFields(map[string]interface{}{"tool": dispatch.ToolCustomerProfileLookup}),
	}
}

func (a *Adapter) Name() string       { return dispatch.ToolCustomerProfileLookup }
func (a *Adapter) NeedsConsent() bool { return true }

// InputSchema is empty: identity and contact details come from the session.
func (a *Adapter) InputSchema() map[string]interface{} { return nil }

func (a *Adapter) Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
	contact := strings.TrimSpace(s.FieldValue(intake.FieldContactInfo))
	email, phone := splitContact(contact)

	profile, err := a.findProfile(ctx, email, phone)
	if err != nil {
		return nil, err
	}

	if profile == nil {
		profile, err = a.createProfile(ctx, s, email, phone)
		if err != nil {
			return nil, err
		}
		profile.IsReturning = false
	} else {
		profile.IsReturning = true
	}

	s.ProfileID = profile.ProfileID
	s.IsReturning = profile.IsReturning

	a.logger.Info("profile resolved", map[string]interface{}{
		"sessionId":   s.SessionID,
		"profileId":   profile.ProfileID,
		"isReturning": profile.IsReturning,
	})

	return map[string]interface{}{
		"profile_id":   profile.ProfileID,
		"is_returning": profile.IsReturning,
	}, nil
}

// findProfile searches by email first, then phone. A contact that matches
// neither key returns nil without error.
func (a *Adapter) findProfile(ctx context.Context, email, phone string) (*models.Profile, error) {
	type attempt struct {
		key   string
		value string
	}
	attempts := []attempt{}
	if email != "" {
		attempts = append(attempts, attempt{searchKeyEmail, email})
	}
	if phone != "" {
		attempts = append(attempts, attempt{searchKeyPhone, phone})
	}

	for _, at := range attempts {
		out, err := a.profiles.SearchProfiles(ctx, &customerprofiles.SearchProfilesInput{
			DomainName: aws.String(a.domainName),
			KeyName:    aws.String(at.key),
			Values:     []string{at.value},
		})
		if err != nil {
			return nil, err
		}
		if len(out.Items) == 0 {
			continue
		}
		item := out.Items[0]
		return &models.Profile{
			ProfileID: aws.ToString(item.ProfileId),
			FirstName: aws.ToString(item.FirstName),
			LastName:  aws.ToString(item.LastName),
			Email:     aws.ToString(item.EmailAddress),
			Phone:     aws.ToString(item.PhoneNumber),
		}, nil
	}
	return nil, nil
}

func (a *Adapter) createProfile(ctx context.Context, s *models.Session, email, phone string) (*models.Profile, error) {
	in := &customerprofiles.CreateProfileInput{
		DomainName: aws.String(a.domainName),
		FirstName:  aws.String(s.FieldValue(intake.FieldFirstName)),
		LastName:   aws.String(s.FieldValue(intake.FieldLastName)),
	}
	if email != "" {
		in.EmailAddress = aws.String(email)
	}
	if phone != "" {
		in.PhoneNumber = aws.String(phone)
	}

	out, err := a.profiles.CreateProfile(ctx, in)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		ProfileID: aws.ToString(out.ProfileId),
		FirstName: s.FieldValue(intake.FieldFirstName),
		LastName:  s.FieldValue(intake.FieldLastName),
		Email:     email,
		Phone:     phone,
	}, nil
}

// splitContact classifies the collected contact detail as email or phone.
// A detail that matches neither format is still tried as a phone number,
// which is what clients most often give in fragments.
func splitContact(contact string) (email, phone string) {
	if contact == "" {
		return "", ""
	}
	if validation.ValidateEmail(contact) {
		return contact, ""
	}
	if validation.ValidatePhone(contact) {
		return "", contact
	}
	if strings.Contains(contact, "@") {
		return contact, ""
	}
	return "", contact
}
