// internal/intake/collector.go
package intake

import (
	"fmt"
	"strings"

	"intake-orchestrator/internal/common/config"
	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/models"
)

// zipCounty maps tri-county ZIP codes to their county so an answered ZIP can
// satisfy geography without a second question. Unknown ZIPs fall through to
// asking the county directly.
var zipCounty = map[string]string{
	"29401": "Charleston", "29403": "Charleston", "29405": "Charleston",
	"29407": "Charleston", "29412": "Charleston", "29414": "Charleston",
	"29418": "Charleston", "29420": "Charleston", "29424": "Charleston",
	"29455": "Charleston", "29464": "Charleston", "29466": "Charleston",
	"29410": "Berkeley", "29445": "Berkeley", "29456": "Berkeley",
	"29461": "Berkeley", "29479": "Berkeley", "29486": "Berkeley",
	"29437": "Dorchester", "29447": "Dorchester", "29448": "Dorchester",
	"29472": "Dorchester", "29483": "Dorchester", "29485": "Dorchester",
}

// DeclineOutcome tells the orchestrator what a declined field means for the
// rest of the conversation.
type DeclineOutcome string

const (
	// DeclineContinue: flag suppressed, intake proceeds.
	DeclineContinue DeclineOutcome = "continue"
	// DeclineReprompt: ask once more before giving up on the field.
	DeclineReprompt DeclineOutcome = "reprompt"
	// DeclineCircleBack: leave declined now, revisit if follow-up is requested.
	DeclineCircleBack DeclineOutcome = "circle_back"
	// DeclineAnonymousFallback: geography refused twice, downgrade to
	// anonymous resource search.
	DeclineAnonymousFallback DeclineOutcome = "anonymous_fallback"
)

// Collector walks a session through the field queue its classified need
// requires.
type Collector struct {
	cfg config.IntakeConfig
	log logger.Logger
}

func NewCollector(cfg config.IntakeConfig, log logger.Logger) *Collector {
	return &Collector{cfg: cfg, log: log}
}

// ClassifyNeed resolves a subcategory against the static table and records
// the need and its path on the session. A second need on an already
// classified session is merged per the configured mixed-need ordering.
func (c *Collector) ClassifyNeed(s *models.Session, subcategory string) error {
	record, ok := Classify(subcategory)
	if !ok {
		return fmt.Errorf("unknown need subcategory %q", subcategory)
	}

	if s.NeedSubcategory == "" || s.NeedSubcategory == subcategory {
		s.NeedCategory = record.Category
		s.NeedSubcategory = subcategory
		s.Path = record.Path
		c.log.Info("Need classified", map[string]interface{}{
			"sessionId":   s.SessionID,
			"subcategory": subcategory,
			"path":        string(record.Path),
		})
		return nil
	}

	// Mixed session: a second, different need. The configured ordering
	// decides which need drives the conversation first.
	existing, _ := Classify(s.NeedSubcategory)
	primary := existing
	if existing.Path != record.Path {
		wantFirst := models.PathReferral
		if c.cfg.MixedNeedOrder == "support_first" {
			wantFirst = models.PathDirectSupport
		}
		if record.Path == wantFirst && existing.Path != wantFirst {
			primary = record
		}
	}

	s.NeedCategory = primary.Category
	s.NeedSubcategory = primary.Subcategory
	s.Path = primary.Path
	c.log.Info("Mixed need resolved", map[string]interface{}{
		"sessionId": s.SessionID,
		"primary":   primary.Subcategory,
		"order":     c.cfg.MixedNeedOrder,
	})
	return nil
}

// Queue returns the fields still waiting to be asked, in ask order. Empty
// when intake is complete or the session was halted out of area.
func (c *Collector) Queue(s *models.Session) []FieldSpec {
	if s.OutOfArea || s.NeedSubcategory == "" {
		return nil
	}
	record, ok := Classify(s.NeedSubcategory)
	if !ok {
		return nil
	}

	var pending []FieldSpec
	for _, spec := range record.Fields {
		f := s.Field(spec.Name)
		if f == nil || f.Provenance == models.ProvenanceNotAsked {
			// County is satisfied implicitly when the ZIP resolved it.
			if spec.Name == FieldCounty && c.countyFromSession(s) != "" {
				continue
			}
			pending = append(pending, spec)
		}
	}
	return pending
}

// NextField returns the next field to ask, if any.
func (c *Collector) NextField(s *models.Session) (FieldSpec, bool) {
	pending := c.Queue(s)
	if len(pending) == 0 {
		return FieldSpec{}, false
	}
	return pending[0], true
}

// RecordAnswer writes an answered field. Personal-data writes require
// granted consent; a geography answer outside the service area halts intake
// on the spot.
func (c *Collector) RecordAnswer(s *models.Session, name, value string) error {
	if s.ConsentState != models.ConsentGranted {
		return stderrors.NewConsentViolationError(
			fmt.Sprintf("intake field %q written while consent is %s", name, s.ConsentState))
	}

	s.SetField(name, value, models.ProvenanceAnswered)

	if name == FieldZipCode || name == FieldCounty {
		county := c.countyFromSession(s)
		if county == "" {
			return nil // county not yet derivable, keep asking
		}
		s.SetField(FieldCounty, county, models.ProvenanceAnswered)
		if !c.cfg.IsSupportedCounty(county) {
			s.OutOfArea = true
			c.log.Info("Out of service area, halting intake", map[string]interface{}{
				"sessionId": s.SessionID,
				"county":    county,
			})
		}
	}
	return nil
}

// RecordDecline applies the decline policy for the field's kind.
func (c *Collector) RecordDecline(s *models.Session, name string) (DeclineOutcome, error) {
	if s.ConsentState != models.ConsentGranted {
		return "", stderrors.NewConsentViolationError(
			fmt.Sprintf("intake field %q declined while consent is %s", name, s.ConsentState))
	}

	spec, ok := c.fieldSpec(s, name)
	if !ok {
		return "", fmt.Errorf("field %q is not part of the current intake", name)
	}

	s.SetField(name, "", models.ProvenanceDeclined)

	switch spec.Kind {
	case KindGeographic:
		asks := s.CircleBackAsks[name]
		if asks < c.cfg.MaxCircleBackAsks {
			if s.CircleBackAsks == nil {
				s.CircleBackAsks = make(map[string]int)
			}
			s.CircleBackAsks[name] = asks + 1
			return DeclineReprompt, nil
		}
		return DeclineAnonymousFallback, nil
	case KindContact:
		return DeclineCircleBack, nil
	default:
		return DeclineContinue, nil
	}
}

// ReopenContactField clears a declined contact field so it can be asked once
// more after the client requests follow-up. Only one revisit is allowed.
func (c *Collector) ReopenContactField(s *models.Session, name string) bool {
	spec, ok := c.fieldSpec(s, name)
	if !ok || spec.Kind != KindContact {
		return false
	}
	f := s.Field(name)
	if f == nil || f.Provenance != models.ProvenanceDeclined {
		return false
	}
	if s.CircleBackAsks[name] >= c.cfg.MaxCircleBackAsks {
		return false
	}
	if s.CircleBackAsks == nil {
		s.CircleBackAsks = make(map[string]int)
	}
	s.CircleBackAsks[name]++
	f.Provenance = models.ProvenanceNotAsked
	return true
}

// EssentialComplete reports whether every essential field has an answer.
func (c *Collector) EssentialComplete(s *models.Session) bool {
	if s.NeedSubcategory == "" {
		return false
	}
	record, ok := Classify(s.NeedSubcategory)
	if !ok {
		return false
	}
	for _, spec := range record.Fields {
		if !spec.Essential {
			continue
		}
		if spec.Name == FieldCounty && c.countyFromSession(s) != "" {
			continue
		}
		f := s.Field(spec.Name)
		if f == nil || f.Provenance != models.ProvenanceAnswered {
			return false
		}
	}
	return true
}

// OutOfAreaReferral is the stock message for sessions outside the tri-county
// service area.
func (c *Collector) OutOfAreaReferral() string {
	return c.cfg.OutOfAreaReferral
}

func (c *Collector) fieldSpec(s *models.Session, name string) (FieldSpec, bool) {
	if s.NeedSubcategory == "" {
		return FieldSpec{}, false
	}
	record, ok := Classify(s.NeedSubcategory)
	if !ok {
		return FieldSpec{}, false
	}
	for _, spec := range record.Fields {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// countyFromSession derives the county from an explicit answer or a known
// ZIP, normalized to the canonical capitalized name.
func (c *Collector) countyFromSession(s *models.Session) string {
	if v := s.FieldValue(FieldCounty); v != "" {
		return normalizeCounty(v)
	}
	if zip := s.FieldValue(FieldZipCode); zip != "" {
		return zipCounty[zip]
	}
	return ""
}

func normalizeCounty(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimSpace(strings.TrimSuffix(v, "county"))
	if v == "" {
		return ""
	}
	return strings.ToUpper(v[:1]) + v[1:]
}
