// internal/reporting/indexer_test.go
package reporting

import (
	"testing"

	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDocument_ScoresAndOutcome(t *testing.T) {
	s := models.NewSession("sess-1")
	s.NeedCategory = "housing"
	s.NeedSubcategory = "rent_assistance"
	s.Path = models.PathDirectSupport
	s.EscalationRoute = models.RouteLiveAgent
	s.CaseReference = "12345678"
	s.Turn = 9
	s.SetField(intake.FieldCounty, "Charleston", models.ProvenanceAnswered)
	s.Scoring = &models.ScoringOutput{
		HousingScore:    1.5,
		EmploymentScore: 2,
		FinancialScore:  3,
		CompositeScore:  2.17,
		PriorityFlag:    true,
	}

	doc := BuildDocument(s)

	assert.Equal(t, "sess-1", doc.SessionID)
	assert.Equal(t, "live_agent", doc.EscalationRoute)
	assert.Equal(t, "Charleston", doc.County)
	assert.True(t, doc.CaseSubmitted)
	assert.True(t, doc.PriorityFlag)
	require.NotNil(t, doc.CompositeScore)
	assert.Equal(t, 2.17, *doc.CompositeScore)
	assert.Equal(t, 9, doc.Turns)
}

func TestBuildDocument_UnscoredOutOfArea(t *testing.T) {
	s := models.NewSession("sess-2")
	s.OutOfArea = true
	s.EscalationRoute = models.RouteSelfService

	doc := BuildDocument(s)

	assert.True(t, doc.OutOfArea)
	assert.False(t, doc.CaseSubmitted)
	assert.False(t, doc.PriorityFlag)
	assert.Nil(t, doc.CompositeScore)
}

func TestBuildDocument_PriorityOverrideWithoutScoring(t *testing.T) {
	s := models.NewSession("sess-3")
	s.PriorityOverride = true
	s.EscalationRoute = models.RouteLiveAgent

	doc := BuildDocument(s)
	assert.True(t, doc.PriorityFlag)
	assert.Nil(t, doc.HousingScore)
}
