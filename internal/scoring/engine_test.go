// internal/scoring/engine_test.go
package scoring

import (
	"testing"

	"intake-orchestrator/internal/common/config"
	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		AreaMedianIncome:  4200,
		MixedBandLow:      2.5,
		MixedBandHigh:     3.5,
		MaxChallengeCount: 4,
		Tables:            config.DefaultScoringTables(),
	}
}

func testEngine() *Engine {
	return NewEngine(testScoringConfig())
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// ==========================
// Boundary Cases
// ==========================

func TestScore_CrisisBoundary(t *testing.T) {
	engine := testEngine()

	out, err := engine.Score(models.ScoringInput{
		HousingSituation:   "homeless",
		MonthlyIncome:      0,
		MonthlyHousingCost: 0,
		EmploymentStatus:   "unemployed",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1.0, out.HousingScore)
	assert.Equal(t, 1.0, out.EmploymentScore)
	assert.LessOrEqual(t, out.CompositeScore, 1.0)
	assert.True(t, out.PriorityFlag)
	assert.Equal(t, models.PathDirectSupport, out.RecommendedPath)
}

func TestScore_ReferralBoundary(t *testing.T) {
	engine := testEngine()

	out, err := engine.Score(models.ScoringInput{
		HousingSituation:   "owner",
		MonthlyIncome:      5000,
		MonthlyHousingCost: 1200,
		EmploymentStatus:   "full_time",
		HasBenefits:        boolPtr(true),
	})

	assert.NoError(t, err)
	assert.Greater(t, out.CompositeScore, 3.5)
	assert.False(t, out.PriorityFlag)
	assert.Equal(t, models.PathReferral, out.RecommendedPath)
}

func TestScore_Deterministic(t *testing.T) {
	engine := testEngine()

	input := models.ScoringInput{
		HousingSituation:   "renting_unstable",
		MonthlyIncome:      2200,
		MonthlyHousingCost: 950,
		EmploymentStatus:   "part_time",
		MonthlyExpenses:    floatPtr(2100),
		SavingsRate:        floatPtr(0.02),
		FICORange:          "580-669",
		HousingChallenges:  []string{"behind_on_rent"},
	}

	first, err := engine.Score(input)
	assert.NoError(t, err)
	second, err := engine.Score(input)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

// ==========================
// Housing Domain
// ==========================

func TestScore_HousingRatioBreakpoints(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name     string
		cost     float64
		expected float64
	}{
		{"over half of income", 501, 2.0},
		{"cost burdened", 450, 3.0},
		{"moderate burden", 350, 4.0},
		{"affordable", 200, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := engine.Score(models.ScoringInput{
				HousingSituation:   "renting_stable",
				MonthlyIncome:      1000,
				MonthlyHousingCost: tt.cost,
				EmploymentStatus:   "full_time",
			})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out.HousingScore)
		})
	}
}

func TestScore_TablesComeFromConfig(t *testing.T) {
	// Recalibrated tables must change the outcome: the same answers that
	// score as a referral under the defaults become a priority case here.
	cfg := testScoringConfig()
	cfg.Tables.HousingBase = map[string]float64{"owner": 2}
	cfg.Tables.HousingBaseDefault = 2
	cfg.Tables.CostBurdenBands = []config.ScoreBand{{Breakpoint: 0.10, Value: -2}}
	cfg.Tables.CostBurdenDefault = 0
	engine := NewEngine(cfg)

	out, err := engine.Score(models.ScoringInput{
		HousingSituation:   "owner",
		MonthlyIncome:      5000,
		MonthlyHousingCost: 1200,
		EmploymentStatus:   "full_time",
		HasBenefits:        boolPtr(true),
	})

	assert.NoError(t, err)
	assert.Equal(t, 1.0, out.HousingScore)
	assert.True(t, out.PriorityFlag)
	assert.Equal(t, models.PathDirectSupport, out.RecommendedPath)
}

func TestScore_ChallengePenaltyCapped(t *testing.T) {
	engine := testEngine()

	out, err := engine.Score(models.ScoringInput{
		HousingSituation:   "renting_stable",
		MonthlyIncome:      1000,
		MonthlyHousingCost: 200,
		EmploymentStatus:   "full_time",
		HousingChallenges:  []string{"behind_on_rent", "repairs_needed", "overcrowding", "unsafe_conditions", "landlord_dispute"},
	})

	assert.NoError(t, err)
	// base 4 + ratio 1 - capped penalty 2
	assert.Equal(t, 3.0, out.HousingScore)
	assert.False(t, out.PriorityFlag)
}

func TestScore_PriorityChallengeOverridesComposite(t *testing.T) {
	engine := testEngine()

	out, err := engine.Score(models.ScoringInput{
		HousingSituation:   "renting_stable",
		MonthlyIncome:      5000,
		MonthlyHousingCost: 1000,
		EmploymentStatus:   "full_time",
		HasBenefits:        boolPtr(true),
		HousingChallenges:  []string{"eviction_notice"},
	})

	assert.NoError(t, err)
	assert.True(t, out.PriorityFlag)
	assert.Equal(t, models.PathDirectSupport, out.RecommendedPath)
	assert.Greater(t, out.CompositeScore, 3.5)
}

// ==========================
// Employment Domain
// ==========================

func TestScore_EmploymentAdjustments(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name     string
		status   string
		income   float64
		benefits *bool
		expected float64
	}{
		{"part time low income no benefits", "part_time", 2000, nil, 1.5},
		{"part time low income with benefits", "part_time", 2000, boolPtr(true), 2.5},
		{"full time near median", "full_time", 4000, boolPtr(true), 5.0},
		{"gig work mid income", "gig_work", 3000, nil, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := engine.Score(models.ScoringInput{
				HousingSituation:   "renting_stable",
				MonthlyIncome:      tt.income,
				MonthlyHousingCost: 500,
				EmploymentStatus:   tt.status,
				HasBenefits:        tt.benefits,
			})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out.EmploymentScore)
		})
	}
}

// ==========================
// Financial Domain
// ==========================

func TestScore_FinancialAdjustments(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name     string
		expenses *float64
		savings  *float64
		fico     string
		expected float64
	}{
		{"balanced budget modest savings", floatPtr(2000), floatPtr(0.05), "670-739", 4.0},
		{"spending exceeds income", floatPtr(3500), nil, "", 1.0},
		{"strong saver good credit", floatPtr(1200), floatPtr(0.25), "800+", 5.0},
		{"thin margins weak credit", floatPtr(2800), floatPtr(0.01), "below_580", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := engine.Score(models.ScoringInput{
				HousingSituation:   "renting_stable",
				MonthlyIncome:      3000,
				MonthlyHousingCost: 900,
				EmploymentStatus:   "full_time",
				MonthlyExpenses:    tt.expenses,
				SavingsRate:        tt.savings,
				FICORange:          tt.fico,
			})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out.FinancialScore)
		})
	}
}

// ==========================
// Validation
// ==========================

func TestScore_InvalidInput(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name  string
		input models.ScoringInput
	}{
		{
			"missing housing situation",
			models.ScoringInput{EmploymentStatus: "full_time"},
		},
		{
			"missing employment status",
			models.ScoringInput{HousingSituation: "renting_stable"},
		},
		{
			"negative income",
			models.ScoringInput{HousingSituation: "renting_stable", EmploymentStatus: "full_time", MonthlyIncome: -1},
		},
		{
			"unrecognized fico range",
			models.ScoringInput{HousingSituation: "renting_stable", EmploymentStatus: "full_time", FICORange: "excellent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := engine.Score(tt.input)
			assert.Nil(t, out)
			assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeInvalidScoringInput))
		})
	}
}

func TestScore_MixedBand(t *testing.T) {
	engine := testEngine()

	// couch surfing with part-time work lands between the bands
	out, err := engine.Score(models.ScoringInput{
		HousingSituation:   "couch_surfing",
		MonthlyIncome:      2500,
		MonthlyHousingCost: 900,
		EmploymentStatus:   "part_time",
		HasBenefits:        boolPtr(true),
		MonthlyExpenses:    floatPtr(2000),
		SavingsRate:        floatPtr(0.05),
	})

	assert.NoError(t, err)
	assert.False(t, out.PriorityFlag)
	assert.GreaterOrEqual(t, out.CompositeScore, 2.5)
	assert.LessOrEqual(t, out.CompositeScore, 3.5)
	assert.Equal(t, models.PathMixed, out.RecommendedPath)
}
