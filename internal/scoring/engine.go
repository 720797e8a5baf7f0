// Package scoring computes the three-domain self-sufficiency score. The
// engine is a pure function over its input: no clock, no randomness, no I/O.
package scoring

import (
	"fmt"
	"math"

	"intake-orchestrator/internal/common/config"
	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/models"
)

// Engine scores intake answers. Every lookup table and breakpoint comes from
// configuration; the engine holds no numeric literals of its own. Safe for
// concurrent use.
type Engine struct {
	cfg config.ScoringConfig
}

func NewEngine(cfg config.ScoringConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Score validates the input and computes the three domain scores, composite,
// priority flag, and recommended path. Running it twice on the same input
// yields identical output.
func (e *Engine) Score(in models.ScoringInput) (*models.ScoringOutput, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}

	housing, priorityTrigger := e.scoreHousing(in)
	employment := e.scoreEmployment(in)
	financial := e.scoreFinancial(in)

	composite := round2((housing + employment + financial) / 3)

	priority := housing == 1 || employment == 1 || financial == 1 || priorityTrigger

	var path models.Path
	switch {
	case priority || composite < e.cfg.MixedBandLow:
		path = models.PathDirectSupport
	case composite <= e.cfg.MixedBandHigh:
		path = models.PathMixed
	default:
		path = models.PathReferral
	}

	return &models.ScoringOutput{
		HousingScore:     housing,
		EmploymentScore:  employment,
		FinancialScore:   financial,
		CompositeScore:   composite,
		PriorityFlag:     priority,
		RecommendedPath:  path,
		InputFingerprint: in.Fingerprint(),
	}, nil
}

func (e *Engine) validate(in models.ScoringInput) error {
	if in.HousingSituation == "" {
		return stderrors.NewInvalidScoringInputError("housing_situation is required")
	}
	if in.EmploymentStatus == "" {
		return stderrors.NewInvalidScoringInputError("employment_status is required")
	}
	if in.MonthlyIncome < 0 {
		return stderrors.NewInvalidScoringInputError("monthly_income must be non-negative")
	}
	if in.MonthlyHousingCost < 0 {
		return stderrors.NewInvalidScoringInputError("monthly_housing_cost must be non-negative")
	}
	if in.MonthlyExpenses != nil && *in.MonthlyExpenses < 0 {
		return stderrors.NewInvalidScoringInputError("monthly_expenses must be non-negative")
	}
	if in.FICORange != "" {
		if _, ok := e.cfg.Tables.FICOAdjust[in.FICORange]; !ok {
			return stderrors.NewInvalidScoringInputError(fmt.Sprintf("unrecognized fico_range %q", in.FICORange))
		}
	}
	return nil
}

// scoreHousing returns the housing score and whether a priority trigger fired.
func (e *Engine) scoreHousing(in models.ScoringInput) (float64, bool) {
	t := e.cfg.Tables

	base, ok := t.HousingBase[in.HousingSituation]
	if !ok {
		base = t.HousingBaseDefault
	}

	// Housing-to-income ratio adjustment. Zero income is treated as a
	// fully cost-burdened household.
	ratio := 1.0
	if in.MonthlyIncome > 0 {
		ratio = in.MonthlyHousingCost / in.MonthlyIncome
	}
	ratioAdj := bandAbove(t.CostBurdenBands, t.CostBurdenDefault, ratio)

	challengeCount := len(in.HousingChallenges)
	if challengeCount > e.cfg.MaxChallengeCount {
		challengeCount = e.cfg.MaxChallengeCount
	}
	challengeAdj := t.ChallengeAdjustment * float64(challengeCount)

	trigger := contains(t.PrioritySituations, in.HousingSituation)
	for _, c := range in.HousingChallenges {
		if contains(t.PriorityChallenges, c) {
			trigger = true
			break
		}
	}

	return clamp(base + ratioAdj + challengeAdj), trigger
}

func (e *Engine) scoreEmployment(in models.ScoringInput) float64 {
	t := e.cfg.Tables

	base, ok := t.EmploymentBase[in.EmploymentStatus]
	if !ok {
		base = t.EmploymentBaseDefault
	}

	benefitsAdj := t.NoBenefitsAdjustment
	if in.HasBenefits != nil && *in.HasBenefits {
		benefitsAdj = t.BenefitsAdjustment
	}

	// Zero income evaluates at ratio zero, which falls in the lowest band.
	incomeRatio := 0.0
	if in.MonthlyIncome > 0 {
		incomeRatio = in.MonthlyIncome / e.cfg.AreaMedianIncome
	}
	incomeAdj := bandBelow(t.IncomeBands, t.IncomeBandsDefault, incomeRatio)

	return clamp(base + benefitsAdj + incomeAdj)
}

func (e *Engine) scoreFinancial(in models.ScoringInput) float64 {
	t := e.cfg.Tables

	expenses := 0.0
	if in.MonthlyExpenses != nil {
		expenses = *in.MonthlyExpenses
	}

	expenseRatio := t.ZeroIncomeExpenseRatio
	if in.MonthlyIncome > 0 {
		expenseRatio = expenses / in.MonthlyIncome
	}
	base := bandAbove(t.ExpenseBands, t.ExpenseBandsDefault, expenseRatio)

	savingsRate := 0.0
	if in.SavingsRate != nil {
		savingsRate = *in.SavingsRate
	}
	savingsAdj := t.NoSavingsAdjustment
	if savingsRate > 0 {
		savingsAdj = bandBelow(t.SavingsBands, t.SavingsBandsDefault, savingsRate)
	}

	fico := in.FICORange
	if fico == "" {
		fico = "unknown"
	}
	ficoAdj := t.FICOAdjust[fico]

	return clamp(base + savingsAdj + ficoAdj)
}

// bandAbove returns the value of the first band whose breakpoint the ratio
// strictly exceeds, or def when none does. Bands are ordered high to low.
func bandAbove(bands []config.ScoreBand, def, ratio float64) float64 {
	for _, b := range bands {
		if ratio > b.Breakpoint {
			return b.Value
		}
	}
	return def
}

// bandBelow is the mirror: first band whose breakpoint the ratio is strictly
// below, ordered low to high.
func bandBelow(bands []config.ScoreBand, def, ratio float64) float64 {
	for _, b := range bands {
		if ratio < b.Breakpoint {
			return b.Value
		}
	}
	return def
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	v = round2(v)
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
