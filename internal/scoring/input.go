// internal/scoring/input.go
package scoring

import (
	"fmt"
	"strconv"
	"strings"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"
)

// InputFromSession assembles a scoring input from the session's answered
// fields. Missing or unparseable required answers are rejected outright,
// never defaulted; absent refinement fields are simply omitted.
func InputFromSession(s *models.Session) (models.ScoringInput, error) {
	var in models.ScoringInput

	if !s.Answered(intake.ScoringFieldNames...) {
		return in, stderrors.NewInvalidScoringInputError(
			"all four required scoring fields must be answered before scoring")
	}

	in.HousingSituation = s.FieldValue(intake.FieldHousingSituation)
	in.EmploymentStatus = s.FieldValue(intake.FieldEmploymentStatus)

	income, err := parseAmount(s.FieldValue(intake.FieldMonthlyIncome))
	if err != nil {
		return in, stderrors.NewInvalidScoringInputError(fmt.Sprintf("monthly_income: %v", err))
	}
	in.MonthlyIncome = income

	cost, err := parseAmount(s.FieldValue(intake.FieldMonthlyHousingCost))
	if err != nil {
		return in, stderrors.NewInvalidScoringInputError(fmt.Sprintf("monthly_housing_cost: %v", err))
	}
	in.MonthlyHousingCost = cost

	if v := s.FieldValue(intake.FieldMonthlyExpenses); v != "" {
		expenses, err := parseAmount(v)
		if err != nil {
			return in, stderrors.NewInvalidScoringInputError(fmt.Sprintf("monthly_expenses: %v", err))
		}
		in.MonthlyExpenses = &expenses
	}
	if v := s.FieldValue(intake.FieldSavingsRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, stderrors.NewInvalidScoringInputError(fmt.Sprintf("savings_rate: %v", err))
		}
		in.SavingsRate = &rate
	}
	if v := s.FieldValue(intake.FieldFICORange); v != "" {
		in.FICORange = v
	}
	if v := s.FieldValue(intake.FieldHasBenefits); v != "" {
		benefits := v == "true" || v == "yes"
		in.HasBenefits = &benefits
	}
	if v := s.FieldValue(intake.FieldHousingChallenges); v != "" {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				in.HousingChallenges = append(in.HousingChallenges, c)
			}
		}
	}

	return in, nil
}

// parseAmount reads a dollar amount, tolerating currency formatting.
func parseAmount(v string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return amount, nil
}
