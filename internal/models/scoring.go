package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ScoringInput carries the answers the scoring engine consumes. The four
// required fields must all have provenance answered before scoring runs;
// the refinement fields sharpen the result when present.
type ScoringInput struct {
	HousingSituation   string  `json:"housing_situation"`
	MonthlyIncome      float64 `json:"monthly_income"`
	MonthlyHousingCost float64 `json:"monthly_housing_cost"`
	EmploymentStatus   string  `json:"employment_status"`

	MonthlyExpenses   *float64 `json:"monthly_expenses,omitempty"`
	SavingsRate       *float64 `json:"savings_rate,omitempty"`
	FICORange         string   `json:"fico_range,omitempty"`
	HasBenefits       *bool    `json:"has_benefits,omitempty"`
	HousingChallenges []string `json:"housing_challenges,omitempty"`
}

// Fingerprint returns a stable digest of the input, used to detect repeat
// scoring requests for an unchanged answer set.
func (in ScoringInput) Fingerprint() string {
	parts := []string{
		"housing_situation=" + in.HousingSituation,
		"monthly_income=" + strconv.FormatFloat(in.MonthlyIncome, 'f', -1, 64),
		"monthly_housing_cost=" + strconv.FormatFloat(in.MonthlyHousingCost, 'f', -1, 64),
		"employment_status=" + in.EmploymentStatus,
	}
	if in.MonthlyExpenses != nil {
		parts = append(parts, "monthly_expenses="+strconv.FormatFloat(*in.MonthlyExpenses, 'f', -1, 64))
	}
	if in.SavingsRate != nil {
		parts = append(parts, "savings_rate="+strconv.FormatFloat(*in.SavingsRate, 'f', -1, 64))
	}
	if in.FICORange != "" {
		parts = append(parts, "fico_range="+in.FICORange)
	}
	if in.HasBenefits != nil {
		parts = append(parts, "has_benefits="+strconv.FormatBool(*in.HasBenefits))
	}
	if len(in.HousingChallenges) > 0 {
		challenges := append([]string(nil), in.HousingChallenges...)
		sort.Strings(challenges)
		parts = append(parts, "housing_challenges="+strings.Join(challenges, "|"))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(sum[:])
}

// ScoringOutput is created once per scoring invocation and never mutated,
// only superseded by a fresh run.
type ScoringOutput struct {
	HousingScore    float64 `json:"housing_score"`
	EmploymentScore float64 `json:"employment_score"`
	FinancialScore  float64 `json:"financial_score"`
	CompositeScore  float64 `json:"composite_score"`
	PriorityFlag    bool    `json:"priority_flag"`
	RecommendedPath Path    `json:"recommended_path"`

	// InputFingerprint identifies the answer set this result was computed
	// from, so a repeat request with identical answers returns the cache.
	InputFingerprint string `json:"input_fingerprint"`
}

// ToAttributes flattens the output for the string-typed session store.
func (o *ScoringOutput) ToAttributes() map[string]string {
	return map[string]string{
		"housingScore":     strconv.FormatFloat(o.HousingScore, 'f', 2, 64),
		"employmentScore":  strconv.FormatFloat(o.EmploymentScore, 'f', 2, 64),
		"financialScore":   strconv.FormatFloat(o.FinancialScore, 'f', 2, 64),
		"compositeScore":   strconv.FormatFloat(o.CompositeScore, 'f', 2, 64),
		"priorityFlag":     strconv.FormatBool(o.PriorityFlag),
		"recommendedPath":  string(o.RecommendedPath),
		"inputFingerprint": o.InputFingerprint,
	}
}

// ScoringOutputFromAttributes rebuilds the output from its flattened form.
func ScoringOutputFromAttributes(attrs map[string]string) (*ScoringOutput, error) {
	out := &ScoringOutput{
		RecommendedPath:  Path(attrs["recommendedPath"]),
		InputFingerprint: attrs["inputFingerprint"],
		PriorityFlag:     attrs["priorityFlag"] == "true",
	}

	var err error
	if out.HousingScore, err = strconv.ParseFloat(attrs["housingScore"], 64); err != nil {
		return nil, fmt.Errorf("bad housingScore: %w", err)
	}
	if out.EmploymentScore, err = strconv.ParseFloat(attrs["employmentScore"], 64); err != nil {
		return nil, fmt.Errorf("bad employmentScore: %w", err)
	}
	if out.FinancialScore, err = strconv.ParseFloat(attrs["financialScore"], 64); err != nil {
		return nil, fmt.Errorf("bad financialScore: %w", err)
	}
	if out.CompositeScore, err = strconv.ParseFloat(attrs["compositeScore"], 64); err != nil {
		return nil, fmt.Errorf("bad compositeScore: %w", err)
	}

	return out, nil
}
