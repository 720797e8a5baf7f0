// Package intake maps declared needs to the fields that must be collected
// and tracks how each field was resolved.
package intake

import (
	"intake-orchestrator/internal/models"
)

// FieldKind groups intake fields by the decline policy that applies to them.
type FieldKind string

const (
	// KindIdentity fields name the client; required for case-managed needs.
	KindIdentity FieldKind = "identity"
	// KindGeographic fields locate the client; declining one after a
	// re-prompt downgrades the session to anonymous resource search.
	KindGeographic FieldKind = "geographic"
	// KindContact fields enable follow-up; a declined contact field may be
	// revisited once if the client later asks for follow-up.
	KindContact FieldKind = "contact"
	// KindScoring fields feed the scoring engine.
	KindScoring FieldKind = "scoring"
	// KindEligibility fields only sharpen matching; declining one merely
	// suppresses the corresponding flag.
	KindEligibility FieldKind = "eligibility"
)

// FieldSpec is one field a need requires, in ask order.
type FieldSpec struct {
	Name      string
	Kind      FieldKind
	Essential bool
}

// Record maps a need subcategory to its resolution path and required fields.
type Record struct {
	Category    string
	Subcategory string
	Path        models.Path
	Fields      []FieldSpec
}

// Canonical field names shared across needs.
const (
	FieldFirstName          = "first_name"
	FieldLastName           = "last_name"
	FieldZipCode            = "zip_code"
	FieldCounty             = "county"
	FieldContactInfo        = "contact_info"
	FieldContactMethod      = "contact_method"
	FieldHousingSituation   = "housing_situation"
	FieldMonthlyIncome      = "monthly_income"
	FieldMonthlyHousingCost = "monthly_housing_cost"
	FieldEmploymentStatus   = "employment_status"
	FieldMonthlyExpenses    = "monthly_expenses"
	FieldSavingsRate        = "savings_rate"
	FieldFICORange          = "fico_range"
	FieldHasBenefits        = "has_benefits"
	FieldHousingChallenges  = "housing_challenges"
)

// ScoringFieldNames are the four answers scoring cannot run without.
var ScoringFieldNames = []string{
	FieldHousingSituation,
	FieldMonthlyIncome,
	FieldMonthlyHousingCost,
	FieldEmploymentStatus,
}

func identityFields() []FieldSpec {
	return []FieldSpec{
		{FieldFirstName, KindIdentity, true},
		{FieldLastName, KindIdentity, true},
	}
}

func geographyFields() []FieldSpec {
	return []FieldSpec{
		{FieldZipCode, KindGeographic, true},
		{FieldCounty, KindGeographic, true},
	}
}

func contactFields() []FieldSpec {
	return []FieldSpec{
		{FieldContactInfo, KindContact, false},
		{FieldContactMethod, KindContact, false},
	}
}

func scoringFields() []FieldSpec {
	return []FieldSpec{
		{FieldHousingSituation, KindScoring, true},
		{FieldMonthlyIncome, KindScoring, true},
		{FieldMonthlyHousingCost, KindScoring, true},
		{FieldEmploymentStatus, KindScoring, true},
		{FieldMonthlyExpenses, KindScoring, false},
		{FieldSavingsRate, KindScoring, false},
		{FieldFICORange, KindScoring, false},
		{FieldHasBenefits, KindScoring, false},
		{FieldHousingChallenges, KindScoring, false},
	}
}

func eligibility(names ...string) []FieldSpec {
	specs := make([]FieldSpec, len(names))
	for i, n := range names {
		specs[i] = FieldSpec{n, KindEligibility, false}
	}
	return specs
}

func concat(sets ...[]FieldSpec) []FieldSpec {
	var out []FieldSpec
	for _, set := range sets {
		out = append(out, set...)
	}
	return out
}

// directSupport needs run the full intake including scoring.
func directSupport(category, subcategory string, flags ...string) Record {
	return Record{
		Category:    category,
		Subcategory: subcategory,
		Path:        models.PathDirectSupport,
		Fields:      concat(identityFields(), geographyFields(), scoringFields(), eligibility(flags...), contactFields()),
	}
}

// referral needs only require enough to match community resources.
func referral(category, subcategory string, flags ...string) Record {
	return Record{
		Category:    category,
		Subcategory: subcategory,
		Path:        models.PathReferral,
		Fields:      concat(geographyFields(), eligibility(flags...), contactFields()),
	}
}

// classificationTable is the static need taxonomy. Every subcategory maps to
// exactly one path; the table is data, not runtime state.
var classificationTable = buildTable(
	// Housing
	directSupport("housing", "rent_assistance", "household_size"),
	directSupport("housing", "mortgage_assistance", "household_size"),
	directSupport("housing", "eviction_prevention", "household_size"),
	referral("housing", "emergency_shelter", "household_size", "has_children"),
	referral("housing", "transitional_housing", "household_size"),
	referral("housing", "home_repairs", "home_ownership"),
	referral("housing", "weatherization", "home_ownership"),
	referral("housing", "first_time_homebuyer"),

	// Utilities
	directSupport("utilities", "electric_bill"),
	directSupport("utilities", "gas_bill"),
	directSupport("utilities", "water_bill"),
	directSupport("utilities", "utility_shutoff"),
	referral("utilities", "internet_assistance"),

	// Food
	referral("food", "food_pantry", "household_size"),
	referral("food", "snap_application", "household_size"),
	referral("food", "meal_delivery", "age_range", "disability_status"),
	referral("food", "wic_support", "has_children"),

	// Employment
	referral("employment", "job_search"),
	referral("employment", "job_training"),
	referral("employment", "resume_help"),
	directSupport("employment", "career_counseling"),
	referral("employment", "work_clothing"),
	directSupport("employment", "transportation_to_work"),

	// Financial
	directSupport("financial", "budgeting_counseling"),
	directSupport("financial", "debt_management"),
	directSupport("financial", "credit_repair"),
	referral("financial", "tax_preparation"),
	referral("financial", "banking_access"),
	directSupport("financial", "emergency_cash"),

	// Healthcare
	directSupport("healthcare", "medical_bills"),
	referral("healthcare", "prescription_assistance", "age_range"),
	referral("healthcare", "mental_health"),
	referral("healthcare", "substance_abuse"),
	referral("healthcare", "dental_care"),

	// Childcare and family
	referral("childcare_family", "childcare_subsidy", "has_children", "household_size"),
	referral("childcare_family", "parenting_support", "has_children"),
	referral("childcare_family", "diapers_supplies", "has_children"),
	referral("childcare_family", "after_school_programs", "has_children"),

	// Transportation
	directSupport("transportation", "car_repair"),
	directSupport("transportation", "bus_passes"),
	directSupport("transportation", "gas_vouchers"),

	// Education
	referral("education", "ged_programs", "age_range"),
	referral("education", "adult_education"),
	referral("education", "financial_aid"),

	// Seniors and veterans
	referral("seniors_veterans", "senior_services", "age_range"),
	referral("seniors_veterans", "veteran_benefits", "military_status"),
	referral("seniors_veterans", "caregiver_support", "age_range"),
)

func buildTable(records ...Record) map[string]Record {
	table := make(map[string]Record, len(records))
	for _, r := range records {
		table[r.Subcategory] = r
	}
	return table
}

// Classify looks up the record for a need subcategory.
func Classify(subcategory string) (Record, bool) {
	r, ok := classificationTable[subcategory]
	return r, ok
}

// Subcategories lists every known need subcategory.
func Subcategories() []string {
	out := make([]string, 0, len(classificationTable))
	for k := range classificationTable {
		out = append(out, k)
	}
	return out
}
