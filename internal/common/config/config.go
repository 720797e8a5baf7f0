// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Session      SessionConfig     `mapstructure:"session"`
	Intake       IntakeConfig      `mapstructure:"intake"`
	Scoring      ScoringConfig     `mapstructure:"scoring"`
	Escalation   EscalationConfig  `mapstructure:"escalation"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	APIs         APIsConfig        `mapstructure:"apis"`
	Tools        ToolsConfig       `mapstructure:"tools"`
	Reporting    ReportingConfig   `mapstructure:"reporting"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Session Configuration ---

// SessionConfig controls how conversation sessions are persisted.
type SessionConfig struct {
	TTLMinutes  int    `mapstructure:"ttl_minutes"`
	KeyPrefix   string `mapstructure:"key_prefix"`
	HistorySize int    `mapstructure:"history_size"`
}

// --- Intake Configuration ---

// IntakeConfig controls geography checks and field collection policy.
type IntakeConfig struct {
	SupportedCounties []string `mapstructure:"supported_counties"`
	OutOfAreaReferral string   `mapstructure:"out_of_area_referral"`
	// MixedNeedOrder decides which branch runs first when a client presents
	// more than one qualifying need. Either "referral_first" or "support_first".
	MixedNeedOrder     string `mapstructure:"mixed_need_order"`
	MaxCircleBackAsks  int    `mapstructure:"max_circle_back_asks"`
	DefaultFollowupDay int    `mapstructure:"default_followup_days"`
}

// IsSupportedCounty reports whether county is inside the service area.
// Matching is case-insensitive at the call site; the list stores canonical names.
func (i IntakeConfig) IsSupportedCounty(county string) bool {
	for _, c := range i.SupportedCounties {
		if c == county {
			return true
		}
	}
	return false
}

// --- Scoring Configuration ---

// ScoringConfig carries the tunable constants of the scoring formula,
// including every lookup table and breakpoint the engine consults.
type ScoringConfig struct {
	AreaMedianIncome  float64       `mapstructure:"area_median_income"` // monthly
	MixedBandLow      float64       `mapstructure:"mixed_band_low"`
	MixedBandHigh     float64       `mapstructure:"mixed_band_high"`
	MaxChallengeCount int           `mapstructure:"max_challenge_count"`
	Tables            ScoringTables `mapstructure:"tables"`
}

// ScoreBand pairs a ratio breakpoint with the score or adjustment applied
// when the observed ratio crosses it. Whether "crosses" means strictly above
// or strictly below is fixed per table and documented on the field holding
// the bands.
type ScoreBand struct {
	Breakpoint float64 `mapstructure:"breakpoint"`
	Value      float64 `mapstructure:"value"`
}

// ScoringTables holds the lookup tables and breakpoint ladders behind the
// scoring formula. The block is overridden wholesale: when the configuration
// omits it, DefaultScoringTables fills in the calibrated values.
type ScoringTables struct {
	HousingBase        map[string]float64 `mapstructure:"housing_base"`
	HousingBaseDefault float64            `mapstructure:"housing_base_default"`
	// CostBurdenBands run against housing cost over income; the first band
	// whose breakpoint the ratio strictly exceeds wins.
	CostBurdenBands     []ScoreBand `mapstructure:"cost_burden_bands"`
	CostBurdenDefault   float64     `mapstructure:"cost_burden_default"`
	ChallengeAdjustment float64     `mapstructure:"challenge_adjustment"` // per reported challenge
	// PrioritySituations and PriorityChallenges force the priority trigger
	// when they appear in the client's answers.
	PrioritySituations []string `mapstructure:"priority_situations"`
	PriorityChallenges []string `mapstructure:"priority_challenges"`

	EmploymentBase        map[string]float64 `mapstructure:"employment_base"`
	EmploymentBaseDefault float64            `mapstructure:"employment_base_default"`
	BenefitsAdjustment    float64            `mapstructure:"benefits_adjustment"`
	NoBenefitsAdjustment  float64            `mapstructure:"no_benefits_adjustment"`
	// IncomeBands run against income over area median; the first band whose
	// breakpoint the ratio is strictly below wins.
	IncomeBands        []ScoreBand `mapstructure:"income_bands"`
	IncomeBandsDefault float64     `mapstructure:"income_bands_default"`

	// ExpenseBands run against expenses over income, exceed-style like
	// CostBurdenBands. ZeroIncomeExpenseRatio stands in for the ratio when
	// the household reports no income.
	ExpenseBands           []ScoreBand `mapstructure:"expense_bands"`
	ExpenseBandsDefault    float64     `mapstructure:"expense_bands_default"`
	ZeroIncomeExpenseRatio float64     `mapstructure:"zero_income_expense_ratio"`
	// SavingsBands run below-style against a positive savings rate; a rate
	// of zero or less takes NoSavingsAdjustment instead.
	NoSavingsAdjustment float64            `mapstructure:"no_savings_adjustment"`
	SavingsBands        []ScoreBand        `mapstructure:"savings_bands"`
	SavingsBandsDefault float64            `mapstructure:"savings_bands_default"`
	FICOAdjust          map[string]float64 `mapstructure:"fico_adjust"`
}

// DefaultScoringTables returns the calibrated scoring tables.
func DefaultScoringTables() ScoringTables {
	return ScoringTables{
		HousingBase: map[string]float64{
			"homeless":               1,
			"shelter":                1,
			"couch_surfing":          2,
			"temporary":              2,
			"transitional":           2,
			"renting_unstable":       3,
			"renting_month_to_month": 3,
			"renting_stable":         4,
			"owner_with_mortgage":    4,
			"owner":                  5,
			"owner_no_mortgage":      5,
		},
		HousingBaseDefault: 3,
		CostBurdenBands: []ScoreBand{
			{Breakpoint: 0.50, Value: -2},
			{Breakpoint: 0.40, Value: -1},
			{Breakpoint: 0.20, Value: 0},
		},
		CostBurdenDefault:   1,
		ChallengeAdjustment: -0.5,
		PrioritySituations:  []string{"homeless"},
		PriorityChallenges:  []string{"eviction_notice", "shutoff_notice", "homeless"},

		EmploymentBase: map[string]float64{
			"unable_to_work":           1,
			"unemployed":               1,
			"gig_work":                 2,
			"seasonal":                 2,
			"part_time":                3,
			"full_time_below_standard": 3,
			"self_employed":            3,
			"student":                  3,
			"retired":                  4,
			"full_time":                4,
			"full_time_above_standard": 5,
		},
		EmploymentBaseDefault: 3,
		BenefitsAdjustment:    0.5,
		NoBenefitsAdjustment:  -0.5,
		IncomeBands: []ScoreBand{
			{Breakpoint: 0.50, Value: -1},
			{Breakpoint: 0.80, Value: 0},
		},
		IncomeBandsDefault: 0.5,

		ExpenseBands: []ScoreBand{
			{Breakpoint: 1.00, Value: 1},
			{Breakpoint: 0.90, Value: 2},
			{Breakpoint: 0.70, Value: 3},
			{Breakpoint: 0.50, Value: 4},
		},
		ExpenseBandsDefault:    5,
		ZeroIncomeExpenseRatio: 1.5,
		NoSavingsAdjustment:    -1,
		SavingsBands: []ScoreBand{
			{Breakpoint: 0.03, Value: -0.5},
			{Breakpoint: 0.10, Value: 0},
			{Breakpoint: 0.20, Value: 0.5},
		},
		SavingsBandsDefault: 1,
		FICOAdjust: map[string]float64{
			"below_580": -1,
			"580-669":   -0.5,
			"670-739":   0,
			"740-799":   0.5,
			"800+":      1,
			"unknown":   0,
		},
	}
}

// --- Escalation Configuration ---

// EscalationConfig defines operating hours and routing targets.
type EscalationConfig struct {
	Timezone      string `mapstructure:"timezone"`
	OpenHour      int    `mapstructure:"open_hour"`  // inclusive, 24h clock
	CloseHour     int    `mapstructure:"close_hour"` // exclusive
	OpenDays      []int  `mapstructure:"open_days"`  // time.Weekday values
	WarmLinePhone string `mapstructure:"warm_line_phone"`
	CrisisLine    string `mapstructure:"crisis_line"`
}

// IsOpenDay reports whether weekday (0=Sunday) is a staffed day.
func (e EscalationConfig) IsOpenDay(weekday int) bool {
	for _, d := range e.OpenDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// IntegrationConfig holds settings for AWS and other external services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
		CustomerProfiles struct {
			Enabled    bool   `mapstructure:"enabled"`
			DomainName string `mapstructure:"domain_name"`
		} `mapstructure:"customer_profiles"`
	} `mapstructure:"aws"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	ResourceDirectory struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxResults int    `mapstructure:"max_results"`
		MaxPerPage int    `mapstructure:"max_per_page"`
	} `mapstructure:"resource_directory"`
}

// ToolsConfig holds per-tool settings keyed by tool name.
type ToolsConfig struct {
	// ExecutionBudget caps any single adapter call, in milliseconds.
	ExecutionBudget int `mapstructure:"execution_budget"`

	CaseSubmit struct {
		NotifyEmail    string `mapstructure:"notify_email"`
		ProgramName    string `mapstructure:"program_name"`
		ReferenceWidth int    `mapstructure:"reference_width"`
	} `mapstructure:"case_submit"`
	Followup struct {
		MinDays     int `mapstructure:"min_days"`
		MaxDays     int `mapstructure:"max_days"`
		DefaultDays int `mapstructure:"default_days"`
	} `mapstructure:"followup"`
}

// ReportingConfig holds settings for the completed-session reporting index.
type ReportingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
