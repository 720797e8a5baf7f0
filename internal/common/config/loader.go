// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_REDIS_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in several locations so tests running from nested
// package directories still pick it up.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	// Resource directory API
	if cfg.APIs.ResourceDirectory.APIKey == "" {
		if val := os.Getenv("RESOURCE_DIRECTORY_API_KEY"); val != "" {
			cfg.APIs.ResourceDirectory.APIKey = val
		}
	}
	if cfg.APIs.ResourceDirectory.BaseURL == "" {
		if val := os.Getenv("RESOURCE_DIRECTORY_BASE_URL"); val != "" {
			cfg.APIs.ResourceDirectory.BaseURL = val
		}
	}

	// AWS
	if cfg.Integrations.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Integrations.AWS.Region = val
		}
	}
	if cfg.Integrations.AWS.CustomerProfiles.DomainName == "" {
		if val := os.Getenv("CUSTOMER_PROFILES_DOMAIN"); val != "" {
			cfg.Integrations.AWS.CustomerProfiles.DomainName = val
		}
	}
	if cfg.Tools.CaseSubmit.NotifyEmail == "" {
		if val := os.Getenv("CASE_NOTIFY_EMAIL"); val != "" {
			cfg.Tools.CaseSubmit.NotifyEmail = val
		}
	}

	// Database overrides
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Elasticsearch URL fallback
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Session defaults
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 120
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "intake:session:"
	}
	if cfg.Session.HistorySize == 0 {
		cfg.Session.HistorySize = 50
	}

	// Intake defaults
	if len(cfg.Intake.SupportedCounties) == 0 {
		cfg.Intake.SupportedCounties = []string{"Charleston", "Berkeley", "Dorchester"}
	}
	if cfg.Intake.OutOfAreaReferral == "" {
		cfg.Intake.OutOfAreaReferral = "Please dial 211 to reach resources in your area."
	}
	if cfg.Intake.MixedNeedOrder == "" {
		cfg.Intake.MixedNeedOrder = "referral_first"
	}
	if cfg.Intake.MaxCircleBackAsks == 0 {
		cfg.Intake.MaxCircleBackAsks = 1
	}
	if cfg.Intake.DefaultFollowupDay == 0 {
		cfg.Intake.DefaultFollowupDay = 7
	}

	// Scoring defaults
	if cfg.Scoring.AreaMedianIncome == 0 {
		cfg.Scoring.AreaMedianIncome = 4200
	}
	if cfg.Scoring.MixedBandLow == 0 {
		cfg.Scoring.MixedBandLow = 2.5
	}
	if cfg.Scoring.MixedBandHigh == 0 {
		cfg.Scoring.MixedBandHigh = 3.5
	}
	if cfg.Scoring.MaxChallengeCount == 0 {
		cfg.Scoring.MaxChallengeCount = 4
	}
	if cfg.Scoring.Tables.HousingBase == nil {
		cfg.Scoring.Tables = DefaultScoringTables()
	}

	// Escalation defaults, Monday through Friday 9-17 local time
	if cfg.Escalation.Timezone == "" {
		cfg.Escalation.Timezone = "America/New_York"
	}
	if cfg.Escalation.OpenHour == 0 && cfg.Escalation.CloseHour == 0 {
		cfg.Escalation.OpenHour = 9
		cfg.Escalation.CloseHour = 17
	}
	if len(cfg.Escalation.OpenDays) == 0 {
		cfg.Escalation.OpenDays = []int{1, 2, 3, 4, 5}
	}

	// Tool defaults
	if cfg.Tools.ExecutionBudget == 0 {
		cfg.Tools.ExecutionBudget = 30000
	}
	if cfg.Tools.Followup.MinDays == 0 {
		cfg.Tools.Followup.MinDays = 1
	}
	if cfg.Tools.Followup.MaxDays == 0 {
		cfg.Tools.Followup.MaxDays = 90
	}
	if cfg.Tools.Followup.DefaultDays == 0 {
		cfg.Tools.Followup.DefaultDays = 7
	}
	if cfg.Tools.CaseSubmit.ReferenceWidth == 0 {
		cfg.Tools.CaseSubmit.ReferenceWidth = 8
	}

	// Resource directory defaults
	if cfg.APIs.ResourceDirectory.Timeout == 0 {
		cfg.APIs.ResourceDirectory.Timeout = 10000
	}
	if cfg.APIs.ResourceDirectory.MaxResults == 0 {
		cfg.APIs.ResourceDirectory.MaxResults = 10
	}
	if cfg.APIs.ResourceDirectory.MaxPerPage == 0 {
		cfg.APIs.ResourceDirectory.MaxPerPage = 20
	}

	// Reporting defaults
	if cfg.Reporting.Index == "" {
		cfg.Reporting.Index = "intake-sessions"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Reporting.Enabled {
		if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required when reporting is enabled")
		}
	}

	if cfg.Intake.MixedNeedOrder != "referral_first" && cfg.Intake.MixedNeedOrder != "support_first" {
		return fmt.Errorf("intake.mixed_need_order must be referral_first or support_first")
	}

	if cfg.Escalation.OpenHour < 0 || cfg.Escalation.OpenHour > 23 ||
		cfg.Escalation.CloseHour < 1 || cfg.Escalation.CloseHour > 24 ||
		cfg.Escalation.OpenHour >= cfg.Escalation.CloseHour {
		return fmt.Errorf("escalation open/close hours out of range")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
