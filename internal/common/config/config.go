// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Onboarding OnboardingConfig `mapstructure:"onboarding"`
	Leads      LeadsConfig      `mapstructure:"leads"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig holds settings for the remote technician backend.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// OnboardingConfig holds settings for the onboarding workflow engine.
type OnboardingConfig struct {
	OTPLength      int    `mapstructure:"otp_length"`
	OTPTTLMinutes  int    `mapstructure:"otp_ttl_minutes"`
	OTPMaxAttempts int    `mapstructure:"otp_max_attempts"`
	OTPTestCode    string `mapstructure:"otp_test_code"` // fixed code for test builds; empty means random
	DocRulesPath   string `mapstructure:"doc_rules_path"` // empty means built-in table
}

// LeadsConfig holds settings for the pending-orders poller.
type LeadsConfig struct {
	PollInterval int    `mapstructure:"poll_interval"` // milliseconds
	Category     string `mapstructure:"category"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Validate checks the backend section on its own, for callers that build
// a Config by hand (tests, tools).
func (b BackendConfig) Validate() error {
	if b.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if b.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	return nil
}
