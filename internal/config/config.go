/**
 * @description
 * This package handles the configuration management for the investment-service.
 * It uses the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/growvest/investment-service/internal/plans"
	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the investment-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort             string `mapstructure:"SERVER_PORT"`
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	RedisURL               string `mapstructure:"REDIS_URL"`
	RedisLockPrefix        string `mapstructure:"REDIS_LOCK_PREFIX"`
	RabbitMQURL            string `mapstructure:"RABBITMQ_URL"`
	AdminJWTSecret         string `mapstructure:"ADMIN_JWT_SECRET"`
	InternalAPIKey         string `mapstructure:"INTERNAL_API_KEY"`
	PlanRates              string `mapstructure:"PLAN_RATES"`
	AccrualSchedule        string `mapstructure:"ACCRUAL_JOB_SCHEDULE"`
	AccrualTimezone        string `mapstructure:"ACCRUAL_TIMEZONE"`
	AccrualStoreTimeout    int    `mapstructure:"ACCRUAL_STORE_TIMEOUT_SECONDS"`
	LifecycleAllowRedecide bool   `mapstructure:"LIFECYCLE_ALLOW_REDECIDE"`
}

// LoadConfig reads configuration from environment variables. It uses Viper to
// automatically bind environment variables to the Config struct.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_LOCK_PREFIX", "growvest:accrual_lock")
	// Fire at local midnight in the operating region.
	viper.SetDefault("ACCRUAL_JOB_SCHEDULE", "0 0 * * *")
	viper.SetDefault("ACCRUAL_TIMEZONE", "Asia/Karachi")
	viper.SetDefault("ACCRUAL_STORE_TIMEOUT_SECONDS", 10)
	viper.SetDefault("LIFECYCLE_ALLOW_REDECIDE", false)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal.
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_LOCK_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("ADMIN_JWT_SECRET")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("PLAN_RATES")
	_ = viper.BindEnv("ACCRUAL_JOB_SCHEDULE")
	_ = viper.BindEnv("ACCRUAL_TIMEZONE")
	_ = viper.BindEnv("ACCRUAL_STORE_TIMEOUT_SECONDS")
	_ = viper.BindEnv("LIFECYCLE_ALLOW_REDECIDE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if strings.TrimSpace(config.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL must be configured")
	}
	if config.AccrualStoreTimeout <= 0 {
		config.AccrualStoreTimeout = 10
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)

	return &config, nil
}

// PlanCatalogRates parses the PLAN_RATES setting into a rate map. An empty
// setting yields nil, which the plan catalog treats as "use built-in defaults".
func (c *Config) PlanCatalogRates() (map[string]int64, error) {
	return plans.ParseRates(c.PlanRates)
}

// AccrualLocation resolves the configured accrual timezone.
func (c *Config) AccrualLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.AccrualTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCRUAL_TIMEZONE %q: %w", c.AccrualTimezone, err)
	}
	return loc, nil
}

// StoreTimeout returns the per-call store timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.AccrualStoreTimeout) * time.Second
}
