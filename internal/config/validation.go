package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("storagedriver", validateStorageDriver)
	_ = v.RegisterValidation("exportformat", validateExportFormat)
	_ = v.RegisterValidation("cron", validateCron)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateStorageDriver(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case DriverMemory, DriverSQLite, DriverPostgres:
		return true
	default:
		return false
	}
}

func validateExportFormat(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "csv", "json":
		return true
	default:
		return false
	}
}

// validateCron accepts standard five-field cron expressions and descriptors
func validateCron(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Replay.StartDate != "" && cfg.Replay.EndDate != "" {
		start, end, err := cfg.ReplayRange()
		if err != nil {
			return err
		}
		if end.Before(start) {
			return fmt.Errorf("replay start_date must not be after end_date")
		}
	}

	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("postgres storage requires database host, name and user")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	case DriverSQLite:
		if cfg.SQLite.Path == "" {
			return fmt.Errorf("sqlite storage requires sqlite.path")
		}
	}

	if cfg.Schedule.Enabled && cfg.Schedule.DailySync == "" {
		return fmt.Errorf("schedule enabled but daily_sync is empty")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "storagedriver":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: memory, sqlite, postgres\n", field)
		case "exportformat":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: csv, json\n", field)
		case "cron":
			errMsg += fmt.Sprintf("- Field '%s' is not a valid cron expression: '%v'\n", field, value)
		case "datetime":
			errMsg += fmt.Sprintf("- Field '%s' must be a YYYY-MM-DD date, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Storage.Driver == DriverMemory {
			return fmt.Errorf("production environment requires persistent storage")
		}
		if cfg.Storage.Driver == DriverPostgres && isTestCredential(cfg.Database.User) {
			return fmt.Errorf("production environment should not use test database credentials")
		}
	}
	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}
