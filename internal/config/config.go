// Package config provides configuration management for the matchup engine.
package config

import (
	"fmt"
	"time"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Rating     RatingConfig     `mapstructure:"rating" validate:"required"`
	Models     ModelsConfig     `mapstructure:"models" validate:"required"`
	DataSource DataSourceConfig `mapstructure:"data_source" validate:"required"`
	Replay     ReplayConfig     `mapstructure:"replay"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,storagedriver"`
}

// DatabaseConfig represents PostgreSQL connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// SQLiteConfig represents the embedded database file
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RatingConfig holds the Weng-Lin parameters
type RatingConfig struct {
	InitialMean          float64 `mapstructure:"initial_mean" validate:"gt=0"`
	InitialUncertainty   float64 `mapstructure:"initial_uncertainty" validate:"gt=0"`
	Beta                 float64 `mapstructure:"beta" validate:"gt=0"`
	UncertaintyTolerance float64 `mapstructure:"uncertainty_tolerance" validate:"gt=0,lt=1"`
}

// ModelsConfig holds calibration resolutions and the rolling window size
type ModelsConfig struct {
	RatingBuckets     int `mapstructure:"rating_buckets" validate:"required,gt=0"`
	HistoricalBuckets int `mapstructure:"historical_buckets" validate:"required,gt=0"`
	WindowBuckets     int `mapstructure:"window_buckets" validate:"required,gt=0"`
	WindowSize        int `mapstructure:"window_size" validate:"required,gt=0"`
}

// DataSourceConfig represents the scoreboard feed configuration
type DataSourceConfig struct {
	Name              string  `mapstructure:"name" validate:"required"`
	ScoresURL         string  `mapstructure:"scores_url" validate:"required,url"`
	TeamsURL          string  `mapstructure:"teams_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	RegularSeasonOnly bool    `mapstructure:"regular_season_only"`
	SeasonStartMonth  int     `mapstructure:"season_start_month" validate:"required,min=1,max=12"`
	SeasonEndMonth    int     `mapstructure:"season_end_month" validate:"required,min=1,max=12"`
}

// ReplayConfig represents the default replay range and export settings
type ReplayConfig struct {
	StartDate         string `mapstructure:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string `mapstructure:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ExportPath        string `mapstructure:"export_path"`
	ExportFormat      string `mapstructure:"export_format" validate:"omitempty,exportformat"`
	SkipUninformative bool   `mapstructure:"skip_uninformative"`
}

// ScheduleConfig represents scheduled sync configuration
type ScheduleConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	DailySync string `mapstructure:"daily_sync" validate:"omitempty,cron"`
}

// ServerConfig represents the reporting API listener
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SecretsConfig points at an optional AWS Secrets Manager secret
type SecretsConfig struct {
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ReplayRange parses the configured replay dates
func (c *Config) ReplayRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.Replay.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid replay start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.Replay.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid replay end_date: %w", err)
	}
	return start, end, nil
}

// RequestTimeout returns the data source timeout as a duration
func (c *DataSourceConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the response cache lifetime
func (c *DataSourceConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
