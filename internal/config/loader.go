package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "MATCHUP_ENGINE"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "matchup-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("sqlite.path", "data/matchup.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "matchup")
	v.SetDefault("database.user", "matchup")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("rating.initial_mean", 25.0)
	v.SetDefault("rating.initial_uncertainty", 8.33)
	v.SetDefault("rating.beta", 25.0/6.0)
	v.SetDefault("rating.uncertainty_tolerance", 1e-6)

	v.SetDefault("models.rating_buckets", 1000)
	v.SetDefault("models.historical_buckets", 1000)
	v.SetDefault("models.window_buckets", 10)
	v.SetDefault("models.window_size", 10)

	v.SetDefault("data_source.name", "scoreboard")
	v.SetDefault("data_source.scores_url", "https://api-web.nhle.com/v1/score")
	v.SetDefault("data_source.teams_url", "https://api.nhle.com/stats/rest/en/team")
	v.SetDefault("data_source.timeout_seconds", 30)
	v.SetDefault("data_source.max_retries", 3)
	v.SetDefault("data_source.rate_limit", 2.0)
	v.SetDefault("data_source.cache_ttl_seconds", 3600)
	v.SetDefault("data_source.regular_season_only", true)
	v.SetDefault("data_source.season_start_month", 10)
	v.SetDefault("data_source.season_end_month", 4)

	v.SetDefault("replay.export_format", "csv")
	v.SetDefault("replay.skip_uninformative", true)

	v.SetDefault("schedule.daily_sync", "0 6 * * *")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
