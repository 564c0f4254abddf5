// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultRequestTimeout            = 5 * time.Second
	defaultDatabaseDriver            = DriverSQLite
	defaultDatabasePath              = "./data/playcast.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseBusyTimeout       = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultMigrationsPath            = "file://./migrations"
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultMaxDevicesPerUser         = 5
	defaultDeviceCodePattern         = `^[A-Z0-9]{24}$`
	defaultMetricsEnabled            = true
	defaultMetricsPath               = "/metrics"
	envPrefix                        = "PLAYCAST"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Policy   PolicyConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

// DatabaseConfig holds database connection configuration.
// Path is used by the sqlite driver, DSN by postgres.
type DatabaseConfig struct {
	Driver            string
	Path              string
	DSN               string
	ConnectionTimeout time.Duration
	BusyTimeout       time.Duration
	EnableWAL         bool
	MigrationsPath    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// PolicyConfig holds device registration policy
type PolicyConfig struct {
	MaxDevicesPerUser int
	DeviceCodePattern string
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env is optional; production sets env vars directly
	_ = godotenv.Load() // nolint:errcheck

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/playcast")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)
	v.SetDefault("server.requesttimeout", defaultRequestTimeout)

	v.SetDefault("database.driver", defaultDatabaseDriver)
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.busytimeout", defaultDatabaseBusyTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)
	v.SetDefault("database.migrationspath", defaultMigrationsPath)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("policy.maxdevicesperuser", defaultMaxDevicesPerUser)
	v.SetDefault("policy.devicecodepattern", defaultDeviceCodePattern)

	v.SetDefault("metrics.enabled", defaultMetricsEnabled)
	v.SetDefault("metrics.path", defaultMetricsPath)
}

// Default returns a configuration populated only with defaults.
// Tests and embedded callers use it instead of Load.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Unmarshal of plain defaults cannot fail
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout: %v (must be > 0)", c.Server.RequestTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be one of: %s, %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Policy.MaxDevicesPerUser < 1 {
		return fmt.Errorf("invalid max devices per user: %d (must be >= 1)", c.Policy.MaxDevicesPerUser)
	}
	if _, err := regexp.Compile(c.Policy.DeviceCodePattern); err != nil {
		return fmt.Errorf("invalid device code pattern %q: %w", c.Policy.DeviceCodePattern, err)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics path: %s (must start with /)", c.Metrics.Path)
	}

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
