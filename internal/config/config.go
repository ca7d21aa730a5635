// Package config provides configuration management for planner.
package config

import (
	"fmt"
	"strings"
	"time"

	perrors "github.com/agb-planner/planner/internal/errors"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// ConfigFileName is the config file name searched for, without extension.
const ConfigFileName = "planner"

// Config represents the planner configuration.
type Config struct {
	Storage       StorageConfig       `mapstructure:"storage" yaml:"storage"`
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

// StorageConfig selects and tunes the persistent backend.
type StorageConfig struct {
	// Driver is one of sqlite, postgres, mongo or memory. With memory no
	// persistent backend is opened and the demo store serves everything.
	Driver string `mapstructure:"driver" yaml:"driver"`
	// DSN is a file path for sqlite, a connection string for postgres and a
	// mongodb:// URI for mongo.
	DSN   string      `mapstructure:"dsn" yaml:"dsn"`
	Mongo MongoConfig `mapstructure:"mongo" yaml:"mongo"`
	// OperationTimeout bounds every persistent backend call.
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
	// Fixtures is a YAML fixture file seeded into the demo store at startup.
	// "builtin" selects the embedded demo data; empty seeds nothing.
	Fixtures string `mapstructure:"fixtures" yaml:"fixtures"`
}

// MongoConfig holds document-store settings.
type MongoConfig struct {
	Database string `mapstructure:"database" yaml:"database"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Addr string     `mapstructure:"addr" yaml:"addr"`
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// AuthConfig defines bearer token verification.
type AuthConfig struct {
	// Secret is the HS256 signing key. Empty disables token checks and every
	// request is anonymous.
	Secret string `mapstructure:"secret" yaml:"secret"`
	// Required rejects requests without a token.
	Required bool `mapstructure:"required" yaml:"required"`
}

// NotificationsConfig defines the notification log settings.
type NotificationsConfig struct {
	LogPath string `mapstructure:"log_path" yaml:"log_path"`
	// PruneInterval runs 30-day retention periodically while serving.
	// Zero disables it.
	PruneInterval time.Duration `mapstructure:"prune_interval" yaml:"prune_interval"`
	// ReminderInterval runs the due, overdue and milestone scans while
	// serving. Zero disables them.
	ReminderInterval time.Duration `mapstructure:"reminder_interval" yaml:"reminder_interval"`
}

// LogConfig defines structured logging output.
type LogConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // json or text
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:           DriverSQLite,
			DSN:              ".planner/planner.db",
			Mongo:            MongoConfig{Database: "agb_planner"},
			OperationTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":5000",
		},
		Notifications: NotificationsConfig{
			LogPath:          ".planner/notifications.json",
			PruneInterval:    24 * time.Hour,
			ReminderInterval: time.Hour,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

var (
	validDrivers    = []string{DriverSQLite, DriverPostgres, DriverMongo, DriverMemory}
	validLogFormats = []string{"json", "text"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !contains(validDrivers, c.Storage.Driver) {
		return perrors.ErrConfigInvalid("storage.driver",
			fmt.Sprintf("%q is not one of %s", c.Storage.Driver, strings.Join(validDrivers, ", ")))
	}
	if c.Storage.Driver != DriverMemory && c.Storage.DSN == "" {
		return perrors.ErrConfigInvalid("storage.dsn", "required unless storage.driver is memory")
	}
	if c.Storage.Driver == DriverMongo && c.Storage.Mongo.Database == "" {
		return perrors.ErrConfigInvalid("storage.mongo.database", "required for the mongo driver")
	}
	if c.Storage.OperationTimeout <= 0 {
		return perrors.ErrConfigInvalid("storage.operation_timeout", "must be positive")
	}
	if c.Server.Auth.Required && c.Server.Auth.Secret == "" {
		return perrors.ErrConfigInvalid("server.auth.required", "requires server.auth.secret")
	}
	if c.Notifications.LogPath == "" {
		return perrors.ErrConfigInvalid("notifications.log_path", "must not be empty")
	}
	if c.Notifications.PruneInterval < 0 {
		return perrors.ErrConfigInvalid("notifications.prune_interval", "must not be negative")
	}
	if c.Notifications.ReminderInterval < 0 {
		return perrors.ErrConfigInvalid("notifications.reminder_interval", "must not be negative")
	}
	if !contains(validLogFormats, c.Log.Format) {
		return perrors.ErrConfigInvalid("log.format", fmt.Sprintf("%q is not json or text", c.Log.Format))
	}
	if !contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return perrors.ErrConfigInvalid("log.level", fmt.Sprintf("%q is not a log level", c.Log.Level))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
