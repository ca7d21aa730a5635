package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PLANNER_STORAGE_DRIVER.
const EnvPrefix = "PLANNER"

// Keys lists every configuration key. Registering each one as a viper
// default is what lets AutomaticEnv resolve nested keys.
var Keys = []string{
	"storage.driver",
	"storage.dsn",
	"storage.mongo.database",
	"storage.operation_timeout",
	"storage.fixtures",
	"server.addr",
	"server.auth.secret",
	"server.auth.required",
	"notifications.log_path",
	"notifications.prune_interval",
	"notifications.reminder_interval",
	"log.format",
	"log.level",
}

// SetupViper prepares v to read planner.yaml and PLANNER_* variables on top
// of the built-in defaults.
func SetupViper(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.mongo.database", d.Storage.Mongo.Database)
	v.SetDefault("storage.operation_timeout", d.Storage.OperationTimeout)
	v.SetDefault("storage.fixtures", d.Storage.Fixtures)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.auth.secret", d.Server.Auth.Secret)
	v.SetDefault("server.auth.required", d.Server.Auth.Required)
	v.SetDefault("notifications.log_path", d.Notifications.LogPath)
	v.SetDefault("notifications.prune_interval", d.Notifications.PruneInterval)
	v.SetDefault("notifications.reminder_interval", d.Notifications.ReminderInterval)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.level", d.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the given file (or the default search
// paths when empty) plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetupViper(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(".planner")
		v.AddConfigPath("$HOME/.planner")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

