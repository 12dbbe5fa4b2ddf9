// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperrors "jobvault/internal/common/errors"
)

const envPrefix = "JOBVAULT"

// Load reads config.yaml from the usual search paths, merges environment
// overrides (JOBVAULT_APP_USER_ID, JOBVAULT_LOGGING_LEVEL, ...) and applies
// defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, readError(v.ConfigFileUsed(), err)
		}
	}

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		used := v.ConfigFileUsed()
		if used == "" {
			used = path
		}
		return nil, readError(used, err)
	}

	return finish(v)
}

// readError tells a file that does not parse from one that cannot be read.
func readError(path string, err error) error {
	var parseErr viper.ConfigParseError
	if errors.As(err, &parseErr) {
		return apperrors.NewSettingsFormatError(path, parseErr.Error(), err)
	}
	return apperrors.NewConfigurationIOError(path, err)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	for _, key := range []string{
		"app.name", "app.user_id", "app.data_dir",
		"database.file_name", "database.list_limit",
		"profile.config_file_name", "profile.schema_path",
		"logging.level", "logging.format", "logging.output",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewSettingsFormatError(v.ConfigFileUsed(), err.Error(), err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, apperrors.NewSettingsFormatError(v.ConfigFileUsed(), err.Error(), err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.Name) == "" {
		cfg.App.Name = DefaultAppName
	}
	if strings.TrimSpace(cfg.App.UserID) == "" {
		cfg.App.UserID = DefaultUserID
	}

	if cfg.Database.FileName == "" {
		cfg.Database.FileName = DefaultDatabaseFile
	}
	if cfg.Database.ListLimit <= 0 || cfg.Database.ListLimit > MaxListLimit {
		cfg.Database.ListLimit = MaxListLimit
	}

	if cfg.Profile.ConfigFileName == "" {
		cfg.Profile.ConfigFileName = DefaultConfigFileName
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

// validateConfig rejects values that would escape the profile directory.
func validateConfig(cfg *Config) error {
	for key, name := range map[string]string{
		"database.file_name":       cfg.Database.FileName,
		"profile.config_file_name": cfg.Profile.ConfigFileName,
	} {
		if filepath.Base(name) != name || name == "." || name == ".." {
			return fmt.Errorf("%s must be a bare file name, got %q", key, name)
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
