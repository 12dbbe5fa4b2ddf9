// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Profile  ProfileConfig  `mapstructure:"profile"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name   string `mapstructure:"name"`
	UserID string `mapstructure:"user_id"`
	// DataDir overrides the OS application-data root when set.
	DataDir string `mapstructure:"data_dir"`
}

type DatabaseConfig struct {
	FileName  string `mapstructure:"file_name"`
	ListLimit int    `mapstructure:"list_limit"`
}

// ProfileConfig locates the per-user JSON document and the section schema.
type ProfileConfig struct {
	ConfigFileName string `mapstructure:"config_file_name"`
	// SchemaPath points at a section_types.yml on disk; empty uses the bundled one.
	SchemaPath string `mapstructure:"schema_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const (
	DefaultAppName        = "JobVaultLibre"
	DefaultUserID         = "Default"
	DefaultDatabaseFile   = "database.sqlite"
	DefaultConfigFileName = "config.json"
	MaxListLimit          = 1000
)
