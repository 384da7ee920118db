package config

const (
	defaultConfigPath      = "~/.config/wikiconfig/config.toml"
	projectConfigName      = "wikiconfig.toml"
	defaultUndefinedPolicy = "literal"
	defaultBackupRetention = 10
	defaultHistoryPath     = "~/.local/share/wikiconfig/history.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Load: LoadSettings{
			UndefinedPolicy: defaultUndefinedPolicy,
		},
		Save: Save{
			BackupRetention: defaultBackupRetention,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
