package config

const (
	defaultServerURL             = "http://127.0.0.1:5000"
	defaultRequestTimeoutSeconds = 600
	defaultStateDir              = "~/.local/share/minutes"
	defaultExportDir             = "."
	defaultLogDir                = "~/.local/share/minutes/logs"
	defaultUIBind                = "127.0.0.1:7490"
	defaultDisplayDelayMillis    = 500
	defaultCopyFeedbackMillis    = 2000
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			URL:                   defaultServerURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Paths: Paths{
			StateDir:  defaultStateDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
		},
		UI: UI{
			Bind: defaultUIBind,
		},
		Workflow: Workflow{
			DisplayDelayMillis: defaultDisplayDelayMillis,
			CopyFeedbackMillis: defaultCopyFeedbackMillis,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			ResultsReady:   true,
			Confirmed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
