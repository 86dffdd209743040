package config

const (
	defaultDataDir              = "~/.local/share/redline"
	defaultLogDir               = "~/.local/share/redline/logs"
	defaultAPIBind              = "127.0.0.1:7718"
	defaultMaxWorkflows         = 200
	defaultMaxStagesPerWorkflow = 200
	defaultBulkPageSize         = 1000
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"

	// DefaultStageColor is the accent applied to stages created without an
	// explicit color.
	DefaultStageColor = "#4945ff"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Limits: Limits{
			MaxWorkflows:         defaultMaxWorkflows,
			MaxStagesPerWorkflow: defaultMaxStagesPerWorkflow,
		},
		Engine: Engine{
			BulkPageSize:      defaultBulkPageSize,
			DefaultStageColor: DefaultStageColor,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
