package config

const (
	defaultAPIBaseURL     = "http://127.0.0.1:8000/api/v1"
	defaultRequestTimeout = 30
	defaultHealthTimeout  = 3

	defaultServerCommand = "wcag-server"
	defaultServerHost    = "127.0.0.1"
	defaultServerPort    = 8000
	defaultStartupGrace  = 2
	defaultStopTimeout   = 10
	defaultRestartDelay  = 2

	defaultDataDir = "~/.local/share/wcagscan"
	defaultLogDir  = "~/.local/share/wcagscan/logs"

	defaultPollInterval = 2
	defaultMaxPages     = 10
	defaultMaxDepth     = 2

	defaultRefreshInterval = 5
	defaultScanLimit       = 20
	defaultProjectLimit    = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			RequestTimeout: defaultRequestTimeout,
			HealthTimeout:  defaultHealthTimeout,
		},
		Server: Server{
			Command:      defaultServerCommand,
			Host:         defaultServerHost,
			Port:         defaultServerPort,
			StartupGrace: defaultStartupGrace,
			StopTimeout:  defaultStopTimeout,
			RestartDelay: defaultRestartDelay,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scan: Scan{
			PollInterval: defaultPollInterval,
			MaxPages:     defaultMaxPages,
			MaxDepth:     defaultMaxDepth,
			Scanners:     []string{"axe"},
		},
		Dashboard: Dashboard{
			RefreshInterval: defaultRefreshInterval,
			ScanLimit:       defaultScanLimit,
			ProjectLimit:    defaultProjectLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
