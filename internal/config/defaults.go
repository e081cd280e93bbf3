package config

const (
	defaultConfigPath            = "~/.config/vidash/config.toml"
	defaultAPIBaseURL            = "http://localhost:8080/api/v1"
	defaultMediaBaseURL          = "http://localhost:8080"
	defaultRequestTimeoutSeconds = 15
	defaultStateDir              = "~/.local/share/vidash"
	defaultLogDir                = "~/.local/share/vidash/logs"
	defaultSessionFile           = "~/.config/vidash/session.json"
	defaultLockDir               = "~/.local/share/vidash/locks"
	defaultStateBackend          = "sqlite"
	defaultRedisURL              = "redis://127.0.0.1:6379/0"
	defaultRedisPrefix           = "vidash:"
	defaultPlayerVolume          = 0.6
	defaultProgressIntervalMS    = 1000
	defaultPageSize              = 10
	defaultDebounceMS            = 500
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultMetricsListenAddr     = "127.0.0.1:9464"
)

// StateBackendSQLite and StateBackendRedis name the supported state backends.
const (
	StateBackendSQLite = "sqlite"
	StateBackendRedis  = "redis"
)

func defaultRateLadder() []float64 { return []float64{1.0, 1.5, 2.0} }

func defaultPageSizes() []int { return []int{5, 10, 20, 50} }

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:               defaultAPIBaseURL,
			MediaBaseURL:          defaultMediaBaseURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Paths: Paths{
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
			SessionFile: defaultSessionFile,
			LockDir:     defaultLockDir,
		},
		State: State{
			Backend:     defaultStateBackend,
			RedisURL:    defaultRedisURL,
			RedisPrefix: defaultRedisPrefix,
		},
		Player: Player{
			DefaultVolume:      defaultPlayerVolume,
			RateLadder:         defaultRateLadder(),
			ProgressIntervalMS: defaultProgressIntervalMS,
		},
		Activity: Activity{
			PageSize:   defaultPageSize,
			PageSizes:  defaultPageSizes(),
			DebounceMS: defaultDebounceMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			ListenAddr: defaultMetricsListenAddr,
		},
	}
}
