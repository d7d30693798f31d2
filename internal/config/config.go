package config

// Config holds runtime configuration for the server.
type Config struct {
	Port      string
	Provider  string
	League    string
	Intervals IntervalsConfig
	Backend   BackendConfig
	Sofalive  SofaliveConfig
	Push      PushConfig
	Metrics   MetricsConfig
}

// IntervalsConfig groups the per-subscription polling cadences.
type IntervalsConfig struct {
	Snapshot   Duration
	Timeline   Duration
	Scoreboard Duration
	Feed       Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:     envOrDefault(envPort, defaultPort),
		Provider: envOrDefault(envProvider, defaultProvider),
		League:   envOrDefault(envLeague, defaultLeague),
		Intervals: IntervalsConfig{
			Snapshot:   durationEnvOrDefault(envSnapshotInterval, defaultSnapshotInterval),
			Timeline:   durationEnvOrDefault(envTimelineInterval, defaultTimelineInterval),
			Scoreboard: durationEnvOrDefault(envScoreboardInterval, defaultScoreboardInterval),
			Feed:       durationEnvOrDefault(envFeedInterval, defaultFeedInterval),
		},
		Backend:  loadBackend(),
		Sofalive: loadSofalive(),
		Push:     loadPush(),
		Metrics:  loadMetrics(),
	}
}
