package config

import "time"

const (
	envPushURL          = "PUSH_URL"
	envPushEnabled      = "PUSH_ENABLED"
	envPushPingInterval = "PUSH_PING_INTERVAL"
	envPushBackoffBase  = "PUSH_BACKOFF_BASE"
	envPushBackoffCap   = "PUSH_BACKOFF_CAP"
	envPushLogCapacity  = "PUSH_LOG_CAPACITY"

	defaultPushURL          = "ws://localhost:8080/ws/matches"
	defaultPushPingInterval = 20 * Duration(time.Second)
	defaultPushBackoffBase  = 500 * Duration(time.Millisecond)
	defaultPushBackoffCap   = 30 * Duration(time.Second)
	defaultPushLogCapacity  = 256
)

// PushConfig controls the per-match push channel client.
type PushConfig struct {
	URL          string
	Enabled      bool
	PingInterval Duration
	BackoffBase  Duration
	BackoffCap   Duration
	LogCapacity  int
}

func loadPush() PushConfig {
	return PushConfig{
		URL:          envOrDefault(envPushURL, defaultPushURL),
		Enabled:      boolEnvOrDefault(envPushEnabled, true),
		PingInterval: durationEnvOrDefault(envPushPingInterval, defaultPushPingInterval),
		BackoffBase:  durationEnvOrDefault(envPushBackoffBase, defaultPushBackoffBase),
		BackoffCap:   durationEnvOrDefault(envPushBackoffCap, defaultPushBackoffCap),
		LogCapacity:  intEnvOrDefault(envPushLogCapacity, defaultPushLogCapacity),
	}
}
