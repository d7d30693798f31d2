package config

import "time"

const (
	envSofaliveBaseURL  = "SOFALIVE_BASE_URL"
	envSofaliveMinSpace = "SOFALIVE_MIN_CALL_SPACING"

	defaultSofaliveBaseURL = "https://api.sofalive.example.com/v1"
	// Minimum spacing between calls to the public provider; it is
	// unauthenticated and rate limited, so stay well under its quota.
	defaultSofaliveMinSpace = 10 * Duration(time.Second)
)

// SofaliveConfig controls how we talk to the public live-score provider.
type SofaliveConfig struct {
	BaseURL        string
	MinCallSpacing Duration
}

func loadSofalive() SofaliveConfig {
	return SofaliveConfig{
		BaseURL:        envOrDefault(envSofaliveBaseURL, defaultSofaliveBaseURL),
		MinCallSpacing: durationEnvOrDefault(envSofaliveMinSpace, defaultSofaliveMinSpace),
	}
}
