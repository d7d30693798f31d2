package config

const (
	envBackendBaseURL = "BACKEND_BASE_URL"
	envBackendAPIKey  = "BACKEND_API_KEY"

	defaultBackendBaseURL = "http://localhost:8080/api/v1"
)

// BackendConfig controls how we talk to the authoritative backend.
type BackendConfig struct {
	BaseURL string
	APIKey  string
}

func loadBackend() BackendConfig {
	return BackendConfig{
		BaseURL: envOrDefault(envBackendBaseURL, defaultBackendBaseURL),
		APIKey:  envOrDefault(envBackendAPIKey, ""),
	}
}
