package backend

import "net/http"

// apiKeyTransport injects the backend API key on every request.
type apiKeyTransport struct {
	apiKey string
	next   http.RoundTripper
}

func newAPIKeyTransport(apiKey string, next http.RoundTripper) http.RoundTripper {
	if apiKey == "" {
		return next
	}
	return &apiKeyTransport{apiKey: apiKey, next: next}
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("X-API-Key", t.apiKey)
	return t.next.RoundTrip(clone)
}
