package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"livematch-service/internal/config"
	"livematch-service/internal/domain"
	"livematch-service/internal/logging"
	"livematch-service/internal/providers"
)

const (
	providerName   = "backend"
	requestTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client talks to the authoritative match backend. Responses are fetched
// conditionally: the client remembers each resource's ETag and replays the
// cached body on 304, so unchanged snapshots cost headers only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	cache      *conditionalCache
}

// NewClient builds a backend client from config.
func NewClient(cfg config.BackendConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: newAPIKeyTransport(cfg.APIKey, http.DefaultTransport),
		},
		logger: logger,
		cache:  newConditionalCache(),
	}
}

func (c *Client) FetchMatch(ctx context.Context, matchID string) (domain.MatchState, error) {
	var state domain.MatchState
	path := fmt.Sprintf("/matches/%s/state", url.PathEscape(matchID))
	if err := c.getJSON(ctx, path, &state); err != nil {
		return domain.MatchState{}, err
	}
	return state, nil
}

func (c *Client) FetchTimeline(ctx context.Context, matchID string) ([]domain.MatchEvent, error) {
	var resp struct {
		Events []domain.MatchEvent `json:"events"`
	}
	path := fmt.Sprintf("/matches/%s/timeline", url.PathEscape(matchID))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *Client) FetchScoreboard(ctx context.Context, league string) ([]domain.MatchSummary, error) {
	var resp struct {
		Matches []domain.MatchSummary `json:"matches"`
	}
	path := fmt.Sprintf("/leagues/%s/matches", url.PathEscape(league))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if etag := c.cache.etag(path); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		body, ok := c.cache.body(path)
		if !ok {
			// 304 without a remembered body means our cache was reset; force a
			// full fetch next cycle.
			c.cache.forget(path)
			return providers.ErrNotModified
		}
		logging.Info(c.logger, "backend resource unchanged",
			slog.String(logging.FieldProvider, providerName),
			slog.String(logging.FieldPath, path),
		)
		return json.Unmarshal(body, out)

	case resp.StatusCode == http.StatusTooManyRequests:
		return &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    "backend rate limited",
		}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("backend status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read backend body: %w", err)
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		c.cache.store(path, etag, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode backend body: %w", err)
	}
	return nil
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
