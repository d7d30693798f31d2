package sofalive

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
	"livematch-service/internal/providers"
)

const (
	providerName   = "sofalive"
	requestTimeout = 8 * time.Second
	maxBodyBytes   = 2 << 20
)

// Client reads the public provider's live schedule and event detail
// endpoints. Both are unauthenticated and best effort; callers wrap this
// client with a rate limiter and treat every error as "no data this cycle".
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds a provider client from config.
func NewClient(cfg config.SofaliveConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		now:        time.Now,
	}
}

// FetchEvents lists the provider's live events for a league slug.
func (c *Client) FetchEvents(ctx context.Context, league string) ([]providers.ExternalEvent, error) {
	var resp eventsResponse
	path := "/events/live?league=" + url.QueryEscape(league)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	events := make([]providers.ExternalEvent, 0, len(resp.Events))
	for _, ev := range resp.Events {
		events = append(events, providers.ExternalEvent{
			ID:       strconv.FormatInt(ev.ID, 10),
			HomeName: pickName(ev.HomeTeam),
			AwayName: pickName(ev.AwayTeam),
			League:   ev.League.Slug,
		})
	}
	return events, nil
}

// FetchLiveEntry fetches one event's detail and normalizes it.
func (c *Client) FetchLiveEntry(ctx context.Context, eventID string) (domain.ExternalEntry, error) {
	var resp eventResponse
	path := "/event/" + url.PathEscape(eventID)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return domain.ExternalEntry{}, err
	}
	return mapEntry(resp.Event, c.now()), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    "public provider rate limited",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d for %s", providerName, resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s body: %w", providerName, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s body: %w", providerName, err)
	}
	return nil
}
