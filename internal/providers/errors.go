package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrProviderUnavailable reports a provider that is not configured or has
// been closed.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrNotModified reports a conditional fetch whose resource was unchanged;
// callers should keep using the previously decoded value.
var ErrNotModified = errors.New("resource not modified")

// RateLimitError captures rate limit responses from upstream providers.
type RateLimitError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}
