package gcsuploader

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
)

const (
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
)

// isRetryable reports whether err is a rate limit or server-side failure.
func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}

// withRetry runs fn until it succeeds, fails permanently, or attempts run out.
func withRetry(ctx context.Context, log zerolog.Logger, attempts uint, delay time.Duration, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if isRetryable(err) {
				log.Warn().Err(err).Str("op", op).Msg("GCS request failed, will retry")
				return true
			}
			return false
		}),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
	)
}
