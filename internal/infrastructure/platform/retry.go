package platform

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig controls transport level retries. Only reads are retried on
// gateway failures; writes are retried only when rate limited.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns the retry policy used by the CLI.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

func (rc RetryConfig) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if rc.InitialInterval > 0 {
		b.InitialInterval = rc.InitialInterval
	}
	if rc.MaxInterval > 0 {
		b.MaxInterval = rc.MaxInterval
	}
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(max(rc.MaxRetries, 0)))
}

func retryableStatus(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if method != http.MethodGet {
		return false
	}
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryableTransport(method string) bool {
	return method == http.MethodGet
}
