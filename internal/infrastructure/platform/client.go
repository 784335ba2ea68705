package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

var (
	tenantHost      = regexp.MustCompile(`^(https?://)t\d+`)
	tenantIDPattern = regexp.MustCompile(`https?://t(\d+)`)
)

// RequestObserver records the outcome of platform requests. status is 0 when
// the request never got a response.
type RequestObserver interface {
	ObserveRequest(method string, status int, duration time.Duration)
}

type client struct {
	apiURL      string
	tenantID    int
	httpClient  *http.Client
	tokens      *TokenManager
	rateLimiter *RateLimiter
	retryConfig RetryConfig
	observer    RequestObserver
	logger      zerolog.Logger
}

// NewClient creates a platform client for the API root, e.g. https://t1234.example.com/api
func NewClient(apiURL string, tokens *TokenManager) ports.PlatformClient {
	return NewClientWithOptions(apiURL, tokens, nil, nil, DefaultRetryConfig(), nil, zerolog.Nop())
}

// NewClientWithOptions creates a client with rate limiting, retry and metrics options
func NewClientWithOptions(
	apiURL string,
	tokens *TokenManager,
	httpClient *http.Client,
	rateLimiter *RateLimiter,
	retryConfig RetryConfig,
	observer RequestObserver,
	logger zerolog.Logger,
) ports.PlatformClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	c := &client{
		apiURL:      strings.TrimRight(apiURL, "/"),
		httpClient:  httpClient,
		tokens:      tokens,
		rateLimiter: rateLimiter,
		retryConfig: retryConfig,
		observer:    observer,
		logger:      logger.With().Str("component", "platform_client").Logger(),
	}
	if m := tenantIDPattern.FindStringSubmatch(c.apiURL); m != nil {
		c.tenantID, _ = strconv.Atoi(m[1])
	}
	return c
}

func (c *client) Get(ctx context.Context, rc domain.RequestContext, path string, out any) error {
	return c.send(ctx, rc, http.MethodGet, path, "", nil, out)
}

func (c *client) Post(ctx context.Context, rc domain.RequestContext, path string, body any, out any) error {
	data, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.send(ctx, rc, http.MethodPost, path, "application/json", data, out)
}

func (c *client) Put(ctx context.Context, rc domain.RequestContext, path string, body any, out any) error {
	data, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.send(ctx, rc, http.MethodPut, path, "application/json", data, out)
}

func (c *client) Delete(ctx context.Context, rc domain.RequestContext, path string) error {
	return c.send(ctx, rc, http.MethodDelete, path, "", nil, nil)
}

func (c *client) PutContent(ctx context.Context, rc domain.RequestContext, path string, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read content for %s: %w", path, err)
	}
	return c.send(ctx, rc, http.MethodPut, path, contentType, data, nil)
}

// send retries once with a fresh ticket when the current one is rejected.
func (c *client) send(ctx context.Context, rc domain.RequestContext, method, path, contentType string, body []byte, out any) error {
	err := c.sendWithRetry(ctx, rc, method, path, contentType, body, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		c.logger.Debug().Str("path", path).Msg("auth ticket rejected, refreshing")
		c.tokens.Invalidate()
		err = c.sendWithRetry(ctx, rc, method, path, contentType, body, out)
	}
	return err
}

func (c *client) sendWithRetry(ctx context.Context, rc domain.RequestContext, method, path, contentType string, body []byte, out any) error {
	attempt := 0
	op := func() error {
		attempt++
		err := c.do(ctx, rc, method, path, contentType, body, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if retryableStatus(method, apiErr.StatusCode) {
				c.logger.Warn().
					Str("method", method).
					Str("path", path).
					Int("status", apiErr.StatusCode).
					Int("attempt", attempt).
					Msg("retrying platform request")
				return err
			}
			return backoff.Permanent(err)
		}
		if ctx.Err() == nil && retryableTransport(method) && !errors.Is(err, errNoRetry) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, backoff.WithContext(c.retryConfig.backOff(), ctx))
}

var errNoRetry = errors.New("not retryable")

func (c *client) do(ctx context.Context, rc domain.RequestContext, method, path, contentType string, body []byte, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", errNoRetry, err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errNoRetry, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(rc.TenantID)+path, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", errNoRetry, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	setContextHeaders(req.Header, rc)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, start)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 {
		return newAPIError(method, path, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response of %s %s: %w", errNoRetry, method, path, err)
	}
	return nil
}

// baseURL points the API root at another tenant when the context asks for one.
func (c *client) baseURL(tenantID int) string {
	if tenantID == 0 || tenantID == c.tenantID {
		return c.apiURL
	}
	return tenantHost.ReplaceAllString(c.apiURL, "${1}t"+strconv.Itoa(tenantID))
}

func (c *client) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status, time.Since(start))
	}
}

func setContextHeaders(h http.Header, rc domain.RequestContext) {
	if rc.TenantID > 0 {
		h.Set("x-vol-tenant", strconv.Itoa(rc.TenantID))
	}
	if rc.SiteID > 0 {
		h.Set("x-vol-site", strconv.Itoa(rc.SiteID))
	}
	if rc.CatalogID > 0 {
		h.Set("x-vol-catalog", strconv.Itoa(rc.CatalogID))
	}
	if rc.MasterCatalogID > 0 {
		h.Set("x-vol-master-catalog", strconv.Itoa(rc.MasterCatalogID))
	}
	if rc.DataViewMode != "" {
		h.Set("x-vol-dataview-mode", rc.DataViewMode)
	}
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}
