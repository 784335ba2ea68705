package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"catalog-content-sync/internal/ports"

	"github.com/rs/zerolog"
)

// refreshSkew renews a ticket this long before it expires.
const refreshSkew = 30 * time.Second

// TokenManager obtains and caches the application auth ticket
type TokenManager struct {
	authURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	cache        ports.TokenCache
	logger       zerolog.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	bypassCache bool
}

type authTicket struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type cachedTicket struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// NewTokenManager creates a token manager for the given auth root
// (https://<host>/api). cache may be nil.
func NewTokenManager(authRoot, clientID, clientSecret string, httpClient *http.Client, cache ports.TokenCache, logger zerolog.Logger) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{
		authURL:      strings.TrimRight(authRoot, "/") + "/platform/applications/authtickets/oauth",
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		cache:        cache,
		logger:       logger.With().Str("component", "token_manager").Logger(),
	}
}

// AuthRoot derives the auth root from AUTH_HOST, falling back to the API root.
func AuthRoot(authHost, apiURL string) string {
	if authHost == "" {
		return apiURL
	}
	if strings.HasPrefix(authHost, "http://") || strings.HasPrefix(authHost, "https://") {
		return strings.TrimRight(authHost, "/") + "/api"
	}
	return "https://" + strings.TrimRight(authHost, "/") + "/api"
}

// Token returns a valid access token, requesting a new ticket when needed.
func (tm *TokenManager) Token(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.valid(time.Now()) {
		return tm.accessToken, nil
	}

	if tm.cache != nil && !tm.bypassCache {
		if cached, ok := tm.fromCache(ctx); ok {
			tm.accessToken, tm.expiresAt = cached.AccessToken, cached.ExpiresAt
			return tm.accessToken, nil
		}
	}

	ticket, err := tm.requestTicket(ctx)
	if err != nil {
		return "", err
	}
	tm.accessToken = ticket.AccessToken
	tm.expiresAt = time.Now().Add(time.Duration(ticket.ExpiresIn) * time.Second)
	tm.bypassCache = false

	tm.logger.Debug().
		Time("expiresAt", tm.expiresAt).
		Msg("auth ticket refreshed")

	if tm.cache != nil {
		tm.toCache(ctx)
	}
	return tm.accessToken, nil
}

// Invalidate drops the current ticket after the platform rejected it.
func (tm *TokenManager) Invalidate() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.accessToken = ""
	tm.expiresAt = time.Time{}
	tm.bypassCache = true
}

func (tm *TokenManager) valid(now time.Time) bool {
	return tm.accessToken != "" && now.Add(refreshSkew).Before(tm.expiresAt)
}

func (tm *TokenManager) cacheKey() string {
	return "catalogsync:token:" + tm.clientID
}

func (tm *TokenManager) fromCache(ctx context.Context) (*cachedTicket, bool) {
	raw, err := tm.cache.Get(ctx, tm.cacheKey())
	if err != nil {
		tm.logger.Warn().Err(err).Msg("token cache read failed")
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var cached cachedTicket
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false
	}
	if cached.AccessToken == "" || !time.Now().Add(refreshSkew).Before(cached.ExpiresAt) {
		return nil, false
	}
	return &cached, true
}

func (tm *TokenManager) toCache(ctx context.Context) {
	ttl := time.Until(tm.expiresAt) - refreshSkew
	if ttl <= 0 {
		return
	}
	raw, _ := json.Marshal(cachedTicket{AccessToken: tm.accessToken, ExpiresAt: tm.expiresAt})
	if err := tm.cache.Set(ctx, tm.cacheKey(), string(raw), ttl); err != nil {
		tm.logger.Warn().Err(err).Msg("token cache write failed")
	}
}

func (tm *TokenManager) requestTicket(ctx context.Context) (*authTicket, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     tm.clientID,
		"client_secret": tm.clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.authURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request auth ticket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		tm.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("auth ticket request rejected")
		return nil, fmt.Errorf("failed to get auth ticket: %w", newAPIError(http.MethodPost, "/platform/applications/authtickets/oauth", resp.StatusCode, data))
	}

	var ticket authTicket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return nil, fmt.Errorf("failed to decode auth ticket: %w", err)
	}
	if ticket.AccessToken == "" {
		return nil, fmt.Errorf("auth ticket response carried no access token")
	}
	return &ticket, nil
}
