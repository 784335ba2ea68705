package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"catalog-content-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlatform struct {
	server        *httptest.Server
	mux           *http.ServeMux
	tokenRequests atomic.Int32
}

func setupMockPlatform(t *testing.T) *mockPlatform {
	t.Helper()
	m := &mockPlatform{mux: http.NewServeMux()}
	m.mux.HandleFunc("/api/platform/applications/authtickets/oauth", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Method != http.MethodPost || body["client_id"] != "app" || body["client_secret"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := m.tokenRequests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-" + string(rune('0'+n)),
			"expires_in":   3600,
		})
	})
	m.server = httptest.NewServer(m.mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockPlatform) client(retry RetryConfig) *client {
	apiURL := m.server.URL + "/api"
	tokens := NewTokenManager(apiURL, "app", "secret", m.server.Client(), nil, zerolog.Nop())
	return NewClientWithOptions(apiURL, tokens, m.server.Client(), nil, retry, nil, zerolog.Nop()).(*client)
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestClientSendsContextHeadersAndCachesTicket(t *testing.T) {
	m := setupMockPlatform(t)
	var headers []http.Header
	m.mux.HandleFunc("/api/commerce/catalog/admin/categories", func(w http.ResponseWriter, r *http.Request) {
		headers = append(headers, r.Header.Clone())
		_, _ = w.Write([]byte(`{"totalCount":1,"items":[{"id":7,"categoryCode":"A"}]}`))
	})
	c := m.client(fastRetry())

	rc := domain.RequestContext{TenantID: 100, SiteID: 200, CatalogID: 3, MasterCatalogID: 1, DataViewMode: domain.DataViewPending}
	var out struct {
		TotalCount int             `json:"totalCount"`
		Items      []domain.Entity `json:"items"`
	}
	require.NoError(t, c.Get(context.Background(), rc, "/commerce/catalog/admin/categories", &out))
	require.NoError(t, c.Get(context.Background(), domain.RequestContext{TenantID: 100}, "/commerce/catalog/admin/categories", nil))

	require.Len(t, out.Items, 1)
	assert.Equal(t, "A", out.Items[0].String("categoryCode"))
	assert.Equal(t, int32(1), m.tokenRequests.Load())

	require.Len(t, headers, 2)
	h := headers[0]
	assert.Equal(t, "Bearer token-1", h.Get("Authorization"))
	assert.Equal(t, "100", h.Get("x-vol-tenant"))
	assert.Equal(t, "200", h.Get("x-vol-site"))
	assert.Equal(t, "3", h.Get("x-vol-catalog"))
	assert.Equal(t, "1", h.Get("x-vol-master-catalog"))
	assert.Equal(t, "Pending", h.Get("x-vol-dataview-mode"))
	assert.Empty(t, headers[1].Get("x-vol-site"))
	assert.Empty(t, headers[1].Get("x-vol-catalog"))
}

func TestClientRefreshesRejectedTicket(t *testing.T) {
	m := setupMockPlatform(t)
	var calls atomic.Int32
	m.mux.HandleFunc("/api/platform/tenants/100", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer token-2", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":100}`))
	})
	c := m.client(fastRetry())

	var tenant domain.Tenant
	require.NoError(t, c.Get(context.Background(), domain.RequestContext{TenantID: 100}, "/platform/tenants/100", &tenant))
	assert.Equal(t, 100, tenant.ID)
	assert.Equal(t, int32(2), m.tokenRequests.Load())
}

func TestClientMapsStatusErrors(t *testing.T) {
	m := setupMockPlatform(t)
	m.mux.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Item not found","errorCode":"ITEM_NOT_FOUND"}`))
	})
	m.mux.HandleFunc("/api/exists", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	c := m.client(fastRetry())

	err := c.Put(context.Background(), domain.RequestContext{}, "/missing", domain.Entity{"a": 1}, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ITEM_NOT_FOUND: Item not found", apiErr.Message)
	assert.Contains(t, err.Error(), "PUT /missing: status 404")

	err = c.Post(context.Background(), domain.RequestContext{}, "/exists", domain.Entity{}, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestClientRetriesReadsOnly(t *testing.T) {
	m := setupMockPlatform(t)
	var reads, writes atomic.Int32
	m.mux.HandleFunc("/api/flaky", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if reads.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{}`))
			return
		}
		writes.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := m.client(fastRetry())

	require.NoError(t, c.Get(context.Background(), domain.RequestContext{}, "/flaky", nil))
	assert.Equal(t, int32(3), reads.Load())

	err := c.Post(context.Background(), domain.RequestContext{}, "/flaky", domain.Entity{}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), writes.Load())
}

func TestClientRetriesWritesWhenRateLimited(t *testing.T) {
	m := setupMockPlatform(t)
	var writes atomic.Int32
	m.mux.HandleFunc("/api/limited", func(w http.ResponseWriter, r *http.Request) {
		if writes.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"x"}`))
	})
	c := m.client(fastRetry())

	var out domain.Entity
	require.NoError(t, c.Put(context.Background(), domain.RequestContext{}, "/limited", domain.Entity{}, &out))
	assert.Equal(t, "x", out.ID())
	assert.Equal(t, int32(2), writes.Load())
}

func TestClientPutContent(t *testing.T) {
	m := setupMockPlatform(t)
	var mu sync.Mutex
	var gotType, gotBody string
	m.mux.HandleFunc("/api/content/documentlists/files@mozu/documents/abc/content", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotType, gotBody = r.Header.Get("Content-Type"), string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	c := m.client(fastRetry())

	err := c.PutContent(context.Background(), domain.RequestContext{}, "/content/documentlists/files@mozu/documents/abc/content", "image/webp", strings.NewReader("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", gotType)
	assert.Equal(t, "RIFF", gotBody)
}

func TestClientBaseURLFollowsTenant(t *testing.T) {
	tokens := NewTokenManager("https://t100.example.com/api", "app", "secret", nil, nil, zerolog.Nop())
	c := NewClientWithOptions("https://t100.example.com/api", tokens, nil, nil, DefaultRetryConfig(), nil, zerolog.Nop()).(*client)

	assert.Equal(t, "https://t100.example.com/api", c.baseURL(0))
	assert.Equal(t, "https://t100.example.com/api", c.baseURL(100))
	assert.Equal(t, "https://t200.example.com/api", c.baseURL(200))
}

type memoryTokenCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryTokenCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryTokenCache) Set(_ context.Context, key, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = token
	return nil
}

func TestTokenManagerSharesTicketThroughCache(t *testing.T) {
	m := setupMockPlatform(t)
	cache := &memoryTokenCache{data: map[string]string{}}
	apiURL := m.server.URL + "/api"

	first := NewTokenManager(apiURL, "app", "secret", m.server.Client(), cache, zerolog.Nop())
	tok, err := first.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	second := NewTokenManager(apiURL, "app", "secret", m.server.Client(), cache, zerolog.Nop())
	tok, err = second.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int32(1), m.tokenRequests.Load())

	second.Invalidate()
	tok, err = second.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
}

func TestTokenManagerRejectedCredentials(t *testing.T) {
	m := setupMockPlatform(t)
	tm := NewTokenManager(m.server.URL+"/api", "app", "wrong", m.server.Client(), nil, zerolog.Nop())
	_, err := tm.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestAuthRoot(t *testing.T) {
	assert.Equal(t, "https://t1.example.com/api", AuthRoot("", "https://t1.example.com/api"))
	assert.Equal(t, "https://home.example.com/api", AuthRoot("home.example.com", "https://t1.example.com/api"))
	assert.Equal(t, "http://localhost:8080/api", AuthRoot("http://localhost:8080/", "x"))
}
