package sync_tasks

import (
	"fmt"
	"sync"
	"testing"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/config"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/platformtest"

	"github.com/rs/zerolog"
)

const (
	catalogTenant = 100
	sourceTenant  = 200
	targetTenant  = 300
)

func testConfig() *config.Config {
	return &config.Config{
		TenantID:      catalogTenant,
		MasterCatalog: 1,
		PrimeCatalog:  1,
		CatalogPairs:  []domain.Pair{{Source: 2, Destination: 3}},
		SitePairs:     []domain.Pair{{Source: 10, Destination: 20}},
		Content: config.ContentConfig{
			Source: config.ContentSite{TenantID: sourceTenant, SiteID: 30, LocalePrefix: "en-us"},
			Target: config.ContentSite{TenantID: targetTenant, SiteID: 40, LocalePrefix: "ar-ae"},
		},
		CodePrefixPattern:  `KW-(EN|AR)-`,
		ContentOverwrite:   true,
		PageSize:           200,
		ProductMaxInFlight: 4,
		AssetMaxInFlight:   5,
	}
}

func testTenant() domain.Tenant {
	return domain.Tenant{
		ID: catalogTenant,
		Sites: []domain.Site{
			{ID: 10, CatalogID: 2, LocaleCode: "en-US"},
			{ID: 20, CatalogID: 3, LocaleCode: "en-US"},
		},
		MasterCatalogs: []domain.MasterCatalog{{
			ID: 1,
			Catalogs: []domain.Catalog{
				{ID: 1, DefaultLocaleCode: "en-US", DefaultCurrencyCode: "USD"},
				{ID: 2, DefaultLocaleCode: "en-US", DefaultCurrencyCode: "USD"},
				{ID: 3, DefaultLocaleCode: "en-US", DefaultCurrencyCode: "KWD"},
			},
		}},
	}
}

func newTestSession(t *testing.T, p *platformtest.Platform, cfg *config.Config) *application.Session {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	p.Reply("GET", fmt.Sprintf("/platform/tenants/%d", catalogTenant), testTenant())
	return application.NewSession(cfg, p, zerolog.Nop(), application.SessionOptions{})
}

// serveCategories answers category reads per catalog id.
func serveCategories(p *platformtest.Platform, byCatalog map[int][]domain.Entity) {
	p.Handle("GET", "/commerce/catalog/admin/categories", func(c *platformtest.Call) (any, error) {
		return platformtest.Page(byCatalog[c.Context.CatalogID]...), nil
	})
}

// contentFixture is a document store for the two content tenants.
type contentFixture struct {
	mu       sync.Mutex
	docs     map[int]domain.DocumentCollection
	contents map[string]any
	nextID   int
}

func newContentFixture(p *platformtest.Platform) *contentFixture {
	f := &contentFixture{
		docs: map[int]domain.DocumentCollection{
			sourceTenant: {},
			targetTenant: {},
		},
		contents: map[string]any{},
	}
	p.Handle("GET", "/content/documentlists/{list}/documents", func(c *platformtest.Call) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return platformtest.Page(f.docs[c.Context.TenantID][c.Params["list"]]...), nil
	})
	p.Handle("GET", "/content/documentlists/{list}/documents/{id}/content", func(c *platformtest.Call) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		v, ok := f.contents[contentKey(c.Context.TenantID, c.Params["list"], c.Params["id"])]
		if !ok {
			return nil, domain.ErrNotFound
		}
		return v, nil
	})
	p.Handle("POST", "/content/documentlists/{list}/documents", func(c *platformtest.Call) (any, error) {
		doc := c.BodyEntity().Clone()
		if doc.ID() == "" {
			f.mu.Lock()
			f.nextID++
			doc["id"] = fmt.Sprintf("new-%d", f.nextID)
			f.mu.Unlock()
		}
		return doc, nil
	})
	p.Handle("PUT", "/content/documentlists/{list}/documents/{id}", func(c *platformtest.Call) (any, error) {
		return c.BodyEntity(), nil
	})
	p.Reply("PUT", "/content/documentlists/{list}/documents/{id}/content", nil)
	return f
}

func (f *contentFixture) add(tenant int, list string, docs ...domain.Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[tenant][list] = append(f.docs[tenant][list], docs...)
}

func (f *contentFixture) setContent(tenant int, list, id string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[contentKey(tenant, list, id)] = v
}

func contentKey(tenant int, list, id string) string {
	return fmt.Sprintf("%d/%s/%s", tenant, list, id)
}

func documentsURL(list string) string {
	return "/content/documentlists/" + list + "/documents"
}
