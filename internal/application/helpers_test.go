package application

import (
	"fmt"
	"testing"

	"catalog-content-sync/internal/config"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/platformtest"

	"github.com/rs/zerolog"
)

func testConfig() *config.Config {
	return &config.Config{
		TenantID:      100,
		MasterCatalog: 1,
		PrimeCatalog:  1,
		CatalogPairs:  []domain.Pair{{Source: 2, Destination: 3}},
		SitePairs:     []domain.Pair{{Source: 10, Destination: 20}},
		Content: config.ContentConfig{
			Source: config.ContentSite{TenantID: 200, SiteID: 30, LocalePrefix: "en-us"},
			Target: config.ContentSite{TenantID: 300, SiteID: 40, LocalePrefix: "ar-ae"},
		},
		PageSize: 200,
	}
}

func serveTenants(p *platformtest.Platform) {
	tenants := map[int]domain.Tenant{
		100: {
			ID: 100,
			Sites: []domain.Site{
				{ID: 10, CatalogID: 2, LocaleCode: "en-US"},
				{ID: 20, CatalogID: 3, LocaleCode: "en-US"},
			},
			MasterCatalogs: []domain.MasterCatalog{{ID: 1, Catalogs: []domain.Catalog{
				{ID: 1, DefaultLocaleCode: "en-US"},
				{ID: 2, DefaultLocaleCode: "en-US"},
				{ID: 3, DefaultLocaleCode: "en-US"},
			}}},
		},
		200: {ID: 200, Sites: []domain.Site{{ID: 30}}},
		300: {ID: 300, Sites: []domain.Site{{ID: 40}}},
	}
	for id, tenant := range tenants {
		p.Reply("GET", fmt.Sprintf("/platform/tenants/%d", id), tenant)
	}
}

func newTestSession(t *testing.T, p *platformtest.Platform, cfg *config.Config, opts SessionOptions) *Session {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	return NewSession(cfg, p, zerolog.Nop(), opts)
}
