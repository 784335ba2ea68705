package sync_tasks

import (
	"context"
	"testing"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/platformtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSettingsFallsBackToCreate(t *testing.T) {
	p := platformtest.New()
	p.Handle("GET", "/commerce/catalog/admin/search/settings", func(c *platformtest.Call) (any, error) {
		if c.Context.SiteID == 10 {
			return map[string]any{"items": []any{
				map[string]any{"settingsName": "other", "isDefault": false},
				map[string]any{"settingsName": "default", "isDefault": true, "boost": 2},
			}}, nil
		}
		return map[string]any{"items": []any{}}, nil
	})
	p.Reply("POST", "/commerce/catalog/admin/search/settings", nil)
	s := newTestSession(t, p, nil)

	result, err := NewSearchSettingsTask().Run(context.Background(), s)
	require.NoError(t, err)

	puts := p.Calls("PUT")
	require.Len(t, puts, 1)
	assert.Equal(t, "/commerce/catalog/admin/search/settings/default", puts[0].Path)
	posts := p.Calls("POST")
	require.Len(t, posts, 1)
	assert.Equal(t, float64(2), posts[0].BodyEntity()["boost"])
	assert.Equal(t, 1, result.Counts().Created)
}

func TestSearchSettingsWithoutDefaultIsSkipped(t *testing.T) {
	p := platformtest.New()
	p.Reply("GET", "/commerce/catalog/admin/search/settings", map[string]any{"items": []any{}})
	s := newTestSession(t, p, nil)

	result, err := NewSearchSettingsTask().Run(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, p.Calls("PUT"))
	assert.Equal(t, 1, result.Counts().Skipped)
}

func TestSearchFacetsRemapsCategoryAndSkipsExisting(t *testing.T) {
	p := platformtest.New()
	serveCategories(p, map[int][]domain.Entity{
		2: {{"id": 10, "categoryCode": "SHOES"}},
		3: {{"id": 99, "categoryCode": "SHOES"}},
	})
	p.Handle("GET", "/commerce/catalog/admin/facets", func(c *platformtest.Call) (any, error) {
		if c.Context.SiteID == 10 {
			return platformtest.Page(
				domain.Entity{"facetId": 1, "categoryId": 10, "overrideFacetId": 7, "source": map[string]any{"id": "size", "type": "Attribute"}},
				domain.Entity{"facetId": 2, "categoryId": 10, "source": map[string]any{"id": "color", "type": "Attribute"}},
				domain.Entity{"facetId": 3, "categoryId": 11, "source": map[string]any{"id": "brand", "type": "Attribute"}},
				domain.Entity{"facetId": 4, "source": map[string]any{"id": "price", "type": "Price"}},
			), nil
		}
		return platformtest.Page(
			domain.Entity{"facetId": 40, "catalogId": 3, "source": map[string]any{"id": "price", "type": "Price"}},
		), nil
	})
	p.Reply("POST", "/commerce/catalog/admin/facets", nil)
	s := newTestSession(t, p, nil)

	result, err := NewSearchFacetsTask().Run(context.Background(), s)
	require.NoError(t, err)

	posts := p.Calls("POST")
	require.Len(t, posts, 2)
	first := posts[0].BodyEntity()
	assert.Equal(t, "color", first.Map("source")["id"])
	assert.Equal(t, float64(99), first["categoryId"])
	assert.Equal(t, float64(3), first["catalogId"])
	assert.NotContains(t, first, "facetId")
	assert.Equal(t, "size", posts[1].BodyEntity().Map("source")["id"])

	counts := result.Counts()
	assert.Equal(t, 2, counts.Created)
	assert.Equal(t, 1, counts.Skipped)
	assert.Equal(t, 1, counts.Failed)
}

func TestSearchMerchandisingStripsPrefixes(t *testing.T) {
	p := platformtest.New()
	p.Handle("GET", "/commerce/catalog/admin/searchmerchandizingrules", func(c *platformtest.Call) (any, error) {
		if c.Context.SiteID == 10 {
			return platformtest.Page(
				domain.Entity{"code": "KW-EN-SALE", "categoryCode": "KW-AR-SHOES"},
				domain.Entity{"code": "PLAIN"},
			), nil
		}
		return platformtest.Page(domain.Entity{"code": "PLAIN"}), nil
	})
	p.Reply("PUT", "/commerce/catalog/admin/searchmerchandizingrules/{code}", nil)
	s := newTestSession(t, p, nil)

	result, err := NewSearchMerchandisingTask().Run(context.Background(), s)
	require.NoError(t, err)

	puts := p.Calls("PUT")
	require.Len(t, puts, 2)
	assert.Equal(t, "/commerce/catalog/admin/searchmerchandizingrules/KW-EN-SALE", puts[0].Path)
	assert.Equal(t, 10, puts[0].Context.SiteID)
	assert.Equal(t, map[string]any{"code": "SALE", "categoryCode": "SHOES"}, puts[0].Body)
	assert.Equal(t, "/commerce/catalog/admin/searchmerchandizingrules/SALE", puts[1].Path)
	assert.Equal(t, 20, puts[1].Context.SiteID)

	counts := result.Counts()
	assert.Equal(t, 2, counts.Updated)
	assert.Equal(t, 1, counts.Skipped)
}

func TestSearchRedirectsUpsertsByRedirectID(t *testing.T) {
	p := platformtest.New()
	p.Handle("GET", "/commerce/catalog/admin/search/redirect", func(c *platformtest.Call) (any, error) {
		if c.Context.SiteID == 10 {
			return platformtest.Page(
				domain.Entity{"redirectId": "r1", "redirectType": "keyword", "value": "new"},
				domain.Entity{"redirectId": "r2", "value": "same"},
			), nil
		}
		return platformtest.Page(
			domain.Entity{"redirectId": "r1", "redirectType": "keyword", "value": "old"},
			domain.Entity{"redirectId": "r2", "value": "same"},
		), nil
	})
	p.Reply("PUT", "/commerce/catalog/admin/search/redirect/{id}", nil)
	s := newTestSession(t, p, nil)

	result, err := NewSearchRedirectsTask().Run(context.Background(), s)
	require.NoError(t, err)

	puts := p.Calls("PUT")
	require.Len(t, puts, 1)
	assert.Equal(t, "/commerce/catalog/admin/search/redirect/r1", puts[0].Path)
	assert.Equal(t, "new", puts[0].BodyEntity()["value"])
	assert.Equal(t, 1, result.Counts().Updated)
	assert.Equal(t, 1, result.Counts().Skipped)
}

func TestEntitiesCopiesCatalogLists(t *testing.T) {
	p := platformtest.New()
	p.Reply("GET", "/platform/entitylists", platformtest.Page(
		domain.Entity{"name": "badges", "nameSpace": "acme", "contextLevel": "Catalog"},
		domain.Entity{"name": "stores", "nameSpace": "acme", "contextLevel": "tenant"},
	))
	p.Handle("GET", "/platform/entitylists/{fqn}/entities", func(c *platformtest.Call) (any, error) {
		if c.Context.SiteID == 10 {
			return platformtest.Page(domain.Entity{"id": "new", "label": "New"}), nil
		}
		return platformtest.Page(), nil
	})
	p.Reply("POST", "/platform/entitylists/{fqn}/entities", nil)
	s := newTestSession(t, p, nil)

	result, err := NewEntitiesTask().Run(context.Background(), s)
	require.NoError(t, err)

	puts := p.Calls("PUT")
	require.Len(t, puts, 1)
	assert.Equal(t, "/platform/entitylists/badges@acme/entities/new", puts[0].Path)
	posts := p.Calls("POST")
	require.Len(t, posts, 1)
	assert.Equal(t, "new", posts[0].BodyEntity()["id"])
	assert.Equal(t, 1, result.Counts().Created)
}

func TestCatalogEntityLists(t *testing.T) {
	fqns := CatalogEntityLists([]domain.Entity{
		{"name": "a", "nameSpace": "x", "contextLevel": "CATALOG"},
		{"name": "b", "nameSpace": "x", "contextLevel": "site"},
		{"name": "c", "nameSpace": "y", "contextLevel": "catalog"},
	})
	assert.Equal(t, []string{"a@x", "c@y"}, fqns)
}
