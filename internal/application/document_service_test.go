package application

import (
	"context"
	"strings"
	"testing"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/platformtest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentServiceListIncludesInactive(t *testing.T) {
	p := platformtest.New()
	p.Reply("GET", "/content/documentlists/pages@mozu/documents", platformtest.Page(domain.Entity{"id": "a"}))
	svc := NewDocumentService(p, 20, zerolog.Nop())

	docs, err := svc.List(context.Background(), domain.RequestContext{TenantID: 1}, domain.ListPages)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "true", p.Calls("GET")[0].Query.Get("includeInactive"))
}

func TestDocumentServiceFindByName(t *testing.T) {
	p := platformtest.New()
	svc := NewDocumentService(p, 20, zerolog.Nop())
	rc := domain.RequestContext{TenantID: 1}

	doc, err := svc.FindByName(context.Background(), rc, domain.ListSiteSettings, "navigation")
	require.NoError(t, err)
	assert.Nil(t, doc)

	p.Reply("GET", "/content/documentlists/siteSettings@mozu/documents", map[string]any{
		"items": []any{map[string]any{"id": "n1", "name": "o'neil"}},
	})
	doc, err = svc.FindByName(context.Background(), rc, domain.ListSiteSettings, "o'neil")
	require.NoError(t, err)
	assert.Equal(t, "n1", doc.ID())
	assert.Equal(t, "name eq 'o''neil'", p.Calls("GET")[1].Query.Get("filter"))
}

func TestDocumentServiceSave(t *testing.T) {
	p := platformtest.New()
	p.Reply("POST", "/content/documentlists/pages@mozu/documents", domain.Entity{"id": "new", "name": "home"})
	p.Handle("PUT", "/content/documentlists/pages@mozu/documents/{id}", func(c *platformtest.Call) (any, error) {
		return c.BodyEntity(), nil
	})
	svc := NewDocumentService(p, 20, zerolog.Nop())
	rc := domain.RequestContext{TenantID: 1}

	saved, created, err := svc.Save(context.Background(), rc, domain.ListPages, domain.Entity{"name": "home"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "new", saved.ID())

	saved, created, err = svc.Save(context.Background(), rc, domain.ListPages, domain.Entity{"id": "p1", "name": "about"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "about", saved.String("name"))
	assert.Equal(t, "p1", p.Calls("PUT")[0].Params["id"])

	_, err = svc.Update(context.Background(), rc, domain.ListPages, domain.Entity{"name": "orphan"})
	assert.ErrorContains(t, err, "missing id")
}

func TestDocumentServiceContentAndPublishing(t *testing.T) {
	p := platformtest.New()
	p.Reply("PUT", "/content/documentlists/files@mozu/documents/{id}/content", nil)
	p.Reply("PUT", "/content/documentpublishing/active", nil)
	p.Reply("POST", "/content/documentpublishing/draft", nil)
	svc := NewDocumentService(p, 20, zerolog.Nop())
	rc := domain.RequestContext{TenantID: 1, SiteID: 2}
	ctx := context.Background()

	require.NoError(t, svc.PutRawContent(ctx, rc, domain.ListFiles, "red", "image/png", strings.NewReader("png")))
	require.NoError(t, svc.Publish(ctx, rc, []string{domain.ListPages, domain.ListFiles}))
	require.NoError(t, svc.DeleteDrafts(ctx, rc, []string{domain.ListPages}))

	puts := p.Calls("PUT")
	require.Len(t, puts, 2)
	assert.Equal(t, "image/png", puts[0].ContentType)
	assert.Equal(t, []byte("png"), puts[0].Raw)
	assert.Equal(t, "pages@mozu,files@mozu", puts[1].Query.Get("documentLists"))
	assert.Equal(t, "pages@mozu", p.Calls("POST")[0].Query.Get("documentLists"))
}
