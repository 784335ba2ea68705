package application

import (
	"context"
	"fmt"

	"catalog-content-sync/internal/domain"
)

// ContentSite is the loaded document state of one content site.
type ContentSite struct {
	Context   domain.RequestContext
	Locale    string
	Documents domain.DocumentCollection
	// RedirectDocument is the redirects document of siteSettings, nil when absent.
	RedirectDocument domain.Entity
	// Redirects is the content of RedirectDocument.
	Redirects []domain.Entity
}

// LoadContentSite reads every synchronised document list of a site and the
// content of its redirects document.
func LoadContentSite(ctx context.Context, docs *DocumentService, rc domain.RequestContext, locale string) (*ContentSite, error) {
	site := &ContentSite{
		Context:   rc,
		Locale:    locale,
		Documents: make(domain.DocumentCollection, len(domain.ContentLists)),
	}
	for _, list := range domain.ContentLists {
		items, err := docs.List(ctx, rc, list)
		if err != nil {
			return nil, err
		}
		site.Documents[list] = items
	}

	site.RedirectDocument = site.Documents.Find(domain.ListSiteSettings, domain.DocumentRedirects)
	if site.RedirectDocument != nil {
		var content []domain.Entity
		if err := docs.GetContent(ctx, rc, domain.ListSiteSettings, site.RedirectDocument.ID(), &content); err != nil {
			return nil, fmt.Errorf("failed to load redirects of site %d: %w", rc.SiteID, err)
		}
		site.Redirects = content
	}

	docs.logger.Info().
		Int("tenantId", rc.TenantID).
		Int("siteId", rc.SiteID).
		Int("pages", len(site.Documents[domain.ListPages])).
		Int("catalogContent", len(site.Documents[domain.ListCatalogContent])).
		Int("redirects", len(site.Redirects)).
		Msg("Loaded content site")

	return site, nil
}
