package domain

// RequestContext selects the tenant, site and catalog a platform call is
// scoped to. It is passed by value into every client call and never mutated
// on a shared client.
type RequestContext struct {
	TenantID        int    `json:"tenantId"`
	SiteID          int    `json:"siteId,omitempty"`
	CatalogID       int    `json:"catalogId,omitempty"`
	MasterCatalogID int    `json:"masterCatalogId,omitempty"`
	DataViewMode    string `json:"dataViewMode,omitempty"`
}

func (rc RequestContext) WithSite(siteID int) RequestContext {
	rc.SiteID = siteID
	return rc
}

func (rc RequestContext) WithCatalog(catalogID int) RequestContext {
	rc.CatalogID = catalogID
	return rc
}

func (rc RequestContext) WithMasterCatalog(masterCatalogID int) RequestContext {
	rc.MasterCatalogID = masterCatalogID
	return rc
}

func (rc RequestContext) WithDataViewMode(mode string) RequestContext {
	rc.DataViewMode = mode
	return rc
}
