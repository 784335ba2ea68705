package domain

// Tenant is the subset of /platform/tenants/{id} the sync relies on.
type Tenant struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Sites          []Site          `json:"sites"`
	MasterCatalogs []MasterCatalog `json:"masterCatalogs"`
}

type Site struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	CatalogID  int    `json:"catalogId"`
	LocaleCode string `json:"localeCode"`
}

type MasterCatalog struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Catalogs []Catalog `json:"catalogs"`
}

type Catalog struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	DefaultLocaleCode   string `json:"defaultLocaleCode"`
	DefaultCurrencyCode string `json:"defaultCurrencyCode"`
}

// Pair is a configured source to destination id mapping for sites or catalogs.
type Pair struct {
	Source      int `json:"source"`
	Destination int `json:"destination"`
}

// FindSite returns the site with the given id, or nil.
func (t *Tenant) FindSite(id int) *Site {
	for i := range t.Sites {
		if t.Sites[i].ID == id {
			return &t.Sites[i]
		}
	}
	return nil
}

// FindCatalog searches every master catalog for the catalog with the given id.
func (t *Tenant) FindCatalog(id int) *Catalog {
	for i := range t.MasterCatalogs {
		for j := range t.MasterCatalogs[i].Catalogs {
			if t.MasterCatalogs[i].Catalogs[j].ID == id {
				return &t.MasterCatalogs[i].Catalogs[j]
			}
		}
	}
	return nil
}

func (t *Tenant) HasMasterCatalog(id int) bool {
	for _, mc := range t.MasterCatalogs {
		if mc.ID == id {
			return true
		}
	}
	return false
}

// CatalogMap indexes every catalog of every master catalog by id.
func (t *Tenant) CatalogMap() map[int]Catalog {
	out := make(map[int]Catalog)
	for _, mc := range t.MasterCatalogs {
		for _, c := range mc.Catalogs {
			out[c.ID] = c
		}
	}
	return out
}

// UniqueCatalogIDs returns the catalogs referenced by the tenant's sites in
// site order, without duplicates.
func (t *Tenant) UniqueCatalogIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, s := range t.Sites {
		if !seen[s.CatalogID] {
			seen[s.CatalogID] = true
			ids = append(ids, s.CatalogID)
		}
	}
	return ids
}
