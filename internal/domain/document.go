package domain

import "strings"

// Document lists synchronised between content sites.
const (
	ListSiteSettings        = "siteSettings@mozu"
	ListPages               = "pages@mozu"
	ListPageTemplateContent = "pageTemplateContent@mozu"
	ListCatalogContent      = "catalogContent@mozu"
	ListFiles               = "files@mozu"
)

const (
	DocumentNavigation = "navigation"
	DocumentRedirects  = "redirects.1.1"

	DocumentTypeDefault = "document@mozu"
	DocumentTypeImage   = "image@mozu"

	// DataViewPending makes the target site read and write drafts.
	DataViewPending = "Pending"

	ThemeSettingsPrefix  = "theme_settings_"
	CatalogContentPrefix = "category"
	NavigationPagePrefix = "page^^" + ListPages + "^^"
)

// ContentLists are loaded for every content site.
var ContentLists = []string{ListSiteSettings, ListPages, ListPageTemplateContent, ListCatalogContent}

// DocumentCollection holds the documents of a content site keyed by list FQN.
type DocumentCollection map[string][]Entity

// Find returns the first document in list with the given name, or nil.
func (c DocumentCollection) Find(list, name string) Entity {
	for _, d := range c[list] {
		if d.String("name") == name {
			return d
		}
	}
	return nil
}

// WithPrefix returns the documents in list whose name starts with prefix.
func (c DocumentCollection) WithPrefix(list, prefix string) []Entity {
	var out []Entity
	for _, d := range c[list] {
		if strings.HasPrefix(d.String("name"), prefix) {
			out = append(out, d)
		}
	}
	return out
}
