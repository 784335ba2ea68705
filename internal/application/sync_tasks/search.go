package sync_tasks

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

const (
	searchSettingsPath = "/commerce/catalog/admin/search/settings"
	facetsPath         = "/commerce/catalog/admin/facets"
	merchandisingPath  = "/commerce/catalog/admin/searchmerchandizingrules"
	searchRedirectPath = "/commerce/catalog/admin/search/redirect"
)

// SearchSettingsTask copies the default search settings of each source site.
type SearchSettingsTask struct{}

func NewSearchSettingsTask() *SearchSettingsTask {
	return &SearchSettingsTask{}
}

func (t *SearchSettingsTask) Name() string {
	return FamilySearchSettings
}

func (t *SearchSettingsTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	differ := reconcile.NewDiffer(reconcile.FieldKey("settingsName"))

	for _, pair := range s.Config.SitePairs {
		srcRC, dstRC, err := s.SiteContexts(ctx, pair)
		if err != nil {
			return rec.result, err
		}

		s.Transition(t.Name(), domain.StateFetchingSource)
		var source struct {
			Items []domain.Entity `json:"items"`
		}
		if err := s.Client.Get(ctx, srcRC, searchSettingsPath, &source); err != nil {
			return rec.result, fmt.Errorf("failed to get search settings of site %d: %w", pair.Source, err)
		}
		var setting domain.Entity
		for _, item := range source.Items {
			if item.Bool("isDefault") {
				setting = item
				break
			}
		}
		if setting == nil {
			rec.logger.Warn().Int("site", pair.Source).Msg("No default search setting found")
			rec.skip(pairKey(pair))
			continue
		}
		name := setting.String("settingsName")
		key := itemKey(pair, name)

		s.Transition(t.Name(), domain.StateFetchingTarget)
		var target struct {
			Items []domain.Entity `json:"items"`
		}
		if err := s.Client.Get(ctx, dstRC, searchSettingsPath, &target); err != nil {
			rec.fail(key, fmt.Errorf("failed to get search settings of site %d: %w", pair.Destination, err))
			continue
		}

		s.Transition(t.Name(), domain.StateDiffing)
		d := differ.Diff(setting, target.Items)
		if d.Op == reconcile.OpSkip {
			rec.skip(key)
			continue
		}

		s.Transition(t.Name(), domain.StateWriting)
		rec.upsert(ctx, key, nil,
			func(ctx context.Context) error {
				return s.Client.Put(ctx, dstRC, searchSettingsPath+"/"+url.PathEscape(name), d.Entity, nil)
			},
			func(ctx context.Context) error {
				return s.Client.Post(ctx, dstRC, searchSettingsPath, d.Entity, nil)
			})
	}
	return rec.result, nil
}

// SearchFacetsTask creates the facets missing from each destination site,
// translating their category through the catalog identifier map.
type SearchFacetsTask struct{}

func NewSearchFacetsTask() *SearchFacetsTask {
	return &SearchFacetsTask{}
}

func (t *SearchFacetsTask) Name() string {
	return FamilySearchFacets
}

func (t *SearchFacetsTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	for _, pair := range s.Config.SitePairs {
		srcRC, dstRC, err := s.SiteContexts(ctx, pair)
		if err != nil {
			return rec.result, err
		}

		s.Transition(t.Name(), domain.StateFetchingSource)
		source, err := application.FetchCollection(ctx, s.Client, srcRC, facetsPath, nil, s.Config.PageSize)
		if err != nil {
			return rec.result, fmt.Errorf("failed to get facets of site %d: %w", pair.Source, err)
		}
		s.Transition(t.Name(), domain.StateFetchingTarget)
		target, err := application.FetchCollection(ctx, s.Client, dstRC, facetsPath, nil, s.Config.PageSize)
		if err != nil {
			return rec.result, fmt.Errorf("failed to get facets of site %d: %w", pair.Destination, err)
		}

		s.Transition(t.Name(), domain.StateBuildingMap)
		categories, err := s.Categories.IdentifierMap(ctx, srcRC.CatalogID, dstRC.CatalogID)
		if err != nil {
			return rec.result, err
		}
		destCategories, err := s.Categories.Categories(ctx, dstRC.CatalogID)
		if err != nil {
			return rec.result, err
		}
		codes := make(map[int]string, len(destCategories))
		for _, c := range destCategories {
			if id, ok := c.Int("id"); ok {
				codes[id] = c.String("categoryCode")
			}
		}

		s.Transition(t.Name(), domain.StateDiffing)
		sort.SliceStable(source, func(i, j int) bool {
			return source[i]["overrideFacetId"] == nil && source[j]["overrideFacetId"] != nil
		})

		s.Transition(t.Name(), domain.StateWriting)
		for _, facet := range source {
			work := facet.Clone()
			work["catalogId"] = dstRC.CatalogID
			key := itemKey(pair, facetKey(work))

			if id, ok := work.Int("categoryId"); ok {
				to, mapped := categories.Lookup(id)
				if !mapped {
					rec.fail(key, fmt.Errorf("category %d of facet has no destination match", id))
					continue
				}
				work["categoryId"] = to
				if _, ok := work["categoryCode"]; ok {
					work["categoryCode"] = codes[to]
				}
			}

			if containsFacet(target, work) {
				rec.skip(key)
				continue
			}
			delete(work, "facetId")

			var created domain.Entity
			ok := rec.create(ctx, key, nil, func(ctx context.Context) error {
				if err := s.Client.Post(ctx, dstRC, facetsPath, work, &created); err != nil {
					return fmt.Errorf("failed to create facet: %w", err)
				}
				return nil
			})
			if ok {
				if created == nil {
					created = work
				}
				target = append(target, created)
			}
		}
	}
	return rec.result, nil
}

// facetKey identifies a facet by catalog, source id and source type.
func facetKey(f domain.Entity) string {
	src := f.Map("source")
	return fmt.Sprintf("%s/%s/%s",
		domain.KeyString(f["catalogId"]), domain.KeyString(src["id"]), domain.KeyString(src["type"]))
}

func containsFacet(facets []domain.Entity, f domain.Entity) bool {
	key := facetKey(f)
	for _, c := range facets {
		if facetKey(c) == key {
			return true
		}
	}
	return false
}

// SearchMerchandisingTask strips environment prefixes from merchandising
// rules, saves the cleaned rules back to the source and copies every rule to
// the destination.
type SearchMerchandisingTask struct{}

func NewSearchMerchandisingTask() *SearchMerchandisingTask {
	return &SearchMerchandisingTask{}
}

func (t *SearchMerchandisingTask) Name() string {
	return FamilySearchMerchandising
}

func (t *SearchMerchandisingTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	stripper, err := reconcile.NewPrefixStripper(s.Config.CodePrefixPattern)
	if err != nil {
		return rec.result, precondition("invalid code prefix pattern: %v", err)
	}
	differ := reconcile.NewDiffer(reconcile.FieldKey("code"))

	for _, pair := range s.Config.SitePairs {
		srcRC, dstRC, err := s.SiteContexts(ctx, pair)
		if err != nil {
			return rec.result, err
		}

		s.Transition(t.Name(), domain.StateFetchingSource)
		rules, err := application.FetchCollection(ctx, s.Client, srcRC, merchandisingPath, nil, s.Config.PageSize)
		if err != nil {
			return rec.result, fmt.Errorf("failed to get merchandising rules of site %d: %w", pair.Source, err)
		}
		s.Transition(t.Name(), domain.StateFetchingTarget)
		target, err := application.FetchCollection(ctx, s.Client, dstRC, merchandisingPath, nil, s.Config.PageSize)
		if err != nil {
			return rec.result, fmt.Errorf("failed to get merchandising rules of site %d: %w", pair.Destination, err)
		}
		index := differ.Index(target)

		s.Transition(t.Name(), domain.StateWriting)
		for _, rule := range rules {
			cleaned, changed := stripper.Strip(rule)
			code := cleaned.String("code")

			if changed {
				srcKey := "source/" + itemKey(pair, rule.String("code"))
				rec.upsert(ctx, srcKey, nil,
					func(ctx context.Context) error {
						return s.Client.Put(ctx, srcRC, merchandisingPath+"/"+url.PathEscape(rule.String("code")), cleaned, nil)
					},
					func(ctx context.Context) error {
						return s.Client.Post(ctx, srcRC, merchandisingPath, cleaned, nil)
					})
			}

			key := itemKey(pair, code)
			d := differ.DiffIndexed(cleaned, index)
			if d.Op == reconcile.OpSkip {
				rec.skip(key)
				continue
			}
			rec.upsert(ctx, key, nil,
				func(ctx context.Context) error {
					return s.Client.Put(ctx, dstRC, merchandisingPath+"/"+url.PathEscape(code), d.Entity, nil)
				},
				func(ctx context.Context) error {
					return s.Client.Post(ctx, dstRC, merchandisingPath, d.Entity, nil)
				})
		}
	}
	return rec.result, nil
}

// SearchRedirectsTask copies the search redirects of every site pair.
type SearchRedirectsTask struct{}

func NewSearchRedirectsTask() *SearchRedirectsTask {
	return &SearchRedirectsTask{}
}

func (t *SearchRedirectsTask) Name() string {
	return FamilySearchRedirects
}

func (t *SearchRedirectsTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	differ := reconcile.NewDiffer(reconcile.FieldKey("redirectId"), reconcile.WithCarriedFields("redirectId"))

	for _, pair := range s.Config.SitePairs {
		srcRC, dstRC, err := s.SiteContexts(ctx, pair)
		if err != nil {
			return rec.result, err
		}

		s.Transition(t.Name(), domain.StateFetchingSource)
		source, err := application.FetchCollection(ctx, s.Client, srcRC, searchRedirectPath, nil, s.Config.PageSize)
		if err != nil {
			return rec.result, fmt.Errorf("failed to get search redirects of site %d: %w", pair.Source, err)
		}
		s.Transition(t.Name(), domain.StateFetchingTarget)
		target, err := application.FetchCollection(ctx, s.Client, dstRC, searchRedirectPath, nil, s.Config.PageSize)
		if err != nil {
			return rec.result, fmt.Errorf("failed to get search redirects of site %d: %w", pair.Destination, err)
		}

		s.Transition(t.Name(), domain.StateDiffing)
		index := differ.Index(target)

		s.Transition(t.Name(), domain.StateWriting)
		for _, redirect := range source {
			id := domain.KeyString(redirect["redirectId"])
			key := itemKey(pair, id)
			d := differ.DiffIndexed(redirect, index)
			if d.Op == reconcile.OpSkip {
				rec.skip(key)
				continue
			}
			d.Entity["redirectId"] = redirect["redirectId"]
			rec.upsert(ctx, key, nil,
				func(ctx context.Context) error {
					return s.Client.Put(ctx, dstRC, searchRedirectPath+"/"+url.PathEscape(id), d.Entity, nil)
				},
				func(ctx context.Context) error {
					return s.Client.Post(ctx, dstRC, searchRedirectPath, d.Entity, nil)
				})
		}
	}
	return rec.result, nil
}
