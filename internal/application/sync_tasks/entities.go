package sync_tasks

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

const entityListsPath = "/platform/entitylists"

// EntitiesTask copies the entities of every catalog level entity list.
type EntitiesTask struct{}

func NewEntitiesTask() *EntitiesTask {
	return &EntitiesTask{}
}

func (t *EntitiesTask) Name() string {
	return FamilyEntities
}

func (t *EntitiesTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())

	lists, err := application.FetchCollection(ctx, s.Client, s.CatalogContext(), entityListsPath, nil, s.Config.PageSize)
	if err != nil {
		return rec.result, fmt.Errorf("failed to get entity lists: %w", err)
	}
	fqns := CatalogEntityLists(lists)
	rec.logger.Info().Strs("lists", fqns).Msg("Found catalog entity lists")

	differ := reconcile.NewDiffer(reconcile.FieldKey("id"))
	for _, pair := range s.Config.SitePairs {
		srcRC, dstRC, err := s.SiteContexts(ctx, pair)
		if err != nil {
			return rec.result, err
		}
		for _, fqn := range fqns {
			path := entityListsPath + "/" + url.PathEscape(fqn) + "/entities"

			s.Transition(t.Name(), domain.StateFetchingSource)
			source, err := application.FetchCollection(ctx, s.Client, srcRC, path, nil, s.Config.PageSize)
			if err != nil {
				rec.fail(itemKey(pair, fqn), fmt.Errorf("failed to get entities of %s: %w", fqn, err))
				continue
			}
			s.Transition(t.Name(), domain.StateFetchingTarget)
			target, err := application.FetchCollection(ctx, s.Client, dstRC, path, nil, s.Config.PageSize)
			if err != nil {
				rec.fail(itemKey(pair, fqn), fmt.Errorf("failed to get entities of %s: %w", fqn, err))
				continue
			}

			s.Transition(t.Name(), domain.StateWriting)
			index := differ.Index(target)
			for _, entity := range source {
				id := entity.ID()
				key := itemKey(pair, fqn+"/"+id)
				d := differ.DiffIndexed(entity, index)
				if d.Op == reconcile.OpSkip {
					rec.skip(key)
					continue
				}
				// Entity ids are business keys chosen by the caller.
				work := entity.Clone()
				rec.upsert(ctx, key, nil,
					func(ctx context.Context) error {
						return s.Client.Put(ctx, dstRC, path+"/"+url.PathEscape(id), work, nil)
					},
					func(ctx context.Context) error {
						return s.Client.Post(ctx, dstRC, path, work, nil)
					})
			}
		}
	}
	return rec.result, nil
}

// CatalogEntityLists returns the "name@nameSpace" of lists whose context
// level is catalog.
func CatalogEntityLists(lists []domain.Entity) []string {
	var fqns []string
	for _, l := range lists {
		if !strings.EqualFold(l.String("contextLevel"), "catalog") {
			continue
		}
		fqns = append(fqns, l.String("name")+"@"+l.String("nameSpace"))
	}
	return fqns
}

// CleanCategoriesTask strips environment prefixes from the category codes of
// every catalog used by a site.
type CleanCategoriesTask struct{}

func NewCleanCategoriesTask() *CleanCategoriesTask {
	return &CleanCategoriesTask{}
}

func (t *CleanCategoriesTask) Name() string {
	return FamilyCleanCategories
}

func (t *CleanCategoriesTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	stripper, err := reconcile.NewPrefixStripper(s.Config.CodePrefixPattern)
	if err != nil {
		return rec.result, precondition("invalid code prefix pattern: %v", err)
	}
	tenant, err := s.Tenants.GetTenant(ctx, s.Config.TenantID)
	if err != nil {
		return rec.result, err
	}

	for _, catalogID := range tenant.UniqueCatalogIDs() {
		s.Transition(t.Name(), domain.StateFetchingSource)
		categories, err := s.Categories.Categories(ctx, catalogID)
		if err != nil {
			return rec.result, err
		}

		s.Transition(t.Name(), domain.StateWriting)
		rc := s.CatalogContext().WithCatalog(catalogID)
		written := false
		for _, c := range categories {
			code := c.String("categoryCode")
			if !stripper.HasPrefix(code) {
				continue
			}
			work := c.Clone()
			work["categoryCode"] = stripper.TrimPrefix(code)
			key := fmt.Sprintf("%d/%s", catalogID, code)
			rec.update(ctx, key, map[string]any{"categoryCode": work["categoryCode"]}, func(ctx context.Context) error {
				if err := s.Client.Put(ctx, rc, fmt.Sprintf("%s/%s", categoriesPath, work.ID()), work, nil); err != nil {
					return fmt.Errorf("failed to rename category %s: %w", code, err)
				}
				return nil
			})
			written = true
		}
		if written {
			s.Categories.Invalidate(catalogID)
		}
	}
	return rec.result, nil
}
