package sync_tasks

import (
	"context"
	"fmt"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

const categoriesPath = "/commerce/catalog/admin/categories"

// CategoriesTask creates missing categories in each destination catalog and
// re-parents existing ones whose parent differs from the source. Categories
// created before their parent existed are re-parented once every create has
// run.
type CategoriesTask struct{}

func NewCategoriesTask() *CategoriesTask {
	return &CategoriesTask{}
}

func (t *CategoriesTask) Name() string {
	return FamilyCategories
}

func (t *CategoriesTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	for _, pair := range s.Config.CatalogPairs {
		if err := t.syncPair(ctx, s, rec, pair); err != nil {
			return rec.result, err
		}
	}
	return rec.result, nil
}

func (t *CategoriesTask) syncPair(ctx context.Context, s *application.Session, rec *recorder, pair domain.Pair) error {
	s.Transition(t.Name(), domain.StateFetchingSource)
	source, err := s.Categories.Categories(ctx, pair.Source)
	if err != nil {
		return err
	}
	s.Transition(t.Name(), domain.StateFetchingTarget)
	destination, err := s.Categories.Categories(ctx, pair.Destination)
	if err != nil {
		return err
	}

	s.Transition(t.Name(), domain.StateDiffing)
	differ := reconcile.NewDiffer(reconcile.FieldKey("categoryCode"))
	index := differ.Index(destination)

	var creates []domain.Entity
	var reparents []reconcile.Decision
	for _, src := range source {
		d := differ.DiffIndexed(src, index)
		switch {
		case d.Op == reconcile.OpCreate:
			creates = append(creates, src)
		case d.Target.String("parentCategoryCode") != src.String("parentCategoryCode"):
			reparents = append(reparents, reconcile.Decision{Op: reconcile.OpUpdate, Entity: src, Target: d.Target})
		default:
			rec.skip(itemKey(pair, src.String("categoryCode")))
		}
	}

	s.Transition(t.Name(), domain.StateWriting)
	rc := s.CatalogContext().WithCatalog(pair.Destination)

	// Sources are ordered parents first, so a created parent is indexed
	// before any of its children is posted.
	var orphans []domain.Entity
	for _, src := range creates {
		code := src.String("categoryCode")
		parentCode := src.String("parentCategoryCode")
		work := src.Without(reconcile.RemoteFields...)
		work["catalogId"] = pair.Destination
		setParentID(work, index, parentCode)

		var created domain.Entity
		ok := rec.create(ctx, itemKey(pair, code), work, func(ctx context.Context) error {
			if err := s.Client.Post(ctx, rc, categoriesPath+"/", work, &created); err != nil {
				return fmt.Errorf("failed to create category %s: %w", code, err)
			}
			return nil
		})
		if ok {
			if created == nil {
				created = work
			}
			index[code] = created
			if _, linked := work["parentCategoryId"]; parentCode != "" && !linked {
				orphans = append(orphans, src)
			}
		}
	}

	// Cycle members and children listed ahead of their parent were created at
	// the root.
	for _, src := range orphans {
		code := src.String("categoryCode")
		if _, ok := index[src.String("parentCategoryCode")]; !ok {
			continue
		}
		work := index[code].Clone()
		setParentID(work, index, src.String("parentCategoryCode"))

		rec.update(ctx, itemKey(pair, code)+"#parent", work, func(ctx context.Context) error {
			if work.ID() == "" {
				return fmt.Errorf("failed to update parent of category %s: created category has no id", code)
			}
			path := fmt.Sprintf("%s/%s", categoriesPath, work.ID())
			if err := s.Client.Put(ctx, rc, path, work, nil); err != nil {
				return fmt.Errorf("failed to update parent of category %s: %w", code, err)
			}
			return nil
		})
	}

	for _, d := range reparents {
		code := d.Entity.String("categoryCode")
		work := d.Target.Clone()
		setParentID(work, index, d.Entity.String("parentCategoryCode"))

		rec.update(ctx, itemKey(pair, code), work, func(ctx context.Context) error {
			path := fmt.Sprintf("%s/%s", categoriesPath, work.ID())
			if err := s.Client.Put(ctx, rc, path, work, nil); err != nil {
				return fmt.Errorf("failed to update parent of category %s: %w", code, err)
			}
			return nil
		})
	}

	if len(creates) > 0 || len(reparents) > 0 {
		s.Categories.Invalidate(pair.Destination)
	}

	s.Logger.Info().
		Str("pair", pairKey(pair)).
		Int("source", len(source)).
		Int("destination", len(destination)).
		Int("creates", len(creates)).
		Int("reparents", len(reparents)+len(orphans)).
		Msg("Synced categories")
	return nil
}

// setParentID points e at the destination category with parentCode. An
// unknown parent leaves e at the root.
func setParentID(e domain.Entity, index map[string]domain.Entity, parentCode string) {
	if parent, ok := index[parentCode]; ok && parentCode != "" {
		if id, ok := parent.Int("id"); ok {
			e["parentCategoryId"] = id
			return
		}
	}
	delete(e, "parentCategoryId")
}
