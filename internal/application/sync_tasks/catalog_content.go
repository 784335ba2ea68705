package sync_tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

// CatalogContentTask copies the category content documents of the source
// content site, renaming them after the matching target category.
type CatalogContentTask struct{}

func NewCatalogContentTask() *CatalogContentTask {
	return &CatalogContentTask{}
}

func (t *CatalogContentTask) Name() string {
	return FamilyCatalogContent
}

func (t *CatalogContentTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())

	s.Transition(t.Name(), domain.StateFetchingSource)
	source, target, err := s.ContentSites(ctx)
	if err != nil {
		return rec.result, err
	}

	s.Transition(t.Name(), domain.StateBuildingMap)
	categories, err := t.identifierMap(ctx, s, source, target)
	if err != nil {
		return rec.result, err
	}

	s.Transition(t.Name(), domain.StateDiffing)
	pipeline := reconcile.NewPipeline(reconcile.LocaleLinkTransformer(source.Locale, target.Locale))
	docs := source.Documents.WithPrefix(domain.ListCatalogContent, domain.CatalogContentPrefix)

	s.Transition(t.Name(), domain.StateWriting)
	for _, doc := range docs {
		name := doc.String("name")
		sourceID, ok := ParseCategoryID(name)
		if !ok {
			rec.logger.Warn().Str("document", name).Msg("Malformed category content document name")
			rec.skip(name)
			continue
		}
		targetID, ok := categories.Lookup(sourceID)
		if !ok {
			rec.logger.Warn().Int("categoryId", sourceID).Msg("No target category for category content")
			rec.skip(name)
			continue
		}

		targetName := fmt.Sprintf("category-%d", targetID)
		existing := target.Documents.Find(domain.ListCatalogContent, targetName)
		var work domain.Entity
		if existing != nil {
			if !s.Config.ContentOverwrite {
				rec.skip(name)
				continue
			}
			work = existing.Clone()
			work["properties"] = doc.Clone()["properties"]
		} else {
			work = doc.Without(reconcile.RemoteFields...)
			work["name"] = targetName
			props := work.Map("properties")
			if props == nil {
				props = domain.Entity{}
				work["properties"] = map[string]any(props)
			}
			props["translated"] = false
		}

		work, err = pipeline.Run(ctx, work)
		if err != nil {
			rec.fail(name, fmt.Errorf("failed to transform %s: %w", name, err))
			continue
		}
		if sameProperties(existing, work) {
			rec.skip(name)
			continue
		}
		t.save(ctx, s, rec, target, name, work)
	}
	return rec.result, nil
}

func (t *CatalogContentTask) save(ctx context.Context, s *application.Session, rec *recorder, target *application.ContentSite, key string, doc domain.Entity) {
	write := func(ctx context.Context) error {
		_, _, err := s.Documents.Save(ctx, target.Context, domain.ListCatalogContent, doc)
		return err
	}
	if doc.ID() != "" {
		rec.update(ctx, key, nil, write)
		return
	}
	rec.create(ctx, key, nil, write)
}

// identifierMap matches the categories of the two content sites, ignoring the
// configured source category prefix when there is one.
func (t *CatalogContentTask) identifierMap(ctx context.Context, s *application.Session, source, target *application.ContentSite) (reconcile.IdentifierMap, error) {
	src, err := application.FetchCollection(ctx, s.Client, source.Context, "/commerce/catalog/admin/categories", nil, s.Config.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get source content categories: %w", err)
	}
	dst, err := application.FetchCollection(ctx, s.Client, target.Context, "/commerce/catalog/admin/categories", nil, s.Config.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get target content categories: %w", err)
	}

	cmp := reconcile.CodeComparator
	if prefix := s.Config.Content.Source.CategoryPrefix; prefix != "" {
		cmp = reconcile.PrefixStrippingComparator(prefix)
	}
	m, stats := reconcile.BuildIdentifierMap(src, dst, cmp, s.Logger)
	s.Logger.Info().
		Int("mapped", stats.Mapped).
		Int("unmatched", stats.Unmatched).
		Int("ambiguous", stats.Ambiguous).
		Msg("Built content category map")
	return m, nil
}

// ParseCategoryID reads the category id after the last "-" of a catalog
// content document name such as "category-123".
func ParseCategoryID(name string) (int, bool) {
	i := strings.LastIndex(name, "-")
	if i < 0 {
		return 0, false
	}
	id, err := strconv.Atoi(name[i+1:])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
