package application

import (
	"context"
	"fmt"
	"sync"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/ports"
	"catalog-content-sync/internal/reconcile"

	"github.com/rs/zerolog"
)

const categoriesPath = "/commerce/catalog/admin/categories"

// CategoryStore memoizes the categories of each catalog and the identifier
// maps built from them for one run.
type CategoryStore struct {
	client   ports.PlatformClient
	base     domain.RequestContext
	pageSize int
	logger   zerolog.Logger

	mu    sync.Mutex
	lists map[int][]domain.Entity
	maps  map[domain.Pair]reconcile.IdentifierMap
}

func NewCategoryStore(client ports.PlatformClient, base domain.RequestContext, pageSize int, logger zerolog.Logger) *CategoryStore {
	return &CategoryStore{
		client:   client,
		base:     base,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "category_store").Logger(),
		lists:    make(map[int][]domain.Entity),
		maps:     make(map[domain.Pair]reconcile.IdentifierMap),
	}
}

// Categories returns every category of catalogID, parents before children.
func (s *CategoryStore) Categories(ctx context.Context, catalogID int) ([]domain.Entity, error) {
	s.mu.Lock()
	cached, ok := s.lists[catalogID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	rc := s.base.WithCatalog(catalogID)
	items, err := FetchCollection(ctx, s.client, rc, categoriesPath, nil, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories for catalog %d: %w", catalogID, err)
	}
	items = OrderParentsFirst(items)

	s.logger.Info().
		Int("catalogId", catalogID).
		Int("categories", len(items)).
		Msg("Loaded categories")

	s.mu.Lock()
	s.lists[catalogID] = items
	s.mu.Unlock()
	return items, nil
}

// Load fetches the categories of every catalog in catalogIDs.
func (s *CategoryStore) Load(ctx context.Context, catalogIDs []int) error {
	for _, id := range catalogIDs {
		if _, err := s.Categories(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// IdentifierMap maps category ids of catalog from to catalog to by category code.
func (s *CategoryStore) IdentifierMap(ctx context.Context, from, to int) (reconcile.IdentifierMap, error) {
	key := domain.Pair{Source: from, Destination: to}
	s.mu.Lock()
	m, ok := s.maps[key]
	s.mu.Unlock()
	if ok {
		return m, nil
	}

	source, err := s.Categories(ctx, from)
	if err != nil {
		return nil, err
	}
	target, err := s.Categories(ctx, to)
	if err != nil {
		return nil, err
	}

	m, stats := reconcile.BuildIdentifierMapByCode(source, target, s.logger)
	s.logger.Debug().
		Int("from", from).
		Int("to", to).
		Int("mapped", stats.Mapped).
		Int("unmatched", stats.Unmatched).
		Int("ambiguous", stats.Ambiguous).
		Msg("Built category identifier map")

	s.mu.Lock()
	s.maps[key] = m
	s.mu.Unlock()
	return m, nil
}

// Invalidate drops everything derived from catalogID after it was written to.
func (s *CategoryStore) Invalidate(catalogID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, catalogID)
	for k := range s.maps {
		if k.Source == catalogID || k.Destination == catalogID {
			delete(s.maps, k)
		}
	}
}

// OrderParentsFirst orders categories breadth first so every parent precedes
// its children. Categories whose parent is not in the list are roots and keep
// their input order. Members of a parent cycle are appended last.
func OrderParentsFirst(categories []domain.Entity) []domain.Entity {
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		if _, ok := index[c.String("categoryCode")]; !ok {
			index[c.String("categoryCode")] = i
		}
	}

	children := make(map[int][]int)
	var queue []int
	for i, c := range categories {
		parentCode := c.String("parentCategoryCode")
		p, ok := index[parentCode]
		if parentCode == "" || !ok || p == i {
			queue = append(queue, i)
			continue
		}
		children[p] = append(children[p], i)
	}

	out := make([]domain.Entity, 0, len(categories))
	placed := make([]bool, len(categories))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if placed[i] {
			continue
		}
		placed[i] = true
		out = append(out, categories[i])
		queue = append(queue, children[i]...)
	}
	for i, c := range categories {
		if !placed[i] {
			out = append(out, c)
		}
	}
	return out
}
