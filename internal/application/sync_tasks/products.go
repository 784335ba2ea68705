package sync_tasks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

const productsPath = "/commerce/catalog/admin/products"

// ProductsTask brings the catalog memberships of every product in line with
// its prime catalog membership: missing destination memberships are cloned
// from the source, images are back-filled and category references remapped.
type ProductsTask struct{}

func NewProductsTask() *ProductsTask {
	return &ProductsTask{}
}

func (t *ProductsTask) Name() string {
	return FamilyProducts
}

type pairMaps struct {
	pair        domain.Pair
	toSource    reconcile.IdentifierMap
	destination reconcile.IdentifierMap
}

func (t *ProductsTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	cfg := s.Config

	tenant, err := s.Tenants.GetTenant(ctx, cfg.TenantID)
	if err != nil {
		return rec.result, err
	}
	catalogs := tenant.CatalogMap()

	s.Transition(t.Name(), domain.StateBuildingMap)
	if err := s.Categories.Load(ctx, tenant.UniqueCatalogIDs()); err != nil {
		return rec.result, err
	}
	maps := make([]pairMaps, 0, len(cfg.CatalogPairs))
	for _, pair := range cfg.CatalogPairs {
		toSource, err := s.Categories.IdentifierMap(ctx, cfg.PrimeCatalog, pair.Source)
		if err != nil {
			return rec.result, err
		}
		toDestination, err := s.Categories.IdentifierMap(ctx, cfg.PrimeCatalog, pair.Destination)
		if err != nil {
			return rec.result, err
		}
		maps = append(maps, pairMaps{pair: pair, toSource: toSource, destination: toDestination})
	}

	s.Transition(t.Name(), domain.StateFetchingSource)
	rc := s.MasterCatalogContext()
	queue := reconcile.NewWorkQueue(cfg.ProductMaxInFlight)
	comparer := reconcile.NewComparer()
	seen := 0

	err = reconcile.EachByCursor(ctx, t.page(s, rc), cfg.PageSize, func(products []domain.Entity) error {
		for _, product := range products {
			seen++
			code := product.String("productCode")
			before := product.Clone()
			if !t.reconcileProduct(s, product, cfg.PrimeCatalog, catalogs, maps) {
				rec.skip(code)
				continue
			}
			diff := comparer.Diff(before, product)
			if diff == nil {
				rec.skip(code)
				continue
			}
			err := queue.Submit(ctx, func() {
				rec.update(ctx, code, map[string]any{"difference": diff.String()}, func(ctx context.Context) error {
					path := productsPath + "/" + url.PathEscape(code)
					if err := s.Client.Put(ctx, rc, path, product, nil); err != nil {
						return fmt.Errorf("failed to update product %s: %w", code, err)
					}
					return nil
				})
			})
			if err != nil {
				return err
			}
		}
		s.Logger.Debug().Int("products", seen).Int("inFlight", queue.InFlight()).Msg("Processed product page")
		return nil
	})

	s.Transition(t.Name(), domain.StateWriting)
	if drainErr := queue.DrainTo(ctx, 0); drainErr != nil && err == nil {
		err = drainErr
	}
	if err != nil {
		return rec.result, fmt.Errorf("failed to sync products: %w", err)
	}

	s.Logger.Info().
		Int("products", seen).
		Int("peakInFlight", queue.Peak()).
		Msg("Synced products")
	return rec.result, nil
}

// page walks the master catalog in productSequence order, continuing after
// the last sequence seen instead of by offset.
func (t *ProductsTask) page(s *application.Session, rc domain.RequestContext) reconcile.CursorFunc {
	return func(ctx context.Context, last domain.Entity, pageSize int) (*reconcile.Page, error) {
		q := url.Values{}
		q.Set("startIndex", "0")
		q.Set("pageSize", strconv.Itoa(pageSize))
		q.Set("sortby", "productSequence asc")
		if last != nil {
			seq, _ := last.Int("productSequence")
			q.Set("filter", fmt.Sprintf("productSequence gt %d", seq))
		}
		var page reconcile.Page
		if err := s.Client.Get(ctx, rc, productsPath+"?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		return &page, nil
	}
}

// reconcileProduct edits product in place. It returns false when the product
// has no prime catalog membership and must be left alone.
func (t *ProductsTask) reconcileProduct(s *application.Session, product domain.Entity, primeID int, catalogs map[int]domain.Catalog, maps []pairMaps) bool {
	memberships := product.Entities("productInCatalogs")
	prime := findMembership(memberships, primeID)
	if prime == nil {
		s.Logger.Warn().
			Str("productCode", product.String("productCode")).
			Int("primeCatalog", primeID).
			Msg("Product is not in the prime catalog")
		return false
	}

	for _, m := range maps {
		source := findMembership(memberships, m.pair.Source)
		if source == nil {
			continue
		}
		backfillImages(prime, source)

		destination := findMembership(memberships, m.pair.Destination)
		if destination == nil {
			destination = source.Clone()
			destination["catalogId"] = m.pair.Destination
			destination["price"] = map[string]any{
				"isoCurrencyCode": catalogs[m.pair.Destination].DefaultCurrencyCode,
				"price":           1,
			}
			memberships = append(memberships, destination)
			product["productInCatalogs"] = domain.FromEntities(memberships)
		} else {
			backfillImages(prime, destination)
		}

		reconcile.RemapCategoryReferences(m.toSource, prime, source)
		reconcile.RemapCategoryReferences(m.destination, prime, destination)
	}
	return true
}

func findMembership(memberships []domain.Entity, catalogID int) domain.Entity {
	for _, m := range memberships {
		if id, ok := m.Int("catalogId"); ok && id == catalogID {
			return m
		}
	}
	return nil
}

// backfillImages copies the prime images onto membership when prime has more.
func backfillImages(prime, membership domain.Entity) {
	content := membership.Map("content")
	primeContent := prime.Map("content")
	if content == nil || primeContent == nil {
		return
	}
	if len(primeContent.List("productImages")) > len(content.List("productImages")) {
		content["productImages"] = primeContent.Clone()["productImages"]
	}
}
