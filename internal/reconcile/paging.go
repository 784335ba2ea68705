package reconcile

import (
	"context"
	"fmt"

	"catalog-content-sync/internal/domain"
)

// DefaultPageSize is the page size used by every platform collection.
const DefaultPageSize = 200

// Page is one slice of a paged platform collection.
type Page struct {
	StartIndex int             `json:"startIndex"`
	PageSize   int             `json:"pageSize"`
	PageCount  int             `json:"pageCount"`
	TotalCount int             `json:"totalCount"`
	Items      []domain.Entity `json:"items"`
}

// PageFunc fetches the page starting at startIndex.
type PageFunc func(ctx context.Context, startIndex, pageSize int) (*Page, error)

// CursorFunc fetches the page following last; last is nil for the first page.
type CursorFunc func(ctx context.Context, last domain.Entity, pageSize int) (*Page, error)

// FetchAll accumulates every page of a collection in fetch order. A failed
// page fails the whole fetch.
func FetchAll(ctx context.Context, fetch PageFunc, pageSize int) ([]domain.Entity, error) {
	all := []domain.Entity{}
	err := Each(ctx, fetch, pageSize, func(items []domain.Entity) error {
		all = append(all, items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Each walks a collection by offset and hands every page to fn. It stops on a
// short page or when the reported total or page count is exhausted.
func Each(ctx context.Context, fetch PageFunc, pageSize int, fn func([]domain.Entity) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	for startIndex, n := 0, 1; ; n++ {
		page, err := fetch(ctx, startIndex, pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch page at %d: %w", startIndex, err)
		}
		if page == nil {
			return nil
		}
		if err := fn(page.Items); err != nil {
			return err
		}
		startIndex += pageSize
		switch {
		case len(page.Items) < pageSize:
			return nil
		case page.TotalCount > 0 && startIndex >= page.TotalCount:
			return nil
		case page.PageCount > 0 && n >= page.PageCount:
			return nil
		}
	}
}

// EachByCursor walks a collection whose pages are addressed by the last item
// of the previous page. The reported total is the count remaining from the
// cursor, so a page holding all of it is the last one.
func EachByCursor(ctx context.Context, fetch CursorFunc, pageSize int, fn func([]domain.Entity) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var last domain.Entity
	for {
		page, err := fetch(ctx, last, pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch page: %w", err)
		}
		if page == nil || len(page.Items) == 0 {
			return nil
		}
		if err := fn(page.Items); err != nil {
			return err
		}
		if len(page.Items) < pageSize || (page.TotalCount > 0 && page.TotalCount <= len(page.Items)) {
			return nil
		}
		last = page.Items[len(page.Items)-1]
	}
}
