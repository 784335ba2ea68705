package application

import (
	"context"
	"net/url"
	"strconv"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/ports"
	"catalog-content-sync/internal/reconcile"
)

// PagedCollection returns a fetcher for an offset-paged platform collection.
// query may be nil; startIndex and pageSize are set per page.
func PagedCollection(client ports.PlatformClient, rc domain.RequestContext, path string, query url.Values) reconcile.PageFunc {
	return func(ctx context.Context, startIndex, pageSize int) (*reconcile.Page, error) {
		q := cloneQuery(query)
		q.Set("startIndex", strconv.Itoa(startIndex))
		q.Set("pageSize", strconv.Itoa(pageSize))

		var page reconcile.Page
		if err := client.Get(ctx, rc, path+"?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		return &page, nil
	}
}

// FetchCollection reads every page of a platform collection.
func FetchCollection(ctx context.Context, client ports.PlatformClient, rc domain.RequestContext, path string, query url.Values, pageSize int) ([]domain.Entity, error) {
	return reconcile.FetchAll(ctx, PagedCollection(client, rc, path, query), pageSize)
}

func cloneQuery(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
