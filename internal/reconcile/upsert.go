package reconcile

import (
	"context"
	"errors"

	"catalog-content-sync/internal/domain"
)

// Upsert attempts update and falls back to create only when the update
// reports the record as not found. Any other update failure is returned.
func Upsert(ctx context.Context, update, create func(context.Context) error) (created bool, err error) {
	err = update(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if err := create(ctx); err != nil {
		return true, err
	}
	return true, nil
}
