package sync_tasks

import (
	"context"
	"fmt"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"

	"github.com/rs/zerolog"
)

// Task family names. They double as error summary keys.
const (
	FamilyCategories          = "categories"
	FamilyProducts            = "products"
	FamilySettings            = "settings"
	FamilySearchSettings      = "search-settings"
	FamilySearchFacets        = "search-facets"
	FamilySearchMerchandising = "search-merchandising"
	FamilySearchRedirects     = "search-redirects"
	FamilyEntities            = "entities"
	FamilyCleanCategories     = "clean-category-prefixes"
	FamilyCatalogContent      = "catalog-content"
	FamilyThemeSettings       = "theme-settings"
	FamilyRedirects           = "redirects"
	FamilyPages               = "pages"
	FamilySwatches            = "upload-swatches"
	FamilyDownload            = "download"
	FamilyClear               = "clear"
	FamilyPublish             = "publish"
)

// Action types recorded in the tracker.
const (
	actionCreate = "create"
	actionUpdate = "update"
	actionUpsert = "upsert"
	actionSkip   = "skip"
)

// recorder books every item outcome of a task in both its result and the
// run tracker, under the action id "<family>:<key>".
type recorder struct {
	family  string
	result  *domain.SyncResult
	tracker *reconcile.Tracker
	logger  zerolog.Logger
}

func newRecorder(s *application.Session, family string) *recorder {
	return &recorder{
		family:  family,
		result:  domain.NewSyncResult(family),
		tracker: s.Tracker,
		logger:  s.Logger.With().Str("task", family).Logger(),
	}
}

func (r *recorder) actionID(key string) string {
	return r.family + ":" + key
}

func (r *recorder) skip(key string) {
	id := r.actionID(key)
	r.tracker.Add(id, actionSkip, r.family, nil)
	r.tracker.MarkSkipped(id)
	r.result.AddSkipped(key)
}

// fail records an item failure that did not reach a write.
func (r *recorder) fail(key string, err error) {
	id := r.actionID(key)
	r.tracker.Add(id, actionSkip, r.family, nil)
	r.tracker.MarkFailed(id, err)
	r.result.AddError(key, err)
	r.logger.Error().Err(err).Str("key", key).Msg("Item failed")
}

// create runs fn as a tracked create and reports whether it succeeded.
func (r *recorder) create(ctx context.Context, key string, data any, fn func(context.Context) error) bool {
	return r.write(ctx, key, actionCreate, data, fn, r.result.AddCreated)
}

// update runs fn as a tracked update and reports whether it succeeded.
func (r *recorder) update(ctx context.Context, key string, data any, fn func(context.Context) error) bool {
	return r.write(ctx, key, actionUpdate, data, fn, r.result.AddUpdated)
}

// upsert tries update and falls back to create when the record is missing.
func (r *recorder) upsert(ctx context.Context, key string, data any, update, create func(context.Context) error) bool {
	id := r.actionID(key)
	r.tracker.Add(id, actionUpsert, r.family, data)
	created, err := reconcile.Upsert(ctx, update, create)
	if err != nil {
		r.markFailed(id, key, err)
		return false
	}
	r.tracker.MarkSuccess(id)
	if created {
		r.result.AddCreated(key)
	} else {
		r.result.AddUpdated(key)
	}
	return true
}

func (r *recorder) write(ctx context.Context, key, actionType string, data any, fn func(context.Context) error, done func(string)) bool {
	id := r.actionID(key)
	r.tracker.Add(id, actionType, r.family, data)
	if err := fn(ctx); err != nil {
		r.markFailed(id, key, err)
		return false
	}
	r.tracker.MarkSuccess(id)
	done(key)
	return true
}

func (r *recorder) markFailed(id, key string, err error) {
	r.tracker.MarkFailed(id, err)
	r.result.AddError(key, err)
	r.logger.Error().Err(err).Str("key", key).Msg("Write failed")
}

var documentComparer = reconcile.NewComparer()

// sameProperties reports whether an existing target document already holds
// the properties about to be written.
func sameProperties(existing, work domain.Entity) bool {
	return existing != nil && documentComparer.Equal(existing["properties"], work["properties"])
}

func pairKey(pair domain.Pair) string {
	return fmt.Sprintf("%d->%d", pair.Source, pair.Destination)
}

func itemKey(pair domain.Pair, key string) string {
	return pairKey(pair) + "/" + key
}

func precondition(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrPrecondition)
}
