package sync_tasks

import (
	"context"
	"errors"
	"fmt"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

// SettingRoutes are the site settings copied by SettingsTask, by name.
var SettingRoutes = []struct {
	Name string
	Path string
}{
	{"cart", "/commerce/settings/cart/cartsettings"},
	{"checkout", "/commerce/commerce/settings/checkout"},
	{"fulfillment", "/commerce/settings/fulfillment/fulfillmentsettings"},
	{"general", "/commerce/settings/general"},
	{"inventory", "/commerce/settings/inventory/inventorySettings"},
	{"return", "/commerce/settings/return/returnsettings"},
	{"shipping", "/commerce/settings/shipping"},
	{"subscription", "/commerce/settings/subscription/subscriptionsettings"},
}

// SettingsTask copies the site level settings documents of every site pair.
type SettingsTask struct{}

func NewSettingsTask() *SettingsTask {
	return &SettingsTask{}
}

func (t *SettingsTask) Name() string {
	return FamilySettings
}

func (t *SettingsTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	differ := reconcile.NewDiffer(reconcile.FieldKey("id"))

	for _, pair := range s.Config.SitePairs {
		srcRC, dstRC, err := s.SiteContexts(ctx, pair)
		if err != nil {
			return rec.result, err
		}
		for _, route := range SettingRoutes {
			key := itemKey(pair, route.Name)

			s.Transition(t.Name(), domain.StateFetchingSource)
			source, err := getOptional(ctx, s, srcRC, route.Path)
			if err != nil {
				rec.fail(key, fmt.Errorf("failed to get %s settings: %w", route.Name, err))
				continue
			}
			if source == nil {
				rec.logger.Info().Str("setting", route.Name).Msg("Source setting not found")
				rec.skip(key)
				continue
			}

			s.Transition(t.Name(), domain.StateFetchingTarget)
			target, err := getOptional(ctx, s, dstRC, route.Path)
			if err != nil {
				rec.fail(key, fmt.Errorf("failed to get %s settings: %w", route.Name, err))
				continue
			}

			s.Transition(t.Name(), domain.StateDiffing)
			if target != nil && differ.Equivalent(source, target) {
				rec.skip(key)
				continue
			}

			s.Transition(t.Name(), domain.StateWriting)
			rec.update(ctx, key, nil, func(ctx context.Context) error {
				if err := s.Client.Put(ctx, dstRC, route.Path, source, nil); err != nil {
					return fmt.Errorf("failed to save %s settings: %w", route.Name, err)
				}
				return nil
			})
		}
	}
	return rec.result, nil
}

// getOptional reads a single resource, returning nil when it does not exist.
func getOptional(ctx context.Context, s *application.Session, rc domain.RequestContext, path string) (domain.Entity, error) {
	var e domain.Entity
	if err := s.Client.Get(ctx, rc, path, &e); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}
