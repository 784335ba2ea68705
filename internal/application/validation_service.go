package application

import (
	"context"
	"errors"
	"fmt"

	"catalog-content-sync/internal/config"
	"catalog-content-sync/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ValidationService checks the configured sites and catalogs against the
// live tenants before any task writes.
type ValidationService struct {
	tenants *TenantService
	cfg     *config.Config
	logger  zerolog.Logger
}

func NewValidationService(tenants *TenantService, cfg *config.Config, logger zerolog.Logger) *ValidationService {
	return &ValidationService{
		tenants: tenants,
		cfg:     cfg,
		logger:  logger.With().Str("component", "validation").Logger(),
	}
}

// ValidateCatalog checks the site pairs, catalog pairs, prime catalog and
// master catalog of the catalog tenant. Every problem is reported.
func (v *ValidationService) ValidateCatalog(ctx context.Context) error {
	tenant, err := v.tenants.GetTenant(ctx, v.cfg.TenantID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPrecondition, err)
	}

	var problems []error
	for _, pair := range v.cfg.SitePairs {
		src := tenant.FindSite(pair.Source)
		dst := tenant.FindSite(pair.Destination)
		switch {
		case src == nil:
			problems = append(problems, fmt.Errorf("source site %d not found", pair.Source))
		case dst == nil:
			problems = append(problems, fmt.Errorf("destination site %d not found", pair.Destination))
		case src.LocaleCode != dst.LocaleCode:
			problems = append(problems, fmt.Errorf("source site %d locale %s does not match destination site %d locale %s",
				pair.Source, src.LocaleCode, pair.Destination, dst.LocaleCode))
		}
	}

	for _, pair := range v.cfg.CatalogPairs {
		src := tenant.FindCatalog(pair.Source)
		dst := tenant.FindCatalog(pair.Destination)
		switch {
		case src == nil:
			problems = append(problems, fmt.Errorf("source catalog %d not found", pair.Source))
		case dst == nil:
			problems = append(problems, fmt.Errorf("destination catalog %d not found", pair.Destination))
		case src.DefaultLocaleCode != dst.DefaultLocaleCode:
			problems = append(problems, fmt.Errorf("source catalog %d locale %s does not match destination catalog %d locale %s",
				pair.Source, src.DefaultLocaleCode, pair.Destination, dst.DefaultLocaleCode))
		}
	}

	if tenant.FindCatalog(v.cfg.PrimeCatalog) == nil {
		problems = append(problems, fmt.Errorf("prime catalog %d not found", v.cfg.PrimeCatalog))
	}
	if !tenant.HasMasterCatalog(v.cfg.MasterCatalog) {
		problems = append(problems, fmt.Errorf("master catalog %d not found", v.cfg.MasterCatalog))
	}

	if len(problems) > 0 {
		for _, p := range problems {
			v.logger.Error().Err(p).Int("tenantId", tenant.ID).Msg("Invalid catalog configuration")
		}
		return fmt.Errorf("%w: %w", domain.ErrPrecondition, errors.Join(problems...))
	}

	v.logger.Info().Int("tenantId", tenant.ID).Msg("Validated catalog configuration")
	return nil
}

// ValidateContent checks that both content tenants and sites exist. The two
// tenants are read concurrently.
func (v *ValidationService) ValidateContent(ctx context.Context) error {
	sites := []struct {
		role string
		site config.ContentSite
	}{
		{"source", v.cfg.Content.Source},
		{"target", v.cfg.Content.Target},
	}

	problems := make([]error, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sites {
		g.Go(func() error {
			tenant, err := v.tenants.GetTenant(gctx, s.site.TenantID)
			if err != nil {
				problems[i] = fmt.Errorf("%s tenant %d: %w", s.role, s.site.TenantID, err)
				return nil
			}
			if tenant.FindSite(s.site.SiteID) == nil {
				problems[i] = fmt.Errorf("%s site %d not found in tenant %d", s.role, s.site.SiteID, s.site.TenantID)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(problems...); err != nil {
		v.logger.Error().Err(err).Msg("Invalid content configuration")
		return fmt.Errorf("%w: %w", domain.ErrPrecondition, err)
	}

	v.logger.Info().
		Int("sourceTenant", v.cfg.Content.Source.TenantID).
		Int("targetTenant", v.cfg.Content.Target.TenantID).
		Msg("Validated content configuration")
	return nil
}
