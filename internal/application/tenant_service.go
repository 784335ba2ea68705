package application

import (
	"context"
	"fmt"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/ports"

	"github.com/rs/zerolog"
)

// TenantService reads tenant descriptions through the run's tenant cache
type TenantService struct {
	client ports.PlatformClient
	cache  ports.TenantCache
	logger zerolog.Logger
}

// NewTenantService creates a tenant service. cache may be nil.
func NewTenantService(client ports.PlatformClient, cache ports.TenantCache, logger zerolog.Logger) *TenantService {
	return &TenantService{
		client: client,
		cache:  cache,
		logger: logger.With().Str("component", "tenant_service").Logger(),
	}
}

// GetTenant returns the tenant with its sites and master catalogs
func (s *TenantService) GetTenant(ctx context.Context, tenantID int) (*domain.Tenant, error) {
	if s.cache == nil {
		return s.load(ctx, tenantID)
	}
	return s.cache.GetOrLoad(ctx, tenantID, s.load)
}

func (s *TenantService) load(ctx context.Context, tenantID int) (*domain.Tenant, error) {
	var tenant domain.Tenant
	rc := domain.RequestContext{TenantID: tenantID}
	if err := s.client.Get(ctx, rc, fmt.Sprintf("/platform/tenants/%d", tenantID), &tenant); err != nil {
		return nil, fmt.Errorf("failed to get tenant %d: %w", tenantID, err)
	}

	s.logger.Debug().
		Int("tenantId", tenant.ID).
		Int("sites", len(tenant.Sites)).
		Int("masterCatalogs", len(tenant.MasterCatalogs)).
		Msg("Loaded tenant")

	return &tenant, nil
}
