package ports

import (
	"context"
	"time"

	"catalog-content-sync/internal/domain"
)

// SnapshotStore persists intermediate JSON for offline inspection
type SnapshotStore interface {
	Persist(ctx context.Context, name string, data any) error
}

// RunRepository defines the interface for run report persistence
type RunRepository interface {
	// SaveRun creates or replaces the report with the same run ID
	SaveRun(ctx context.Context, report *domain.RunReport) error

	// GetRun retrieves a report by run ID, returning nil when absent
	GetRun(ctx context.Context, runID string) (*domain.RunReport, error)

	// ListRuns returns the most recent reports, newest first
	ListRuns(ctx context.Context, limit int) ([]*domain.RunReport, error)
}

// TokenCache shares platform auth tickets between processes
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, token string, ttl time.Duration) error
}

// ProgressPublisher receives task state changes and settled actions
type ProgressPublisher interface {
	Publish(event *domain.ProgressEvent)
}

// TenantCache memoizes tenant lookups for the life of a run
type TenantCache interface {
	GetOrLoad(ctx context.Context, tenantID int, load func(context.Context, int) (*domain.Tenant, error)) (*domain.Tenant, error)
}
