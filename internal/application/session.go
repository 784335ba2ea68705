package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog-content-sync/internal/config"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/ports"
	"catalog-content-sync/internal/reconcile"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StateObserver receives task state transitions, e.g. for metrics.
type StateObserver interface {
	ObserveTask(family string, state domain.TaskState)
}

// ActionObserver receives every settled action.
type ActionObserver interface {
	ObserveAction(a domain.Action)
}

// SessionOptions carries the optional collaborators of a session.
type SessionOptions struct {
	TenantCache ports.TenantCache
	Snapshots   ports.SnapshotStore
	Publisher   ports.ProgressPublisher
	States      StateObserver
	Actions     ActionObserver
}

// Session holds the state of one CLI invocation: configuration, the shared
// client, caches and the accumulated results.
type Session struct {
	ID         string
	Config     *config.Config
	Client     ports.PlatformClient
	Tenants    *TenantService
	Documents  *DocumentService
	Categories *CategoryStore
	Tracker    *reconcile.Tracker
	Snapshots  ports.SnapshotStore
	Logger     zerolog.Logger

	publisher ports.ProgressPublisher
	states    StateObserver

	mu      sync.Mutex
	results []*domain.SyncResult

	contentOnce   sync.Once
	contentErr    error
	sourceContent *ContentSite
	targetContent *ContentSite
}

func NewSession(cfg *config.Config, client ports.PlatformClient, logger zerolog.Logger, opts SessionOptions) *Session {
	id := uuid.NewString()
	logger = logger.With().Str("runId", id).Logger()

	s := &Session{
		ID:         id,
		Config:     cfg,
		Client:     client,
		Tenants:    NewTenantService(client, opts.TenantCache, logger),
		Documents:  NewDocumentService(client, cfg.PageSize, logger),
		Categories: NewCategoryStore(client, domain.RequestContext{TenantID: cfg.TenantID}, cfg.PageSize, logger),
		Tracker:    reconcile.NewTracker(),
		Snapshots:  opts.Snapshots,
		Logger:     logger,
		publisher:  opts.Publisher,
		states:     opts.States,
	}

	if s.publisher != nil || opts.Actions != nil {
		s.Tracker.Observe(func(a domain.Action) {
			if a.Status == domain.ActionPending {
				return
			}
			if opts.Actions != nil {
				opts.Actions.ObserveAction(a)
			}
			if s.publisher == nil {
				return
			}
			action := a
			s.publisher.Publish(&domain.ProgressEvent{
				RunID:     s.ID,
				Family:    a.Family,
				Action:    &action,
				Timestamp: time.Now(),
			})
		})
	}
	return s
}

// CatalogContext scopes calls to the catalog tenant.
func (s *Session) CatalogContext() domain.RequestContext {
	return domain.RequestContext{TenantID: s.Config.TenantID}
}

// MasterCatalogContext scopes calls to the configured master catalog.
func (s *Session) MasterCatalogContext() domain.RequestContext {
	return s.CatalogContext().WithMasterCatalog(s.Config.MasterCatalog)
}

// SiteContexts resolves a site pair of the catalog tenant into the request
// contexts of its two sites.
func (s *Session) SiteContexts(ctx context.Context, pair domain.Pair) (source, destination domain.RequestContext, err error) {
	tenant, err := s.Tenants.GetTenant(ctx, s.Config.TenantID)
	if err != nil {
		return source, destination, err
	}
	src := tenant.FindSite(pair.Source)
	if src == nil {
		return source, destination, fmt.Errorf("source site %d not found: %w", pair.Source, domain.ErrPrecondition)
	}
	dst := tenant.FindSite(pair.Destination)
	if dst == nil {
		return source, destination, fmt.Errorf("destination site %d not found: %w", pair.Destination, domain.ErrPrecondition)
	}
	base := s.CatalogContext()
	return base.WithSite(src.ID).WithCatalog(src.CatalogID), base.WithSite(dst.ID).WithCatalog(dst.CatalogID), nil
}

// SourceContentContext scopes calls to the source content site.
func (s *Session) SourceContentContext() domain.RequestContext {
	src := s.Config.Content.Source
	return domain.RequestContext{TenantID: src.TenantID, SiteID: src.SiteID}
}

// TargetContentContext scopes calls to the target content site, reading and
// writing drafts.
func (s *Session) TargetContentContext() domain.RequestContext {
	dst := s.Config.Content.Target
	return domain.RequestContext{TenantID: dst.TenantID, SiteID: dst.SiteID}.WithDataViewMode(domain.DataViewPending)
}

// ContentSites loads both content sites once per session.
func (s *Session) ContentSites(ctx context.Context) (source, target *ContentSite, err error) {
	s.contentOnce.Do(func() {
		s.sourceContent, s.contentErr = LoadContentSite(ctx, s.Documents, s.SourceContentContext(), s.Config.Content.Source.LocalePrefix)
		if s.contentErr != nil {
			return
		}
		s.targetContent, s.contentErr = LoadContentSite(ctx, s.Documents, s.TargetContentContext(), s.Config.Content.Target.LocalePrefix)
	})
	return s.sourceContent, s.targetContent, s.contentErr
}

// Transition records a task state change.
func (s *Session) Transition(family string, state domain.TaskState) {
	event := s.Logger.Info()
	if state == domain.StateFailed {
		event = s.Logger.Warn()
	}
	event.Str("task", family).Str("state", string(state)).Msg("Task state changed")

	if s.states != nil {
		s.states.ObserveTask(family, state)
	}
	if s.publisher != nil {
		s.publisher.Publish(&domain.ProgressEvent{
			RunID:     s.ID,
			Family:    family,
			State:     state,
			Timestamp: time.Now(),
		})
	}
}

// AddResult appends the result of a finished task.
func (s *Session) AddResult(r *domain.SyncResult) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *Session) Results() []*domain.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.SyncResult(nil), s.results...)
}
