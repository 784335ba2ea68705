package sync_tasks

import (
	"context"
	"fmt"
	"path"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"

	"golang.org/x/sync/errgroup"
)

// DownloadTask writes the document lists of both content sites to the
// snapshot store under source/ and target/.
type DownloadTask struct{}

func NewDownloadTask() *DownloadTask {
	return &DownloadTask{}
}

func (t *DownloadTask) Name() string {
	return FamilyDownload
}

func (t *DownloadTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	if s.Snapshots == nil {
		return rec.result, precondition("no snapshot store configured")
	}

	s.Transition(t.Name(), domain.StateFetchingSource)
	sites := []struct {
		dir string
		rc  domain.RequestContext
	}{
		{"source", s.SourceContentContext()},
		{"target", s.TargetContentContext()},
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, site := range sites {
		g.Go(func() error {
			for _, list := range domain.ContentLists {
				docs, err := s.Documents.List(gctx, site.rc, list)
				if err != nil {
					return err
				}
				name := path.Join(site.dir, list)
				if err := s.Snapshots.Persist(gctx, name, docs); err != nil {
					return fmt.Errorf("failed to persist %s: %w", name, err)
				}
				rec.result.AddCreated(name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rec.result, err
	}
	return rec.result, nil
}

// ClearTask discards the target drafts, deletes the target catalog content
// documents and publishes the result.
type ClearTask struct{}

func NewClearTask() *ClearTask {
	return &ClearTask{}
}

func (t *ClearTask) Name() string {
	return FamilyClear
}

func (t *ClearTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	rc := s.TargetContentContext()

	s.Transition(t.Name(), domain.StateFetchingTarget)
	docs, err := s.Documents.List(ctx, rc, domain.ListCatalogContent)
	if err != nil {
		return rec.result, err
	}

	s.Transition(t.Name(), domain.StateWriting)
	if err := s.Documents.DeleteDrafts(ctx, rc, domain.ContentLists); err != nil {
		return rec.result, err
	}
	for _, doc := range docs {
		id := doc.ID()
		rec.update(ctx, "delete/"+doc.String("name"), nil, func(ctx context.Context) error {
			return s.Documents.Delete(ctx, rc, domain.ListCatalogContent, id)
		})
	}
	if err := s.Documents.Publish(ctx, rc, domain.ContentLists); err != nil {
		return rec.result, err
	}
	return rec.result, nil
}

// PublishTask makes the pending drafts of the target site active.
type PublishTask struct{}

func NewPublishTask() *PublishTask {
	return &PublishTask{}
}

func (t *PublishTask) Name() string {
	return FamilyPublish
}

func (t *PublishTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	s.Transition(t.Name(), domain.StateWriting)
	ok := rec.update(ctx, "publish", domain.ContentLists, func(ctx context.Context) error {
		return s.Documents.Publish(ctx, s.TargetContentContext(), domain.ContentLists)
	})
	if !ok {
		return rec.result, fmt.Errorf("failed to publish target site %d", s.Config.Content.Target.SiteID)
	}
	return rec.result, nil
}
