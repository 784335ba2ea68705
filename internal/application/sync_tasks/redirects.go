package sync_tasks

import (
	"context"
	"fmt"
	"time"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

// RedirectsTask copies the redirects document of the source content site,
// moving every redirect destination to the target locale.
type RedirectsTask struct {
	now func() time.Time
}

func NewRedirectsTask() *RedirectsTask {
	return &RedirectsTask{now: time.Now}
}

func (t *RedirectsTask) Name() string {
	return FamilyRedirects
}

func (t *RedirectsTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())

	s.Transition(t.Name(), domain.StateFetchingSource)
	source, target, err := s.ContentSites(ctx)
	if err != nil {
		return rec.result, err
	}
	if source.RedirectDocument == nil || source.Redirects == nil {
		return rec.result, precondition("source site %d has no %s document", source.Context.SiteID, domain.DocumentRedirects)
	}

	s.Transition(t.Name(), domain.StateDiffing)
	doc := target.RedirectDocument.Clone()
	if doc == nil {
		doc = source.RedirectDocument.Without(reconcile.RemoteFields...)
		props := doc.Map("properties")
		if props == nil {
			props = domain.Entity{}
			doc["properties"] = map[string]any(props)
		}
		props["data"] = t.now().UTC().Format(time.RFC3339)
	}

	pipeline := reconcile.NewPipeline(
		reconcile.CopyRedirect,
		reconcile.RedirectLocaleTransformer(source.Locale, target.Locale),
	)
	redirects, err := TransformRedirects(ctx, pipeline, source.Redirects)
	if err != nil {
		return rec.result, err
	}

	s.Transition(t.Name(), domain.StateWriting)
	var saved domain.Entity
	write := func(ctx context.Context) error {
		var err error
		saved, _, err = s.Documents.Save(ctx, target.Context, domain.ListSiteSettings, doc)
		return err
	}
	var ok bool
	if doc.ID() != "" {
		ok = rec.update(ctx, domain.DocumentRedirects, nil, write)
	} else {
		ok = rec.create(ctx, domain.DocumentRedirects, nil, write)
	}
	if !ok {
		return rec.result, nil
	}

	id := saved.ID()
	if id == "" {
		id = doc.ID()
	}
	rec.update(ctx, domain.DocumentRedirects+"/content", map[string]any{"redirects": len(redirects)}, func(ctx context.Context) error {
		if id == "" {
			return fmt.Errorf("saved %s document has no id", domain.DocumentRedirects)
		}
		return s.Documents.PutContent(ctx, target.Context, domain.ListSiteSettings, id, redirects)
	})
	return rec.result, nil
}

// TransformRedirects runs every redirect through pipeline, leaving the input
// untouched.
func TransformRedirects(ctx context.Context, pipeline *reconcile.Pipeline[domain.Entity], redirects []domain.Entity) ([]domain.Entity, error) {
	out := make([]domain.Entity, 0, len(redirects))
	for i, r := range redirects {
		t, err := pipeline.Run(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("failed to transform redirect %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
