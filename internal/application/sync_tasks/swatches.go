package sync_tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

const defaultSwatchMimeType = "image/webp"

// SwatchesTask uploads every file of a local directory as an image document
// of the first source site. Files already present are left alone.
type SwatchesTask struct {
	dir string
}

// NewSwatchesTask uploads from dir, or from the configured swatch directory
// when dir is empty.
func NewSwatchesTask(dir string) *SwatchesTask {
	return &SwatchesTask{dir: dir}
}

func (t *SwatchesTask) Name() string {
	return FamilySwatches
}

func (t *SwatchesTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())
	dir := t.dir
	if dir == "" {
		dir = s.Config.SwatchDir
	}
	if len(s.Config.SitePairs) == 0 {
		return rec.result, precondition("no site pair configured")
	}

	s.Transition(t.Name(), domain.StateFetchingSource)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return rec.result, precondition("failed to read swatch directory %s: %v", dir, err)
	}
	rc, _, err := s.SiteContexts(ctx, s.Config.SitePairs[0])
	if err != nil {
		return rec.result, err
	}

	s.Transition(t.Name(), domain.StateWriting)
	queue := reconcile.NewWorkQueue(s.Config.AssetMaxInFlight)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		if err := queue.Submit(ctx, func() {
			t.upload(ctx, s, rec, rc, filepath.Join(dir, file))
		}); err != nil {
			return rec.result, fmt.Errorf("failed to upload swatches: %w", err)
		}
	}
	if err := queue.DrainTo(ctx, 0); err != nil {
		return rec.result, fmt.Errorf("failed to upload swatches: %w", err)
	}
	return rec.result, nil
}

func (t *SwatchesTask) upload(ctx context.Context, s *application.Session, rec *recorder, rc domain.RequestContext, path string) {
	file := filepath.Base(path)
	doc, mimeType := SwatchDocument(file)
	id := doc.ID()

	data, err := os.ReadFile(path)
	if err != nil {
		rec.fail(file, fmt.Errorf("failed to read %s: %w", path, err))
		return
	}

	_, err = s.Documents.Create(ctx, rc, domain.ListFiles, doc)
	if errors.Is(err, domain.ErrConflict) {
		rec.skip(file)
		return
	}
	if err != nil {
		rec.fail(file, err)
		return
	}

	rec.create(ctx, file, map[string]any{"bytes": len(data)}, func(ctx context.Context) error {
		return s.Documents.PutRawContent(ctx, rc, domain.ListFiles, id, mimeType, bytes.NewReader(data))
	})
}

// SwatchDocument describes the image document created for file, named after
// the file without its extension.
func SwatchDocument(file string) (domain.Entity, string) {
	ext := filepath.Ext(file)
	name := strings.TrimSuffix(file, ext)
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = defaultSwatchMimeType
	}
	return domain.Entity{
		"id":              name,
		"name":            name,
		"extension":       strings.TrimPrefix(ext, "."),
		"documentTypeFQN": domain.DocumentTypeImage,
		"listFQN":         domain.ListFiles,
		"contentMimeType": mimeType,
	}, mimeType
}
