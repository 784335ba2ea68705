package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/ports"

	"github.com/rs/zerolog"
)

// DocumentService wraps the content document list API of a site
type DocumentService struct {
	client   ports.PlatformClient
	pageSize int
	logger   zerolog.Logger
}

func NewDocumentService(client ports.PlatformClient, pageSize int, logger zerolog.Logger) *DocumentService {
	return &DocumentService{
		client:   client,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "document_service").Logger(),
	}
}

func documentsPath(list string) string {
	return "/content/documentlists/" + url.PathEscape(list) + "/documents"
}

func documentPath(list, id string) string {
	return documentsPath(list) + "/" + url.PathEscape(id)
}

// List returns every document of list, including inactive ones
func (s *DocumentService) List(ctx context.Context, rc domain.RequestContext, list string) ([]domain.Entity, error) {
	q := url.Values{}
	q.Set("includeInactive", "true")
	docs, err := FetchCollection(ctx, s.client, rc, documentsPath(list), q, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents of %s: %w", list, err)
	}
	return docs, nil
}

// FindByName returns the document named name, or nil when there is none
func (s *DocumentService) FindByName(ctx context.Context, rc domain.RequestContext, list, name string) (domain.Entity, error) {
	q := url.Values{}
	q.Set("filter", fmt.Sprintf("name eq '%s'", strings.ReplaceAll(name, "'", "''")))
	q.Set("includeInactive", "true")
	q.Set("pageSize", "1")

	var page struct {
		Items []domain.Entity `json:"items"`
	}
	if err := s.client.Get(ctx, rc, documentsPath(list)+"?"+q.Encode(), &page); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find document %s in %s: %w", name, list, err)
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return page.Items[0], nil
}

// Create posts doc to list and returns the stored document
func (s *DocumentService) Create(ctx context.Context, rc domain.RequestContext, list string, doc domain.Entity) (domain.Entity, error) {
	var created domain.Entity
	if err := s.client.Post(ctx, rc, documentsPath(list), doc, &created); err != nil {
		return nil, fmt.Errorf("failed to create document %s in %s: %w", doc.String("name"), list, err)
	}
	if created == nil {
		created = doc
	}
	return created, nil
}

// Update replaces the document identified by doc's id
func (s *DocumentService) Update(ctx context.Context, rc domain.RequestContext, list string, doc domain.Entity) (domain.Entity, error) {
	id := doc.ID()
	if id == "" {
		return nil, fmt.Errorf("failed to update document %s in %s: missing id", doc.String("name"), list)
	}
	var updated domain.Entity
	if err := s.client.Put(ctx, rc, documentPath(list, id), doc, &updated); err != nil {
		return nil, fmt.Errorf("failed to update document %s in %s: %w", doc.String("name"), list, err)
	}
	if updated == nil {
		updated = doc
	}
	return updated, nil
}

// Save updates doc when it carries an id and creates it otherwise
func (s *DocumentService) Save(ctx context.Context, rc domain.RequestContext, list string, doc domain.Entity) (saved domain.Entity, created bool, err error) {
	if doc.ID() != "" {
		saved, err = s.Update(ctx, rc, list, doc)
		return saved, false, err
	}
	saved, err = s.Create(ctx, rc, list, doc)
	return saved, true, err
}

func (s *DocumentService) Delete(ctx context.Context, rc domain.RequestContext, list, id string) error {
	if err := s.client.Delete(ctx, rc, documentPath(list, id)); err != nil {
		return fmt.Errorf("failed to delete document %s from %s: %w", id, list, err)
	}
	return nil
}

// GetContent decodes the JSON content of a document into out
func (s *DocumentService) GetContent(ctx context.Context, rc domain.RequestContext, list, id string, out any) error {
	if err := s.client.Get(ctx, rc, documentPath(list, id)+"/content", out); err != nil {
		return fmt.Errorf("failed to get content of document %s in %s: %w", id, list, err)
	}
	return nil
}

// PutContent replaces the content of a document with v encoded as JSON
func (s *DocumentService) PutContent(ctx context.Context, rc domain.RequestContext, list, id string, v any) error {
	if err := s.client.Put(ctx, rc, documentPath(list, id)+"/content", v, nil); err != nil {
		return fmt.Errorf("failed to put content of document %s in %s: %w", id, list, err)
	}
	return nil
}

// PutRawContent uploads binary content such as an image
func (s *DocumentService) PutRawContent(ctx context.Context, rc domain.RequestContext, list, id, contentType string, body io.Reader) error {
	if err := s.client.PutContent(ctx, rc, documentPath(list, id)+"/content", contentType, body); err != nil {
		return fmt.Errorf("failed to upload content of document %s in %s: %w", id, list, err)
	}
	return nil
}

// DeleteDrafts discards the pending drafts of lists
func (s *DocumentService) DeleteDrafts(ctx context.Context, rc domain.RequestContext, lists []string) error {
	path := "/content/documentpublishing/draft?documentLists=" + url.QueryEscape(strings.Join(lists, ","))
	if err := s.client.Post(ctx, rc, path, []string{}, nil); err != nil {
		return fmt.Errorf("failed to delete drafts: %w", err)
	}
	s.logger.Info().Strs("lists", lists).Int("tenantId", rc.TenantID).Int("siteId", rc.SiteID).Msg("Deleted drafts")
	return nil
}

// Publish makes the pending drafts of lists active
func (s *DocumentService) Publish(ctx context.Context, rc domain.RequestContext, lists []string) error {
	path := "/content/documentpublishing/active?documentLists=" + url.QueryEscape(strings.Join(lists, ","))
	if err := s.client.Put(ctx, rc, path, []string{}, nil); err != nil {
		return fmt.Errorf("failed to publish drafts: %w", err)
	}
	s.logger.Info().Strs("lists", lists).Int("tenantId", rc.TenantID).Int("siteId", rc.SiteID).Msg("Published drafts")
	return nil
}
