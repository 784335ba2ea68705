package sync_tasks

import (
	"context"
	"fmt"
	"strings"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/reconcile"
)

// CmsPage is a page document, its template content and its navigation node
// on one site. Any part may be missing.
type CmsPage struct {
	Name       string
	Page       domain.Entity
	Content    domain.Entity
	Navigation domain.Entity
}

// LoadCmsPage assembles the page called name from a site's documents.
func LoadCmsPage(name string, docs domain.DocumentCollection) *CmsPage {
	p := &CmsPage{
		Name:    name,
		Page:    docs.Find(domain.ListPages, name),
		Content: docs.Find(domain.ListPageTemplateContent, name),
	}
	if p.Page != nil {
		nodeID := domain.NavigationPagePrefix + p.Page.ID()
		for _, node := range navigationNodes(docs) {
			if node.String("Id") == nodeID {
				p.Navigation = node
				break
			}
		}
	}
	return p
}

func navigationNodes(docs domain.DocumentCollection) []domain.Entity {
	nav := docs.Find(domain.ListSiteSettings, domain.DocumentNavigation)
	if nav == nil {
		return nil
	}
	return nav.Map("properties").Entities("data")
}

// MultiSitePage pairs the source and target state of one page.
type MultiSitePage struct {
	Name   string
	Source *CmsPage
	Target *CmsPage
}

// PagesTask copies CMS pages with their template content, rebuilds the
// target navigation and finally copies templates that have no page.
type PagesTask struct{}

func NewPagesTask() *PagesTask {
	return &PagesTask{}
}

func (t *PagesTask) Name() string {
	return FamilyPages
}

type pageSync struct {
	s        *application.Session
	rec      *recorder
	source   *application.ContentSite
	target   *application.ContentSite
	pipeline *reconcile.Pipeline[domain.Entity]
	pages    map[string]*MultiSitePage
	order    []string
}

func (t *PagesTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())

	s.Transition(t.Name(), domain.StateFetchingSource)
	source, target, err := s.ContentSites(ctx)
	if err != nil {
		return rec.result, err
	}

	ps := &pageSync{
		s:        s,
		rec:      rec,
		source:   source,
		target:   target,
		pipeline: reconcile.NewPipeline(reconcile.LocaleLinkTransformer(source.Locale, target.Locale)),
		pages:    make(map[string]*MultiSitePage),
	}

	s.Transition(t.Name(), domain.StateWriting)
	for _, page := range source.Documents[domain.ListPages] {
		ps.syncNamed(ctx, page.String("name"))
	}
	ps.syncNavigation(ctx)
	for _, tmpl := range source.Documents[domain.ListPageTemplateContent] {
		if _, done := ps.pages[tmpl.String("name")]; !done {
			ps.syncNamed(ctx, tmpl.String("name"))
		}
	}

	rec.logger.Info().Int("pages", len(ps.order)).Msg("Synced pages")
	return rec.result, nil
}

func (p *pageSync) syncNamed(ctx context.Context, name string) {
	if name == "" {
		return
	}
	msp := &MultiSitePage{
		Name:   name,
		Source: LoadCmsPage(name, p.source.Documents),
		Target: LoadCmsPage(name, p.target.Documents),
	}
	p.pages[name] = msp
	p.order = append(p.order, name)

	if msp.Source.Page != nil {
		if saved := p.syncPage(ctx, msp); saved != nil {
			msp.Target.Page = saved
		}
	}
	if msp.Source.Content != nil {
		if saved := p.syncContent(ctx, msp); saved != nil {
			msp.Target.Content = saved
		}
	}
}

// syncPage writes the target page document and returns it as stored.
func (p *pageSync) syncPage(ctx context.Context, msp *MultiSitePage) domain.Entity {
	key := domain.ListPages + "/" + msp.Name
	work := msp.Target.Page.Clone()
	if work == nil {
		work = msp.Source.Page.Without(reconcile.RemoteFields...)
	}
	work["properties"] = msp.Source.Page.Clone()["properties"]

	work, err := p.pipeline.Run(ctx, work)
	if err != nil {
		p.rec.fail(key, fmt.Errorf("failed to transform page %s: %w", msp.Name, err))
		return nil
	}
	if sameProperties(msp.Target.Page, work) {
		p.rec.skip(key)
		return msp.Target.Page
	}
	return p.save(ctx, key, domain.ListPages, work, work.ID() == "")
}

// syncContent writes the target template content. New content takes the id
// of the target page.
func (p *pageSync) syncContent(ctx context.Context, msp *MultiSitePage) domain.Entity {
	key := domain.ListPageTemplateContent + "/" + msp.Name
	existing := msp.Target.Content
	work := existing.Clone()
	if work == nil {
		work = msp.Source.Content.Without(reconcile.RemoteFields...)
	}
	work["properties"] = msp.Source.Content.Clone()["properties"]

	work, err := p.pipeline.Run(ctx, work)
	if err != nil {
		p.rec.fail(key, fmt.Errorf("failed to transform content %s: %w", msp.Name, err))
		return nil
	}
	if work.ID() == "" && msp.Target.Page != nil {
		work["id"] = msp.Target.Page["id"]
	}
	if sameProperties(existing, work) {
		p.rec.skip(key)
		return existing
	}
	return p.save(ctx, key, domain.ListPageTemplateContent, work, existing == nil)
}

func (p *pageSync) save(ctx context.Context, key, list string, doc domain.Entity, create bool) domain.Entity {
	var saved domain.Entity
	if create {
		p.rec.create(ctx, key, nil, func(ctx context.Context) error {
			var err error
			saved, err = p.s.Documents.Create(ctx, p.target.Context, list, doc)
			return err
		})
		return saved
	}
	p.rec.update(ctx, key, nil, func(ctx context.Context) error {
		var err error
		saved, err = p.s.Documents.Update(ctx, p.target.Context, list, doc)
		return err
	})
	return saved
}

// sourceToTargetIDs maps source page ids to target page ids for every page
// present on both sites.
func (p *pageSync) sourceToTargetIDs() map[string]string {
	ids := make(map[string]string)
	for _, msp := range p.pages {
		if msp.Source.Page != nil && msp.Target.Page != nil {
			ids[msp.Source.Page.ID()] = msp.Target.Page.ID()
		}
	}
	return ids
}

func (p *pageSync) syncNavigation(ctx context.Context) {
	ids := p.sourceToTargetIDs()
	data := []any{}
	for _, name := range p.order {
		msp := p.pages[name]
		if msp.Target.Navigation != nil {
			data = append(data, map[string]any(msp.Target.Navigation))
			continue
		}
		node, ok := NavigationNode(msp, ids)
		if !ok {
			p.rec.logger.Debug().Str("page", name).Msg("Skipping navigation node")
			continue
		}
		data = append(data, map[string]any(node))
	}

	existing := p.target.Documents.Find(domain.ListSiteSettings, domain.DocumentNavigation)
	if existing == nil {
		doc := domain.Entity{
			"name":            domain.DocumentNavigation,
			"listFQN":         domain.ListSiteSettings,
			"documentTypeFQN": domain.DocumentTypeDefault,
			"properties":      map[string]any{"data": data},
		}
		p.save(ctx, domain.DocumentNavigation, domain.ListSiteSettings, doc, true)
		return
	}
	doc := existing.Clone()
	props := doc.Map("properties")
	if props == nil {
		props = domain.Entity{}
		doc["properties"] = map[string]any(props)
	}
	props["data"] = data
	p.save(ctx, domain.DocumentNavigation, domain.ListSiteSettings, doc, false)
}

// NavigationNode derives the target navigation node of a page from its
// source node. It reports false when there is no source node, no target page
// or a page parent that has no target.
func NavigationNode(msp *MultiSitePage, sourceToTarget map[string]string) (domain.Entity, bool) {
	if msp.Source == nil || msp.Source.Navigation == nil || msp.Target == nil || msp.Target.Page == nil {
		return nil, false
	}
	node := msp.Source.Navigation.Without("Id", "OriginalId")
	targetID := msp.Target.Page.ID()
	node["Id"] = domain.NavigationPagePrefix + targetID
	node["OriginalId"] = targetID

	parent := node.String("ParentId")
	if strings.HasPrefix(parent, "page") {
		parts := strings.Split(parent, "^^")
		mapped, ok := sourceToTarget[parts[len(parts)-1]]
		if !ok {
			return nil, false
		}
		node["ParentId"] = domain.NavigationPagePrefix + mapped
	}
	return node, true
}
