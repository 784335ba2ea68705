package sync_tasks

import (
	"context"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/domain"
)

// ThemeSettingsTask copies the theme_settings_* documents of the source
// content site, matching them on their theme.
type ThemeSettingsTask struct{}

func NewThemeSettingsTask() *ThemeSettingsTask {
	return &ThemeSettingsTask{}
}

func (t *ThemeSettingsTask) Name() string {
	return FamilyThemeSettings
}

func (t *ThemeSettingsTask) Run(ctx context.Context, s *application.Session) (*domain.SyncResult, error) {
	rec := newRecorder(s, t.Name())

	s.Transition(t.Name(), domain.StateFetchingSource)
	source, target, err := s.ContentSites(ctx)
	if err != nil {
		return rec.result, err
	}

	s.Transition(t.Name(), domain.StateDiffing)
	existing := make(map[string]domain.Entity)
	for _, doc := range target.Documents.WithPrefix(domain.ListSiteSettings, domain.ThemeSettingsPrefix) {
		theme := themeOf(doc)
		if _, ok := existing[theme]; !ok {
			existing[theme] = doc
		}
	}

	s.Transition(t.Name(), domain.StateWriting)
	for _, doc := range source.Documents.WithPrefix(domain.ListSiteSettings, domain.ThemeSettingsPrefix) {
		key := doc.String("name")
		match, ok := existing[themeOf(doc)]
		if ok {
			work := match.Clone()
			work["properties"] = doc.Clone()["properties"]
			if sameProperties(match, work) {
				rec.skip(key)
				continue
			}
			rec.update(ctx, key, nil, func(ctx context.Context) error {
				_, err := s.Documents.Update(ctx, target.Context, domain.ListSiteSettings, work)
				return err
			})
			continue
		}
		work := doc.Without("id", "insertDate", "updateDate")
		rec.create(ctx, key, nil, func(ctx context.Context) error {
			_, err := s.Documents.Create(ctx, target.Context, domain.ListSiteSettings, work)
			return err
		})
	}
	return rec.result, nil
}

func themeOf(doc domain.Entity) string {
	return domain.KeyString(doc.Map("properties")["theme"])
}
