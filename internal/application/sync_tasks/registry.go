package sync_tasks

import "catalog-content-sync/internal/application"

// ContentOptions selects the families of sync-content. No selection means all.
type ContentOptions struct {
	Pages          bool
	Redirects      bool
	CatalogContent bool
	ThemeSettings  bool
}

func (o ContentOptions) all() bool {
	return !o.Pages && !o.Redirects && !o.CatalogContent && !o.ThemeSettings
}

// ContentTasks returns the selected content tasks in run order.
func ContentTasks(opts ContentOptions) []application.Task {
	all := opts.all()
	var tasks []application.Task
	if all || opts.Redirects {
		tasks = append(tasks, NewRedirectsTask())
	}
	if all || opts.CatalogContent {
		tasks = append(tasks, NewCatalogContentTask())
	}
	if all || opts.Pages {
		tasks = append(tasks, NewPagesTask())
	}
	if all || opts.ThemeSettings {
		tasks = append(tasks, NewThemeSettingsTask())
	}
	return tasks
}

// SearchTasks are the tasks of search-all.
func SearchTasks() []application.Task {
	return []application.Task{
		NewSearchSettingsTask(),
		NewSearchFacetsTask(),
		NewSearchMerchandisingTask(),
	}
}
