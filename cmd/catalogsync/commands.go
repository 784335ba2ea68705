package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/application/sync_tasks"
	"catalog-content-sync/internal/config"
	"catalog-content-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

type app struct {
	logger zerolog.Logger
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:  "catalogsync",
		Usage: "Copy catalog and content data between tenants of the commerce platform",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "log-format", Value: "json", Usage: "json or console", Sources: cli.EnvVars("LOG_FORMAT")},
			&cli.StringFlag{Name: "status-addr", Usage: "serve health, metrics and progress on this address while running", Sources: cli.EnvVars("STATUS_ADDR")},
		},
		Commands: []*cli.Command{
			a.syncCommand(sync_tasks.FamilyCategories, "Create missing categories and fix parents", sync_tasks.NewCategoriesTask()),
			a.syncCommand(sync_tasks.FamilyProducts, "Align product catalog memberships with the prime catalog", sync_tasks.NewProductsTask()),
			a.syncCommand(sync_tasks.FamilySettings, "Copy site settings", sync_tasks.NewSettingsTask()),
			a.syncCommand(sync_tasks.FamilyEntities, "Copy catalog level entity lists", sync_tasks.NewEntitiesTask()),
			a.syncCommand(sync_tasks.FamilySearchSettings, "Copy the default search settings", sync_tasks.NewSearchSettingsTask()),
			a.syncCommand(sync_tasks.FamilySearchFacets, "Copy search facets", sync_tasks.NewSearchFacetsTask()),
			a.syncCommand(sync_tasks.FamilySearchMerchandising, "Strip code prefixes and copy merchandising rules", sync_tasks.NewSearchMerchandisingTask()),
			a.syncCommand(sync_tasks.FamilySearchRedirects, "Copy search redirects", sync_tasks.NewSearchRedirectsTask()),
			a.syncCommand("search-all", "Run search-settings, search-facets and search-merchandising", sync_tasks.SearchTasks()...),
			a.syncCommand(sync_tasks.FamilyCleanCategories, "Strip code prefixes from category codes", sync_tasks.NewCleanCategoriesTask()),
			a.syncContentCommand(),
			a.swatchesCommand(),
			a.validateCommand(),
			a.contentCommand(sync_tasks.FamilyDownload, "Save the source and target document lists to the output directory", sync_tasks.NewDownloadTask()),
			a.contentCommand(sync_tasks.FamilyClear, "Delete target drafts and catalog content, then publish", sync_tasks.NewClearTask()),
			a.contentCommand(sync_tasks.FamilyPublish, "Publish the target drafts", sync_tasks.NewPublishTask()),
			a.runsCommand(),
			a.initEnvCommand(),
		},
	}
}

// execute loads the configuration for sc and dispatches tasks.
func (a *app) execute(ctx context.Context, cmd *cli.Command, sc scope, tasks ...application.Task) error {
	cfg, err := loadConfig(sc)
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, a.logger, cmd.String("status-addr"))
	if err != nil {
		return err
	}
	defer rt.Close(context.WithoutCancel(ctx))

	return rt.dispatch(ctx, application.RunRequest{
		Command: cmd.Name,
		Tasks:   tasks,
		Catalog: sc.catalog,
		Content: sc.content,
	})
}

func (a *app) syncCommand(name, usage string, tasks ...application.Task) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.execute(ctx, cmd, scope{catalog: true}, tasks...)
		},
	}
}

func (a *app) contentCommand(name, usage string, task application.Task) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.execute(ctx, cmd, scope{content: true}, task)
		},
	}
}

func (a *app) syncContentCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-content",
		Usage: "Copy redirects, catalog content, pages and theme settings. Without flags everything is copied",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pages", Usage: "copy pages, their template content and the navigation"},
			&cli.BoolFlag{Name: "redirects", Usage: "copy the redirects document"},
			&cli.BoolFlag{Name: "catalog-content", Usage: "copy category content documents"},
			&cli.BoolFlag{Name: "theme-settings", Usage: "copy theme settings documents"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tasks := sync_tasks.ContentTasks(sync_tasks.ContentOptions{
				Pages:          cmd.Bool("pages"),
				Redirects:      cmd.Bool("redirects"),
				CatalogContent: cmd.Bool("catalog-content"),
				ThemeSettings:  cmd.Bool("theme-settings"),
			})
			return a.execute(ctx, cmd, scope{content: true}, tasks...)
		},
	}
}

func (a *app) swatchesCommand() *cli.Command {
	return &cli.Command{
		Name:  sync_tasks.FamilySwatches,
		Usage: "Upload swatch images from a local directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "directory to upload, defaults to SWATCH_DIR"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.execute(ctx, cmd, scope{catalog: true}, sync_tasks.NewSwatchesTask(cmd.String("dir")))
		},
	}
}

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate-config",
		Usage: "Check the configured sites and catalogs against the live tenants",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "content", Usage: "also check the content sites"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := a.execute(ctx, cmd, scope{catalog: true, content: cmd.Bool("content")}); err != nil {
				return err
			}
			a.logger.Info().Msg("Configuration is valid")
			return nil
		},
	}
}

func (a *app) runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Print recent run reports",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs to print"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(scope{})
			if err != nil {
				return err
			}
			if cfg.MongoURI == "" {
				a.logger.Warn().Msg("MONGODB_URI is not set, no run history is kept")
			}
			rt := &runtime{cfg: cfg, logger: a.logger}
			runs, err := rt.openRuns(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(ctx))

			reports, err := runs.ListRuns(ctx, cmd.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if reports == nil {
				reports = []*domain.RunReport{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}
}

func (a *app) initEnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-env",
		Usage: "Write a .env template",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Value: ".env", Usage: "file to write"},
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("path")
			err := config.WriteEnvTemplate(path, cmd.Bool("force"))
			if errors.Is(err, config.ErrEnvExists) {
				return fmt.Errorf("%s already exists, use --force to overwrite: %w", path, err)
			}
			if err != nil {
				return err
			}
			a.logger.Info().Str("path", path).Msg("Wrote env template")
			return nil
		},
	}
}
