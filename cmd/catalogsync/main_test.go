package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"catalog-content-sync/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := (&app{logger: zerolog.Nop()}).command()
	var names []string
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	for _, want := range []string{
		"categories", "products", "settings", "entities",
		"search-settings", "search-facets", "search-merchandising", "search-redirects", "search-all",
		"clean-category-prefixes", "sync-content", "upload-swatches",
		"validate-config", "download", "clear", "publish", "runs", "init-env",
	} {
		assert.Contains(t, names, want)
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, newLogger("loud", "json").GetLevel())
	assert.Equal(t, zerolog.DebugLevel, newLogger("DEBUG", "console").GetLevel())
}

func TestInitEnvRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	root := (&app{logger: zerolog.Nop()}).command()

	require.NoError(t, root.Run(context.Background(), []string{"catalogsync", "init-env", "--path", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "API_URL=")

	root = (&app{logger: zerolog.Nop()}).command()
	err = root.Run(context.Background(), []string{"catalogsync", "init-env", "--path", path})
	assert.ErrorIs(t, err, config.ErrEnvExists)

	root = (&app{logger: zerolog.Nop()}).command()
	assert.NoError(t, root.Run(context.Background(), []string{"catalogsync", "init-env", "--path", path, "--force"}))
}

func TestSyncCommandRejectsInvalidConfig(t *testing.T) {
	t.Setenv("API_URL", "not-a-url")
	t.Setenv("CLIENT_ID", "")
	t.Setenv("CATALOG_PAIRS", "")
	t.Setenv("SITE_PAIRS", "")

	root := (&app{logger: zerolog.Nop()}).command()
	err := root.Run(context.Background(), []string{"catalogsync", "categories"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
