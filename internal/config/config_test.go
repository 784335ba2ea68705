package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"catalog-content-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func minimalEnvs() map[string]string {
	return map[string]string{
		"API_URL":        "https://t12345.sandbox.example.com/api",
		"CLIENT_ID":      "Tenant.App.1.0.0.Release",
		"CLIENT_SECRET":  "0123456789abcdef0123456789ABCDEF",
		"CATALOG_PAIRS":  `[{"source":5,"destination":7},{"source":6,"destination":8}]`,
		"SITE_PAIRS":     `[{"source":10,"destination":20}]`,
		"PRIME_CATALOG":  "5",
		"MASTER_CATALOG": "1",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12345, cfg.TenantID)
	assert.Equal(t, 5, cfg.PrimeCatalog)
	assert.Equal(t, 1, cfg.MasterCatalog)
	assert.Equal(t, []domain.Pair{{Source: 5, Destination: 7}, {Source: 6, Destination: 8}}, cfg.CatalogPairs)
	assert.Equal(t, []domain.Pair{{Source: 10, Destination: 20}}, cfg.SitePairs)

	assert.Equal(t, 200, cfg.PageSize)
	assert.Equal(t, 4, cfg.ProductMaxInFlight)
	assert.Equal(t, 5, cfg.AssetMaxInFlight)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, float64(10), cfg.RequestsPerSecond)
	assert.Equal(t, "KW-(EN|AR)-", cfg.CodePrefixPattern)
	assert.True(t, cfg.ContentOverwrite)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "ar-ae", cfg.Content.Source.LocalePrefix)
	assert.Equal(t, "catalog_sync", cfg.MongoDatabase)
}

func TestLoad_Overrides(t *testing.T) {
	envs := minimalEnvs()
	envs["PAGE_SIZE"] = "50"
	envs["HTTP_TIMEOUT"] = "5s"
	envs["CONTENT_OVERWRITE"] = "false"
	envs["REQUESTS_PER_SECOND"] = "2.5"
	setEnvs(t, envs)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.ContentOverwrite)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
}

func TestLoad_MalformedValues(t *testing.T) {
	cases := map[string]string{
		"PRIME_CATALOG": "five",
		"CATALOG_PAIRS": `{"source":5}`,
		"SITE_PAIRS":    `[]`,
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			envs := minimalEnvs()
			envs[key] = value
			setEnvs(t, envs)

			_, err := Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate_RejectsBadSettings(t *testing.T) {
	cases := map[string]string{
		"API_URL":       "https://t12345.sandbox.example.com/v1",
		"CLIENT_SECRET": "not-a-secret",
		"CLIENT_ID":     "",
		"PRIME_CATALOG": "",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			envs := minimalEnvs()
			envs[key] = value
			setEnvs(t, envs)

			cfg, err := Load()
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateContent(t *testing.T) {
	envs := minimalEnvs()
	setEnvs(t, envs)
	t.Setenv("SOURCE_TENANT", "100")
	t.Setenv("SOURCE_SITE", "200")
	t.Setenv("TARGET_TENANT", "300")
	t.Setenv("TARGET_SITE", "")
	t.Setenv("TARGET_SITE_PREFIX_LOCALE", "en-us")

	cfg, err := Load()
	require.NoError(t, err)
	err = cfg.ValidateContent()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TARGET_SITE is required")

	t.Setenv("TARGET_SITE", "400")
	cfg, err = Load()
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateContent())
	assert.Equal(t, ContentSite{TenantID: 300, SiteID: 400, LocalePrefix: "en-us"}, cfg.Content.Target)
}

func TestWriteEnvTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, WriteEnvTemplate(path, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CATALOG_PAIRS=")

	assert.ErrorIs(t, WriteEnvTemplate(path, false), ErrEnvExists)
	assert.NoError(t, WriteEnvTemplate(path, true))
}
