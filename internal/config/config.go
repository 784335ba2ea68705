package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"catalog-content-sync/internal/domain"

	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every missing or malformed setting.
var ErrInvalidConfig = errors.New("invalid configuration")

var (
	apiURLPattern       = regexp.MustCompile(`^https?://.+/api$`)
	tenantPattern       = regexp.MustCompile(`https://t(\d+)`)
	clientSecretPattern = regexp.MustCompile(`(?i)^[a-f0-9]{32}$`)
)

// Config holds every setting of the sync tool. Catalog settings are checked by
// Validate, content settings by ValidateContent.
type Config struct {
	APIURL       string
	TenantID     int
	AuthHost     string
	ClientID     string
	ClientSecret string

	MasterCatalog int
	PrimeCatalog  int
	CatalogPairs  []domain.Pair
	SitePairs     []domain.Pair

	Content ContentConfig

	CodePrefixPattern  string
	ContentOverwrite   bool
	OutputDir          string
	SwatchDir          string
	PageSize           int
	ProductMaxInFlight int
	AssetMaxInFlight   int
	RequestsPerSecond  float64
	HTTPTimeout        time.Duration
	MaxRetries         int

	RedisURL      string
	MongoURI      string
	MongoDatabase string

	LogLevel   string
	LogFormat  string
	StatusAddr string
}

// ContentConfig names the two content sites of sync-content.
type ContentConfig struct {
	Source ContentSite
	Target ContentSite
}

type ContentSite struct {
	TenantID     int
	SiteID       int
	LocalePrefix string
	// CategoryPrefix is stripped from source category codes when matching.
	CategoryPrefix string
}

// Load reads the configuration from the environment. A .env file should be
// loaded beforehand by the caller.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		APIURL:            strings.TrimRight(v.GetString("API_URL"), "/"),
		AuthHost:          v.GetString("AUTH_HOST"),
		ClientID:          v.GetString("CLIENT_ID"),
		ClientSecret:      v.GetString("CLIENT_SECRET"),
		CodePrefixPattern: v.GetString("CODE_PREFIX_PATTERN"),
		ContentOverwrite:  v.GetBool("CONTENT_OVERWRITE"),
		OutputDir:         v.GetString("OUTPUT_DIR"),
		SwatchDir:         v.GetString("SWATCH_DIR"),
		HTTPTimeout:       v.GetDuration("HTTP_TIMEOUT"),
		RedisURL:          v.GetString("REDIS_URL"),
		MongoURI:          v.GetString("MONGODB_URI"),
		MongoDatabase:     v.GetString("MONGODB_DATABASE"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		StatusAddr:        v.GetString("STATUS_ADDR"),
	}
	cfg.Content.Source.LocalePrefix = v.GetString("SOURCE_SITE_PREFIX_LOCALE")
	cfg.Content.Source.CategoryPrefix = v.GetString("SOURCE_CATEGORY_PREFIX")
	cfg.Content.Target.LocalePrefix = v.GetString("TARGET_SITE_PREFIX_LOCALE")

	if m := tenantPattern.FindStringSubmatch(cfg.APIURL); m != nil {
		cfg.TenantID, _ = strconv.Atoi(m[1])
	}

	var errs []error
	ints := []struct {
		key string
		dst *int
	}{
		{"MASTER_CATALOG", &cfg.MasterCatalog},
		{"PRIME_CATALOG", &cfg.PrimeCatalog},
		{"SOURCE_TENANT", &cfg.Content.Source.TenantID},
		{"SOURCE_SITE", &cfg.Content.Source.SiteID},
		{"TARGET_TENANT", &cfg.Content.Target.TenantID},
		{"TARGET_SITE", &cfg.Content.Target.SiteID},
		{"PAGE_SIZE", &cfg.PageSize},
		{"PRODUCT_MAX_IN_FLIGHT", &cfg.ProductMaxInFlight},
		{"ASSET_MAX_IN_FLIGHT", &cfg.AssetMaxInFlight},
		{"MAX_RETRIES", &cfg.MaxRetries},
	}
	for _, s := range ints {
		n, err := intSetting(v, s.key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*s.dst = n
	}

	rps, err := strconv.ParseFloat(strings.TrimSpace(v.GetString("REQUESTS_PER_SECOND")), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("REQUESTS_PER_SECOND must be a number: %w", ErrInvalidConfig))
	}
	cfg.RequestsPerSecond = rps

	if cfg.CatalogPairs, err = pairsSetting(v, "CATALOG_PAIRS"); err != nil {
		errs = append(errs, err)
	}
	if cfg.SitePairs, err = pairsSetting(v, "SITE_PAIRS"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SOURCE_SITE_PREFIX_LOCALE", "ar-ae")
	v.SetDefault("CODE_PREFIX_PATTERN", `KW-(EN|AR)-`)
	v.SetDefault("CONTENT_OVERWRITE", true)
	v.SetDefault("OUTPUT_DIR", "./output")
	v.SetDefault("SWATCH_DIR", "./swatches")
	v.SetDefault("PAGE_SIZE", 200)
	v.SetDefault("PRODUCT_MAX_IN_FLIGHT", 4)
	v.SetDefault("ASSET_MAX_IN_FLIGHT", 5)
	v.SetDefault("REQUESTS_PER_SECOND", 10)
	v.SetDefault("HTTP_TIMEOUT", "60s")
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("MONGODB_DATABASE", "catalog_sync")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Validate checks the settings every catalog sync command depends on.
func (c *Config) Validate() error {
	var errs []error
	if !apiURLPattern.MatchString(c.APIURL) {
		errs = append(errs, fmt.Errorf("API_URL must look like https://t<tenant>.../api: %w", ErrInvalidConfig))
	} else if c.TenantID == 0 {
		errs = append(errs, fmt.Errorf("API_URL does not carry a tenant id: %w", ErrInvalidConfig))
	}
	if c.ClientID == "" {
		errs = append(errs, fmt.Errorf("CLIENT_ID is required: %w", ErrInvalidConfig))
	}
	if !clientSecretPattern.MatchString(c.ClientSecret) {
		errs = append(errs, fmt.Errorf("CLIENT_SECRET must be 32 hex characters: %w", ErrInvalidConfig))
	}
	if len(c.CatalogPairs) == 0 {
		errs = append(errs, fmt.Errorf("CATALOG_PAIRS is required: %w", ErrInvalidConfig))
	}
	if len(c.SitePairs) == 0 {
		errs = append(errs, fmt.Errorf("SITE_PAIRS is required: %w", ErrInvalidConfig))
	}
	if c.PrimeCatalog == 0 {
		errs = append(errs, fmt.Errorf("PRIME_CATALOG is required: %w", ErrInvalidConfig))
	}
	if c.MasterCatalog == 0 {
		errs = append(errs, fmt.Errorf("MASTER_CATALOG is required: %w", ErrInvalidConfig))
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive: %w", ErrInvalidConfig))
	}
	if c.CodePrefixPattern != "" {
		if _, err := regexp.Compile(c.CodePrefixPattern); err != nil {
			errs = append(errs, fmt.Errorf("CODE_PREFIX_PATTERN: %v: %w", err, ErrInvalidConfig))
		}
	}
	return errors.Join(errs...)
}

// ValidateContent checks the settings of the content commands.
func (c *Config) ValidateContent() error {
	var errs []error
	if c.ClientID == "" || c.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("CLIENT_ID and CLIENT_SECRET are required: %w", ErrInvalidConfig))
	}
	if !apiURLPattern.MatchString(c.APIURL) {
		errs = append(errs, fmt.Errorf("API_URL must look like https://t<tenant>.../api: %w", ErrInvalidConfig))
	}
	for _, s := range []struct {
		name string
		site ContentSite
	}{{"SOURCE", c.Content.Source}, {"TARGET", c.Content.Target}} {
		if s.site.TenantID == 0 {
			errs = append(errs, fmt.Errorf("%s_TENANT is required: %w", s.name, ErrInvalidConfig))
		}
		if s.site.SiteID == 0 {
			errs = append(errs, fmt.Errorf("%s_SITE is required: %w", s.name, ErrInvalidConfig))
		}
		if s.site.LocalePrefix == "" {
			errs = append(errs, fmt.Errorf("%s_SITE_PREFIX_LOCALE is required: %w", s.name, ErrInvalidConfig))
		}
	}
	return errors.Join(errs...)
}

func intSetting(v *viper.Viper, key string) (int, error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", key, s, ErrInvalidConfig)
	}
	return n, nil
}

func pairsSetting(v *viper.Viper, key string) ([]domain.Pair, error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return nil, nil
	}
	var pairs []domain.Pair
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return nil, fmt.Errorf("%s must be a JSON array of {source, destination}: %v: %w", key, err, ErrInvalidConfig)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s must not be empty: %w", key, ErrInvalidConfig)
	}
	for i, p := range pairs {
		if p.Source == 0 || p.Destination == 0 {
			return nil, fmt.Errorf("%s[%d] needs both source and destination: %w", key, i, ErrInvalidConfig)
		}
	}
	return pairs, nil
}
