package presentation

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/cache"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/views"
)

// SiteConfig holds all configuration for a presentation site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Blog")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags

	Addr string `yaml:"addr"` // Listen address (default ":3000")

	Sanity sanity.Config `yaml:"sanity"`
	// PreviewDeployment turns stega on for published reads, for staging hosts
	// opened inside the Presentation tool.
	PreviewDeployment bool `yaml:"preview_deployment"`

	SessionSecret string `yaml:"-"`             // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"` // Set true for HTTPS

	CacheURL string        `yaml:"cache_url"` // "memory", "redis://…" or "sqlite://path"
	CacheTTL time.Duration `yaml:"cache_ttl"` // Result cache TTL (default 30s)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.CacheURL == "" {
		c.CacheURL = "memory"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = sanity.DefaultResultTTL
	}
	c.Sanity.SetDefaults()
}

func (c SiteConfig) viewSite() views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		ProjectID:   c.Sanity.ProjectID,
		Dataset:     c.Sanity.Dataset,
		Studio:      c.Sanity.StudioURL,
	}
}

// LoadConfig reads the optional YAML file at path and overlays environment
// variables. Secrets only come from the environment.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("presentation: read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("presentation: parse config %s: %w", path, err)
		}
	}

	cfg.Name = EnvOr("SITE_NAME", cfg.Name)
	cfg.URL = EnvOr("SITE_URL", cfg.URL)
	cfg.Addr = EnvOr("ADDR", cfg.Addr)
	cfg.SessionSecret = EnvOr("SESSION_SECRET", cfg.SessionSecret)
	cfg.CacheURL = EnvOr("CACHE_URL", cfg.CacheURL)

	cfg.Sanity.ProjectID = EnvOr("SANITY_PROJECT_ID", cfg.Sanity.ProjectID)
	cfg.Sanity.Dataset = EnvOr("SANITY_DATASET", cfg.Sanity.Dataset)
	cfg.Sanity.APIVersion = EnvOr("SANITY_API_VERSION", cfg.Sanity.APIVersion)
	cfg.Sanity.GraphQLTag = EnvOr("SANITY_GRAPHQL_TAG", cfg.Sanity.GraphQLTag)
	cfg.Sanity.Token = EnvOr("SANITY_API_READ_TOKEN", cfg.Sanity.Token)
	cfg.Sanity.StudioURL.BaseURL = EnvOr("SANITY_STUDIO_URL", cfg.Sanity.StudioURL.BaseURL)
	cfg.Sanity.StudioURL.Workspace = EnvOr("SANITY_STUDIO_WORKSPACE", cfg.Sanity.StudioURL.Workspace)

	var err error
	if cfg.CookieSecure, err = envBool("COOKIE_SECURE", cfg.CookieSecure); err != nil {
		return cfg, err
	}
	if cfg.PreviewDeployment, err = envBool("PREVIEW_DEPLOYMENT", cfg.PreviewDeployment); err != nil {
		return cfg, err
	}
	if os.Getenv("VERCEL_ENV") == "preview" {
		cfg.PreviewDeployment = true
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("presentation: CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = ttl
	}
	return cfg, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("presentation: %s: %w", key, err)
	}
	return b, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger used by the app and its Sanity clients.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithHTTPClient sets the client used for Content Lake requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithResultCache replaces the cache opened from CacheURL.
func WithResultCache(s cache.Store) Option {
	return func(a *App) {
		a.Cache = s
	}
}

// WithViews replaces the built-in views.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
