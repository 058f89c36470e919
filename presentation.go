// Package presentation serves a blog backed by the Sanity GraphQL API with
// Echo and templ. Published visitors read from the API CDN; editors in draft
// mode read draft content with stega-encoded strings for visual editing.
package presentation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/cache"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/views"
)

// ViewFuncs holds the templ components the handlers render. DefaultViews
// returns the built-in set.
type ViewFuncs struct {
	Home        func(page views.Page, hero *Post, more []Post) templ.Component
	Post        func(page views.Page, post Post, more []Post) templ.Component
	NotFound    func(page views.Page) templ.Component
	ServerError func() templ.Component
}

// DefaultViews returns the components from the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:        views.Home,
		Post:        views.PostPage,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App wires the Sanity clients, the result cache, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Views   ViewFuncs
	Logger  *zap.Logger
	Clients *sanity.ClientCache
	Fetcher *sanity.Fetcher
	Cache   cache.Store

	httpClient       *http.Client
	previewValidator *sanity.PreviewValidator
	previewLimiter   *PreviewLimiter
	customRoutes     []func(*App)
	ready            bool
	closeOnce        sync.Once
	closeErr         error
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  DefaultViews(),
		Logger: zap.NewNop(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup validates the configuration and builds clients, middleware and
// routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("presentation: SessionSecret is required")
	}
	// Draft mode is always routable, so the read token is required up front.
	if err := a.Config.Sanity.ValidateToken(); err != nil {
		return fmt.Errorf("presentation: %w", err)
	}

	if a.Cache == nil {
		store, err := cache.Open(ctx, a.Config.CacheURL, a.Logger)
		if err != nil {
			return fmt.Errorf("presentation: init cache: %w", err)
		}
		a.Cache = store
	}

	factoryOpts := []sanity.FactoryOption{
		sanity.WithLogger(a.Logger),
		sanity.WithResultCache(a.Cache, a.Config.CacheTTL),
	}
	if a.httpClient != nil {
		factoryOpts = append(factoryOpts, sanity.WithHTTPClient(a.httpClient))
	}
	factory, err := sanity.NewFactory(a.Config.Sanity, factoryOpts...)
	if err != nil {
		return fmt.Errorf("presentation: %w", err)
	}
	a.Clients = sanity.NewClientCache(factory)
	a.Fetcher = sanity.NewFetcher(a.Clients, a.Config.PreviewDeployment)
	a.previewValidator = factory.PreviewValidator()
	a.previewLimiter = NewPreviewLimiter(10, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves until ctx is canceled, then shuts the
// server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", a.Config.Addr))
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("presentation: shutdown: %w", err)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/:slug/", a.handlePost)

	e.GET("/api/draft", a.handleDraft)
	e.GET("/api/disable-draft", a.handleDisableDraft)
}

// Close releases the limiter and the result cache. It is safe to call more
// than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.previewLimiter != nil {
			a.previewLimiter.Stop()
		}
		if a.Cache != nil {
			a.closeErr = a.Cache.Close()
		}
	})
	return a.closeErr
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
