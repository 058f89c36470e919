package presentation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/views"
)

func (a *App) handleHome(c echo.Context) error {
	draft := IsDraftMode(c)
	var (
		hero     postsData
		settings settingsData
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error { return a.query(ctx, draft, HeroQuery, nil, &hero) })
	g.Go(func() error { return a.query(ctx, draft, SettingsQuery, nil, &settings) })
	if err := g.Wait(); err != nil {
		return err
	}

	page := a.page(c, settings.Settings, views.PageMeta{})
	if len(hero.AllPost) == 0 {
		return Render(c, a.Views.Home(page, nil, nil))
	}
	first := hero.AllPost[0]

	var more postsData
	params := map[string]any{"skip": first.ID, "limit": moreStoriesHome}
	if err := a.query(c.Request().Context(), draft, MoreStoriesQuery, params, &more); err != nil {
		return err
	}
	return Render(c, a.Views.Home(page, &first, more.AllPost))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	draft := IsDraftMode(c)
	var (
		post     postsData
		settings settingsData
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		return a.query(ctx, draft, PostQuery, map[string]any{"slug": slug}, &post)
	})
	g.Go(func() error { return a.query(ctx, draft, SettingsQuery, nil, &settings) })
	if err := g.Wait(); err != nil {
		return err
	}

	if len(post.AllPost) == 0 {
		page := a.page(c, settings.Settings, views.PageMeta{Title: "Not found"})
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(page))
	}
	current := post.AllPost[0]

	var more postsData
	params := map[string]any{"skip": current.ID, "limit": moreStoriesPost}
	if err := a.query(c.Request().Context(), draft, MoreStoriesQuery, params, &more); err != nil {
		return err
	}
	page := a.page(c, settings.Settings, a.postMeta(current))
	return Render(c, a.Views.Post(page, current, more.AllPost))
}

// handleDraft enables draft mode after the Content Lake confirms the preview
// secret the Presentation tool put in the URL.
func (a *App) handleDraft(c echo.Context) error {
	ip := c.RealIP()
	if !a.previewLimiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts")
	}

	result, err := a.previewValidator.Validate(c.Request().Context(), c.Request().URL.String())
	if err != nil {
		return fmt.Errorf("presentation: validate preview url: %w", err)
	}
	if !result.Valid {
		a.previewLimiter.Record(ip)
		a.Logger.Warn("draft mode rejected", zap.String("ip", ip))
		return c.String(http.StatusUnauthorized, "Invalid secret")
	}

	if err := setDraftMode(c); err != nil {
		return err
	}
	a.Clients.Reset()
	a.Logger.Info("draft mode enabled", zap.String("redirect", result.RedirectTo))
	return c.Redirect(http.StatusTemporaryRedirect, result.RedirectTo)
}

func (a *App) handleDisableDraft(c echo.Context) error {
	if err := clearDraftMode(c); err != nil {
		return err
	}
	a.Clients.Reset()
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

func (a *App) handleSitemap(c echo.Context) error {
	var posts postsData
	if err := a.queryPublished(c.Request().Context(), FeedQuery, map[string]any{"limit": feedLimit}, &posts); err != nil {
		return err
	}
	return a.renderSitemap(c, posts.AllPost)
}

func (a *App) handleFeed(c echo.Context) error {
	var posts postsData
	if err := a.queryPublished(c.Request().Context(), FeedQuery, map[string]any{"limit": feedLimit}, &posts); err != nil {
		return err
	}
	return a.renderRSS(c, posts.AllPost)
}

// handleRobots keeps preview deployments out of search indexes.
func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	if a.Config.PreviewDeployment {
		b.WriteString("Disallow: /\n")
	} else {
		b.WriteString("Allow: /\nDisallow: /api/\n")
		b.WriteString("Sitemap: " + strings.TrimSuffix(a.Config.URL, "/") + "/sitemap.xml\n")
	}
	return c.String(http.StatusOK, b.String())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		page := a.page(c, nil, views.PageMeta{Title: "Not found"})
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(page))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		fields := []zap.Field{zap.Error(err), zap.String("uri", c.Request().RequestURI)}
		var httpErr *sanity.HTTPError
		if errors.As(err, &httpErr) {
			fields = append(fields, zap.Int("upstream_status", httpErr.StatusCode))
		}
		a.Logger.Error("server error", fields...)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
