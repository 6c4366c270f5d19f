// Package blog builds a personal blog from Markdown sources. It renders the
// site to static files with a Builder, or serves it live with an App.
package blog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/apipath/blog/analytics"
	"github.com/apipath/blog/internal/ratelimit"
)

const shutdownTimeout = 10 * time.Second

// App serves the blog over HTTP. Content is loaded into Cache on demand
// and reloaded when it expires or the sources change.
type App struct {
	Config  Config
	Echo    *echo.Echo
	Cache   *SiteCache
	Pages   *Pages
	Metrics *Metrics
	Logger  *log.Logger

	loader         *Loader
	publisher      *Publisher
	postLimiter    *ratelimit.Limiter
	analyticsStore *analytics.Store
	analytics      *analytics.Handler
	customRoutes   []func(*App)
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithMetrics replaces the default metrics registry.
func WithMetrics(m *Metrics) Option {
	return func(a *App) {
		a.Metrics = m
	}
}

// New validates cfg and wires the server. The analytics store, when
// enabled, is opened here; call Close to release it.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Echo: echo.New()}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = NewLogger(cfg.Env)
	}
	if a.Metrics == nil {
		a.Metrics = NewMetrics()
	}

	loader, err := NewLoader(cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.loader = loader
	a.publisher = NewPublisher(cfg.Server.WorkDir, a.Logger)
	a.Pages = NewPages(cfg, loader.Converter.Chain())
	a.Cache = NewSiteCache(a.loadSite, cfg.Server.CacheTTL)
	a.postLimiter = ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateWindow)

	if cfg.Analytics.SelfHosted {
		if err := a.openAnalytics(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Echo.HideBanner = true
	a.Echo.Logger = a.Logger
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a, nil
}

func (a *App) openAnalytics(ctx context.Context) error {
	path := a.Config.Analytics.DatabasePath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("analytics dir: %w", err)
	}
	store, err := analytics.NewStore(ctx, path)
	if err != nil {
		return fmt.Errorf("init analytics: %w", err)
	}
	a.analyticsStore = store
	hasher, err := analytics.LoadHasher(ctx, store)
	if err != nil {
		return fmt.Errorf("init analytics salt: %w", err)
	}
	var host string
	if u, err := url.Parse(a.Config.SiteMetadata.SiteURL); err == nil {
		host = u.Hostname()
	}
	a.analytics = analytics.NewHandler(store, hasher, analytics.Options{
		StatsToken: a.Config.Analytics.StatsToken,
		SiteHost:   host,
	})
	a.Pages.AnalyticsScript = strings.TrimSuffix(a.Config.PathPrefix, "/") + analytics.ScriptPath
	return nil
}

// loadSite reads the sources and publishes their files into the work dir.
func (a *App) loadSite(ctx context.Context) (*Site, error) {
	start := time.Now()
	site, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.publisher.PublishContent(ctx, site); err != nil {
		return nil, err
	}
	a.Metrics.observeBuild(time.Since(start))
	a.Logger.Infof("loaded %d posts in %s", len(site.Posts), time.Since(start).Round(time.Millisecond))
	return site, nil
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	if _, err := a.Cache.Site(ctx); err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	if a.Config.Manifest.Enabled {
		if err := a.publisher.PublishManifest(a.Config); err != nil {
			return err
		}
	}
	if a.analyticsStore != nil {
		a.analyticsStore.StartCleanupScheduler(ctx, a.Config.Analytics.RetentionDays, 24*time.Hour, a.Logger)
	}
	if a.Config.Server.Watch {
		go func() {
			if err := WatchSources(ctx, a.Config.Sources, 300*time.Millisecond, a.Logger, a.Cache.Invalidate); err != nil {
				a.Logger.Warnf("watch: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Infof("listening on %s", a.Config.Server.Addr)
		if err := a.Echo.Start(a.Config.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the limiters and the analytics store.
func (a *App) Close() error {
	if a.postLimiter != nil {
		a.postLimiter.Stop()
	}
	if a.analytics != nil {
		a.analytics.Stop()
	}
	if a.analyticsStore != nil {
		return a.analyticsStore.Close()
	}
	return nil
}

// NewLogger returns the gommon logger used across the blog: INFO in
// production, DEBUG otherwise.
func NewLogger(env string) *log.Logger {
	l := log.New("blog")
	if strings.EqualFold(env, EnvProduction) {
		l.SetLevel(log.INFO)
	} else {
		l.SetLevel(log.DEBUG)
	}
	return l
}
