package blog

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/apipath/blog/analytics"
)

// contentSecurityPolicy allows the Google Analytics and Disqus embeds and
// iframes from https origins.
const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://www.googletagmanager.com https://*.disqus.com https://*.disquscdn.com; " +
	"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com https://*.disquscdn.com; " +
	"img-src 'self' https: data:; " +
	"font-src 'self' https://fonts.gstatic.com; " +
	"connect-src 'self' https://www.google-analytics.com https://*.disqus.com; " +
	"frame-src https:; " +
	"media-src 'self' data:"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			p := a.sitePath(c.Request().URL.Path)
			return isFilePath(p) && !strings.HasSuffix(p, ".css")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.Server.CookieSecure,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(a.sitePath(c.Request().URL.Path), "/api/analytics/")
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(a.limitPosts)

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			sp := a.sitePath(p)
			return isFilePath(sp) || strings.HasPrefix(sp, "/api/") || p == "/metrics"
		},
	}))

	e.Use(a.cacheControl)
}

// limitPosts rate-limits form posts per client IP. The analytics collector
// has its own limiter.
func (a *App) limitPosts(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodPost || a.sitePath(c.Request().URL.Path) == analytics.CollectPath {
			return next(c)
		}
		if !a.postLimiter.Allow(c.RealIP()) {
			return c.NoContent(http.StatusTooManyRequests)
		}
		return next(c)
	}
}

// sitePath strips the path prefix from p. Paths outside the prefix are
// returned unchanged.
func (a *App) sitePath(p string) string {
	prefix := strings.TrimSuffix(a.Config.PathPrefix, "/")
	if prefix == "" {
		return p
	}
	if p == prefix {
		return "/"
	}
	if rest, ok := strings.CutPrefix(p, prefix+"/"); ok {
		return "/" + rest
	}
	return p
}

// isFilePath reports whether p names a file rather than a page.
func isFilePath(p string) bool {
	switch {
	case strings.HasPrefix(p, "/static/"), strings.HasPrefix(p, "/assets/"),
		strings.HasPrefix(p, "/icons/"), strings.HasPrefix(p, "/public/"):
		return true
	}
	last := p[strings.LastIndex(p, "/")+1:]
	return strings.Contains(last, ".")
}

func (a *App) cacheControl(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := a.sitePath(c.Request().URL.Path)
		h := c.Response().Header()
		switch {
		case strings.HasPrefix(p, "/static/"), strings.HasPrefix(p, "/icons/"):
			h.Set(echo.HeaderCacheControl, "public, max-age=31536000, immutable")
		case strings.HasPrefix(p, "/api/"), c.Request().URL.Path == "/metrics", c.Request().Method != http.MethodGet:
			h.Set(echo.HeaderCacheControl, "no-store")
		case strings.HasSuffix(p, ".xml"), strings.HasSuffix(p, ".webmanifest"):
			h.Set(echo.HeaderCacheControl, "public, max-age=86400")
		default:
			// Pages depend on the reader's dark-mode cookie.
			h.Set(echo.HeaderCacheControl, "private, max-age=0, must-revalidate")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.Server.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 365,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.Server.CookieSecure,
	}
	return store
}

// csrfToken extracts the CSRF token from the Echo context.
func csrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
