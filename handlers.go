package blog

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/apipath/blog/darkmode"
	"github.com/apipath/blog/markdown"
)

// darkModePath is the toggle endpoint, relative to the root path.
const darkModePath = "dark-mode/"

func (a *App) setupRoutes() {
	e := a.Echo
	work := a.Config.Server.WorkDir

	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	// Everything the pages link to lives under the path prefix.
	g := e.Group(strings.TrimSuffix(a.Config.PathPrefix, "/"))
	g.Static("/static", filepath.Join(work, "static"))
	g.Static("/assets", filepath.Join(work, "assets"))
	g.Static("/icons", filepath.Join(work, "icons"))
	g.GET("/"+DarkModeScript, handleDarkModeScript)
	if a.analytics != nil {
		a.analytics.RegisterRoutes(g)
	}
	g.GET("/", a.handleHome)
	g.GET("/tags/:tag/", a.handleTag)
	g.POST("/"+darkModePath, darkmode.ToggleHandler(a.Config.DarkMode.Default, a.Metrics.darkModeToggled))
	g.GET("/"+darkmode.StylesheetName, handleThemeCSS)
	g.GET("/typography.css", a.handleTypography)
	g.GET("/chroma.css", a.handleChroma)
	if a.Config.Feed.Enabled {
		g.GET("/"+strings.TrimPrefix(a.Config.Feed.Path, "/"), a.handleFeed)
	}
	if a.Config.Sitemap.Enabled {
		g.GET("/sitemap.xml", a.handleSitemap)
	}
	if a.Config.Manifest.Enabled {
		g.GET("/manifest.webmanifest", a.handleManifest)
	}
	// Slugs may be nested (2020/hello/), so posts take whatever is left.
	g.GET("/*", a.handlePost)
}

// pageContext builds the per-request rendering state: the reader's
// dark-mode preference from the session and the toggle form's target.
func (a *App) pageContext(c echo.Context) PageContext {
	pc := PageContext{
		Location:     c.Request().URL.Path,
		ToggleAction: a.Config.RootPath() + darkModePath,
		CSRF:         csrfToken(c),
	}
	if pref, err := darkmode.FromSession(c, a.Config.DarkMode.Default); err == nil {
		pc.Dark = pref
	} else {
		pc.Dark = darkmode.Static(a.Config.DarkMode.Default)
	}
	return pc
}

func (a *App) handleHome(c echo.Context) error {
	site, err := a.Cache.Site(c.Request().Context())
	if err != nil {
		return err
	}
	a.Metrics.pageRendered("home")
	return Render(c, a.Pages.Home(site, a.pageContext(c)))
}

func (a *App) handleTag(c echo.Context) error {
	site, err := a.Cache.Site(c.Request().Context())
	if err != nil {
		return err
	}
	page, err := a.Pages.Tag(site, c.Param("tag"), a.pageContext(c))
	if err != nil {
		return err
	}
	a.Metrics.pageRendered("tag")
	return Render(c, page)
}

func (a *App) handlePost(c echo.Context) error {
	site, err := a.Cache.Site(c.Request().Context())
	if err != nil {
		return err
	}
	post, err := site.Post(c.Param("*"))
	if err != nil {
		return err
	}
	a.Metrics.pageRendered("post")
	return Render(c, a.Pages.Post(site, post, a.pageContext(c)))
}

func (a *App) handleFeed(c echo.Context) error {
	site, err := a.Cache.Site(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteFeed(c.Response(), site, a.Config)
}

func (a *App) handleSitemap(c echo.Context) error {
	site, err := a.Cache.Site(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationXMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return WriteSitemap(c.Response(), site, a.Config)
}

func (a *App) handleManifest(c echo.Context) error {
	icons := ExistingIcons(a.Config.Server.WorkDir, a.Config.RootPath(), a.Config.Manifest.IconSizes)
	c.Response().Header().Set(echo.HeaderContentType, "application/manifest+json")
	c.Response().WriteHeader(http.StatusOK)
	_, err := NewWebManifest(a.Config, icons).WriteTo(c.Response())
	return err
}

func (a *App) handleTypography(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(a.Pages.Typography().CSS()))
}

func (a *App) handleChroma(c echo.Context) error {
	hl, ok := a.loader.Converter.Chain().Plugin(markdown.PluginHighlight)
	if !ok {
		return echo.ErrNotFound
	}
	sheet, ok := hl.(markdown.StyleSheet)
	if !ok {
		return echo.ErrNotFound
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/css; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return sheet.WriteCSS(c.Response())
}

func handleThemeCSS(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(darkmode.CSS()))
}

func handleDarkModeScript(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/javascript; charset=utf-8", darkmode.Script)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &he):
		code = he.Code
	}
	if code == http.StatusNotFound && c.Request().Method == http.MethodGet {
		a.Metrics.pageRendered("not_found")
		if rerr := RenderStatus(c, http.StatusNotFound, a.Pages.NotFound(a.pageContext(c))); rerr != nil {
			c.Logger().Errorf("render not found: %v", rerr)
		}
		return
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	if he == nil {
		he = echo.NewHTTPError(code)
	}
	a.Echo.DefaultHTTPErrorHandler(he, c)
}
