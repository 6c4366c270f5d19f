package analytics

import (
	"crypto/subtle"
	_ "embed"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apipath/blog/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

// Script is the client-side beacon served at ScriptPath.
//
//go:embed analytics.js
var Script []byte

// Routes served by Handler, relative to the site root.
const (
	CollectPath = "/api/analytics/collect"
	StatsPath   = "/api/analytics/stats"
	ScriptPath  = "/public/analytics.js"
)

// Input limits for the collect endpoint.
const (
	maxPathLen       = 2048
	maxReferrerLen   = 2048
	maxScreenSizeLen = 32
	maxDurationSec   = 86400
)

// Options configures a Handler.
type Options struct {
	// StatsToken guards the stats endpoint. Empty disables it.
	StatsToken string
	// SiteHost is the blog's own host; referrers from it count as direct.
	SiteHost   string
	RateLimit  int
	RateWindow time.Duration
}

// Handler serves the collect and stats endpoints.
type Handler struct {
	store   *Store
	hasher  *Hasher
	limiter *ratelimit.Limiter
	opts    Options
	now     func() time.Time
}

// NewHandler returns a Handler. Call Stop when done to release the limiter.
func NewHandler(store *Store, hasher *Hasher, opts Options) *Handler {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 60
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	return &Handler{
		store:   store,
		hasher:  hasher,
		limiter: ratelimit.New(opts.RateLimit, opts.RateWindow),
		opts:    opts,
		now:     time.Now,
	}
}

// Stop releases background resources.
func (h *Handler) Stop() {
	h.limiter.Stop()
}

// CollectRequest is the beacon payload.
type CollectRequest struct {
	Path        string `json:"path"`
	Referrer    string `json:"referrer"`
	ScreenSize  string `json:"screen_size"`
	DurationSec int    `json:"duration_sec"`
}

func (r *CollectRequest) validate() error {
	switch {
	case r.Path == "" || !strings.HasPrefix(r.Path, "/"):
		return fmt.Errorf("path must be absolute")
	case len(r.Path) > maxPathLen:
		return fmt.Errorf("path exceeds maximum length of %d", maxPathLen)
	case len(r.Referrer) > maxReferrerLen:
		return fmt.Errorf("referrer exceeds maximum length of %d", maxReferrerLen)
	case len(r.ScreenSize) > maxScreenSizeLen:
		return fmt.Errorf("screen_size exceeds maximum length of %d", maxScreenSizeLen)
	case r.DurationSec < 0:
		return fmt.Errorf("duration_sec must not be negative")
	case r.DurationSec > maxDurationSec:
		return fmt.Errorf("duration_sec exceeds maximum of %d", maxDurationSec)
	}
	return nil
}

// Collect records a page view, or the time spent on it when the payload
// carries a duration.
func (h *Handler) Collect(c echo.Context) error {
	ip := c.RealIP()
	if !h.limiter.Allow(ip) {
		return c.NoContent(http.StatusTooManyRequests)
	}
	if c.Request().Header.Get("DNT") == "1" {
		return c.NoContent(http.StatusNoContent)
	}

	var req CollectRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid request")
	}
	if err := req.validate(); err != nil {
		return c.String(http.StatusBadRequest, "invalid request")
	}

	ctx := c.Request().Context()
	ua := c.Request().UserAgent()
	now := h.now().UTC()

	if name := BotName(ua); name != "" {
		bv := &BotVisit{
			BotName:   name,
			IPHash:    h.hasher.HashIP(ip),
			UserAgent: truncate(ua, 512),
			Path:      req.Path,
			Timestamp: now,
		}
		if err := h.store.SaveBotVisit(ctx, bv); err != nil {
			c.Logger().Errorf("save bot visit: %v", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	visitorID := h.hasher.VisitorID(ip, ua)
	if req.DurationSec > 0 {
		if err := h.store.UpdateVisitDuration(ctx, visitorID, req.Path, req.DurationSec); err != nil {
			c.Logger().Errorf("update visit duration: %v", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	browser, os, device := ParseUserAgent(ua)
	visit := &Visit{
		VisitorID:  visitorID,
		SessionID:  SessionID(visitorID, now),
		IPHash:     h.hasher.HashIP(ip),
		Browser:    browser,
		OS:         os,
		Device:     device,
		Path:       req.Path,
		Referrer:   CleanReferrer(req.Referrer, h.opts.SiteHost),
		ScreenSize: req.ScreenSize,
		Timestamp:  now,
	}
	if err := h.store.SaveVisit(ctx, visit); err != nil {
		c.Logger().Errorf("save visit: %v", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns aggregates as JSON for the last ?days= days (default 7).
// Requests must carry "Authorization: Bearer <token>".
func (h *Handler) Stats(c echo.Context) error {
	if h.opts.StatsToken == "" {
		return echo.ErrNotFound
	}
	if !h.authorized(c.Request().Header.Get(echo.HeaderAuthorization)) {
		return echo.ErrUnauthorized
	}
	days, err := parseDays(c.QueryParam("days"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to := h.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)
	stats, err := h.store.Stats(c.Request().Context(), from, to)
	if err != nil {
		return fmt.Errorf("analytics stats: %w", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ServeScript serves the beacon script.
func (h *Handler) ServeScript(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return c.Blob(http.StatusOK, "text/javascript; charset=utf-8", Script)
}

// Router is satisfied by *echo.Echo and *echo.Group.
type Router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterRoutes mounts the handler on r. Mounted on a group, the paths are
// relative to the group's prefix; the script finds the collect endpoint
// next to its own URL.
func (h *Handler) RegisterRoutes(r Router) {
	r.POST(CollectPath, h.Collect)
	r.GET(StatsPath, h.Stats)
	r.GET(ScriptPath, h.ServeScript)
}

func (h *Handler) authorized(header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.StatsToken)) == 1
}

func parseDays(v string) (int, error) {
	if v == "" {
		return 7, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 365 {
		return 0, fmt.Errorf("days must be between 1 and 365")
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
