package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
	testToken = "0123456789abcdef"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestHandler(t *testing.T, opts Options) (*Handler, *echo.Echo) {
	t.Helper()
	h := NewHandler(setupTestStore(t), NewHasher("test-salt"), opts)
	h.now = func() time.Time { return fixedNow }
	t.Cleanup(h.Stop)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func collect(e *echo.Echo, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, CollectPath, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", firefoxUA)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func totalViews(t *testing.T, h *Handler) int {
	t.Helper()
	stats, err := h.store.Stats(context.Background(), fixedNow.AddDate(0, 0, -1), fixedNow.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	return stats.TotalViews
}

func TestCollect(t *testing.T) {
	h, e := setupTestHandler(t, Options{SiteHost: "blog.apipath.io"})

	rec := collect(e, `{"path":"/hello-world/","referrer":"https://www.google.com/","screen_size":"1920x1080"}`, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	stats, err := h.store.Stats(context.Background(), fixedNow.AddDate(0, 0, -1), fixedNow.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalViews != 1 {
		t.Fatalf("TotalViews = %d, want 1", stats.TotalViews)
	}
	if stats.Referrers[0].Name != "Google" || stats.Browsers[0].Name != "Firefox" {
		t.Errorf("referrers = %+v, browsers = %+v", stats.Referrers, stats.Browsers)
	}

	rec = collect(e, `{"path":"/hello-world/","duration_sec":30}`, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("duration beacon status = %d", rec.Code)
	}
	if n := totalViews(t, h); n != 1 {
		t.Errorf("duration beacon should not add a view, got %d views", n)
	}
}

func TestCollectRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		headers map[string]string
		code    int
	}{
		{"do not track", `{"path":"/"}`, map[string]string{"DNT": "1"}, http.StatusNoContent},
		{"bot", `{"path":"/"}`, map[string]string{"User-Agent": "Googlebot/2.1"}, http.StatusNoContent},
		{"relative path", `{"path":"hello"}`, nil, http.StatusBadRequest},
		{"negative duration", `{"path":"/","duration_sec":-1}`, nil, http.StatusBadRequest},
		{"long screen size", `{"path":"/","screen_size":"` + strings.Repeat("9", 40) + `"}`, nil, http.StatusBadRequest},
		{"bad json", `{`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e := setupTestHandler(t, Options{})
			rec := collect(e, tt.body, tt.headers)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if n := totalViews(t, h); n != 0 {
				t.Errorf("recorded %d views, want 0", n)
			}
		})
	}
}

func TestCollectRateLimit(t *testing.T) {
	_, e := setupTestHandler(t, Options{RateLimit: 2, RateWindow: time.Minute})
	for i := 0; i < 2; i++ {
		if rec := collect(e, `{"path":"/"}`, nil); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	if rec := collect(e, `{"path":"/"}`, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestStatsEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		token string
		auth  string
		query string
		code  int
	}{
		{"disabled", "", "Bearer " + testToken, "", http.StatusNotFound},
		{"missing auth", testToken, "", "", http.StatusUnauthorized},
		{"wrong token", testToken, "Bearer nope", "", http.StatusUnauthorized},
		{"bad days", testToken, "Bearer " + testToken, "?days=0", http.StatusBadRequest},
		{"ok", testToken, "Bearer " + testToken, "?days=30", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, e := setupTestHandler(t, Options{StatsToken: tt.token})
			collect(e, `{"path":"/"}`, nil)

			req := httptest.NewRequest(http.MethodGet, StatsPath+tt.query, nil)
			if tt.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var stats Stats
			if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
				t.Fatal(err)
			}
			if stats.TotalViews != 1 || len(stats.DailyViews) != 30 {
				t.Errorf("stats = %d views, %d days", stats.TotalViews, len(stats.DailyViews))
			}
		})
	}
}

func TestServeScript(t *testing.T) {
	_, e := setupTestHandler(t, Options{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ScriptPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), CollectPath) {
		t.Error("script should post to the collect endpoint")
	}
}

func TestRegisterRoutesOnGroup(t *testing.T) {
	h := NewHandler(setupTestStore(t), NewHasher("test-salt"), Options{})
	t.Cleanup(h.Stop)
	e := echo.New()
	h.RegisterRoutes(e.Group("/blog"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog"+ScriptPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("script status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "document.currentScript") {
		t.Error("script should derive the endpoint from its own URL")
	}

	req := httptest.NewRequest(http.MethodPost, "/blog"+CollectPath, strings.NewReader(`{"path":"/blog/hello/"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", firefoxUA)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("collect status = %d", rec.Code)
	}
}
