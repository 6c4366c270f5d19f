package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func visitAt(visitor, path string, ts time.Time) *Visit {
	return &Visit{
		VisitorID: visitor,
		SessionID: SessionID(visitor, ts),
		IPHash:    "hash",
		Browser:   "Firefox",
		OS:        "Linux",
		Device:    "Desktop",
		Path:      path,
		Referrer:  "Direct",
		Timestamp: ts,
	}
}

func TestSettings(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	v, err := s.Setting(ctx, "missing")
	if err != nil || v != "" {
		t.Fatalf("Setting(missing) = %q, %v", v, err)
	}
	if err := s.SetSetting(ctx, "k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ctx, "k", "two"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Setting(ctx, "k"); v != "two" {
		t.Errorf("Setting(k) = %q, want two", v)
	}
	if v, _ := s.Setting(ctx, "schema_version"); v != "1" {
		t.Errorf("schema_version = %q, want 1", v)
	}
}

func TestLoadHasherPersistsSalt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	h1, err := LoadHasher(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := LoadHasher(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if h1.HashIP("10.0.0.1") != h2.HashIP("10.0.0.1") {
		t.Error("salt should be reused across loads")
	}
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	visits := []*Visit{
		visitAt("a", "/hello-world/", day),
		visitAt("a", "/", day.Add(time.Minute)),
		visitAt("b", "/hello-world/", day.AddDate(0, 0, 1)),
		visitAt("c", "/hello-world/", day.AddDate(0, 0, -30)),
	}
	for _, v := range visits {
		if err := s.SaveVisit(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.UpdateVisitDuration(ctx, "a", "/hello-world/", 40); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBotVisit(ctx, &BotVisit{BotName: "Googlebot", IPHash: "h", UserAgent: "Googlebot", Path: "/", Timestamp: day}); err != nil {
		t.Fatal(err)
	}

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)
	stats, err := s.Stats(ctx, from, to)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalViews != 3 {
		t.Errorf("TotalViews = %d, want 3", stats.TotalViews)
	}
	if stats.UniqueVisitors != 2 {
		t.Errorf("UniqueVisitors = %d, want 2", stats.UniqueVisitors)
	}
	if stats.BotVisits != 1 {
		t.Errorf("BotVisits = %d, want 1", stats.BotVisits)
	}
	if stats.AvgDuration != 40 {
		t.Errorf("AvgDuration = %d, want 40", stats.AvgDuration)
	}
	if len(stats.TopPages) == 0 || stats.TopPages[0].Name != "/hello-world/" || stats.TopPages[0].Count != 2 {
		t.Errorf("TopPages = %+v", stats.TopPages)
	}
	if len(stats.DailyViews) != 3 {
		t.Fatalf("DailyViews = %+v, want 3 days", stats.DailyViews)
	}
	want := []DailyView{{"2024-03-01", 2}, {"2024-03-02", 1}, {"2024-03-03", 0}}
	for i, w := range want {
		if stats.DailyViews[i] != w {
			t.Errorf("DailyViews[%d] = %+v, want %+v", i, stats.DailyViews[i], w)
		}
	}
}

func TestStatsEmpty(t *testing.T) {
	s := setupTestStore(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stats, err := s.Stats(context.Background(), from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalViews != 0 || stats.TopPages == nil || stats.Referrers == nil {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestCleanup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := s.SaveVisit(ctx, visitAt("old", "/", now.AddDate(-2, 0, 0))); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveVisit(ctx, visitAt("new", "/", now.AddDate(0, 0, -1))); err != nil {
		t.Fatal(err)
	}

	n, err := s.Cleanup(ctx, 365*24*time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Cleanup removed %d rows, want 1", n)
	}
	stats, err := s.Stats(ctx, now.AddDate(-3, 0, 0), now)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalViews != 1 {
		t.Errorf("TotalViews after cleanup = %d, want 1", stats.TotalViews)
	}
}
