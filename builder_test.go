package blog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// counterValue sums the samples of a counter family in m.
func counterValue(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestBuild(t *testing.T) {
	cfg := testConfig(writeFixture(t), EnvProduction)
	metrics := NewMetrics()
	b, err := NewBuilder(cfg, nil, metrics)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if report.Posts != 2 || report.Pages != 6 || report.Images != 1 || report.Files != 2 {
		t.Errorf("report = %+v", report)
	}
	if got := counterValue(t, metrics, "blog_pages_rendered_total"); got != 6 {
		t.Errorf("pages_rendered_total = %v, want 6", got)
	}

	out := cfg.Output.Dir
	for _, rel := range []string{
		"index.html",
		"hello-world/index.html",
		"second-post/index.html",
		"tags/go/index.html",
		"tags/meta/index.html",
		"404.html",
		"rss.xml",
		"sitemap.xml",
		"manifest.webmanifest",
		"icons/icon-48x48.png",
		"icons/icon-192x192.png",
		"theme.css",
		"typography.css",
		"chroma.css",
		"public/darkmode.js",
		"assets/logo.png",
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing output %s", rel)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "wip")); err == nil {
		t.Error("draft should not be built in production")
	}

	site, err := b.Loader.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	hello, err := site.Post("hello-world")
	if err != nil {
		t.Fatal(err)
	}
	for _, img := range hello.Images {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(strings.TrimPrefix(img.Target, "/")))); err != nil {
			t.Errorf("resized image %s not published", img.Target)
		}
	}

	index := readFile(t, filepath.Join(out, "index.html"))
	for _, want := range []string{
		`<body class="light-mode">`,
		`href="/theme.css"`,
		`href="/typography.css"`,
		`href="/rss.xml"`,
		`UA-164496426-1`,
		`href="/hello-world/"`,
		`src="/public/darkmode.js"`,
	} {
		if !strings.Contains(index, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
	if strings.Contains(index, `<style id="typography.js">`) {
		t.Error("production pages should link styles instead of injecting them")
	}

	page := readFile(t, filepath.Join(out, "hello-world/index.html"))
	if !strings.Contains(page, "Second Post") {
		t.Error("post page should link to the next post")
	}
	if !strings.Contains(page, "disqus_thread") {
		t.Error("post page should embed comments")
	}
}

func TestBuildThemeStylesheet(t *testing.T) {
	cfg := testConfig(writeFixture(t), EnvProduction)
	b, err := NewBuilder(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	css := readFile(t, filepath.Join(cfg.Output.Dir, "theme.css"))
	for _, want := range []string{
		"--color-primary:",
		"--color-background:",
		"--color-tertiary:",
		"--color-blockquote-border:",
		"body.dark-mode{",
		"body,body.light-mode{",
		"img.dark,",
	} {
		if !strings.Contains(css, want) {
			t.Errorf("theme.css missing %q", want)
		}
	}
	typo := readFile(t, filepath.Join(cfg.Output.Dir, "typography.css"))
	if !strings.Contains(typo, "var(--color-primary)") {
		t.Error("typography should use the theme variables")
	}
}

func TestBuildTagSlugs(t *testing.T) {
	dir := writeFixture(t)
	mustWrite(t, filepath.Join(dir, "content/blog/tagged.md"), []byte(`---
title: Tagged
date: "2020-08-01"
tags: ["Machine Learning", "../etc"]
---

Tagged post.
`))
	cfg := testConfig(dir, EnvProduction)
	b, err := NewBuilder(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, rel := range []string{"tags/machine-learning/index.html", "tags/etc/index.html"} {
		if _, err := os.Stat(filepath.Join(cfg.Output.Dir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing output %s", rel)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "etc")); err == nil {
		t.Error("tag escaped the tags directory")
	}
	page := readFile(t, filepath.Join(cfg.Output.Dir, "tagged/index.html"))
	if !strings.Contains(page, `href="/tags/machine-learning/"`) {
		t.Error("post should link the slugged tag page")
	}
}

func TestSafeSegment(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"go", true},
		{"machine-learning", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
	}
	for _, tt := range tests {
		if got := safeSegment(tt.in); got != tt.want {
			t.Errorf("safeSegment(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildDevelopmentInjectsStyles(t *testing.T) {
	cfg := testConfig(writeFixture(t), EnvDevelopment)
	cfg.DarkMode.Default = true
	b, err := NewBuilder(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	index := readFile(t, filepath.Join(cfg.Output.Dir, "index.html"))
	if !strings.Contains(index, `<style id="typography.js">`) {
		t.Error("development pages should inject typography styles")
	}
	if strings.Contains(index, "UA-164496426-1") {
		t.Error("analytics should only load in production")
	}
	if !strings.Contains(index, `<body class="dark-mode">`) {
		t.Error("dark default should set the body class")
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "wip/index.html")); err != nil {
		t.Error("drafts should be built in development")
	}
}

func TestBuildFailsOnInvalidMetadata(t *testing.T) {
	cfg := testConfig(writeFixture(t), EnvProduction)
	cfg.SiteMetadata.Social.Twitter = ""
	if _, err := NewBuilder(cfg, nil, nil); err == nil {
		t.Error("expected NewBuilder to reject missing metadata")
	}
}
