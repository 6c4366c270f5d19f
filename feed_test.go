package blog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteFeed(t *testing.T) {
	site, cfg := loadFixture(t, EnvProduction)

	var buf bytes.Buffer
	if err := WriteFeed(&buf, site, cfg); err != nil {
		t.Fatalf("WriteFeed failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`xmlns:content="http://purl.org/rss/1.0/modules/content/"`,
		`<title>Sebastián Vera RSS Feed</title>`,
		`<link>https://blog.apipath.io/hello-world/</link>`,
		`<atom:link href="https://blog.apipath.io/rss.xml" rel="self" type="application/rss+xml"></atom:link>`,
		`<category>Go</category>`,
		`<content:encoded><![CDATA[`,
		`<description>The first post.</description>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}
	if strings.Index(out, "second-post") > strings.Index(out, "hello-world/</link>") {
		t.Error("feed should list the newest post first")
	}

	cfg.Feed.Limit = 1
	cfg.Feed.Title = "Custom"
	buf.Reset()
	if err := WriteFeed(&buf, site, cfg); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "<item>"); n != 1 {
		t.Errorf("got %d items, want 1", n)
	}
	if !strings.Contains(buf.String(), "<title>Custom</title>") {
		t.Error("custom feed title not used")
	}
}

func TestWriteSitemap(t *testing.T) {
	site, cfg := loadFixture(t, EnvProduction)

	var buf bytes.Buffer
	if err := WriteSitemap(&buf, site, cfg); err != nil {
		t.Fatalf("WriteSitemap failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<loc>https://blog.apipath.io/</loc>`,
		`<url><loc>https://blog.apipath.io/hello-world/</loc><lastmod>2020-05-01</lastmod></url>`,
		`<loc>https://blog.apipath.io/tags/go/</loc>`,
		`<loc>https://blog.apipath.io/tags/meta/</loc>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
	if strings.Contains(out, "wip") {
		t.Error("drafts must not appear in the sitemap")
	}
}

func TestWebManifest(t *testing.T) {
	cfg := DefaultConfig()
	m := NewWebManifest(cfg, []ManifestIcon{{Src: "/icons/icon-48x48.png", Sizes: "48x48", Type: "image/png"}})

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["name"] != "Sebastian Vera Blog" || got["theme_color"] != "#663399" ||
		got["display"] != "minimal-ui" || got["start_url"] != "/" {
		t.Errorf("manifest = %v", got)
	}
	if icons, _ := got["icons"].([]any); len(icons) != 1 {
		t.Errorf("icons = %v", got["icons"])
	}
}
