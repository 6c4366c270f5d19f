package blog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apipath/blog/scaffold"
)

const (
	helloPost = `---
title: Hello World
date: "2020-05-01"
description: The first post.
tags: ["Go", "meta"]
---

Hello from the blog. ![Photo](./photo.png)

## Getting Started

Some text with a [file](./notes.pdf).
`
	secondPost = `---
title: Second Post
date: "2020-06-01"
tags: ["go"]
---

A newer post.
`
	draftPost = `---
title: Work in Progress
date: "2020-07-01"
draft: true
---

Not ready.
`
)

// writeFixture creates a content tree with three posts (one draft), a
// linked file, an image and the assets source.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"content/blog/hello-world/index.md":  helloPost,
		"content/blog/hello-world/notes.pdf": "%PDF-1.4",
		"content/blog/second-post.md":        secondPost,
		"content/blog/wip/index.md":          draftPost,
		"content/blog/.hidden/index.md":      "---\ntitle: Hidden\n---\n",
	}
	for rel, content := range files {
		mustWrite(t, filepath.Join(dir, rel), []byte(content))
	}
	for _, rel := range []string{"content/blog/hello-world/photo.png", "content/assets/logo.png"} {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := scaffold.WriteLogo(f); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	return dir
}

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// testConfig points the default configuration at a fixture in dir.
func testConfig(dir, env string) Config {
	cfg := DefaultConfig()
	cfg.Env = env
	cfg.Sources = []ContentSource{
		{Name: SourceBlog, Path: filepath.Join(dir, "content/blog")},
		{Name: SourceAssets, Path: filepath.Join(dir, "content/assets")},
	}
	cfg.Manifest.Icon = filepath.Join(dir, "content/assets/logo.png")
	cfg.Manifest.IconSizes = []int{48, 192}
	cfg.Output.Dir = filepath.Join(dir, "public")
	cfg.Server.WorkDir = filepath.Join(dir, ".cache")
	cfg.Server.SessionSecret = "0123456789abcdef0123"
	cfg.Server.Watch = false
	cfg.Analytics.DatabasePath = filepath.Join(dir, "data/analytics.db")
	return cfg
}
