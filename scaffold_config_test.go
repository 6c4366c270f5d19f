package blog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apipath/blog/scaffold"
)

// A freshly scaffolded blog must load, validate and build as-is.
func TestScaffoldedBlogBuilds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new-blog")
	data, err := scaffold.NewData(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := scaffold.Create(dir, data); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := LoadConfig("blog.yaml", EnvProduction)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SiteMetadata.Title != "New Blog" {
		t.Errorf("title = %q", cfg.SiteMetadata.Title)
	}
	cfg.Server.SessionSecret = data.SessionSecret
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("ValidateServer failed: %v", err)
	}

	b, err := NewBuilder(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if report.Posts != 1 {
		t.Errorf("posts = %d, want 1", report.Posts)
	}
	if _, err := os.Stat(filepath.Join(dir, "public", "hello-world", "index.html")); err != nil {
		t.Error("hello-world page not built")
	}
}
