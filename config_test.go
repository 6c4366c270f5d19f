package blog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/apipath/blog/markdown"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BLOG_ENV", "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "blog.yaml"), EnvProduction)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SiteMetadata.Title != "Sebastián Vera" {
		t.Errorf("Title = %q", cfg.SiteMetadata.Title)
	}
	if !cfg.IsProduction() {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if len(cfg.Markdown.Plugins) != len(markdown.DefaultSpecs()) {
		t.Errorf("got %d plugins", len(cfg.Markdown.Plugins))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("BLOG_ENV", "")
	path := filepath.Join(t.TempDir(), "blog.yaml")
	mustWrite(t, path, []byte(`siteMetadata:
  title: My Blog
  author:
    name: Jane
  siteUrl: https://example.com
  social:
    twitter: jane
    github: jane
pathPrefix: /blog
markdown:
  extensions: [".md"]
  plugins:
    - smartypants
server:
  cacheTTL: 30s
`))

	cfg, err := LoadConfig(path, EnvDevelopment)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SiteMetadata.Title != "My Blog" || cfg.SiteMetadata.Author.Name != "Jane" {
		t.Errorf("metadata = %+v", cfg.SiteMetadata)
	}
	if cfg.Server.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %s", cfg.Server.CacheTTL)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("unset keys should keep defaults, Addr = %q", cfg.Server.Addr)
	}
	if cfg.RootPath() != "/blog/" {
		t.Errorf("RootPath = %q", cfg.RootPath())
	}
	if len(cfg.Markdown.Plugins) != 1 || cfg.Markdown.Plugins[0].Resolve != markdown.PluginSmartypants {
		t.Errorf("plugins = %+v", cfg.Markdown.Plugins)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	mustWrite(t, path, []byte("siteMetadata:\n  tittle: typo\n"))
	_, err := LoadConfig(path, EnvProduction)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BLOG_ENV":             EnvDevelopment,
		"BLOG_ADDR":            ":9000",
		"BLOG_SESSION_SECRET":  "secret",
		"BLOG_COOKIE_SECURE":   "true",
		"BLOG_OUTPUT":          "dist",
		"BLOG_ANALYTICS_TOKEN": "token",
	}
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Env != EnvDevelopment || cfg.Server.Addr != ":9000" || cfg.Server.SessionSecret != "secret" ||
		!cfg.Server.CookieSecure || cfg.Output.Dir != "dist" || cfg.Analytics.StatsToken != "token" {
		t.Errorf("ApplyEnv result = %+v", cfg)
	}

	bad := DefaultConfig()
	err = bad.ApplyEnv(func(k string) (string, bool) {
		if k == "BLOG_COOKIE_SECURE" {
			return "maybe", true
		}
		return "", false
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing title", func(c *Config) { c.SiteMetadata.Title = "" }},
		{"missing author", func(c *Config) { c.SiteMetadata.Author.Name = "" }},
		{"missing twitter", func(c *Config) { c.SiteMetadata.Social.Twitter = "" }},
		{"twitter with at", func(c *Config) { c.SiteMetadata.Social.Twitter = "@sebalvear" }},
		{"relative site url", func(c *Config) { c.SiteMetadata.SiteURL = "blog.apipath.io" }},
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"duplicate sources", func(c *Config) { c.Sources = append(c.Sources, c.Sources[0]) }},
		{"bad extension", func(c *Config) { c.Markdown.Extensions = []string{"md"} }},
		{"unknown plugin", func(c *Config) {
			c.Markdown.Plugins = append(c.Markdown.Plugins, markdown.PluginSpec{Resolve: "emoji"})
		}},
		{"plugins out of order", func(c *Config) {
			c.Markdown.Plugins = []markdown.PluginSpec{{Resolve: markdown.PluginHighlight}, {Resolve: markdown.PluginAutolinkHeaders}}
		}},
		{"no output", func(c *Config) { c.Output.Dir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateServer(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("missing session secret: err = %v", err)
	}
	cfg.Server.SessionSecret = "short"
	if err := cfg.ValidateServer(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("short session secret: err = %v", err)
	}
	cfg.Server.SessionSecret = "0123456789abcdef"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer() = %v", err)
	}
	cfg.Analytics.SelfHosted = true
	cfg.Analytics.StatsToken = "short"
	if err := cfg.ValidateServer(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("short stats token: err = %v", err)
	}
}

func TestTypographyConfigTheme(t *testing.T) {
	th := TypographyConfig{BaseFontSize: 18}.Theme()
	if th.BaseFontSize != 18 {
		t.Errorf("BaseFontSize = %v", th.BaseFontSize)
	}
	if th.BaseLineHeight != 1.75 || th.ScaleRatio != 2.5 {
		t.Errorf("unset fields should keep the theme's: %+v", th)
	}
}
