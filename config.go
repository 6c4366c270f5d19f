package blog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/apipath/blog/internal/yamlutil"
	"github.com/apipath/blog/markdown"
	"github.com/apipath/blog/typography"
)

// Build modes. Typography styles are only injected live outside production.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// DefaultConfigFile is read when no path is given.
const DefaultConfigFile = "blog.yaml"

// Config is the whole site configuration, usually read from blog.yaml.
type Config struct {
	SiteMetadata SiteMetadata     `yaml:"siteMetadata"`
	PathPrefix   string           `yaml:"pathPrefix"`
	Sources      []ContentSource  `yaml:"sources"`
	Markdown     MarkdownConfig   `yaml:"markdown"`
	Feed         FeedConfig       `yaml:"feed"`
	Sitemap      SitemapConfig    `yaml:"sitemap"`
	Manifest     ManifestConfig   `yaml:"manifest"`
	Analytics    AnalyticsConfig  `yaml:"analytics"`
	Comments     CommentsConfig   `yaml:"comments"`
	Typography   TypographyConfig `yaml:"typography"`
	DarkMode     DarkModeConfig   `yaml:"darkMode"`
	Output       OutputConfig     `yaml:"output"`
	Server       ServerConfig     `yaml:"server"`

	// Env is the build mode, taken from BLOG_ENV.
	Env string `yaml:"-"`
}

type MarkdownConfig struct {
	Extensions []string              `yaml:"extensions"`
	Plugins    []markdown.PluginSpec `yaml:"plugins"`
	// ShowDrafts includes posts marked draft. Drafts are always shown
	// outside production.
	ShowDrafts bool `yaml:"showDrafts"`
}

type FeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Title   string `yaml:"title"`
	Limit   int    `yaml:"limit"`
}

type SitemapConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ManifestConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Name            string `yaml:"name"`
	ShortName       string `yaml:"shortName"`
	StartURL        string `yaml:"startUrl"`
	BackgroundColor string `yaml:"backgroundColor"`
	ThemeColor      string `yaml:"themeColor"`
	Display         string `yaml:"display"`
	Icon            string `yaml:"icon"`
	IconSizes       []int  `yaml:"iconSizes"`
}

type AnalyticsConfig struct {
	// TrackingID enables the Google Analytics snippet in production.
	TrackingID string `yaml:"trackingId"`
	// SelfHosted enables the built-in collector when serving.
	SelfHosted    bool   `yaml:"selfHosted"`
	DatabasePath  string `yaml:"databasePath"`
	RetentionDays int    `yaml:"retentionDays"`
	// StatsToken enables GET /api/analytics/stats for bearer requests.
	StatsToken string `yaml:"statsToken"`
}

type CommentsConfig struct {
	DisqusShortname string `yaml:"disqusShortname"`
}

// TypographyConfig tweaks the blog theme. Zero values keep the theme's.
type TypographyConfig struct {
	BaseFontSize   float64 `yaml:"baseFontSize"`
	BaseLineHeight float64 `yaml:"baseLineHeight"`
	ScaleRatio     float64 `yaml:"scaleRatio"`
}

type DarkModeConfig struct {
	// Default is the preference for readers who never toggled.
	Default bool `yaml:"default"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	SessionSecret string        `yaml:"sessionSecret"`
	CookieSecure  bool          `yaml:"cookieSecure"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	WorkDir       string        `yaml:"workDir"`
	Watch         bool          `yaml:"watch"`
	RateLimit     int           `yaml:"rateLimit"`
	RateWindow    time.Duration `yaml:"rateWindow"`
}

// DefaultConfig returns the configuration of the apipath blog.
func DefaultConfig() Config {
	return Config{
		SiteMetadata: SiteMetadata{
			Title: "Sebastián Vera",
			Author: Author{
				Name:    "Sebastián Vera",
				Summary: "Software Developer actualmente viviendo en Berlin",
			},
			Description: "Personal blog by Sebastian Vera.",
			SiteURL:     "https://blog.apipath.io",
			Social:      Social{Twitter: "sebalvear", GitHub: "sebastianvera"},
			Work:        Work{CompanyName: "cision", Twitter: "Cision"},
		},
		Sources: []ContentSource{
			{Name: SourceBlog, Path: "content/blog"},
			{Name: SourceAssets, Path: "content/assets"},
		},
		Markdown: MarkdownConfig{
			Extensions: []string{".mdx", ".md"},
			Plugins:    markdown.DefaultSpecs(),
		},
		Feed:    FeedConfig{Enabled: true, Path: "rss.xml"},
		Sitemap: SitemapConfig{Enabled: true},
		Manifest: ManifestConfig{
			Enabled:         true,
			Name:            "Sebastian Vera Blog",
			ShortName:       "Sebastian Vera Blog",
			StartURL:        "/",
			BackgroundColor: "#ffffff",
			ThemeColor:      "#663399",
			Display:         "minimal-ui",
			Icon:            "content/assets/logo.png",
			IconSizes:       []int{48, 72, 96, 144, 192, 256, 384, 512},
		},
		Analytics: AnalyticsConfig{
			TrackingID:    "UA-164496426-1",
			DatabasePath:  "data/analytics.db",
			RetentionDays: 365,
		},
		Comments: CommentsConfig{DisqusShortname: "blog-3y5wvj57rp"},
		Output:   OutputConfig{Dir: "public"},
		Server: ServerConfig{
			Addr:       ":8000",
			CacheTTL:   5 * time.Minute,
			WorkDir:    ".cache",
			Watch:      true,
			RateLimit:  30,
			RateWindow: time.Minute,
		},
	}
}

// LoadConfig reads path over DefaultConfig. A missing file yields the
// defaults. Environment overrides are applied with defaultEnv as the build
// mode when BLOG_ENV is unset.
func LoadConfig(path, defaultEnv string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := cfg.Decode(data); err != nil {
			return Config{}, err
		}
	}
	cfg.Env = defaultEnv
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads YAML data over c. Unknown keys are rejected.
func (c *Config) Decode(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yamlutil.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv applies BLOG_* overrides from lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BLOG_ENV"); ok && v != "" {
		c.Env = v
	}
	if v, ok := lookup("BLOG_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("BLOG_SESSION_SECRET"); ok && v != "" {
		c.Server.SessionSecret = v
	}
	if v, ok := lookup("BLOG_COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: BLOG_COOKIE_SECURE: %v", ErrInvalidConfig, err)
		}
		c.Server.CookieSecure = b
	}
	if v, ok := lookup("BLOG_ANALYTICS_TOKEN"); ok && v != "" {
		c.Analytics.StatsToken = v
	}
	if v, ok := lookup("BLOG_OUTPUT"); ok && v != "" {
		c.Output.Dir = v
	}
	return nil
}

// IsProduction reports whether the build mode is production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// RootPath is the path prefix followed by "/".
func (c Config) RootPath() string {
	return strings.TrimSuffix(c.PathPrefix, "/") + "/"
}

// Validate checks the configuration for building. Metadata problems fail
// here rather than rendering blank values.
func (c Config) Validate() error {
	if err := c.SiteMetadata.Validate(); err != nil {
		return fmt.Errorf("%w: siteMetadata: %v", ErrInvalidConfig, err)
	}
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Sources, validation.Required, validation.By(uniqueSources)),
		validation.Field(&c.Markdown),
		validation.Field(&c.Manifest),
		validation.Field(&c.Output),
		validation.Field(&c.PathPrefix, validation.By(pathPrefix)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := markdown.NewChain(c.Markdown.Plugins); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateServer additionally checks what serving needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
		validation.Field(&c.Server.SessionSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Server.CacheTTL, validation.Min(time.Second)),
		validation.Field(&c.Server.RateLimit, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("%w: server: %v", ErrInvalidConfig, err)
	}
	if c.Analytics.SelfHosted {
		err := validation.ValidateStruct(&c.Analytics,
			validation.Field(&c.Analytics.DatabasePath, validation.Required),
			validation.Field(&c.Analytics.RetentionDays, validation.Min(1)),
			validation.Field(&c.Analytics.StatsToken, validation.When(c.Analytics.StatsToken != "", validation.Length(16, 0))),
		)
		if err != nil {
			return fmt.Errorf("%w: analytics: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (m MarkdownConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Extensions, validation.Required, validation.Each(validation.By(extension))),
	)
}

func (m ManifestConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.StartURL, validation.Required),
		validation.Field(&m.IconSizes, validation.Each(validation.Min(16), validation.Max(1024))),
	)
}

func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Dir, validation.Required),
	)
}

// Theme returns the blog theme with configured overrides applied.
func (t TypographyConfig) Theme() typography.Theme {
	th := typography.Blog()
	if t.BaseFontSize > 0 {
		th.BaseFontSize = t.BaseFontSize
	}
	if t.BaseLineHeight > 0 {
		th.BaseLineHeight = t.BaseLineHeight
	}
	if t.ScaleRatio > 0 {
		th.ScaleRatio = t.ScaleRatio
	}
	return th
}

func extension(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, ".") || len(s) < 2 {
		return errors.New("must start with a dot")
	}
	return nil
}

func pathPrefix(value any) error {
	s, _ := value.(string)
	if s != "" && !strings.HasPrefix(s, "/") {
		return errors.New("must start with /")
	}
	return nil
}

func uniqueSources(value any) error {
	sources, _ := value.([]ContentSource)
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if s.Name == "" || s.Path == "" {
			return errors.New("name and path are required")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
