package blog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/gommon/log"

	"github.com/apipath/blog/darkmode"
)

// BuildReport summarises a build.
type BuildReport struct {
	Posts    int
	Pages    int
	Files    int
	Images   int
	Duration time.Duration
}

// Builder renders the whole site into Config.Output.Dir.
type Builder struct {
	Config    Config
	Loader    *Loader
	Pages     *Pages
	Publisher *Publisher
	Logger    *log.Logger
	Metrics   *Metrics
}

// NewBuilder validates cfg and prepares a build.
func NewBuilder(cfg Config, logger *log.Logger, metrics *Metrics) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New("blog")
	}
	loader, err := NewLoader(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Builder{
		Config:    cfg,
		Loader:    loader,
		Pages:     NewPages(cfg, loader.Converter.Chain()),
		Publisher: NewPublisher(cfg.Output.Dir, logger),
		Logger:    logger,
		Metrics:   metrics,
	}, nil
}

// Build loads content and writes every output file.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	start := time.Now()
	site, err := b.Loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	b.Logger.Infof("loaded %d posts, %d tags, %d assets", len(site.Posts), len(site.Tags), len(site.Assets))

	out := b.Config.Output.Dir
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := b.Publisher.PublishContent(ctx, site); err != nil {
		return nil, err
	}
	if err := b.Publisher.PublishStatic(b.Pages.Typography(), b.Loader.Converter.Chain()); err != nil {
		return nil, err
	}

	report := &BuildReport{Posts: len(site.Posts), Files: len(site.Files()), Images: len(site.Images())}
	root := b.Config.RootPath()
	pc := func(location string) PageContext {
		return PageContext{Location: location, Dark: darkmode.Static(b.Config.DarkMode.Default)}
	}
	page := func(rel, kind string, c templ.Component) error {
		if err := b.renderFile(ctx, filepath.Join(out, filepath.FromSlash(rel)), c); err != nil {
			return err
		}
		report.Pages++
		b.Metrics.pageRendered(kind)
		return nil
	}

	if err := page("index.html", "home", b.Pages.Home(site, pc(root))); err != nil {
		return nil, err
	}
	for _, p := range site.Posts {
		if err := page(p.Slug+"/index.html", "post", b.Pages.Post(site, p, pc(p.URL(root)))); err != nil {
			return nil, err
		}
	}
	for _, tag := range site.Tags {
		if !safeSegment(tag) {
			return nil, fmt.Errorf("tag %q cannot be used as a path", tag)
		}
		c, err := b.Pages.Tag(site, tag, pc(root+"tags/"+tag+"/"))
		if err != nil {
			return nil, err
		}
		if err := page("tags/"+tag+"/index.html", "tag", c); err != nil {
			return nil, err
		}
	}
	if err := page("404.html", "not_found", b.Pages.NotFound(pc(root+"404.html"))); err != nil {
		return nil, err
	}
	b.Logger.Infof("rendered %d pages", report.Pages)

	if b.Config.Feed.Enabled {
		if err := writeFile(filepath.Join(out, b.Config.Feed.Path), func(w io.Writer) error {
			return WriteFeed(w, site, b.Config)
		}); err != nil {
			return nil, err
		}
	}
	if b.Config.Sitemap.Enabled {
		if err := writeFile(filepath.Join(out, "sitemap.xml"), func(w io.Writer) error {
			return WriteSitemap(w, site, b.Config)
		}); err != nil {
			return nil, err
		}
	}
	if b.Config.Manifest.Enabled {
		if err := b.Publisher.PublishManifest(b.Config); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	b.Metrics.observeBuild(report.Duration)
	b.Logger.Infof("build finished in %s", report.Duration.Round(time.Millisecond))
	return report, nil
}

// safeSegment reports whether s can be used as one output path segment.
func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

func (b *Builder) renderFile(ctx context.Context, path string, c templ.Component) error {
	return writeFile(path, func(w io.Writer) error {
		return c.Render(ctx, w)
	})
}
