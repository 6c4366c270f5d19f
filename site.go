package blog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/apipath/blog/markdown"
)

// Site is the content graph: every published post plus the asset files.
type Site struct {
	Meta   SiteMetadata
	Posts  []*Post // newest first
	Tags   []string
	Assets []Node

	bySlug map[string]*Post
}

// Post returns the post with the given slug.
func (s *Site) Post(slug string) (*Post, error) {
	p, ok := s.bySlug[strings.Trim(slug, "/")]
	if !ok {
		return nil, fmt.Errorf("%w: post %q", ErrNotFound, slug)
	}
	return p, nil
}

// PostsByTag returns posts carrying tag, compared case-insensitively.
func (s *Site) PostsByTag(tag string) []*Post {
	key := normalizeTag(tag)
	var out []*Post
	for _, p := range s.Posts {
		for _, t := range p.Tags {
			if normalizeTag(t) == key {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Neighbors returns the older and newer posts around slug.
func (s *Site) Neighbors(slug string) (previous, next *Post) {
	for i, p := range s.Posts {
		if p.Slug != slug {
			continue
		}
		if i+1 < len(s.Posts) {
			previous = s.Posts[i+1]
		}
		if i > 0 {
			next = s.Posts[i-1]
		}
		return previous, next
	}
	return nil, nil
}

// Files returns every file the posts link to, without duplicates.
func (s *Site) Files() []markdown.LinkedFile {
	seen := make(map[string]bool)
	var out []markdown.LinkedFile
	for _, p := range s.Posts {
		for _, f := range p.Files {
			if seen[f.Target] {
				continue
			}
			seen[f.Target] = true
			out = append(out, f)
		}
	}
	return out
}

// Images returns every image the posts embed, without duplicates.
func (s *Site) Images() []markdown.ImageRef {
	seen := make(map[string]bool)
	var out []markdown.ImageRef
	for _, p := range s.Posts {
		for _, img := range p.Images {
			if seen[img.Target] {
				continue
			}
			seen[img.Target] = true
			out = append(out, img)
		}
	}
	return out
}

// Loader reads content sources into a Site.
type Loader struct {
	Config    Config
	Converter *markdown.Converter
	Logger    *log.Logger
}

// NewLoader builds the Markdown chain from cfg.
func NewLoader(cfg Config, logger *log.Logger) (*Loader, error) {
	chain, err := markdown.NewChain(cfg.Markdown.Plugins)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New("blog")
	}
	conv := markdown.NewConverter(chain,
		markdown.WithBasePath(cfg.PathPrefix),
		markdown.WithComponent(FigureComponent, renderFigure),
	)
	return &Loader{Config: cfg, Converter: conv, Logger: logger}, nil
}

// Load reads every source. Markdown files become posts; the assets source
// is kept as-is for copying.
func (l *Loader) Load(ctx context.Context) (*Site, error) {
	exts := make(map[string]bool, len(l.Config.Markdown.Extensions))
	for _, e := range l.Config.Markdown.Extensions {
		exts[strings.ToLower(e)] = true
	}
	showDrafts := l.Config.Markdown.ShowDrafts || !l.Config.IsProduction()

	site := &Site{Meta: l.Config.SiteMetadata, bySlug: make(map[string]*Post)}
	for _, src := range l.Config.Sources {
		nodes, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		l.Logger.Debugf("source %s: %d files", src.Name, len(nodes))
		if src.Name == SourceAssets {
			site.Assets = append(site.Assets, nodes...)
			continue
		}
		for _, n := range nodes {
			if !exts[n.Ext] {
				continue
			}
			data, err := os.ReadFile(n.Path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", n.Path, err)
			}
			p, err := ParsePost(ctx, l.Converter, n, data)
			if err != nil {
				return nil, err
			}
			if p.Draft && !showDrafts {
				l.Logger.Debugf("skipping draft %s", p.Slug)
				continue
			}
			if prev, ok := site.bySlug[p.Slug]; ok {
				return nil, fmt.Errorf("%w: %q from %s and %s", ErrDuplicateSlug, p.Slug, prev.Source.Path, n.Path)
			}
			site.bySlug[p.Slug] = p
			site.Posts = append(site.Posts, p)
		}
	}

	sort.SliceStable(site.Posts, func(i, j int) bool {
		if site.Posts[i].Date.Equal(site.Posts[j].Date) {
			return site.Posts[i].Slug < site.Posts[j].Slug
		}
		return site.Posts[i].Date.After(site.Posts[j].Date)
	})
	site.Tags = collectTags(site.Posts)
	return site, nil
}

func collectTags(posts []*Post) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, p := range posts {
		for _, t := range p.Tags {
			key := normalizeTag(t)
			if !seen[key] {
				seen[key] = true
				tags = append(tags, key)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
