package blog

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"golang.org/x/net/html"

	"github.com/apipath/blog/darkmode"
	"github.com/apipath/blog/markdown"
	"github.com/apipath/blog/views"
)

// FigureComponent is the MDX tag posts use for captioned images:
// <Figure image="./chart.png">Caption</Figure>.
const FigureComponent = "Figure"

const (
	wordsPerMinute = 265
	excerptLength  = 140
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Post is a rendered blog post.
type Post struct {
	Slug         string
	Title        string
	Description  string
	Date         time.Time
	Tags         []string
	Draft        bool
	Cover        string // public path of the cover image
	CoverCaption string

	Source      Node
	HTML        string
	Headings    []markdown.Heading
	Files       []markdown.LinkedFile
	Images      []markdown.ImageRef
	Excerpt     string
	ReadingTime int // minutes
}

type frontMatter struct {
	Title        string   `yaml:"title" toml:"title" json:"title"`
	Date         string   `yaml:"date" toml:"date" json:"date"`
	Description  string   `yaml:"description" toml:"description" json:"description"`
	Tags         []string `yaml:"tags" toml:"tags" json:"tags"`
	Draft        bool     `yaml:"draft" toml:"draft" json:"draft"`
	Slug         string   `yaml:"slug" toml:"slug" json:"slug"`
	Cover        string   `yaml:"cover" toml:"cover" json:"cover"`
	CoverCaption string   `yaml:"coverCaption" toml:"coverCaption" json:"coverCaption"`
}

// ParsePost reads front matter from src and renders the body with conv.
func ParsePost(ctx context.Context, conv *markdown.Converter, node Node, src []byte) (*Post, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &fm)
	if err != nil {
		return nil, fmt.Errorf("%s: parse frontmatter: %w", node.RelPath, err)
	}

	slug := strings.Trim(fm.Slug, "/")
	if slug == "" {
		slug = SlugFromPath(node.RelPath)
	}
	if slug == "" {
		return nil, fmt.Errorf("%s: cannot derive a slug", node.RelPath)
	}
	for _, seg := range strings.Split(slug, "/") {
		if !safeSegment(seg) {
			return nil, fmt.Errorf("%s: invalid slug %q", node.RelPath, slug)
		}
	}

	p := &Post{
		Slug:         slug,
		Title:        strings.TrimSpace(fm.Title),
		Description:  strings.TrimSpace(fm.Description),
		Tags:         cleanTags(fm.Tags),
		Draft:        fm.Draft,
		CoverCaption: fm.CoverCaption,
		Source:       node,
	}
	if p.Title == "" {
		p.Title = slug
	}
	if fm.Date != "" {
		if p.Date, err = parseDate(fm.Date); err != nil {
			return nil, fmt.Errorf("%s: %w", node.RelPath, err)
		}
	}

	dir := filepath.Dir(node.Path)
	res, err := conv.Convert(ctx, markdown.Document{Source: body, Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", node.RelPath, err)
	}
	p.HTML = res.HTML
	p.Headings = res.Headings
	p.Files = res.Files
	p.Images = res.Images

	if fm.Cover != "" {
		if f, ok := markdown.LocalFile(dir, fm.Cover); ok {
			p.Cover = conv.URL(f.Target)
			p.Files = append(p.Files, f)
		} else {
			p.Cover = fm.Cover
		}
	}

	text := plainText(res.HTML)
	p.ReadingTime = readingTime(text)
	p.Excerpt = excerpt(text, excerptLength)
	return p, nil
}

// renderFigure renders a Figure block. Pages are rendered once for every
// reader, so the image carries the dark-variant marker and follows the body
// class instead of a per-request preference.
func renderFigure(attrs map[string]string, caption string) (string, error) {
	image := attrs["image"]
	if image == "" {
		return "", fmt.Errorf("%s needs an image attribute", FigureComponent)
	}
	var buf bytes.Buffer
	err := views.Figure(views.FigureProps{
		Image:   image,
		Caption: caption,
		Dark:    darkmode.Static(false),
	}).Render(context.Background(), &buf)
	return buf.String(), err
}

// SlugFromPath derives a slug from a path relative to the source root:
// "hello/index.md" and "hello.md" both give "hello".
func SlugFromPath(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(rel) == "index" {
		rel = path.Dir(rel)
	}
	if rel == "." {
		return ""
	}
	return strings.Trim(rel, "/")
}

// URL returns the post's path under root.
func (p *Post) URL(root string) string {
	return strings.TrimSuffix(root, "/") + "/" + p.Slug + "/"
}

// Summary converts the post for list views.
func (p *Post) Summary(root string) views.PostSummary {
	return views.PostSummary{
		Slug:        p.Slug,
		URL:         p.URL(root),
		Title:       p.Title,
		Description: p.Description,
		Excerpt:     p.Excerpt,
		Date:        p.Date,
		Tags:        p.Tags,
		ReadingTime: p.ReadingTime,
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func cleanTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := normalizeTag(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// normalizeTag is the key tags are compared, grouped and linked by.
func normalizeTag(t string) string {
	return views.TagSlug(t)
}

// plainText extracts the visible text of an HTML fragment.
func plainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "svg":
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "svg":
				if skip > 0 {
					skip--
				}
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote":
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func readingTime(text string) int {
	words := len(strings.Fields(text))
	return int(math.Max(1, math.Ceil(float64(words)/wordsPerMinute)))
}

// excerpt cuts text to at most n runes on a word boundary.
func excerpt(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
