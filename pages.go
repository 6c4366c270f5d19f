package blog

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/apipath/blog/darkmode"
	"github.com/apipath/blog/markdown"
	"github.com/apipath/blog/typography"
	"github.com/apipath/blog/views"
)

// DarkModeScript is the public path of darkmode.Script, relative to the root.
const DarkModeScript = "public/darkmode.js"

// StyleSlot receives typography styles injected into pages.
type StyleSlot struct {
	css string
}

func (s *StyleSlot) InjectStyles(css string) { s.css = css }

// CSS returns the injected styles, or "" if nothing was injected.
func (s *StyleSlot) CSS() string { return s.css }

// PageContext is the per-request (or per-file) part of rendering a page.
type PageContext struct {
	Location     string
	Dark         darkmode.Preference
	ToggleAction string
	CSRF         string
}

// Pages composes full HTML documents from the view components.
type Pages struct {
	cfg          Config
	typo         *typography.Typography
	inlineStyles string
	stylesheets  []string

	// AnalyticsScript is added to every page when set. It is a full path,
	// including the root.
	AnalyticsScript string
}

// NewPages prepares page rendering. Typography styles are injected inline
// outside production and linked as typography.css otherwise.
func NewPages(cfg Config, chain *markdown.Chain) *Pages {
	p := &Pages{cfg: cfg, typo: typography.New(cfg.Typography.Theme())}
	root := cfg.RootPath()

	p.stylesheets = append(p.stylesheets, root+darkmode.StylesheetName)
	var slot StyleSlot
	if typography.InjectStyles(cfg.Env, p.typo, &slot) {
		p.inlineStyles = slot.CSS()
	} else {
		p.stylesheets = append(p.stylesheets, root+"typography.css")
	}
	if fonts := p.typo.GoogleFontsURL(); fonts != "" {
		p.stylesheets = append(p.stylesheets, fonts)
	}
	if chain != nil {
		if _, ok := chain.Plugin(markdown.PluginHighlight); ok {
			p.stylesheets = append(p.stylesheets, root+"chroma.css")
		}
	}
	return p
}

// Typography returns the typography in use.
func (p *Pages) Typography() *typography.Typography {
	return p.typo
}

// InlineStyles returns the styles injected into each page, if any.
func (p *Pages) InlineStyles() string {
	return p.inlineStyles
}

func (p *Pages) head(title, description, canonical, ogType, image, jsonLD string) views.HeadProps {
	meta := p.cfg.SiteMetadata
	h := views.HeadProps{
		Title:        title,
		SiteTitle:    meta.Title,
		Description:  description,
		URL:          canonical,
		OGType:       ogType,
		Image:        image,
		Twitter:      meta.Social.Twitter,
		JSONLD:       jsonLD,
		InlineStyles: p.inlineStyles,
		Stylesheets:  p.stylesheets,
		Scripts:      []string{p.cfg.RootPath() + DarkModeScript},
	}
	if h.Description == "" {
		h.Description = meta.Description
	}
	if p.cfg.Manifest.Enabled {
		h.ManifestURL = p.cfg.RootPath() + "manifest.webmanifest"
		h.ThemeColor = p.cfg.Manifest.ThemeColor
	}
	if p.cfg.Feed.Enabled {
		h.FeedURL = p.cfg.RootPath() + strings.TrimPrefix(p.cfg.Feed.Path, "/")
	}
	if p.cfg.IsProduction() {
		h.GoogleAnalyticsID = p.cfg.Analytics.TrackingID
	}
	h.AnalyticsScript = p.AnalyticsScript
	return h
}

func (p *Pages) document(head views.HeadProps, pc PageContext, body templ.Component) templ.Component {
	class := darkmode.ClassLight
	if pc.Dark != nil && pc.Dark.Value() {
		class = darkmode.ClassDark
	}
	layout := views.Layout(views.LayoutProps{
		Location:     pc.Location,
		Title:        p.cfg.SiteMetadata.Title,
		RootPath:     p.cfg.RootPath(),
		Site:         p.cfg.SiteMetadata,
		Dark:         pc.Dark,
		Typography:   p.typo,
		ToggleAction: pc.ToggleAction,
		CSRF:         pc.CSRF,
	}, body)
	return views.Document(views.DocumentProps{Head: head, BodyClass: class}, layout)
}

func (p *Pages) summaries(posts []*Post) []views.PostSummary {
	out := make([]views.PostSummary, len(posts))
	for i, post := range posts {
		out[i] = post.Summary(p.cfg.RootPath())
	}
	return out
}

func (p *Pages) author() views.Author {
	meta := p.cfg.SiteMetadata
	return views.Author{Name: meta.Author.Name, Twitter: meta.Social.Twitter}
}

// Home renders the post index.
func (p *Pages) Home(site *Site, pc PageContext) templ.Component {
	meta := p.cfg.SiteMetadata
	canonical := views.BuildURL(meta.SiteURL, p.cfg.PathPrefix)
	head := p.head("All posts", meta.Description, canonical, "website", "",
		views.WebsiteJSONLD(meta.Title, canonical, meta.Description, p.author()))
	return p.document(head, pc, views.Home(views.HomeProps{
		Posts:      p.summaries(site.Posts),
		RootPath:   p.cfg.RootPath(),
		Site:       meta,
		Typography: p.typo,
	}))
}

// Tag renders the listing for tag, or ErrNotFound when no post has it.
func (p *Pages) Tag(site *Site, tag string, pc PageContext) (templ.Component, error) {
	posts := site.PostsByTag(tag)
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: tag %q", ErrNotFound, tag)
	}
	meta := p.cfg.SiteMetadata
	canonical := views.BuildURL(meta.SiteURL, p.cfg.PathPrefix, "tags", normalizeTag(tag))
	head := p.head("Posts tagged "+tag, "", canonical, "website", "", "")
	return p.document(head, pc, views.Home(views.HomeProps{
		Posts:      p.summaries(posts),
		Tag:        tag,
		RootPath:   p.cfg.RootPath(),
		Site:       meta,
		Typography: p.typo,
	})), nil
}

// Post renders one post with navigation and comments.
func (p *Pages) Post(site *Site, post *Post, pc PageContext) templ.Component {
	meta := p.cfg.SiteMetadata
	root := p.cfg.RootPath()
	summary := post.Summary(root)
	canonical := views.BuildURL(meta.SiteURL, p.cfg.PathPrefix, post.Slug)
	description := post.Description
	if description == "" {
		description = post.Excerpt
	}
	image := post.Cover
	if strings.HasPrefix(image, "/") {
		image = strings.TrimSuffix(meta.SiteURL, "/") + image
	}
	head := p.head(post.Title, description, canonical, "article", image,
		views.BlogPostingJSONLD(meta.Title, views.BuildURL(meta.SiteURL, p.cfg.PathPrefix), p.author(), summary))

	page := views.PostPage{PostSummary: summary, HTML: post.HTML}
	if post.Cover != "" {
		page.Cover = &views.FigureProps{Image: post.Cover, Caption: post.CoverCaption, Dark: pc.Dark}
	}
	props := views.PostProps{
		Post:       page,
		RootPath:   root,
		Site:       meta,
		Typography: p.typo,
		Comments: views.Disqus(views.DisqusProps{
			Shortname:  p.cfg.Comments.DisqusShortname,
			URL:        canonical,
			Identifier: post.Slug,
			Title:      post.Title,
		}),
	}
	prev, next := site.Neighbors(post.Slug)
	if prev != nil {
		s := prev.Summary(root)
		props.Previous = &s
	}
	if next != nil {
		s := next.Summary(root)
		props.Next = &s
	}
	return p.document(head, pc, views.Post(props))
}

// NotFound renders the 404 page.
func (p *Pages) NotFound(pc PageContext) templ.Component {
	return p.document(p.head("404: Not Found", "", "", "website", "", ""), pc, views.NotFound())
}
