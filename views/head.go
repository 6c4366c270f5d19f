package views

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"
)

// HeadProps carry per-page SEO metadata and the assets a page loads.
type HeadProps struct {
	Lang        string
	Title       string
	SiteTitle   string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	Twitter     string // site author's handle, without "@"
	JSONLD      string

	// InlineStyles is set when typography styles are injected into the
	// page; otherwise Stylesheets should link the generated file.
	InlineStyles string
	Stylesheets  []string
	Scripts      []string
	ManifestURL  string
	FeedURL      string
	ThemeColor   string

	GoogleAnalyticsID string
	AnalyticsScript   string // self-hosted collector, if enabled
}

// PageTitle is "<title> | <site>", or just the site title for the home page.
func (h HeadProps) PageTitle() string {
	if h.Title == "" || h.Title == h.SiteTitle {
		return h.SiteTitle
	}
	return h.Title + " | " + h.SiteTitle
}

// DocumentProps configure the outer HTML document.
type DocumentProps struct {
	Head      HeadProps
	BodyClass string
}

// Document renders a full HTML page around body.
func Document(props DocumentProps, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		lang := props.Head.Lang
		if lang == "" {
			lang = "en"
		}
		w := newWriter(ctx, out)
		w.raw(`<!DOCTYPE html><html`)
		w.attr("lang", lang)
		w.raw(`>`)
		w.component(Head(props.Head))
		w.raw(`<body`)
		if props.BodyClass != "" {
			w.attr("class", props.BodyClass)
		}
		w.raw(`>`)
		w.component(body)
		for _, src := range props.Head.Scripts {
			w.raw(`<script defer`)
			w.attr("src", src)
			w.raw(`></script>`)
		}
		w.raw(`</body></html>`)
		return w.err
	})
}

// Head renders the <head> element.
func Head(h HeadProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := newWriter(ctx, out)
		w.raw(`<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		w.text(h.PageTitle())
		w.raw(`</title>`)
		meta := func(attr, key, value string) {
			if value == "" {
				return
			}
			w.raw(`<meta`)
			w.attr(attr, key)
			w.attr("content", value)
			w.raw(`>`)
		}
		meta("name", "description", h.Description)
		meta("property", "og:title", h.PageTitle())
		meta("property", "og:description", h.Description)
		meta("property", "og:type", h.OGType)
		meta("property", "og:url", h.URL)
		meta("property", "og:image", h.Image)
		meta("name", "twitter:card", "summary")
		if h.Twitter != "" {
			meta("name", "twitter:creator", "@"+h.Twitter)
		}
		meta("name", "twitter:title", h.PageTitle())
		meta("name", "twitter:description", h.Description)
		meta("name", "theme-color", h.ThemeColor)
		if h.URL != "" {
			w.raw(`<link rel="canonical"`)
			w.attr("href", h.URL)
			w.raw(`>`)
		}
		if h.ManifestURL != "" {
			w.raw(`<link rel="manifest"`)
			w.attr("href", h.ManifestURL)
			w.raw(`>`)
		}
		if h.FeedURL != "" {
			w.raw(`<link rel="alternate" type="application/rss+xml"`)
			w.attr("title", h.SiteTitle)
			w.attr("href", h.FeedURL)
			w.raw(`>`)
		}
		for _, href := range h.Stylesheets {
			w.raw(`<link rel="stylesheet"`)
			w.attr("href", href)
			w.raw(`>`)
		}
		if h.InlineStyles != "" {
			w.raw(`<style id="typography.js">`, h.InlineStyles, `</style>`)
		}
		if h.JSONLD != "" {
			w.raw(`<script type="application/ld+json">`, h.JSONLD, `</script>`)
		}
		if h.GoogleAnalyticsID != "" {
			w.component(GoogleAnalytics(h.GoogleAnalyticsID))
		}
		if h.AnalyticsScript != "" {
			w.raw(`<script defer`)
			w.attr("src", h.AnalyticsScript)
			w.raw(`></script>`)
		}
		w.raw(`</head>`)
		return w.err
	})
}

// GoogleAnalytics renders the gtag.js snippet for trackingID.
func GoogleAnalytics(trackingID string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		id, err := json.Marshal(trackingID)
		if err != nil {
			return err
		}
		w := newWriter(ctx, out)
		w.raw(`<script async`)
		w.attr("src", "https://www.googletagmanager.com/gtag/js?id="+trackingID)
		w.raw(`></script><script>window.dataLayer=window.dataLayer||[];function gtag(){dataLayer.push(arguments);}gtag('js',new Date());gtag('config',`, string(id), `,{anonymize_ip:true});</script>`)
		return w.err
	})
}
