package blog

import (
	"encoding/xml"
	"io"

	"github.com/apipath/blog/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// WriteSitemap writes a sitemap with the home page, posts and tag pages.
func WriteSitemap(w io.Writer, site *Site, cfg Config) error {
	base := cfg.SiteMetadata.SiteURL
	urls := []sitemapURL{
		{Loc: views.BuildURL(base, cfg.PathPrefix)},
	}
	for _, p := range site.Posts {
		u := sitemapURL{Loc: views.BuildURL(base, cfg.PathPrefix, p.Slug)}
		if !p.Date.IsZero() {
			u.LastMod = p.Date.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	for _, t := range site.Tags {
		urls = append(urls, sitemapURL{Loc: views.BuildURL(base, cfg.PathPrefix, "tags", t)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(sitemap)
}
