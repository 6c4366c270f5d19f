package blog

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/apipath/blog/views"
)

type rssXML struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Generator     string    `xml:"generator"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	Description string     `xml:"description"`
	PubDate     string     `xml:"pubDate,omitempty"`
	GUID        rssGUID    `xml:"guid"`
	Categories  []string   `xml:"category"`
	Content     rssContent `xml:"content:encoded"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssContent struct {
	Value string `xml:",cdata"`
}

// WriteFeed writes the RSS 2.0 feed of site's posts, each with its full
// HTML in content:encoded.
func WriteFeed(w io.Writer, site *Site, cfg Config) error {
	base := cfg.SiteMetadata.SiteURL
	posts := site.Posts
	if cfg.Feed.Limit > 0 && len(posts) > cfg.Feed.Limit {
		posts = posts[:cfg.Feed.Limit]
	}
	title := cfg.Feed.Title
	if title == "" {
		title = site.Meta.Title + " RSS Feed"
	}

	items := make([]rssItem, 0, len(posts))
	var latest time.Time
	for _, p := range posts {
		postURL := views.BuildURL(base, cfg.PathPrefix, p.Slug)
		desc := p.Description
		if desc == "" {
			desc = p.Excerpt
		}
		item := rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: desc,
			GUID:        rssGUID{IsPermaLink: false, Value: postURL},
			Categories:  p.Tags,
			Content:     rssContent{Value: p.HTML},
		}
		if !p.Date.IsZero() {
			item.PubDate = p.Date.Format(time.RFC1123Z)
			if p.Date.After(latest) {
				latest = p.Date
			}
		}
		items = append(items, item)
	}

	feed := rssXML{
		Version:   "2.0",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		AtomNS:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       title,
			Link:        views.BuildURL(base),
			Description: site.Meta.Description,
			Generator:   "apipath blog",
			AtomLink: atomLink{
				Href: views.BuildURL(base, cfg.PathPrefix) + cfg.Feed.Path,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: items,
		},
	}
	if !latest.IsZero() {
		feed.Channel.LastBuildDate = latest.Format(time.RFC1123Z)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(feed)
}
