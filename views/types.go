package views

import "time"

// SiteQuery reads site metadata by dotted path, e.g. "social.twitter".
type SiteQuery interface {
	Query(path string) (string, error)
}

// PostSummary is what lists and navigation links need to know about a post.
type PostSummary struct {
	Slug        string
	URL         string // path, e.g. "/hello-world/"
	Title       string
	Description string
	Excerpt     string
	Date        time.Time
	Tags        []string
	ReadingTime int // minutes
}

// PostPage is a fully rendered post.
type PostPage struct {
	PostSummary
	HTML  string
	Cover *FigureProps
}

// DateFormat is how post dates are shown.
const DateFormat = "January 02, 2006"

func (p PostSummary) formattedDate() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format(DateFormat)
}
