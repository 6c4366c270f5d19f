package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/apipath/blog/markdown"
)

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// Author identifies the site's author in structured data.
type Author struct {
	Name    string
	Twitter string
}

// WebsiteJSONLD produces a Schema.org WebSite JSON-LD block.
func WebsiteJSONLD(name, siteURL, description string, author Author) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
		"url":      BuildURL(siteURL),
	}
	if description != "" {
		data["description"] = description
	}
	if author.Name != "" {
		data["author"] = personLD(author)
	}
	return marshalLD(data)
}

// BlogPostingJSONLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJSONLD(siteName, siteURL string, author Author, post PostSummary) string {
	postURL := BuildURL(siteURL, post.Slug)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": post.Description,
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  siteName,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !post.Date.IsZero() {
		data["datePublished"] = post.Date.Format(time.RFC3339)
	}
	if author.Name != "" {
		data["author"] = personLD(author)
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalLD(data)
}

func personLD(a Author) map[string]interface{} {
	p := map[string]interface{}{
		"@type": "Person",
		"name":  a.Name,
	}
	if a.Twitter != "" {
		p["sameAs"] = []string{"https://twitter.com/" + a.Twitter}
	}
	return p
}

func marshalLD(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// PathEscape wraps url.PathEscape for use in links.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// TagSlug is the path segment of a tag: "Machine Learning" -> "machine-learning".
// It never contains separators or dots.
func TagSlug(tag string) string {
	return markdown.Slug(tag, false, true)
}

// TagPath returns the listing path for a tag.
func TagPath(root, tag string) string {
	return strings.TrimSuffix(root, "/") + "/tags/" + PathEscape(TagSlug(tag)) + "/"
}
