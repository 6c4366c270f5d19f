// Package analytics is a cookieless page-view collector for the blog. Visitors
// are identified by a salted hash of IP and user agent that rotates with the
// salt; raw addresses are never stored.
package analytics

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const saltKey = "hash_salt"

// Hasher derives anonymous identifiers from request attributes.
type Hasher struct {
	salt string
}

// NewHasher returns a Hasher using salt.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: salt}
}

// LoadHasher reads the installation salt from the store, creating one on
// first use.
func LoadHasher(ctx context.Context, store *Store) (*Hasher, error) {
	s, err := store.Setting(ctx, saltKey)
	if err != nil {
		return nil, fmt.Errorf("read hash salt: %w", err)
	}
	if s == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		s = hex.EncodeToString(b)
		if err := store.SetSetting(ctx, saltKey, s); err != nil {
			return nil, fmt.Errorf("store hash salt: %w", err)
		}
	}
	return NewHasher(s), nil
}

func (h *Hasher) sum(parts ...string) string {
	d := sha256.Sum256([]byte(h.salt + strings.Join(parts, "|")))
	return hex.EncodeToString(d[:])[:16]
}

// HashIP returns the salted hash of ip.
func (h *Hasher) HashIP(ip string) string {
	return h.sum(ip)
}

// VisitorID identifies a visitor by address and user agent.
func (h *Hasher) VisitorID(ip, userAgent string) string {
	return h.sum(ip, userAgent)
}

// SessionID groups a visitor's page views by UTC day.
func SessionID(visitorID string, at time.Time) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(visitorID+"|"+at.UTC().Format("2006-01-02"))).String()
}

// Visit is one page view.
type Visit struct {
	VisitorID   string    `json:"visitor_id"`
	SessionID   string    `json:"session_id"`
	IPHash      string    `json:"-"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
	Device      string    `json:"device"`
	Path        string    `json:"path"`
	Referrer    string    `json:"referrer"`
	ScreenSize  string    `json:"screen_size"`
	Timestamp   time.Time `json:"timestamp"`
	DurationSec int       `json:"duration_sec"`
}

// BotVisit is one crawler request.
type BotVisit struct {
	BotName   string    `json:"bot_name"`
	IPHash    string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats aggregates visits over a period.
type Stats struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	UniqueVisitors int             `json:"unique_visitors"`
	TotalViews     int             `json:"total_views"`
	AvgDuration    int             `json:"avg_duration_sec"`
	BotVisits      int             `json:"bot_visits"`
	TopPages       []DimensionStat `json:"top_pages"`
	Browsers       []DimensionStat `json:"browsers"`
	Devices        []DimensionStat `json:"devices"`
	Referrers      []DimensionStat `json:"referrers"`
	DailyViews     []DailyView     `json:"daily_views"`
}

// DimensionStat is a count for one value of a dimension.
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyView is the view count for one day.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// ParseUserAgent extracts browser, OS and device class from a user agent.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)

	// Edge and Opera also carry "chrome".
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	default:
		os = "Other"
	}

	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile"):
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return browser, os, device
}

var botNames = []struct{ pattern, name string }{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"duckduckbot", "DuckDuckBot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"slurp", "Yahoo Slurp"},
	{"crawl", "Generic Crawler"},
	{"spider", "Generic Spider"},
	{"scrape", "Scraper"},
	{"bot", "Other Bot"},
}

// BotName returns the crawler name for ua, or "" for browsers.
func BotName(ua string) string {
	ua = strings.ToLower(ua)
	for _, b := range botNames {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	return ""
}

// IsBot reports whether ua looks like a crawler.
func IsBot(ua string) bool {
	return BotName(ua) != ""
}

var searchEngines = []struct{ host, name string }{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"github.", "GitHub"},
}

// CleanReferrer reduces a referrer URL to a source name. Referrers from
// selfHost count as direct.
func CleanReferrer(ref, selfHost string) string {
	if ref == "" {
		return "Direct"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "Other"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if selfHost != "" && host == strings.TrimPrefix(strings.ToLower(selfHost), "www.") {
		return "Direct"
	}
	for _, s := range searchEngines {
		if strings.HasPrefix(host, s.host) || strings.Contains(host, "."+s.host) {
			return s.name
		}
	}
	return host
}
