package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/apipath/blog/darkmode"
	"github.com/apipath/blog/typography"
)

// HeaderVariant is the page header style.
type HeaderVariant int

const (
	// HeaderHome is the large title shown on the site root.
	HeaderHome HeaderVariant = iota
	// HeaderInner is the small title shown on every other page.
	HeaderInner
)

func (v HeaderVariant) String() string {
	if v == HeaderHome {
		return "home"
	}
	return "inner"
}

// VariantFor picks the header variant for the page at location.
func VariantFor(location, rootPath string) HeaderVariant {
	if location == rootPath {
		return HeaderHome
	}
	return HeaderInner
}

// LayoutProps configure the page chrome.
type LayoutProps struct {
	Location string // current path
	Title    string // site title shown in the header
	RootPath string // path prefix + "/"
	Site     SiteQuery
	Dark     darkmode.Preference

	Typography *typography.Typography

	ToggleAction string // dark-mode form target; empty on static pages
	CSRF         string
	Year         int // defaults to the current year
}

// Layout renders the header, children and footer. It fails if the social
// links cannot be read from Site.
func Layout(props LayoutProps, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		if props.Site == nil {
			return fmt.Errorf("layout: no site query")
		}
		github, err := props.Site.Query("social.github")
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		twitter, err := props.Site.Query("social.twitter")
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		typo := props.Typography
		if typo == nil {
			typo = typography.New(typography.Blog())
		}
		root := props.RootPath
		if root == "" {
			root = "/"
		}
		year := props.Year
		if year == 0 {
			year = time.Now().Year()
		}

		w := newWriter(ctx, out)
		w.raw(`<div`)
		w.attr("style", style(
			"margin-left: auto",
			"margin-right: auto",
			"max-width: "+typo.Rhythm(24),
			"padding: "+typo.Rhythm(1.5)+" "+typo.Rhythm(3.0/4),
		))
		w.raw(`><header>`)
		writeHeader(w, props, typo, root)
		w.raw(`</header><main>`)
		w.component(children)
		w.raw(`</main><footer><div><a target="_blank" rel="noopener noreferrer"`)
		w.attr("href", "https://github.com/"+github)
		w.raw(`>github</a> - <a target="_blank" rel="noopener noreferrer"`)
		w.attr("href", "https://twitter.com/"+twitter)
		w.raw(`>twitter</a></div>© `, strconv.Itoa(year), `, Built with <a href="https://go.dev">Go</a></footer></div>`)
		return w.err
	})
}

func writeHeader(w *htmlWriter, props LayoutProps, typo *typography.Typography, root string) {
	row := []string{"display: flex", "align-items: center", "justify-content: space-between"}
	tag, titleStyle := "h3", style("font-family: Montserrat, sans-serif", "margin: 0")
	if VariantFor(props.Location, root) == HeaderHome {
		row = append(row, "margin-bottom: "+typo.Rhythm(1.5))
		s := typo.Scale(1.5)
		tag, titleStyle = "h1", style("font-size: "+s.FontSize, "line-height: "+s.LineHeight, "margin: 0")
	}
	w.raw(`<div`)
	w.attr("style", style(row...))
	w.raw(`><`, tag)
	w.attr("style", titleStyle)
	w.raw(`><a style="box-shadow: none; color: inherit"`)
	w.attr("href", root)
	w.raw(`>`)
	w.text(props.Title)
	w.raw(`</a></`, tag, `>`)
	w.component(DarkToggle(props.Dark, props.ToggleAction, props.CSRF))
	w.raw(`</div>`)
}
