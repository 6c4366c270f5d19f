package views

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/apipath/blog/typography"
)

func typoOrDefault(t *typography.Typography) *typography.Typography {
	if t == nil {
		return typography.New(typography.Blog())
	}
	return t
}

// Bio renders the author blurb from site metadata.
func Bio(site SiteQuery, typo *typography.Typography) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		if site == nil {
			return fmt.Errorf("bio: no site query")
		}
		fields := map[string]string{}
		for _, key := range []string{"author.name", "author.summary", "social.twitter"} {
			v, err := site.Query(key)
			if err != nil {
				return fmt.Errorf("bio: %w", err)
			}
			fields[key] = v
		}
		// work is optional
		company, _ := site.Query("work.companyName")
		companyTwitter, _ := site.Query("work.twitter")
		typo = typoOrDefault(typo)
		w := newWriter(ctx, out)
		w.raw(`<div class="bio"`)
		w.attr("style", style("display: flex", "margin-bottom: "+typo.Rhythm(2.5)))
		w.raw(`><p>Written by <strong>`)
		w.text(fields["author.name"])
		w.raw(`</strong> `)
		w.text(fields["author.summary"])
		w.raw(`.`)
		if company != "" {
			w.raw(` Working at `)
			if companyTwitter != "" {
				w.raw(`<a`)
				w.attr("href", "https://twitter.com/"+companyTwitter)
				w.raw(`>`)
				w.text(company)
				w.raw(`</a>`)
			} else {
				w.text(company)
			}
			w.raw(`.`)
		}
		w.raw(` <a`)
		w.attr("href", "https://twitter.com/"+fields["social.twitter"])
		w.raw(`>Follow on Twitter</a></p></div>`)
		return w.err
	})
}

// HomeProps configure the post listing.
type HomeProps struct {
	Posts      []PostSummary
	Tag        string // set on tag listings
	RootPath   string
	Site       SiteQuery
	Typography *typography.Typography
}

// Home lists posts newest first, as given.
func Home(props HomeProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		typo := typoOrDefault(props.Typography)
		w := newWriter(ctx, out)
		w.component(Bio(props.Site, typo))
		if props.Tag != "" {
			w.raw(`<h2>Posts tagged “`)
			w.text(props.Tag)
			w.raw(`”</h2>`)
		}
		for _, p := range props.Posts {
			w.raw(`<article><header><h3`)
			w.attr("style", "margin-bottom: "+typo.Rhythm(1.0/4))
			w.raw(`><a style="box-shadow: none"`)
			w.attr("href", p.URL)
			w.raw(`>`)
			w.text(p.Title)
			w.raw(`</a></h3><small>`)
			w.text(postByline(p))
			w.raw(`</small></header><section><p>`)
			if p.Description != "" {
				w.text(p.Description)
			} else {
				w.text(p.Excerpt)
			}
			w.raw(`</p></section>`)
			writeTags(w, props.RootPath, p.Tags)
			w.raw(`</article>`)
		}
		if len(props.Posts) == 0 {
			w.raw(`<p>No posts yet.</p>`)
		}
		return w.err
	})
}

func postByline(p PostSummary) string {
	s := p.formattedDate()
	if p.ReadingTime > 0 {
		if s != "" {
			s += " • "
		}
		s += strconv.Itoa(p.ReadingTime) + " min read"
	}
	return s
}

func writeTags(w *htmlWriter, root string, tags []string) {
	if len(tags) == 0 {
		return
	}
	w.raw(`<ul class="tags">`)
	for _, t := range tags {
		w.raw(`<li><a`)
		w.attr("href", TagPath(root, t))
		w.raw(`>`)
		w.text(t)
		w.raw(`</a></li>`)
	}
	w.raw(`</ul>`)
}

// PostProps configure a post page.
type PostProps struct {
	Post       PostPage
	Previous   *PostSummary
	Next       *PostSummary
	RootPath   string
	Site       SiteQuery
	Typography *typography.Typography
	Comments   templ.Component
}

// Post renders an article with navigation to its neighbours.
func Post(props PostProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		typo := typoOrDefault(props.Typography)
		p := props.Post
		w := newWriter(ctx, out)
		w.raw(`<article><header><h1`)
		w.attr("style", style("margin-top: "+typo.Rhythm(1), "margin-bottom: 0"))
		w.raw(`>`)
		w.text(p.Title)
		w.raw(`</h1><p`)
		small := typo.Scale(-1.0 / 5)
		w.attr("style", style("font-size: "+small.FontSize, "line-height: "+small.LineHeight, "display: block", "margin-bottom: "+typo.Rhythm(1)))
		w.raw(`>`)
		w.text(postByline(p.PostSummary))
		w.raw(`</p></header>`)
		if p.Cover != nil {
			w.component(Figure(*p.Cover))
		}
		w.raw(`<section>`, p.HTML, `</section>`)
		writeTags(w, props.RootPath, p.Tags)
		w.raw(`<hr`)
		w.attr("style", "margin-bottom: "+typo.Rhythm(1))
		w.raw(`><footer>`)
		w.component(Bio(props.Site, typo))
		w.raw(`</footer></article><nav><ul style="display: flex; flex-wrap: wrap; justify-content: space-between; list-style: none; padding: 0"><li>`)
		if props.Previous != nil {
			w.raw(`<a rel="prev"`)
			w.attr("href", props.Previous.URL)
			w.raw(`>← `)
			w.text(props.Previous.Title)
			w.raw(`</a>`)
		}
		w.raw(`</li><li>`)
		if props.Next != nil {
			w.raw(`<a rel="next"`)
			w.attr("href", props.Next.URL)
			w.raw(`>`)
			w.text(props.Next.Title)
			w.raw(` →</a>`)
		}
		w.raw(`</li></ul></nav>`)
		w.component(props.Comments)
		return w.err
	})
}

// DisqusProps identify a comment thread.
type DisqusProps struct {
	Shortname  string
	URL        string
	Identifier string
	Title      string
}

// Disqus renders the comment thread embed, or nothing without a shortname.
func Disqus(props DisqusProps) templ.Component {
	if props.Shortname == "" {
		return templ.NopComponent
	}
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		cfg := make([]string, 4)
		for i, v := range []string{props.URL, props.Identifier, props.Title, props.Shortname} {
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			cfg[i] = string(b)
		}
		w := newWriter(ctx, out)
		w.raw(`<div id="disqus_thread"></div><script>var disqus_config=function(){this.page.url=`, cfg[0],
			`;this.page.identifier=`, cfg[1], `;this.page.title=`, cfg[2],
			`;};(function(){var d=document,s=d.createElement('script');s.src='https://'+`, cfg[3],
			`+'.disqus.com/embed.js';s.setAttribute('data-timestamp',+new Date());(d.head||d.body).appendChild(s);})();</script>`)
		return w.err
	})
}

// NotFound is the 404 page body.
func NotFound() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := newWriter(ctx, out)
		w.raw(`<h1>Not Found</h1><p>You just hit a route that doesn&#39;t exist... the sadness.</p>`)
		return w.err
	})
}
