package blog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/apipath/blog/markdown"
)

func testConverter(t *testing.T) *markdown.Converter {
	t.Helper()
	chain, err := markdown.NewChain(markdown.DefaultSpecs())
	if err != nil {
		t.Fatal(err)
	}
	return markdown.NewConverter(chain)
}

func TestParsePost(t *testing.T) {
	dir := writeFixture(t)
	node := Node{
		Source:  SourceBlog,
		Path:    dir + "/content/blog/hello-world/index.md",
		RelPath: "hello-world/index.md",
		Ext:     ".md",
	}

	p, err := ParsePost(context.Background(), testConverter(t), node, []byte(helloPost))
	if err != nil {
		t.Fatalf("ParsePost failed: %v", err)
	}
	if p.Slug != "hello-world" || p.Title != "Hello World" || p.Description != "The first post." {
		t.Errorf("post = %+v", p)
	}
	if !p.Date.Equal(time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %s", p.Date)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "Go" {
		t.Errorf("Tags = %v", p.Tags)
	}
	if !strings.Contains(p.HTML, `id="getting-started"`) {
		t.Errorf("HTML should carry heading ids: %s", p.HTML)
	}
	if len(p.Headings) != 1 {
		t.Errorf("Headings = %+v", p.Headings)
	}
	if len(p.Images) != 1 || len(p.Files) < 1 {
		t.Errorf("Images = %+v, Files = %+v", p.Images, p.Files)
	}
	if p.ReadingTime != 1 {
		t.Errorf("ReadingTime = %d", p.ReadingTime)
	}
	if !strings.HasPrefix(p.Excerpt, "Hello from the blog.") {
		t.Errorf("Excerpt = %q", p.Excerpt)
	}
}

func TestParsePostFrontMatterOverrides(t *testing.T) {
	src := "---\ntitle: \"  Spaced  \"\nslug: /custom/\ntags: [\"a\", \"A\", \" \", \"b\"]\ncover: ./cover.png\n---\nBody\n"
	node := Node{Path: "/content/blog/x/index.md", RelPath: "x/index.md", Ext: ".md"}
	p, err := ParsePost(context.Background(), testConverter(t), node, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "custom" || p.Title != "Spaced" {
		t.Errorf("slug = %q, title = %q", p.Slug, p.Title)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "a" || p.Tags[1] != "b" {
		t.Errorf("Tags = %q", p.Tags)
	}
	if !strings.HasPrefix(p.Cover, markdown.StaticPrefix) || !strings.HasSuffix(p.Cover, "/cover.png") {
		t.Errorf("Cover = %q", p.Cover)
	}
}

func TestParsePostErrors(t *testing.T) {
	conv := testConverter(t)
	node := Node{Path: "/content/blog/x.md", RelPath: "x.md", Ext: ".md"}

	if _, err := ParsePost(context.Background(), conv, node, []byte("---\ndate: yesterday\n---\n")); err == nil {
		t.Error("expected an error for an invalid date")
	}
	if _, err := ParsePost(context.Background(), conv, node, []byte("---\ntitle: [unclosed\n---\n")); err == nil {
		t.Error("expected an error for malformed front matter")
	}
	for _, slug := range []string{"../escape", "a/../b", "a//b"} {
		fm := "---\ntitle: X\nslug: " + slug + "\n---\n"
		if _, err := ParsePost(context.Background(), conv, node, []byte(fm)); err == nil {
			t.Errorf("expected an error for slug %q", slug)
		}
	}
}

func TestParsePostRendersFigure(t *testing.T) {
	dir := writeFixture(t)
	chain, err := markdown.NewChain(markdown.DefaultSpecs())
	if err != nil {
		t.Fatal(err)
	}
	conv := markdown.NewConverter(chain, markdown.WithComponent(FigureComponent, renderFigure))
	node := Node{
		Source:  SourceBlog,
		Path:    dir + "/content/blog/hello-world/index.mdx",
		RelPath: "hello-world/index.mdx",
		Ext:     ".mdx",
	}
	src := "---\ntitle: Charts\n---\n\nIntro.\n\n<Figure image=\"./photo.png\">\n  Monthly visitors\n</Figure>\n"

	p, err := ParsePost(context.Background(), conv, node, []byte(src))
	if err != nil {
		t.Fatalf("ParsePost failed: %v", err)
	}
	for _, want := range []string{
		"<figure",
		"data-dark-variant",
		"<figcaption",
		"Monthly visitors",
		`src="/static/`,
	} {
		if !strings.Contains(p.HTML, want) {
			t.Errorf("HTML missing %q: %s", want, p.HTML)
		}
	}
	if strings.Contains(p.HTML, "&lt;Figure") || strings.Contains(p.HTML, "<Figure") {
		t.Errorf("Figure tag left in output: %s", p.HTML)
	}
	if len(p.Files) != 1 || !strings.HasSuffix(p.Files[0].Source, "photo.png") {
		t.Errorf("Files = %+v", p.Files)
	}

	_, err = ParsePost(context.Background(), conv, node, []byte("---\ntitle: X\n---\n\n<Figure>No image</Figure>\n"))
	if err == nil {
		t.Error("expected an error for a Figure without an image")
	}
}

func TestSlugFromPath(t *testing.T) {
	tests := []struct {
		rel      string
		expected string
	}{
		{"hello-world/index.md", "hello-world"},
		{"hello-world/index.mdx", "hello-world"},
		{"second-post.md", "second-post"},
		{"2020/trip/index.md", "2020/trip"},
		{"index.md", ""},
	}
	for _, tt := range tests {
		if got := SlugFromPath(tt.rel); got != tt.expected {
			t.Errorf("SlugFromPath(%q) = %q, want %q", tt.rel, got, tt.expected)
		}
	}
}

func TestReadingTimeAndExcerpt(t *testing.T) {
	if got := readingTime(""); got != 1 {
		t.Errorf("readingTime(empty) = %d, want 1", got)
	}
	if got := readingTime(strings.Repeat("word ", 530)); got != 2 {
		t.Errorf("readingTime(530 words) = %d, want 2", got)
	}

	short := "A short text."
	if got := excerpt(short, 140); got != short {
		t.Errorf("excerpt(short) = %q", got)
	}
	long := strings.Repeat("palabra ", 40)
	got := excerpt(long, 140)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) > 141 {
		t.Errorf("excerpt(long) = %q", got)
	}
}

func TestPlainText(t *testing.T) {
	in := `<h2 id="x"><a class="anchor"><svg><path d="M0"/></svg></a>Title</h2><p>One &amp; two</p><script>var x</script>`
	if got := plainText(in); got != "Title One & two" {
		t.Errorf("plainText = %q", got)
	}
}
