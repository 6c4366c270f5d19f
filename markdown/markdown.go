// Package markdown turns Markdown and MDX sources into HTML through an
// ordered chain of goldmark plugins.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	stdhtml "html"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// StaticPrefix is the public path under which copied and resized files live.
const StaticPrefix = "/static"

// Heading is a rendered heading with its anchor id.
type Heading struct {
	ID    string
	Level int
	Text  string
}

// LinkedFile is a local file referenced by a document that must be copied
// to Target (a public path) for the rendered page to work.
type LinkedFile struct {
	Source string
	Target string
}

// ImageRef is a local raster image that must be resized to MaxWidth and
// written to Target. Original is where the full-size copy goes, if linked.
type ImageRef struct {
	Source   string
	Target   string
	Original string
	MaxWidth int
}

// Document is one Markdown or MDX source.
type Document struct {
	Source []byte
	// Dir is the directory relative links are resolved against. Documents
	// without a Dir leave local links untouched.
	Dir string
}

// Result is the HTML of a document plus the files it needs published.
type Result struct {
	HTML     string
	Headings []Heading
	Files    []LinkedFile
	Images   []ImageRef
}

// state carries per-document data through the goldmark parser context.
type state struct {
	dir      string
	base     string
	headings []Heading
	files    []LinkedFile
	images   []ImageRef
	err      error
}

// url returns the link for a published file's public path.
func (st *state) url(public string) string {
	return joinBase(st.base, public)
}

func joinBase(base, public string) string {
	return strings.TrimSuffix(base, "/") + public
}

var stateKey = parser.NewContextKey()

func stateFrom(pc parser.Context) *state {
	st, _ := pc.Get(stateKey).(*state)
	return st
}

// idSource is implemented by plugins that own heading id generation.
type idSource interface {
	newIDs() parser.IDs
}

// Converter renders documents with one goldmark instance built from a chain.
type Converter struct {
	md         goldmark.Markdown
	chain      *Chain
	ids        func() parser.IDs
	base       string
	components map[string]Component
}

// Option configures a Converter.
type Option func(*Converter)

// WithBasePath prefixes the links to published files with base, the
// site's path prefix. Targets stay relative to the output root.
func WithBasePath(base string) Option {
	return func(c *Converter) {
		c.base = strings.TrimSuffix(base, "/")
	}
}

// WithComponent renders MDX blocks named name with fn.
func WithComponent(name string, fn Component) Option {
	return func(c *Converter) {
		if c.components == nil {
			c.components = make(map[string]Component)
		}
		c.components[name] = fn
	}
}

// NewConverter builds a Converter. GFM is always on and raw HTML is passed
// through, which MDX content relies on. When autolink-headers is in the
// chain it assigns heading ids from the rendered heading text.
func NewConverter(chain *Chain, opts ...Option) *Converter {
	c := &Converter{chain: chain}
	for _, opt := range opts {
		opt(c)
	}
	exts := []goldmark.Extender{extension.GFM}
	if len(c.components) > 0 {
		exts = append(exts, &componentExtension{components: c.components})
	}
	for _, p := range chain.Plugins() {
		exts = append(exts, p)
		if src, ok := p.(idSource); ok {
			c.ids = src.newIDs
		}
	}
	parserOpts := []parser.Option{parser.WithAttribute()}
	if c.ids == nil {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}
	c.md = goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return c
}

// Chain returns the plugin chain the converter was built from.
func (c *Converter) Chain() *Chain {
	return c.chain
}

// URL returns the link for a published file's public path.
func (c *Converter) URL(public string) string {
	return joinBase(c.base, public)
}

// Convert renders doc. goldmark does not take a context, so ctx is only
// checked before work starts.
func (c *Converter) Convert(ctx context.Context, doc Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := &state{dir: doc.Dir, base: c.base}
	var opts []parser.ContextOption
	if c.ids != nil {
		opts = append(opts, parser.WithIDs(c.ids()))
	}
	pc := parser.NewContext(opts...)
	pc.Set(stateKey, st)

	var buf bytes.Buffer
	if err := c.md.Convert(doc.Source, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	if st.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, st.err)
	}
	return &Result{
		HTML:     buf.String(),
		Headings: st.headings,
		Files:    st.files,
		Images:   st.images,
	}, nil
}

// isLocal reports whether dest points at a file next to the document.
func isLocal(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "?") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// resolve turns a local destination into a filesystem path and the public
// path it is published under. The public path is stable for a given source.
func resolve(dir, dest string, subdir ...string) (src, public string) {
	clean := dest
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	if unescaped, err := url.PathUnescape(clean); err == nil {
		clean = unescaped
	}
	src = filepath.Join(dir, filepath.FromSlash(clean))
	h := fnv.New32a()
	_, _ = h.Write([]byte(filepath.ToSlash(src)))
	parts := append([]string{StaticPrefix, strconv.FormatUint(uint64(h.Sum32()), 16)}, subdir...)
	parts = append(parts, filepath.Base(src))
	return src, path.Join(parts...)
}

// nodeText concatenates the text below n as a reader sees it. Typographic
// substitutions are stored as entities and are decoded.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			if t.IsCode() {
				b.WriteString(stdhtml.UnescapeString(string(t.Value)))
			} else {
				b.Write(t.Value)
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// LocalFile resolves dest, relative to dir, into the file to publish. It
// reports false for remote, absolute and fragment destinations.
func LocalFile(dir, dest string) (LinkedFile, bool) {
	if dir == "" || !isLocal(dest) {
		return LinkedFile{}, false
	}
	src, public := resolve(dir, dest)
	return LinkedFile{Source: src, Target: public}, true
}
