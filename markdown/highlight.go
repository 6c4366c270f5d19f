package markdown

import (
	"bytes"
	"io"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// HighlightOptions configures the highlight plugin.
type HighlightOptions struct {
	// InlineCodeMarker separates a language from inline code: `css÷.a{}`.
	InlineCodeMarker string `yaml:"inlineCodeMarker"`
	Style            string `yaml:"style"`
	Classes          bool   `yaml:"classes"`
	LineNumbers      bool   `yaml:"showLineNumbers"`
}

type highlightPlugin struct {
	opts HighlightOptions
}

func newHighlightPlugin(options map[string]any) (Plugin, error) {
	opts := HighlightOptions{Style: "github", Classes: true}
	if err := decodeOptions(PluginHighlight, options, &opts); err != nil {
		return nil, err
	}
	return &highlightPlugin{opts: opts}, nil
}

func (p *highlightPlugin) Name() string { return PluginHighlight }
func (p *highlightPlugin) Stage() Stage { return StageHighlight }

func (p *highlightPlugin) Extend(m goldmark.Markdown) {
	highlighting.NewHighlighting(
		highlighting.WithStyle(p.opts.Style),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(p.opts.Classes),
			chromahtml.WithLineNumbers(p.opts.LineNumbers),
		),
	).Extend(m)
	if p.opts.InlineCodeMarker != "" {
		m.Parser().AddOptions(parser.WithASTTransformers(
			util.Prioritized(&inlineCodeTransformer{marker: []byte(p.opts.InlineCodeMarker)}, p.Stage().priority()),
		))
	}
}

// WriteCSS writes the stylesheet for class-based highlighting.
func (p *highlightPlugin) WriteCSS(w io.Writer) error {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	return formatter.WriteCSS(w, styles.Get(p.opts.Style))
}

// StyleSheet is implemented by plugins that ship a stylesheet.
type StyleSheet interface {
	WriteCSS(w io.Writer) error
}

// inlineCodeTransformer turns `lang÷code` into <code class="language-lang">code</code>.
type inlineCodeTransformer struct {
	marker []byte
}

func (t *inlineCodeTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var spans []*ast.CodeSpan
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if cs, ok := n.(*ast.CodeSpan); ok && entering {
			spans = append(spans, cs)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, cs := range spans {
		first, ok := cs.FirstChild().(*ast.Text)
		if !ok {
			continue
		}
		value := first.Segment.Value(source)
		idx := bytes.Index(value, t.marker)
		if idx <= 0 {
			continue
		}
		lang := string(value[:idx])
		if strings.ContainsAny(lang, " \t`") {
			continue
		}
		first.Segment = first.Segment.WithStart(first.Segment.Start + idx + len(t.marker))
		cs.SetAttributeString("class", []byte("language-"+lang))
	}
}
