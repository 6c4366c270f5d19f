package markdown

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IframeOptions configures the responsive-iframe plugin.
type IframeOptions struct {
	WrapperStyle string `yaml:"wrapperStyle"`
}

type iframePlugin struct {
	opts IframeOptions
}

func newIframePlugin(options map[string]any) (Plugin, error) {
	var opts IframeOptions
	if err := decodeOptions(PluginResponsiveIframe, options, &opts); err != nil {
		return nil, err
	}
	return &iframePlugin{opts: opts}, nil
}

func (p *iframePlugin) Name() string { return PluginResponsiveIframe }
func (p *iframePlugin) Stage() Stage { return StageIframes }

func (p *iframePlugin) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&iframeRenderer{opts: p.opts}, p.Stage().priority()),
	))
}

// iframeRenderer replaces the default HTML block renderer. Blocks without
// an iframe are written unchanged.
type iframeRenderer struct {
	opts IframeOptions
}

func (r *iframeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
}

func (r *iframeRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.HTMLBlock)
	var raw bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw.Write(seg.Value(source))
	}
	if n.HasClosure() {
		raw.Write(n.ClosureLine.Value(source))
	}
	out, err := WrapIframes(raw.Bytes(), r.opts.WrapperStyle)
	if err != nil {
		out = raw.Bytes()
	}
	_, _ = w.Write(out)
	return ast.WalkContinue, nil
}

// WrapIframes wraps every iframe with numeric width and height in a
// container that keeps its aspect ratio at any page width.
func WrapIframes(fragment []byte, wrapperStyle string) ([]byte, error) {
	if !bytes.Contains(bytes.ToLower(fragment), []byte("<iframe")) {
		return fragment, nil
	}
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("parse html block: %w", err)
	}

	wrapped := false
	for i, n := range nodes {
		var frames []*html.Node
		collectIframes(n, &frames)
		for _, f := range frames {
			wrapper := wrapIframe(f, wrapperStyle)
			if wrapper == nil {
				continue
			}
			wrapped = true
			if f == n {
				nodes[i] = wrapper
			}
		}
	}
	if !wrapped {
		return fragment, nil
	}

	var out bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&out, n); err != nil {
			return nil, fmt.Errorf("render html block: %w", err)
		}
	}
	if bytes.HasSuffix(fragment, []byte("\n")) && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

func collectIframes(n *html.Node, out *[]*html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Iframe {
		*out = append(*out, n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectIframes(c, out)
	}
}

// wrapIframe moves f into a new wrapper div and returns the wrapper, or nil
// when f has no usable dimensions.
func wrapIframe(f *html.Node, wrapperStyle string) *html.Node {
	width, okW := numericAttr(f, "width")
	height, okH := numericAttr(f, "height")
	if !okW || !okH || width <= 0 {
		return nil
	}
	ratio := math.Round(height/width*100*100) / 100
	style := "padding-bottom: " + strconv.FormatFloat(ratio, 'f', -1, 64) + "%; position: relative; height: 0; overflow: hidden;"
	if s := strings.TrimSpace(wrapperStyle); s != "" {
		style += " " + s
	}
	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: "resp-iframe-wrapper"},
			{Key: "style", Val: style},
		},
	}
	setAttr(f, "style", "position: absolute; top: 0; left: 0; width: 100%; height: 100%;")

	if parent := f.Parent; parent != nil {
		parent.InsertBefore(wrapper, f)
		parent.RemoveChild(f)
	}
	wrapper.AppendChild(f)
	return wrapper
}

func numericAttr(n *html.Node, key string) (float64, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(a.Val), "px"), 64)
			return v, err == nil
		}
	}
	return 0, false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
