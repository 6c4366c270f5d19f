package markdown

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Component renders an MDX block such as
//
//	<Figure image="./chart.png">Monthly visitors</Figure>
//
// attrs holds the tag's attributes and children its inner text, with
// whitespace collapsed. Attributes naming local files (src, image, href,
// poster) are published and replaced by their public URL before fn runs.
type Component func(attrs map[string]string, children string) (string, error)

// componentPriority runs before every plugin stage so later stages never see
// the raw tags.
const componentPriority = 50

// urlAttrs are the attributes resolved as local files.
var urlAttrs = map[string]bool{"src": true, "image": true, "href": true, "poster": true}

// KindComponent is the node kind of a rendered MDX component.
var KindComponent = ast.NewNodeKind("Component")

type componentNode struct {
	ast.BaseBlock
	html string
}

func (n *componentNode) Kind() ast.NodeKind { return KindComponent }

func (n *componentNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"HTML": n.html}, nil)
}

var attrPattern = regexp.MustCompile(`([A-Za-z_:][-\w:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|\{\s*"([^"]*)"\s*\}|\{\s*'([^']*)'\s*\})`)

// componentExtension turns whole-block component tags into componentNodes.
// A tag may stand alone as an HTML block or inline as the only content of a
// paragraph.
type componentExtension struct {
	components map[string]Component
}

func (e *componentExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(newComponentTransformer(e.components), componentPriority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(componentRenderer{}, componentPriority),
	))
}

type componentTransformer struct {
	components map[string]Component
	patterns   map[string]*regexp.Regexp
	names      []string
}

func newComponentTransformer(components map[string]Component) *componentTransformer {
	t := &componentTransformer{components: components, patterns: make(map[string]*regexp.Regexp, len(components))}
	for name := range components {
		q := regexp.QuoteMeta(name)
		t.patterns[name] = regexp.MustCompile(`(?s)^\s*<` + q + `\b([^>]*?)(?:/>|>(.*?)</` + q + `\s*>)\s*$`)
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
	return t
}

func (t *componentTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	st := stateFrom(pc)
	var blocks []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHTMLBlock, ast.KindParagraph:
			blocks = append(blocks, n)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, n := range blocks {
		raw := blockSource(n, source)
		for _, name := range t.names {
			m := t.patterns[name].FindSubmatch(raw)
			if m == nil {
				continue
			}
			attrs := parseAttrs(string(m[1]))
			if st != nil {
				resolveAttrs(st, attrs)
			}
			children := strings.Join(strings.Fields(string(m[2])), " ")
			out, err := t.components[name](attrs, children)
			if err != nil {
				if st != nil && st.err == nil {
					st.err = fmt.Errorf("component %s: %w", name, err)
				}
				break
			}
			node := &componentNode{html: out}
			node.SetBlankPreviousLines(n.HasBlankPreviousLines())
			if parent := n.Parent(); parent != nil {
				parent.ReplaceChild(parent, n, node)
			}
			break
		}
	}
}

func blockSource(n ast.Node, source []byte) []byte {
	var raw bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw.Write(seg.Value(source))
	}
	if hb, ok := n.(*ast.HTMLBlock); ok && hb.HasClosure() {
		raw.Write(hb.ClosureLine.Value(source))
	}
	return raw.Bytes()
}

func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(s, -1) {
		for _, v := range m[2:] {
			if v != "" {
				attrs[m[1]] = v
				break
			}
		}
		if _, ok := attrs[m[1]]; !ok {
			attrs[m[1]] = ""
		}
	}
	return attrs
}

// resolveAttrs publishes local files named by URL attributes.
func resolveAttrs(st *state, attrs map[string]string) {
	if st.dir == "" {
		return
	}
	for k, v := range attrs {
		if !urlAttrs[k] || !isLocal(v) || filepath.Ext(stripQuery(v)) == "" {
			continue
		}
		src, target := resolve(st.dir, v)
		st.files = append(st.files, LinkedFile{Source: src, Target: target})
		attrs[k] = st.url(target)
	}
}

type componentRenderer struct{}

func (componentRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindComponent, func(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString(node.(*componentNode).html)
			_ = w.WriteByte('\n')
		}
		return ast.WalkSkipChildren, nil
	})
}
