package markdown

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const defaultAnchorIcon = `<svg aria-hidden="true" height="20" version="1.1" viewBox="0 0 16 16" width="20"><path fill-rule="evenodd" stroke="currentColor" d="M4 9h1v1H4c-1.5 0-3-1.69-3-3.5S2.55 3 4 3h4c1.45 0 3 1.69 3 3.5 0 1.41-.91 2.72-2 3.25V8.59c.58-.45 1-1.27 1-2.09C10 5.22 8.98 4 8 4H4c-.98 0-2 1.22-2 2.5S3 9 4 9zm9-3h-1v1h1c1 0 2 1.22 2 2.5S13.98 12 13 12H9c-.98 0-2-1.22-2-2.5 0-.83.42-1.64 1-2.09V6.25c-1.09.53-2 1.84-2 3.25C6 11.31 7.55 13 9 13h4c1.45 0 3-1.69 3-3.5S14.5 6 13 6z"></path></svg>`

// AutolinkOptions configures the autolink-headers plugin.
type AutolinkOptions struct {
	ClassName     string `yaml:"className"`
	MaintainCase  bool   `yaml:"maintainCase"`
	RemoveAccents bool   `yaml:"removeAccents"`
	OffsetY       int    `yaml:"offsetY"`
	Icon          string `yaml:"icon"`
	// Placement is "before" (default) or "after" the heading text.
	Placement string `yaml:"placement"`
}

type autolinkPlugin struct {
	opts AutolinkOptions
}

func newAutolinkPlugin(options map[string]any) (Plugin, error) {
	opts := AutolinkOptions{ClassName: "anchor", Icon: defaultAnchorIcon, Placement: "before"}
	if err := decodeOptions(PluginAutolinkHeaders, options, &opts); err != nil {
		return nil, err
	}
	if opts.Placement != "before" && opts.Placement != "after" {
		return nil, fmt.Errorf("%w: %s: placement must be before or after", ErrPluginOptions, PluginAutolinkHeaders)
	}
	return &autolinkPlugin{opts: opts}, nil
}

func (p *autolinkPlugin) Name() string { return PluginAutolinkHeaders }
func (p *autolinkPlugin) Stage() Stage { return StageHeadings }

func (p *autolinkPlugin) newIDs() parser.IDs {
	return newSlugIDs(p.opts.MaintainCase, p.opts.RemoveAccents)
}

func (p *autolinkPlugin) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&autolinkTransformer{opts: p.opts}, p.Stage().priority()),
	))
}

type autolinkTransformer struct {
	opts AutolinkOptions
}

func (t *autolinkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			headings = append(headings, h)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	// Explicit {#id} attributes are reserved before generating the rest, so
	// generated ids never collide with them.
	ids := pc.IDs()
	for _, h := range headings {
		if id := headingID(h); len(id) > 0 {
			ids.Put(id)
		}
	}

	st := stateFrom(pc)
	for _, h := range headings {
		label := nodeText(h, source)
		id := headingID(h)
		if len(id) == 0 {
			id = ids.Generate([]byte(label), ast.KindHeading)
			h.SetAttributeString("id", id)
		}

		link := ast.NewLink()
		link.Destination = append([]byte("#"), id...)
		if t.opts.ClassName != "" {
			link.SetAttributeString("class", []byte(t.opts.ClassName))
		}
		if t.opts.Icon != "" {
			icon := ast.NewString([]byte(t.opts.Icon))
			icon.SetCode(true)
			link.AppendChild(link, icon)
		}
		if t.opts.Placement == "after" || h.FirstChild() == nil {
			h.AppendChild(h, link)
		} else {
			h.InsertBefore(h, h.FirstChild(), link)
		}
		if t.opts.OffsetY > 0 {
			h.SetAttributeString("style", []byte(fmt.Sprintf("scroll-margin-top: %dpx", t.opts.OffsetY)))
		}
		if st != nil {
			st.headings = append(st.headings, Heading{ID: string(id), Level: h.Level, Text: label})
		}
	}
}

func headingID(h *ast.Heading) []byte {
	raw, ok := h.AttributeString("id")
	if !ok {
		return nil
	}
	id, _ := raw.([]byte)
	return id
}
