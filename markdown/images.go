package markdown

import (
	"fmt"
	"html"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ImagesOptions configures the images plugin.
type ImagesOptions struct {
	MaxWidth             int    `yaml:"maxWidth"`
	LinkImagesToOriginal bool   `yaml:"linkImagesToOriginal"`
	ShowCaptions         bool   `yaml:"showCaptions"`
	BackgroundColor      string `yaml:"backgroundColor"`
}

var resizable = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

type imagesPlugin struct {
	opts ImagesOptions
}

func newImagesPlugin(options map[string]any) (Plugin, error) {
	opts := ImagesOptions{MaxWidth: 650, LinkImagesToOriginal: true, BackgroundColor: "white"}
	if err := decodeOptions(PluginImages, options, &opts); err != nil {
		return nil, err
	}
	if opts.MaxWidth <= 0 {
		return nil, fmt.Errorf("%w: %s: maxWidth must be positive", ErrPluginOptions, PluginImages)
	}
	return &imagesPlugin{opts: opts}, nil
}

func (p *imagesPlugin) Name() string { return PluginImages }
func (p *imagesPlugin) Stage() Stage { return StageImages }

func (p *imagesPlugin) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&imagesTransformer{opts: p.opts}, p.Stage().priority()),
	))
}

type imagesTransformer struct {
	opts ImagesOptions
}

func (t *imagesTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	st := stateFrom(pc)
	if st == nil || st.dir == "" {
		return
	}
	var images []*ast.Image
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			dest := string(img.Destination)
			if isLocal(dest) && resizable[strings.ToLower(filepath.Ext(stripQuery(dest)))] {
				images = append(images, img)
			}
		}
		return ast.WalkContinue, nil
	})

	width := strconv.Itoa(t.opts.MaxWidth)
	for _, img := range images {
		dest := string(img.Destination)
		src, target := resolve(st.dir, dest, width)
		_, original := resolve(st.dir, dest)

		img.Destination = []byte(st.url(target))
		img.SetAttributeString("class", []byte("resp-image"))
		img.SetAttributeString("loading", []byte("lazy"))
		img.SetAttributeString("style", []byte(fmt.Sprintf(
			"width: 100%%; max-width: %dpx; margin: 0; vertical-align: middle; background-color: %s;",
			t.opts.MaxWidth, t.opts.BackgroundColor)))

		ref := ImageRef{Source: src, Target: target, MaxWidth: t.opts.MaxWidth}
		if t.opts.LinkImagesToOriginal {
			ref.Original = original
			st.files = append(st.files, LinkedFile{Source: src, Target: original})
			link := ast.NewLink()
			link.Destination = []byte(st.url(original))
			link.SetAttributeString("class", []byte("resp-image-link"))
			link.SetAttributeString("target", []byte("_blank"))
			link.SetAttributeString("rel", []byte("noopener"))
			if parent := img.Parent(); parent != nil {
				parent.ReplaceChild(parent, img, link)
				link.AppendChild(link, img)
			}
		}
		if t.opts.ShowCaptions && img.Title != nil {
			caption := ast.NewString([]byte(`<figcaption class="resp-image-caption">` + html.EscapeString(string(img.Title)) + `</figcaption>`))
			caption.SetCode(true)
			anchor := ast.Node(img)
			if p := img.Parent(); p != nil && p.Kind() == ast.KindLink {
				anchor = p
			}
			if parent := anchor.Parent(); parent != nil {
				parent.InsertAfter(parent, anchor, caption)
			}
		}
		st.images = append(st.images, ref)
	}
}

func stripQuery(dest string) string {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		return dest[:i]
	}
	return dest
}
