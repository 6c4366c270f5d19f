package markdown

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// CopyFilesOptions configures the copy-linked-files plugin.
type CopyFilesOptions struct {
	// IgnoreFileExtensions are left as links to other pages.
	IgnoreFileExtensions []string `yaml:"ignoreFileExtensions"`
}

type copyFilesPlugin struct {
	ignore map[string]bool
}

func newCopyFilesPlugin(options map[string]any) (Plugin, error) {
	opts := CopyFilesOptions{IgnoreFileExtensions: []string{".md", ".mdx", ".html"}}
	if err := decodeOptions(PluginCopyLinkedFiles, options, &opts); err != nil {
		return nil, err
	}
	ignore := make(map[string]bool, len(opts.IgnoreFileExtensions))
	for _, ext := range opts.IgnoreFileExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		ignore[ext] = true
	}
	return &copyFilesPlugin{ignore: ignore}, nil
}

func (p *copyFilesPlugin) Name() string { return PluginCopyLinkedFiles }
func (p *copyFilesPlugin) Stage() Stage { return StageLinkedFiles }

func (p *copyFilesPlugin) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&copyFilesTransformer{ignore: p.ignore}, p.Stage().priority()),
	))
}

type copyFilesTransformer struct {
	ignore map[string]bool
}

func (t *copyFilesTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	st := stateFrom(pc)
	if st == nil || st.dir == "" {
		return
	}
	seen := make(map[string]bool)
	rewrite := func(dest []byte) []byte {
		d := string(dest)
		if !isLocal(d) {
			return dest
		}
		ext := strings.ToLower(filepath.Ext(stripQuery(d)))
		if ext == "" || t.ignore[ext] {
			return dest
		}
		src, target := resolve(st.dir, d)
		if !seen[target] {
			seen[target] = true
			st.files = append(st.files, LinkedFile{Source: src, Target: target})
		}
		return []byte(st.url(target))
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			v.Destination = rewrite(v.Destination)
		case *ast.Image:
			v.Destination = rewrite(v.Destination)
		}
		return ast.WalkContinue, nil
	})
}
