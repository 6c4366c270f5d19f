package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type smartypantsPlugin struct{}

func newSmartypantsPlugin(options map[string]any) (Plugin, error) {
	var opts struct{}
	if err := decodeOptions(PluginSmartypants, options, &opts); err != nil {
		return nil, err
	}
	return smartypantsPlugin{}, nil
}

func (smartypantsPlugin) Name() string { return PluginSmartypants }
func (smartypantsPlugin) Stage() Stage { return StageTypography }

func (smartypantsPlugin) Extend(m goldmark.Markdown) {
	extension.Typographer.Extend(m)
}
