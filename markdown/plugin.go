package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/apipath/blog/internal/yamlutil"
)

// Stage fixes where a plugin runs relative to the others. Plugins must be
// declared in non-decreasing stage order.
type Stage int

const (
	StageImages Stage = iota + 1
	StageIframes
	StageHeadings
	StageHighlight
	StageLinkedFiles
	StageTypography
)

func (s Stage) String() string {
	switch s {
	case StageImages:
		return "images"
	case StageIframes:
		return "iframes"
	case StageHeadings:
		return "headings"
	case StageHighlight:
		return "highlight"
	case StageLinkedFiles:
		return "linked-files"
	case StageTypography:
		return "typography"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// priority maps a stage onto goldmark's ordering, where lower values run
// first and override the default HTML renderer (priority 1000).
func (s Stage) priority() int {
	return 100 + int(s)*10
}

// Built-in plugin names.
const (
	PluginImages           = "images"
	PluginResponsiveIframe = "responsive-iframe"
	PluginAutolinkHeaders  = "autolink-headers"
	PluginHighlight        = "highlight"
	PluginCopyLinkedFiles  = "copy-linked-files"
	PluginSmartypants      = "smartypants"
)

var (
	ErrUnknownPlugin   = errors.New("unknown markdown plugin")
	ErrDuplicatePlugin = errors.New("duplicate markdown plugin")
	ErrPluginOrder     = errors.New("markdown plugins out of order")
	ErrPluginOptions   = errors.New("invalid markdown plugin options")
	ErrConversion      = errors.New("markdown conversion failed")
)

// Plugin is a goldmark extension bound to a pipeline stage.
type Plugin interface {
	goldmark.Extender
	Name() string
	Stage() Stage
}

// PluginSpec declares a plugin in configuration. In YAML it is either a bare
// name or a {resolve, options} mapping.
type PluginSpec struct {
	Resolve string         `yaml:"resolve" json:"resolve"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// UnmarshalYAML accepts both the bare-name and the mapping form.
func (p *PluginSpec) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		*p = PluginSpec{Resolve: name}
		return nil
	}
	type plain PluginSpec
	var v plain
	if err := unmarshal(&v); err != nil {
		return err
	}
	*p = PluginSpec(v)
	return nil
}

// MarshalYAML writes plugins without options as a bare name.
func (p PluginSpec) MarshalYAML() (any, error) {
	if len(p.Options) == 0 {
		return p.Resolve, nil
	}
	type plain PluginSpec
	return plain(p), nil
}

type factory func(options map[string]any) (Plugin, error)

var builtins = map[string]factory{
	PluginImages:           newImagesPlugin,
	PluginResponsiveIframe: newIframePlugin,
	PluginAutolinkHeaders:  newAutolinkPlugin,
	PluginHighlight:        newHighlightPlugin,
	PluginCopyLinkedFiles:  newCopyFilesPlugin,
	PluginSmartypants:      newSmartypantsPlugin,
}

// decodeOptions fills the typed options struct dst from a spec's loose map.
func decodeOptions(name string, in map[string]any, dst any) error {
	if len(in) == 0 {
		return nil
	}
	if err := yamlutil.Convert(in, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPluginOptions, name, err)
	}
	return nil
}

// DefaultSpecs returns the blog's transform chain. autolink-headers must stay
// ahead of highlight so anchors are attached before code is rewritten.
func DefaultSpecs() []PluginSpec {
	return []PluginSpec{
		{Resolve: PluginImages, Options: map[string]any{"maxWidth": 590}},
		{Resolve: PluginResponsiveIframe, Options: map[string]any{"wrapperStyle": "margin-bottom: 1.0725rem"}},
		{Resolve: PluginAutolinkHeaders, Options: map[string]any{
			"className":     "anchor autolink",
			"maintainCase":  false,
			"removeAccents": true,
			"offsetY":       16,
			"icon":          defaultAnchorIcon,
		}},
		{Resolve: PluginHighlight, Options: map[string]any{"inlineCodeMarker": "÷"}},
		{Resolve: PluginCopyLinkedFiles},
		{Resolve: PluginSmartypants},
	}
}

// Chain is a validated, ordered list of plugins.
type Chain struct {
	specs   []PluginSpec
	plugins []Plugin
}

// NewChain resolves specs into plugins and validates their order.
func NewChain(specs []PluginSpec) (*Chain, error) {
	c := &Chain{specs: append([]PluginSpec(nil), specs...)}
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Resolve)
		mk, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, spec.Resolve)
		}
		p, err := mk(spec.Options)
		if err != nil {
			return nil, err
		}
		c.plugins = append(c.plugins, p)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every plugin appears once, that stages never go
// backwards, and that autolink-headers precedes highlight.
func (c *Chain) Validate() error {
	seen := make(map[string]bool, len(c.plugins))
	var last Stage
	for _, p := range c.plugins {
		if seen[p.Name()] {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name())
		}
		seen[p.Name()] = true
		if p.Stage() < last {
			return fmt.Errorf("%w: %s (%s) declared after %s stage", ErrPluginOrder, p.Name(), p.Stage(), last)
		}
		last = p.Stage()
	}
	headers, highlight := c.Index(PluginAutolinkHeaders), c.Index(PluginHighlight)
	if headers >= 0 && highlight >= 0 && headers > highlight {
		return fmt.Errorf("%w: %s must be listed before %s", ErrPluginOrder, PluginAutolinkHeaders, PluginHighlight)
	}
	return nil
}

// Index returns the position of the named plugin, or -1.
func (c *Chain) Index(name string) int {
	for i, p := range c.plugins {
		if p.Name() == name {
			return i
		}
	}
	return -1
}

// Plugins returns the resolved plugins in declaration order.
func (c *Chain) Plugins() []Plugin {
	return c.plugins
}

// Specs returns the declarations the chain was built from.
func (c *Chain) Specs() []PluginSpec {
	return c.specs
}

// Plugin returns the named plugin if the chain contains it.
func (c *Chain) Plugin(name string) (Plugin, bool) {
	if i := c.Index(name); i >= 0 {
		return c.plugins[i], true
	}
	return nil, false
}
