package blog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/apipath/blog/darkmode"
	"github.com/apipath/blog/markdown"
	"github.com/apipath/blog/typography"
)

// Publisher writes the files pages link to into Dir.
type Publisher struct {
	Dir    string
	Logger *log.Logger
}

// NewPublisher returns a Publisher writing into dir.
func NewPublisher(dir string, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New("blog")
	}
	return &Publisher{Dir: dir, Logger: logger}
}

// outPath maps a public path like "/static/ab12/x.png" into Dir.
func (p *Publisher) outPath(public string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(strings.TrimPrefix(public, "/")))
}

// PublishContent copies linked files and assets and resizes images. Files
// that are already up to date are left alone.
func (p *Publisher) PublishContent(ctx context.Context, site *Site) error {
	for _, f := range site.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := copyIfNewer(f.Source, p.outPath(f.Target)); err != nil {
			return fmt.Errorf("copy linked file: %w", err)
		}
	}
	for _, img := range site.Images() {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := p.outPath(img.Target)
		if upToDate(img.Source, dst) {
			continue
		}
		if err := ResizeImage(img.Source, dst, img.MaxWidth); err != nil {
			// Unsupported images fall back to the original bytes.
			p.Logger.Warnf("resize %s: %v", img.Source, err)
			if err := copyIfNewer(img.Source, dst); err != nil {
				return err
			}
		}
	}
	for _, n := range site.Assets {
		if err := copyIfNewer(n.Path, filepath.Join(p.Dir, "assets", filepath.FromSlash(n.RelPath))); err != nil {
			return fmt.Errorf("copy asset: %w", err)
		}
	}
	return nil
}

// PublishStatic writes the stylesheets and the dark-mode script.
func (p *Publisher) PublishStatic(typo *typography.Typography, chain *markdown.Chain) error {
	if err := writeFile(filepath.Join(p.Dir, darkmode.StylesheetName), func(w io.Writer) error {
		_, err := io.WriteString(w, darkmode.CSS())
		return err
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(p.Dir, "typography.css"), func(w io.Writer) error {
		_, err := io.WriteString(w, typo.CSS())
		return err
	}); err != nil {
		return err
	}
	if hl, ok := chain.Plugin(markdown.PluginHighlight); ok {
		if sheet, ok := hl.(markdown.StyleSheet); ok {
			if err := writeFile(filepath.Join(p.Dir, "chroma.css"), sheet.WriteCSS); err != nil {
				return err
			}
		}
	}
	return writeFile(filepath.Join(p.Dir, filepath.FromSlash(DarkModeScript)), func(w io.Writer) error {
		_, err := w.Write(darkmode.Script)
		return err
	})
}

// PublishManifest writes manifest.webmanifest and its icons. A missing
// icon source only drops the icons.
func (p *Publisher) PublishManifest(cfg Config) error {
	var icons []ManifestIcon
	if cfg.Manifest.Icon != "" {
		var err error
		icons, err = GenerateIcons(cfg.Manifest.Icon, p.Dir, cfg.RootPath(), cfg.Manifest.IconSizes)
		if err != nil {
			p.Logger.Warnf("manifest icons: %v", err)
			icons = nil
		}
	}
	m := NewWebManifest(cfg, icons)
	return writeFile(filepath.Join(p.Dir, "manifest.webmanifest"), func(w io.Writer) error {
		_, err := m.WriteTo(w)
		return err
	})
}

// writeFile creates path and its parents and fills it through fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func upToDate(src, dst string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	return !di.ModTime().Before(si.ModTime())
}

func copyIfNewer(src, dst string) error {
	if upToDate(src, dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFile(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}
