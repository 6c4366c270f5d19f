// Package scaffold creates a new blog content tree from embedded templates.
package scaffold

import (
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"golang.org/x/image/draw"
)

// Templates contains the scaffold files. Files use text/template syntax
// and a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// ErrExists is returned when the target directory already exists.
var ErrExists = errors.New("directory already exists")

// Data holds the template variables passed to every scaffold template.
type Data struct {
	SiteName      string
	Author        string
	SiteURL       string
	Twitter       string
	GitHub        string
	Date          string
	SessionSecret string
}

// NewData fills Data for a blog in dir.
func NewData(dir string) (Data, error) {
	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return Data{}, fmt.Errorf("generate session secret: %w", err)
	}
	name := toTitle(filepath.Base(dir))
	return Data{
		SiteName:      name,
		Author:        name,
		SiteURL:       "http://localhost:8000",
		Twitter:       "twitter",
		GitHub:        "github",
		Date:          time.Now().Format("2006-01-02"),
		SessionSecret: hex.EncodeToString(secret),
	}, nil
}

// Create writes the scaffold into dir, which must not exist. It returns
// the paths it created, relative to dir.
func Create(dir string, data Data) ([]string, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, dir)
	}

	const root = "templates"
	var created []string
	err := fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dir, outputName(rel))
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		if err := writeFile(out, func(w io.Writer) error { return tmpl.Execute(w, data) }); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		created = append(created, outputName(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logo := filepath.Join("content", "assets", "logo.png")
	if err := writeFile(filepath.Join(dir, logo), WriteLogo); err != nil {
		return nil, fmt.Errorf("write logo: %w", err)
	}
	return append(created, logo), nil
}

// outputName strips .tmpl and restores dotfile names.
func outputName(rel string) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	switch filepath.Base(rel) {
	case "dotenv":
		return filepath.Join(filepath.Dir(rel), ".env.example")
	case "gitignore":
		return filepath.Join(filepath.Dir(rel), ".gitignore")
	}
	return rel
}

// logoColor is the manifest theme colour.
var logoColor = color.NRGBA{R: 0x66, G: 0x33, B: 0x99, A: 0xff}

// WriteLogo writes a 512x512 PNG used as the manifest icon source.
func WriteLogo(w io.Writer) error {
	img := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	draw.Draw(img, img.Bounds(), image.NewUniform(logoColor), image.Point{}, draw.Src)
	inner := image.Rect(160, 160, 352, 352)
	draw.Draw(img, inner, image.NewUniform(color.White), image.Point{}, draw.Src)
	return png.Encode(w, img)
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// toTitle converts a hyphenated name to title case: "my-blog" -> "My Blog".
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
