package blog

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const jpegQuality = 80

// decodeImage reads an image file.
func decodeImage(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, format, nil
}

// scaleToWidth returns img scaled down to at most maxWidth pixels wide.
// Narrower images are returned unchanged.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 || w <= maxWidth {
		return img
	}
	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// ResizeImage writes src to dst scaled down to maxWidth. The output format
// follows dst's extension.
func ResizeImage(src, dst string, maxWidth int) error {
	img, _, err := decodeImage(src)
	if err != nil {
		return err
	}
	return writeImage(dst, scaleToWidth(img, maxWidth))
}

func writeImage(dst string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := encodeImage(f, dst, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return f.Close()
}

func encodeImage(w io.Writer, name string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	default:
		return png.Encode(w, img)
	}
}

// ManifestIcon is an entry of the web manifest's icon list.
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// GenerateIcons writes square PNG icons of each size from src into
// dir/icons and returns their manifest entries. Non-square sources are
// centred on a transparent canvas.
func GenerateIcons(src, dir, root string, sizes []int) ([]ManifestIcon, error) {
	img, _, err := decodeImage(src)
	if err != nil {
		return nil, err
	}
	icons := make([]ManifestIcon, 0, len(sizes))
	for _, size := range sizes {
		if err := writeImage(filepath.Join(dir, "icons", iconName(size)), squareIcon(img, size)); err != nil {
			return nil, err
		}
		icons = append(icons, iconEntry(root, size))
	}
	return icons, nil
}

// ExistingIcons returns the entries for icons already generated under dir.
func ExistingIcons(dir, root string, sizes []int) []ManifestIcon {
	var icons []ManifestIcon
	for _, size := range sizes {
		if _, err := os.Stat(filepath.Join(dir, "icons", iconName(size))); err == nil {
			icons = append(icons, iconEntry(root, size))
		}
	}
	return icons
}

func iconName(size int) string {
	return fmt.Sprintf("icon-%dx%d.png", size, size)
}

func iconEntry(root string, size int) ManifestIcon {
	return ManifestIcon{
		Src:   strings.TrimSuffix(root, "/") + "/icons/" + iconName(size),
		Sizes: fmt.Sprintf("%dx%d", size, size),
		Type:  "image/png",
	}
}

func squareIcon(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := size, size
	if w > h {
		dh = h * size / w
	} else if h > w {
		dw = w * size / h
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	x0, y0 := (size-dw)/2, (size-dh)/2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), img, b, draw.Over, nil)
	return dst
}
