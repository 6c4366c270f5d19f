package markdown

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func newComponentConverter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	chain, err := NewChain(DefaultSpecs())
	if err != nil {
		t.Fatal(err)
	}
	box := func(attrs map[string]string, children string) (string, error) {
		if attrs["image"] == "" {
			return "", errors.New("image is required")
		}
		return fmt.Sprintf(`<div class="box" data-image="%s">%s</div>`, attrs["image"], children), nil
	}
	return NewConverter(chain, append(opts, WithComponent("Box", box))...)
}

func TestComponentBlock(t *testing.T) {
	c := newComponentConverter(t)
	dir := filepath.Join("content", "blog", "hello")
	src := "Before.\n\n<Box image=\"./chart.png\">\n  Monthly\n  visitors\n</Box>\n\nAfter.\n"
	res := convert(t, c, Document{Source: []byte(src), Dir: dir})

	if len(res.Files) != 1 || res.Files[0].Source != filepath.Join(dir, "chart.png") {
		t.Fatalf("Files = %+v", res.Files)
	}
	want := `<div class="box" data-image="` + res.Files[0].Target + `">Monthly visitors</div>`
	if !strings.Contains(res.HTML, want) {
		t.Errorf("HTML missing %q:\n%s", want, res.HTML)
	}
	if strings.Contains(res.HTML, "<Box") || strings.Contains(res.HTML, "&lt;Box") {
		t.Errorf("raw tag left in output:\n%s", res.HTML)
	}
	if !strings.Contains(res.HTML, "<p>Before.</p>") || !strings.Contains(res.HTML, "<p>After.</p>") {
		t.Errorf("surrounding paragraphs lost:\n%s", res.HTML)
	}
}

func TestComponentInlineForms(t *testing.T) {
	c := newComponentConverter(t)
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"paragraph", `<Box image="https://example.com/a.png">Caption</Box>`, `data-image="https://example.com/a.png">Caption</div>`},
		{"self closing", `<Box image='https://example.com/b.png' />`, `data-image="https://example.com/b.png"></div>`},
		{"jsx string", `<Box image={"https://example.com/c.png"}>C</Box>`, `data-image="https://example.com/c.png">C</div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := convert(t, c, Document{Source: []byte(tt.src + "\n")})
			if !strings.Contains(res.HTML, tt.want) {
				t.Errorf("HTML missing %q:\n%s", tt.want, res.HTML)
			}
		})
	}
}

func TestComponentWithBasePath(t *testing.T) {
	c := newComponentConverter(t, WithBasePath("/blog"))
	dir := filepath.Join("content", "blog", "hello")
	res := convert(t, c, Document{Source: []byte("<Box image=\"chart.png\">x</Box>\n"), Dir: dir})
	if len(res.Files) != 1 {
		t.Fatalf("Files = %+v", res.Files)
	}
	if !strings.Contains(res.HTML, `data-image="/blog`+res.Files[0].Target+`"`) {
		t.Errorf("component URL should carry the base path:\n%s", res.HTML)
	}
}

func TestComponentError(t *testing.T) {
	c := newComponentConverter(t)
	_, err := c.Convert(context.Background(), Document{Source: []byte("<Box>no image</Box>\n")})
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("err = %v, want ErrConversion", err)
	}
	if !strings.Contains(err.Error(), "Box") {
		t.Errorf("error should name the component: %v", err)
	}
}

func TestUnknownTagsUntouched(t *testing.T) {
	c := newComponentConverter(t)
	res := convert(t, c, Document{Source: []byte("<Boxed image=\"x.png\">y</Boxed>\n")})
	if strings.Contains(res.HTML, `class="box"`) {
		t.Errorf("only registered names are components:\n%s", res.HTML)
	}
}
