package scaffold

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-blog")
	data, err := NewData(dir)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	if data.SiteName != "My Blog" {
		t.Errorf("SiteName = %q, want %q", data.SiteName, "My Blog")
	}
	if len(data.SessionSecret) != 48 {
		t.Errorf("SessionSecret length = %d, want 48", len(data.SessionSecret))
	}

	created, err := Create(dir, data)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	want := []string{
		"blog.yaml",
		".env.example",
		".gitignore",
		filepath.Join("content", "blog", "hello-world", "index.md"),
		filepath.Join("content", "assets", "logo.png"),
	}
	for _, rel := range want {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("missing %s", rel)
		}
		found := false
		for _, c := range created {
			if c == rel {
				found = true
			}
		}
		if !found {
			t.Errorf("Create did not report %s", rel)
		}
	}

	cfg, err := os.ReadFile(filepath.Join(dir, "blog.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cfg), "title: My Blog") {
		t.Errorf("blog.yaml not rendered:\n%s", cfg)
	}
	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(env), "BLOG_SESSION_SECRET="+data.SessionSecret) {
		t.Error(".env.example should carry the generated secret")
	}
	post, err := os.ReadFile(filepath.Join(dir, "content", "blog", "hello-world", "index.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(post), `date: "`+data.Date+`"`) {
		t.Error("post should be dated today")
	}
}

func TestCreateExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := Create(dir, Data{}); !errors.Is(err, ErrExists) {
		t.Errorf("Create error = %v, want ErrExists", err)
	}
}

func TestWriteLogo(t *testing.T) {
	var buf strings.Builder
	if err := WriteLogo(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 512 || b.Dy() != 512 {
		t.Errorf("size = %dx%d, want 512x512", b.Dx(), b.Dy())
	}
	r, g, bl, _ := img.At(0, 0).RGBA()
	if r>>8 != 0x66 || g>>8 != 0x33 || bl>>8 != 0x99 {
		t.Errorf("corner colour = %x %x %x", r>>8, g>>8, bl>>8)
	}
}

func TestToTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"my-blog", "My Blog"},
		{"blog", "Blog"},
		{"a--b", "A  B"},
	}
	for _, tt := range tests {
		if got := toTitle(tt.in); got != tt.want {
			t.Errorf("toTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
