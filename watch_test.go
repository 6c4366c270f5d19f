package blog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
)

func TestWatchSources(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "first/index.md"), []byte("# First"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- WatchSources(ctx, []ContentSource{{Name: SourceBlog, Path: dir}}, 20*time.Millisecond, log.New("test"), func() {
			changed <- struct{}{}
		})
	}()
	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)

	mustWrite(t, filepath.Join(dir, "first/index.md"), []byte("# First, edited"))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for an edited post")
	}

	if err := os.MkdirAll(filepath.Join(dir, "second"), 0o755); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for a new directory")
	}
	time.Sleep(100 * time.Millisecond)
	mustWrite(t, filepath.Join(dir, "second/index.md"), []byte("# Second"))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported inside a new directory")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchSources returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WatchSources did not stop on cancel")
	}
}

func TestWatchSourcesMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	err := WatchSources(context.Background(), []ContentSource{{Name: SourceBlog, Path: missing}}, time.Millisecond, log.New("test"), func() {})
	if !errors.Is(err, ErrSourceMissing) {
		t.Errorf("err = %v, want ErrSourceMissing", err)
	}
}

func TestIgnoreEvent(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"post/index.md", false},
		{"post/.index.md.swp", true},
		{"post/index.md~", true},
		{"post/index.md.tmp", true},
		{"post/4913.swp", true},
	}
	for _, tt := range tests {
		if got := ignoreEvent(tt.name); got != tt.want {
			t.Errorf("ignoreEvent(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
