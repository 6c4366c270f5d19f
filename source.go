package blog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Well-known source names.
const (
	SourceBlog   = "blog"
	SourceAssets = "assets"
)

// ContentSource maps a directory to a named collection of files.
type ContentSource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Node is one file found in a source.
type Node struct {
	Source  string // source name
	Path    string // filesystem path
	RelPath string // slash-separated, relative to the source root
	Ext     string // lower-cased extension including the dot
	ModTime time.Time
}

// Load walks the source directory. Hidden files and directories are skipped.
// A missing directory is ErrSourceMissing.
func (s ContentSource) Load(ctx context.Context) ([]Node, error) {
	info, err := os.Stat(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrSourceMissing, s.Name, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.Name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, s.Path)
	}

	var nodes []Node
	err = filepath.WalkDir(s.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != s.Path && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.Path, path)
		if err != nil {
			return err
		}
		nodes = append(nodes, Node{
			Source:  s.Name,
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Ext:     strings.ToLower(filepath.Ext(path)),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.Name, err)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].RelPath < nodes[j].RelPath })
	return nodes, nil
}
