// Package local implements the on-disk page store shared by the scrape and
// build pipelines.
package local

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const pageExt = ".html"

// Config captures the parameters for the page store.
type Config struct {
	// BaseDir is the directory holding one HTML file per scraped page.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// PageStore writes and reads scraped pages on the local filesystem.
type PageStore struct {
	baseDir string
}

// New ensures the storage location exists and is writable, then returns a store.
func New(cfg Config) (*PageStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &PageStore{baseDir: cfg.BaseDir}, nil
}

// Open returns a read-only view of an existing page directory.
func Open(cfg Config) (*PageStore, error) {
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}
	return &PageStore{baseDir: cfg.BaseDir}, nil
}

// Dir returns the store's root.
func (s *PageStore) Dir() string {
	return s.baseDir
}

// FileName derives the stored name for a page URL from its final path segment.
func FileName(rawURL string) (string, error) {
	var segment string
	if u, err := url.Parse(rawURL); err == nil {
		if p := strings.TrimRight(u.Path, "/"); p != "" {
			segment = path.Base(p)
		}
	} else {
		segment = path.Base(strings.TrimRight(rawURL, "/"))
	}
	if segment == "" || segment == "." || segment == "/" || segment == ".." {
		return "", fmt.Errorf("no path segment in %q", rawURL)
	}
	return segment + pageExt, nil
}

// Save writes html for rawURL and returns the written path.
func (s *PageStore) Save(ctx context.Context, rawURL string, html []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if len(html) == 0 {
		return "", fmt.Errorf("empty page body for %s", rawURL)
	}
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.baseDir, name)
	cleanBaseDir := filepath.Clean(s.baseDir)
	if filepath.Dir(filepath.Clean(fullPath)) != cleanBaseDir {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.WriteFile(fullPath, html, 0o600); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fullPath, nil
}

// List returns the stored page names in lexical order.
func (s *PageStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read page dir %s: %w", s.baseDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != pageExt {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load parses a stored page into a queryable document.
func (s *PageStore) Load(name string) (*goquery.Document, error) {
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid page name %q", name)
	}
	// #nosec G304 -- name is confined to the store directory above.
	data, err := os.ReadFile(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", name, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", name, err)
	}
	return doc, nil
}
