// Package blob stores uploaded files in a local directory and serves them back by URL.
package blob

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes blobs under dir and builds URLs under baseURL
type Store struct {
	dir     string
	baseURL string
}

// NewStore creates the directory if needed
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload saves data under a fresh name derived from name and returns its URL
func (s *Store) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to store empty blob")
	}

	filename := uuid.NewString() + extension(name, contentType)
	path := filepath.Join(s.dir, filename)

	// write to a temp file first so readers never see a partial blob
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	return s.baseURL + "/" + filename, nil
}

// Delete removes a stored blob by filename
func (s *Store) Delete(filename string) error {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

// List returns the stored filenames
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && !strings.HasSuffix(e.Name(), ".tmp") {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// Handler serves stored blobs
func (s *Store) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}

func extension(name, contentType string) string {
	if ext := filepath.Ext(name); ext != "" {
		return strings.ToLower(ext)
	}
	switch {
	case strings.HasPrefix(contentType, "audio/webm"):
		return ".webm"
	case strings.HasPrefix(contentType, "audio/wav"):
		return ".wav"
	case strings.HasPrefix(contentType, "audio/ogg"):
		return ".ogg"
	default:
		return ".bin"
	}
}
