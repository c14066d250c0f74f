package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FileStore saves recipe images to disk under a base directory and hands out
// the public URL they are served from.
type FileStore struct {
	basePath  string
	urlPrefix string
}

// NewFileStore creates the base directory if missing. urlPrefix is the route
// the directory is served under, e.g. "/uploads/recipe-images".
func NewFileStore(basePath, urlPrefix string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{
		basePath:  basePath,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

func (f *FileStore) BasePath() string { return f.basePath }

func (f *FileStore) URLPrefix() string { return f.urlPrefix }

// Save writes r under a fresh name keeping the original extension and
// returns its public URL.
func (f *FileStore) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}

	name := uuid.NewString() + ext
	target := filepath.Join(f.basePath, name)

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	return path.Join(f.urlPrefix, name), nil
}

// Delete removes the file behind a URL returned by Save. URLs this store did
// not issue are ignored.
func (f *FileStore) Delete(url string) error {
	if !strings.HasPrefix(url, f.urlPrefix+"/") {
		return nil
	}
	name := safeFilename(strings.TrimPrefix(url, f.urlPrefix+"/"))
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(f.basePath, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func safeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
