package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageNotFound    = errors.New("image not found")
)

// imageContentTypes maps the accepted extensions to the served content type.
// Matching is exact: ".PNG" is not accepted.
var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ImageStore keeps poll images as flat files named <uuid><ext> under a directory
type ImageStore struct {
	dir string
}

// NewImageStore creates the directory if needed
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir returns the storage directory
func (s *ImageStore) Dir() string {
	return s.dir
}

// ImageExtension picks the extension of an upload. A filename wins; without
// one the extension comes from an image/<subtype> MIME type. The result must
// be one of .png, .jpg, .jpeg.
func ImageExtension(filename, mimeType string) (string, error) {
	var ext string
	if filename != "" {
		ext = filepath.Ext(filename)
	} else {
		parts := strings.Split(strings.ToLower(mimeType), "/")
		if len(parts) != 2 || parts[0] != "image" {
			return "", ErrUnsupportedImage
		}
		ext = "." + parts[1]
	}

	if _, ok := imageContentTypes[ext]; !ok {
		return "", ErrUnsupportedImage
	}
	return ext, nil
}

// Save streams r into a new file with a random name and returns that name
func (s *ImageStore) Save(r io.Reader, ext string) (string, error) {
	if _, ok := imageContentTypes[ext]; !ok {
		return "", ErrUnsupportedImage
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return name, nil
}

// Remove deletes an image. A file that is already gone is not an error.
func (s *ImageStore) Remove(name string) error {
	path, ok := s.path(name)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image %s: %w", name, err)
	}
	return nil
}

// Read returns the bytes and content type of an image. Unknown names,
// missing files and unsupported extensions all give ErrImageNotFound.
func (s *ImageStore) Read(name string) ([]byte, string, error) {
	path, ok := s.path(name)
	if !ok {
		return nil, "", ErrImageNotFound
	}

	contentType, ok := imageContentTypes[filepath.Ext(name)]
	if !ok {
		return nil, "", ErrImageNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", fmt.Errorf("failed to read image %s: %w", name, err)
	}

	return data, contentType, nil
}

// path resolves name inside the store; only bare file names are accepted
func (s *ImageStore) path(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}
