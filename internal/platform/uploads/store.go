// Package uploads keeps admin supplied images on local disk and serves them
// back under a public URL prefix.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/campusevents/campusevents/internal/shared"
)

// DefaultMaxBytes caps an upload when Options.MaxBytes is unset.
const DefaultMaxBytes = 5 << 20

// Upload errors.
var (
	ErrTooLarge        = fmt.Errorf("%w: file too large", shared.ErrValidation)
	ErrUnsupportedType = fmt.Errorf("%w: only jpeg, png, gif and webp images are accepted", shared.ErrValidation)
	ErrMissingFile     = fmt.Errorf("%w: missing file", shared.ErrValidation)
)

var imageTypes = []struct {
	mime string
	ext  string
}{
	{"image/jpeg", ".jpg"},
	{"image/png", ".png"},
	{"image/gif", ".gif"},
	{"image/webp", ".webp"},
}

// Options configures the Store.
type Options struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

// Store writes images into a directory.
type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// New prepares the upload directory.
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("uploads: directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Store{dir: opts.Dir, baseURL: strings.TrimRight(opts.BaseURL, "/"), maxBytes: opts.MaxBytes}, nil
}

// Save sniffs r, stores it as prefix+uuid+ext and returns its public URL.
func (s *Store) Save(prefix string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("uploads: read: %w", err)
	}
	if len(data) == 0 {
		return "", ErrMissingFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	detected := mimetype.Detect(data)
	ext := ""
	for _, t := range imageTypes {
		if detected.Is(t.mime) {
			ext = t.ext
			break
		}
	}
	if ext == "" {
		return "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, detected.String())
	}
	name := prefix + uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("uploads: write: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// SaveFromRequest stores the multipart file named field.
func (s *Store) SaveFromRequest(r *http.Request, field, prefix string) (string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.maxBytes+1<<20)
	file, _, err := r.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", ErrTooLarge
		}
		return "", fmt.Errorf("%w: %s", ErrMissingFile, field)
	}
	defer file.Close()
	return s.Save(prefix, file)
}

// Remove deletes a file previously returned by Save. URLs the store did not
// issue are ignored.
func (s *Store) Remove(url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Handler serves stored files without directory listings.
func (s *Store) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
