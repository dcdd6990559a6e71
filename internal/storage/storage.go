package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the blob store for project file attachments. Implementations
// persist content under opaque keys and derive public URLs on read.
type Store interface {
	Save(key string, r io.Reader) error
	PublicURL(key string) string
	Delete(key string) error
	ListOlderThan(cutoff time.Time) ([]string, error)
}

// DiskStore keeps blobs on the local filesystem under a root directory.
// Keys are slash-separated relative paths.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// BuildKey derives a fresh storage key for an upload: the owner's id
// followed by a unique identifier and the original file name.
func BuildKey(userID uint, filename string) string {
	return fmt.Sprintf("%d/%s_%s", userID, uuid.NewString(), path.Base(filename))
}

func (s *DiskStore) Save(key string, r io.Reader) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(p)
		return err
	}
	return nil
}

// PublicURL resolves a stored key to the URL it is served from.
func (s *DiskStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

func (s *DiskStore) Delete(key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListOlderThan returns the keys of all blobs last modified before
// cutoff. Used by the orphan sweep.
func (s *DiskStore) ListOlderThan(cutoff time.Time) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			rel, err := filepath.Rel(s.dir, p)
			if err != nil {
				return err
			}
			keys = append(keys, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Dir returns the root directory blobs are written under.
func (s *DiskStore) Dir() string { return s.dir }

// resolve maps a key to an absolute path, rejecting keys that would
// escape the root directory.
func (s *DiskStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
