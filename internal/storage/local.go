package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore keeps artifacts on disk under Dir; gin serves the same
// directory at /uploads/images.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Stage(_ context.Context, r io.Reader, contentType string) (string, error) {
	ext, ok := extByType[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	name := uuid.NewString() + "." + ext

	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return name, nil
}

func (s *LocalStore) Release(_ context.Context, ref string) error {
	// refs are bare filenames; Base strips any traversal attempt
	return os.Remove(filepath.Join(s.Dir, filepath.Base(ref)))
}

func (s *LocalStore) URL(ref string) string {
	return fmt.Sprintf("/uploads/images/%s", ref)
}

var _ ArtifactStore = (*LocalStore)(nil)
