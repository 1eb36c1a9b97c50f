package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/filex"
)

// FSStore lays blobs out as <root>/<user_id>/<key> on the local filesystem.
type FSStore struct {
	root string
}

// NewFSStore creates root if needed and returns a store rooted there.
func NewFSStore(root string) (*FSStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("blob root: %w", err)
	}
	return &FSStore{root: abs}, nil
}

// Root returns the absolute storage root.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) userDir(userID string) (string, error) {
	if err := checkUser(userID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, userID), nil
}

func (s *FSStore) resolve(userID, key string) (string, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return "", err
	}
	if err := checkKey(key); err != nil {
		return "", err
	}

	full := filepath.Join(dir, filepath.FromSlash(key))
	if full == dir || !filex.IsWithin(dir, full) {
		return "", fmt.Errorf("%w: key %q escapes user root", common.ErrInvalidPath, key)
	}
	return full, nil
}

func (s *FSStore) Save(_ context.Context, userID, key string, data []byte) (string, error) {
	name, err := s.resolve(userID, key)
	if err != nil {
		return "", err
	}
	if err := filex.WriteFileAtomic(name, data, 0o640); err != nil {
		return "", fmt.Errorf("save blob: %w", err)
	}
	return Digest(data), nil
}

func (s *FSStore) Read(_ context.Context, userID, key string) ([]byte, error) {
	name, err := s.resolve(userID, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (s *FSStore) Delete(_ context.Context, userID, key string) (bool, error) {
	name, err := s.resolve(userID, key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete blob: %w", err)
	}
	return true, nil
}

func (s *FSStore) Size(_ context.Context, userID, key string) (int64, error) {
	name, err := s.resolve(userID, key)
	if err != nil {
		return 0, err
	}
	fi, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("stat blob: %w", err)
	}
	if fi.IsDir() {
		return 0, common.ErrorNotFound
	}
	return fi.Size(), nil
}

func (s *FSStore) DeleteAll(_ context.Context, userID string) error {
	dir, err := s.userDir(userID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete user blobs: %w", err)
	}
	return nil
}
