// Package blob stores note and attachment bytes keyed by (user, path).
//
// Stores never interpret the bytes they hold. Save returns the SHA-256
// digest of exactly what was written, which callers persist as the record's
// content hash.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vaultsync/internal/common"
)

// Store is a per-user key/value store for content bytes.
type Store interface {
	// Save writes data under key, replacing any previous content, and
	// returns its digest.
	Save(ctx context.Context, userID, key string, data []byte) (string, error)
	// Read returns the bytes under key or common.ErrorNotFound.
	Read(ctx context.Context, userID, key string) ([]byte, error)
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, userID, key string) (bool, error)
	// Size returns the stored length or common.ErrorNotFound.
	Size(ctx context.Context, userID, key string) (int64, error)
	// DeleteAll removes every blob of the user.
	DeleteAll(ctx context.Context, userID string) error
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// checkUser rejects user ids that could address another user's space.
func checkUser(userID string) error {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return fmt.Errorf("%w: invalid user id %q", common.ErrorValidation, userID)
	}
	return nil
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: invalid blob key %q", common.ErrInvalidPath, key)
	}
	for _, s := range strings.Split(key, "/") {
		if s == ".." {
			return fmt.Errorf("%w: invalid blob key %q", common.ErrInvalidPath, key)
		}
	}
	return nil
}
