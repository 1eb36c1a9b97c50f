package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/blob"
	"github.com/dmitrijs2005/vaultsync/internal/vaultpath"
)

// ItemResult is the outcome of one pushed item. Path is reported exactly as
// the client sent it.
type ItemResult struct {
	Path string
	Err  error
}

// Partition splits results into successful and failed paths, preserving
// input order. Every result lands in exactly one list.
func Partition(results []ItemResult) (success, failed []string) {
	success = []string{}
	failed = []string{}
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Path)
			continue
		}
		success = append(success, r.Path)
	}
	return success, failed
}

// applyBlob makes the blob store agree with a record that was just written:
// it deletes the blob of a tombstone or saves data and checks the digest.
func applyBlob(ctx context.Context, store blob.Store, userID, key string, data []byte, deleted bool, digest string) error {
	if deleted {
		if _, err := store.Delete(ctx, userID, key); err != nil {
			return itemError("delete", key, err)
		}
		return nil
	}

	saved, err := store.Save(ctx, userID, key, data)
	if err != nil {
		return itemError("save", key, err)
	}
	if saved != digest {
		return itemError("save", key, fmt.Errorf("stored digest %s, expected %s", saved, digest))
	}
	return nil
}

func itemError(op, path string, err error) error {
	return fmt.Errorf("%s %q: %w", op, path, err)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// spellings maps a stored (canonical) path back to the spelling a client
// used for it.
type spellings map[string]string

// client returns the client's spelling of p, or p itself for paths the
// client did not mention.
func (sp spellings) client(p string) string {
	if c, ok := sp[p]; ok {
		return c
	}
	return p
}

func (sp spellings) clientPaths(paths []string) []string {
	for i, p := range paths {
		paths[i] = sp.client(p)
	}
	return paths
}

// canonicalize returns a copy of items with every valid path rewritten to
// its stored form. Invalid paths are left as sent; they never match a
// record. The first spelling seen for a stored path wins.
func canonicalize[T any](v vaultpath.Validator, items []T, pathOf func(*T) *string) ([]T, spellings) {
	out := make([]T, len(items))
	copy(out, items)
	sp := make(spellings, len(items))

	for i := range out {
		p := pathOf(&out[i])
		cleaned, err := v.Clean(*p)
		if err != nil {
			continue
		}
		if _, seen := sp[cleaned]; !seen {
			sp[cleaned] = *p
		}
		*p = cleaned
	}
	return out, sp
}
