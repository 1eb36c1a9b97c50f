// Package vaultpath validates client-supplied vault paths and extracts
// attachment references from note bodies.
package vaultpath

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/vaultsync/internal/common"
)

// DefaultMaxDepth is the maximum number of path segments accepted when a
// Validator is built with a non-positive MaxDepth.
const DefaultMaxDepth = 30

// Validator turns untrusted paths into safe relative keys.
type Validator struct {
	MaxDepth int
}

// NewValidator returns a Validator with the given depth limit.
func NewValidator(maxDepth int) Validator {
	return Validator{MaxDepth: maxDepth}
}

// Clean validates p and returns its normalized form. Backslashes are
// treated as separators, "." and empty segments are collapsed, and any
// path that could escape the user's root is rejected. Returned errors wrap
// common.ErrInvalidPath.
func (v Validator) Clean(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalid(p, "path must not be empty")
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return "", invalid(p, "path must not start with a separator")
	}
	if filepath.IsAbs(p) || hasDriveLetter(p) {
		return "", invalid(p, "absolute paths are not allowed")
	}

	cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if cleaned == "." {
		return "", invalid(p, "path must name a file")
	}

	segments := strings.Split(cleaned, "/")
	for _, s := range segments {
		if s == ".." {
			return "", invalid(p, "parent references are not allowed")
		}
	}

	if len(segments) > v.maxDepth() {
		return "", invalid(p, fmt.Sprintf("path too deep (%d segments, max %d)", len(segments), v.maxDepth()))
	}

	return cleaned, nil
}

func (v Validator) maxDepth() int {
	if v.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return v.MaxDepth
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func invalid(p, reason string) error {
	return fmt.Errorf("%w: %q: %s", common.ErrInvalidPath, p, reason)
}
