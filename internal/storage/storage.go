// Package storage keeps rendered report documents and hands back a URL to reach them.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// DocumentStore stores a rendered document under key and returns a URL for it.
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("document key is required")
	}
	return key, nil
}
