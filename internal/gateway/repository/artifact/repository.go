package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store keeps published export files grouped by owner (a project or session id).
type Store interface {
	Put(ctx context.Context, owner, name string, content []byte, contentType string) error
	Get(ctx context.Context, owner, name string) ([]byte, error)
	// URL returns a time-limited download link, or "" when the store cannot serve one.
	URL(ctx context.Context, owner, name string) (string, error)
	List(ctx context.Context, owner string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

func normalizeKey(owner, name string) (string, string, error) {
	owner = strings.Trim(strings.TrimSpace(owner), "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if owner == "" {
		return "", "", fmt.Errorf("owner is required")
	}
	if name == "" {
		return "", "", fmt.Errorf("name is required")
	}
	if strings.Contains(name, "..") {
		return "", "", fmt.Errorf("invalid artifact name %q", name)
	}
	return owner, name, nil
}

func objectKey(owner, name string) string {
	return owner + "/" + name
}
